package export

import (
	"context"
	"fmt"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

// Limits bounds one extraction. For every field, zero disables the limit.
type Limits struct {
	// MaxLevel is the maximum BFS depth; nodes farther than MaxLevel hops
	// from the root are never admitted. Zero keeps the root alone.
	MaxLevel int

	// MaxNodes is the global node budget. Extraction stops entirely, mid-wave
	// if need be, once the arena holds this many nodes.
	MaxNodes int

	// MaxSiblings caps how many newly discovered children each parent admits
	// into the next wave. The counter resets per parent per wave.
	MaxSiblings int
}

// Extract performs a bounded breadth-first traversal from root and returns the
// arena of admitted nodes keyed by id. The root is always present, whatever
// its type.
//
// Admission rules for a discovered endpoint: it must not already be in the
// arena (this also breaks cycles), it must carry a declared type, and that
// type must not be institution. Untyped wave nodes are never expanded.
//
// The result is deterministic for a fixed snapshot: truncation under
// MaxSiblings follows the relationship enumeration order of the adapter.
func Extract(ctx context.Context, snap store.Snapshot, root *model.GraphNode, limits Limits) (map[int64]*model.GraphNode, error) {
	arena := map[int64]*model.GraphNode{root.ID: root}
	wave := []*model.GraphNode{root}

	for depth := 0; depth < limits.MaxLevel && len(wave) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Children admitted here are only candidates for further expansion;
		// arena admission happens regardless of the next wave being processed.
		lastWave := depth+1 == limits.MaxLevel

		var next []*model.GraphNode
		for _, parent := range wave {
			if parent.Type() == "" {
				continue
			}

			neighbors, err := snap.Neighbors(ctx, parent.ID)
			if err != nil {
				return nil, fmt.Errorf("expanding node %d: %w", parent.ID, err)
			}

			admitted := 0
			for _, nb := range neighbors {
				other := nb.Other
				if _, seen := arena[other.ID]; seen {
					continue
				}
				t := other.Type()
				if t == "" || t == model.TypeInstitution {
					continue
				}

				arena[other.ID] = other
				if limits.MaxNodes > 0 && len(arena) >= limits.MaxNodes {
					return arena, nil
				}

				if !lastWave && (limits.MaxSiblings <= 0 || admitted < limits.MaxSiblings) {
					next = append(next, other)
					admitted++
				}
			}
		}
		wave = next
	}

	return arena, nil
}
