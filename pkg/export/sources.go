// Package export implements the bounded neighborhood extraction pipeline:
// eligibility filtering, wave-limited traversal, document assembly, document
// naming, and the run orchestrator that ties them to a store and sinks.
package export

import (
	"context"
	"fmt"
	"slices"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

// SourceRule describes one exportable label category: which property names the
// exported document, and optional restrictions a node must satisfy.
type SourceRule struct {
	// Label is the node label this rule applies to.
	Label string `koanf:"label"`

	// Key is the identifying property whose value names the document.
	Key string `koanf:"key"`

	// Types restricts eligible nodes to these declared type values.
	// Empty means unrestricted.
	Types []string `koanf:"types"`

	// LinkedSources requires at least one neighbor carrying one of these
	// labels. Empty means unrestricted.
	LinkedSources []string `koanf:"linked_sources"`
}

// SourceSet is the full per-label configuration for a run, ordered by label so
// naming output is reproducible.
type SourceSet []SourceRule

// NewSourceSet builds a sorted set from per-label rules.
func NewSourceSet(rules map[string]SourceRule) SourceSet {
	set := make(SourceSet, 0, len(rules))
	for label, rule := range rules {
		rule.Label = label
		set = append(set, rule)
	}
	slices.SortFunc(set, func(a, b SourceRule) int {
		if a.Label < b.Label {
			return -1
		}
		if a.Label > b.Label {
			return 1
		}
		return 0
	})
	return set
}

// Validate rejects rules that could never match a node.
func (s SourceSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("no source rules configured")
	}
	for _, rule := range s {
		if rule.Label == "" {
			return fmt.Errorf("source rule with empty label")
		}
		if rule.Key == "" {
			return fmt.Errorf("source %s: identifying property key is required", rule.Label)
		}
	}
	return nil
}

// Eligible reports whether a node qualifies as an export root: some rule's
// label matches, the identifying property is present, and the optional type
// and linked-source restrictions hold. Rules combine disjunctively.
//
// The linked-source check is the only part that touches the store; it is
// evaluated lazily and the neighbor list is fetched at most once per node.
func Eligible(ctx context.Context, snap store.Snapshot, node *model.GraphNode, sources SourceSet) (bool, error) {
	var neighbors []store.Neighbor
	neighborsLoaded := false

	for _, rule := range sources {
		if !node.HasLabel(rule.Label) || !node.HasProperty(rule.Key) {
			continue
		}
		if !hasType(node, rule.Types) {
			continue
		}
		if len(rule.LinkedSources) == 0 {
			return true, nil
		}

		if !neighborsLoaded {
			var err error
			neighbors, err = snap.Neighbors(ctx, node.ID)
			if err != nil {
				return false, fmt.Errorf("checking linked sources of node %d: %w", node.ID, err)
			}
			neighborsLoaded = true
		}
		if hasLinkedSource(neighbors, rule.LinkedSources) {
			return true, nil
		}
	}
	return false, nil
}

// hasType checks the declared type restriction; an empty set is unrestricted.
func hasType(node *model.GraphNode, types []string) bool {
	if len(types) == 0 {
		return true
	}
	return slices.Contains(types, node.Type())
}

// hasLinkedSource checks for any neighbor carrying one of the wanted labels,
// short-circuiting on the first match.
func hasLinkedSource(neighbors []store.Neighbor, labels []string) bool {
	for _, nb := range neighbors {
		for _, label := range labels {
			if nb.Other.HasLabel(label) {
				return true
			}
		}
	}
	return false
}
