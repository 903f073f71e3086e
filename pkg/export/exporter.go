package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rdswitchboard/graph-exporter/pkg/logging"
	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/sink"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

// Exporter drives one run: scan candidates, extract, assemble, and dispatch.
// Roots are independent, so they are processed by a bounded worker pool over a
// single shared snapshot.
type Exporter struct {
	snap    store.Snapshot
	sources SourceSet
	limits  Limits
	sink    *sink.Dispatcher
	workers int
}

// New creates an exporter. workers <= 0 selects one worker per CPU.
func New(snap store.Snapshot, sources SourceSet, limits Limits, dispatcher *sink.Dispatcher, workers int) *Exporter {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Exporter{
		snap:    snap,
		sources: sources,
		limits:  limits,
		sink:    dispatcher,
		workers: workers,
	}
}

// Summary is the outcome of one run. All counts are per root node except
// Documents, which counts written keys (a root can export under several
// names).
type Summary struct {
	RunID      string        `json:"run_id"`
	Scanned    int64         `json:"scanned"`
	Eligible   int64         `json:"eligible"`
	Exported   int64         `json:"exported"`
	Documents  int64         `json:"documents"`
	Suppressed int64         `json:"suppressed"`
	Unnamed    int64         `json:"unnamed"`
	Fragmented int64         `json:"fragmented"`
	Failed     int64         `json:"failed"`
	Duration   time.Duration `json:"duration_ns"`
}

// counters accumulates run state safely across workers.
type counters struct {
	scanned, eligible, exported, documents int64
	suppressed, unnamed, fragmented, failed int64
}

// Run processes every eligible node in the snapshot. Per-root failures are
// counted and logged but never abort the run; only a failing candidate scan
// is fatal.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	start := time.Now()
	logging.Info("starting export run", "run", runID,
		"maxLevel", e.limits.MaxLevel, "maxNodes", e.limits.MaxNodes,
		"maxSiblings", e.limits.MaxSiblings, "workers", e.workers)

	var c counters
	g, gctx := errgroup.WithContext(ctx)
	candidates := make(chan *model.GraphNode, e.workers*2)

	g.Go(func() error {
		defer close(candidates)
		return e.snap.ForEachNode(gctx, func(n *model.GraphNode) error {
			atomic.AddInt64(&c.scanned, 1)
			select {
			case candidates <- n:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			for node := range candidates {
				ok, err := Eligible(gctx, e.snap, node, e.sources)
				if err != nil {
					// A read failure for one candidate is isolated, but a
					// canceled context means the run is over.
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logging.Error("eligibility check failed", "run", runID, "node", node.ID, "error", err)
					atomic.AddInt64(&c.failed, 1)
					continue
				}
				if !ok {
					continue
				}
				atomic.AddInt64(&c.eligible, 1)
				if err := e.processRoot(gctx, runID, node, &c); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logging.Error("export failed", "run", runID, "node", node.ID, "error", err)
					atomic.AddInt64(&c.failed, 1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export run %s: %w", runID, err)
	}

	summary := e.summarize(runID, &c, time.Since(start))
	logging.Info("export run complete", "run", runID,
		"scanned", summary.Scanned, "eligible", summary.Eligible,
		"exported", summary.Exported, "documents", summary.Documents,
		"failed", summary.Failed, "durationMs", summary.Duration.Milliseconds())
	return summary, nil
}

// TestResult is the typed outcome of a single-node run.
type TestResult int

const (
	// TestExported means the node was eligible and fully processed (the
	// document may still have been suppressed as a singleton).
	TestExported TestResult = iota
	// TestNotFound means the node id does not exist in the snapshot.
	TestNotFound
	// TestIneligible means the node exists but no source rule accepts it.
	TestIneligible
)

// RunNode processes exactly one node and reports a typed result; the caller
// decides process exit behavior.
func (e *Exporter) RunNode(ctx context.Context, id int64) (TestResult, *Summary, error) {
	runID := uuid.New().String()
	start := time.Now()
	logging.Info("processing test node", "run", runID, "node", id)

	node, err := e.snap.NodeByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TestNotFound, nil, nil
		}
		return TestNotFound, nil, fmt.Errorf("fetching test node %d: %w", id, err)
	}

	ok, err := Eligible(ctx, e.snap, node, e.sources)
	if err != nil {
		return TestIneligible, nil, err
	}
	if !ok {
		return TestIneligible, nil, nil
	}

	var c counters
	c.scanned, c.eligible = 1, 1
	if err := e.processRoot(ctx, runID, node, &c); err != nil {
		return TestExported, nil, err
	}
	return TestExported, e.summarize(runID, &c, time.Since(start)), nil
}

// processRoot runs the extract/assemble/dispatch pipeline for one root.
func (e *Exporter) processRoot(ctx context.Context, runID string, root *model.GraphNode, c *counters) error {
	names := Names(root, e.sources)
	if len(names) == 0 {
		logging.Warn("no document name for node", "run", runID, "node", root.ID)
		atomic.AddInt64(&c.unnamed, 1)
		return nil
	}

	arena, err := Extract(ctx, e.snap, root, e.limits)
	if err != nil {
		return fmt.Errorf("extracting neighborhood of node %d: %w", root.ID, err)
	}

	doc, err := Assemble(ctx, e.snap, root.ID, arena)
	if err != nil {
		return fmt.Errorf("assembling document for node %d: %w", root.ID, err)
	}

	// A singleton carries no relationship value and is suppressed.
	if len(doc.Nodes) <= 1 {
		logging.Debug("suppressing singleton document", "run", runID, "node", root.ID)
		atomic.AddInt64(&c.suppressed, 1)
		return nil
	}

	if fragments := Fragments(doc); fragments > 1 {
		logging.Debug("document is fragmented", "run", runID, "node", root.ID, "fragments", fragments)
		atomic.AddInt64(&c.fragmented, 1)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing document for node %d: %w", root.ID, err)
	}

	written := int64(0)
	for _, name := range names {
		if err := e.sink.Put(ctx, name, payload); err != nil {
			// Every destination rejected this key; other keys for the same
			// document are still attempted.
			logging.Error("document key not delivered", "run", runID, "node", root.ID, "key", name, "error", err)
			continue
		}
		written++
	}
	if written == 0 {
		return fmt.Errorf("no destination accepted document for node %d", root.ID)
	}

	atomic.AddInt64(&c.exported, 1)
	atomic.AddInt64(&c.documents, written)
	logging.Debug("exported node", "run", runID, "node", root.ID,
		"nodes", len(doc.Nodes), "relationships", len(doc.Relationships), "keys", written)
	return nil
}

func (e *Exporter) summarize(runID string, c *counters, elapsed time.Duration) *Summary {
	return &Summary{
		RunID:      runID,
		Scanned:    atomic.LoadInt64(&c.scanned),
		Eligible:   atomic.LoadInt64(&c.eligible),
		Exported:   atomic.LoadInt64(&c.exported),
		Documents:  atomic.LoadInt64(&c.documents),
		Suppressed: atomic.LoadInt64(&c.suppressed),
		Unnamed:    atomic.LoadInt64(&c.unnamed),
		Fragmented: atomic.LoadInt64(&c.fragmented),
		Failed:     atomic.LoadInt64(&c.failed),
		Duration:   elapsed,
	}
}
