// Package store defines the read-only graph store boundary consumed by the
// exporter. Implementations provide a consistent snapshot for the duration of
// one run; the exporter never writes through this interface.
package store

import (
	"context"
	"errors"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
)

// ErrNotFound is returned when a node id does not exist in the snapshot.
var ErrNotFound = errors.New("node not found")

// Neighbor pairs an incident relationship with the node on its far side.
type Neighbor struct {
	Rel   *model.GraphRelationship
	Other *model.GraphNode
}

// Snapshot is a consistent read-only view of the graph. Implementations must
// be safe for concurrent reads; the exporter processes roots in parallel
// against a single snapshot.
//
// The enumeration order of Relationships and Neighbors is adapter-determined.
// Extraction results under a sibling cap depend on that order, so adapters
// should keep it stable across calls within one snapshot.
type Snapshot interface {
	// NodeByID fetches a node, returning ErrNotFound if it does not exist.
	NodeByID(ctx context.Context, id int64) (*model.GraphNode, error)

	// ForEachNode streams every node in the snapshot. A non-nil error from fn
	// stops the iteration and is returned as-is.
	ForEachNode(ctx context.Context, fn func(*model.GraphNode) error) error

	// Relationships returns all relationships incident to a node, in both
	// directions.
	Relationships(ctx context.Context, nodeID int64) ([]*model.GraphRelationship, error)

	// Neighbors returns all incident relationships together with the node on
	// the far side of each.
	Neighbors(ctx context.Context, nodeID int64) ([]Neighbor, error)

	Close(ctx context.Context) error
}

// Store opens snapshots over some backing graph database.
type Store interface {
	OpenSnapshot(ctx context.Context) (Snapshot, error)
	Close(ctx context.Context) error
}
