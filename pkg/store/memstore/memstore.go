// Package memstore provides an in-memory graph store backed either by
// programmatic construction (tests) or by a JSON snapshot file. Enumeration
// follows insertion order, which makes extraction results reproducible.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

// Store holds a whole graph in memory. It is immutable once handed to the
// exporter; AddNode/AddRelationship are for construction only.
type Store struct {
	nodes     map[int64]*model.GraphNode
	nodeOrder []int64
	rels      map[int64]*model.GraphRelationship
	incident  map[int64][]int64 // node id -> incident relationship ids, insertion order
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:    make(map[int64]*model.GraphNode),
		rels:     make(map[int64]*model.GraphRelationship),
		incident: make(map[int64][]int64),
	}
}

// AddNode inserts a node. Re-adding an id replaces the node in place without
// changing its position in the enumeration order.
func (s *Store) AddNode(n *model.GraphNode) {
	if _, ok := s.nodes[n.ID]; !ok {
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	s.nodes[n.ID] = n
}

// AddRelationship inserts a directed relationship. Both endpoints index it,
// a self-loop only once.
func (s *Store) AddRelationship(r *model.GraphRelationship) {
	s.rels[r.ID] = r
	s.incident[r.StartID] = append(s.incident[r.StartID], r.ID)
	if r.EndID != r.StartID {
		s.incident[r.EndID] = append(s.incident[r.EndID], r.ID)
	}
}

// OpenSnapshot returns the store itself; the in-memory graph is already a
// consistent immutable view.
func (s *Store) OpenSnapshot(ctx context.Context) (store.Snapshot, error) {
	return s, nil
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error { return nil }

// NodeByID implements store.Snapshot.
func (s *Store) NodeByID(ctx context.Context, id int64) (*model.GraphNode, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, store.ErrNotFound)
	}
	return n, nil
}

// ForEachNode implements store.Snapshot, visiting nodes in insertion order.
func (s *Store) ForEachNode(ctx context.Context, fn func(*model.GraphNode) error) error {
	for _, id := range s.nodeOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// Relationships implements store.Snapshot.
func (s *Store) Relationships(ctx context.Context, nodeID int64) ([]*model.GraphRelationship, error) {
	ids := s.incident[nodeID]
	rels := make([]*model.GraphRelationship, 0, len(ids))
	for _, id := range ids {
		rels = append(rels, s.rels[id])
	}
	return rels, nil
}

// Neighbors implements store.Snapshot.
func (s *Store) Neighbors(ctx context.Context, nodeID int64) ([]store.Neighbor, error) {
	ids := s.incident[nodeID]
	neighbors := make([]store.Neighbor, 0, len(ids))
	for _, id := range ids {
		rel := s.rels[id]
		other, ok := s.nodes[rel.OtherID(nodeID)]
		if !ok {
			return nil, fmt.Errorf("relationship %d references missing node %d", rel.ID, rel.OtherID(nodeID))
		}
		neighbors = append(neighbors, store.Neighbor{Rel: rel, Other: other})
	}
	return neighbors, nil
}

// snapshotFile is the on-disk layout: the same nodes/relationships shape that
// neo4j-style JSON dumps use, with labels and a property map per node.
type snapshotFile struct {
	Nodes         []*model.GraphNode         `json:"nodes"`
	Relationships []*model.GraphRelationship `json:"relationships"`
}

// Load builds a store from a JSON snapshot file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	s := New()
	for _, n := range file.Nodes {
		s.AddNode(n)
	}
	for _, r := range file.Relationships {
		if _, ok := s.nodes[r.StartID]; !ok {
			return nil, fmt.Errorf("snapshot %s: relationship %d references unknown node %d", path, r.ID, r.StartID)
		}
		if _, ok := s.nodes[r.EndID]; !ok {
			return nil, fmt.Errorf("snapshot %s: relationship %d references unknown node %d", path, r.ID, r.EndID)
		}
		s.AddRelationship(r)
	}
	return s, nil
}
