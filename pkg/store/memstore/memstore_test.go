package memstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

func testNode(id int64, typ string, labels ...string) *model.GraphNode {
	props := map[string]any{}
	if typ != "" {
		props["type"] = typ
	}
	return &model.GraphNode{ID: id, Labels: labels, Properties: props}
}

func TestNodeByID(t *testing.T) {
	s := New()
	s.AddNode(testNode(1, "dataset", "ands"))

	n, err := s.NodeByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("NodeByID failed: %v", err)
	}
	if n.ID != 1 || n.Type() != "dataset" {
		t.Errorf("Unexpected node: %+v", n)
	}

	_, err = s.NodeByID(context.Background(), 99)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestForEachNodeOrder(t *testing.T) {
	s := New()
	s.AddNode(testNode(3, "dataset"))
	s.AddNode(testNode(1, "grant"))
	s.AddNode(testNode(2, "researcher"))

	var order []int64
	err := s.ForEachNode(context.Background(), func(n *model.GraphNode) error {
		order = append(order, n.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachNode failed: %v", err)
	}

	want := []int64{3, 1, 2}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("Expected insertion order %v, got %v", want, order)
		}
	}
}

func TestNeighborsBothDirections(t *testing.T) {
	s := New()
	s.AddNode(testNode(1, "dataset"))
	s.AddNode(testNode(2, "grant"))
	s.AddRelationship(&model.GraphRelationship{ID: 10, StartID: 1, EndID: 2, Type: "relatedTo"})

	for _, id := range []int64{1, 2} {
		neighbors, err := s.Neighbors(context.Background(), id)
		if err != nil {
			t.Fatalf("Neighbors(%d) failed: %v", id, err)
		}
		if len(neighbors) != 1 {
			t.Fatalf("Neighbors(%d): expected 1, got %d", id, len(neighbors))
		}
		if neighbors[0].Other.ID == id {
			t.Errorf("Neighbors(%d) returned the node itself as far endpoint", id)
		}
	}
}

func TestSelfLoopIndexedOnce(t *testing.T) {
	s := New()
	s.AddNode(testNode(1, "dataset"))
	s.AddRelationship(&model.GraphRelationship{ID: 10, StartID: 1, EndID: 1, Type: "sameAs"})

	rels, err := s.Relationships(context.Background(), 1)
	if err != nil {
		t.Fatalf("Relationships failed: %v", err)
	}
	if len(rels) != 1 {
		t.Errorf("Expected self-loop indexed once, got %d entries", len(rels))
	}
}

func TestLoadSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	content := `{
		"nodes": [
			{"id": 1, "labels": ["ands"], "properties": {"type": "dataset", "local_id": "d1"}},
			{"id": 2, "labels": ["ands"], "properties": {"type": "grant"}}
		],
		"relationships": [
			{"id": 100, "from": 1, "to": 2, "type": "relatedTo"}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	n, err := s.NodeByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("NodeByID failed: %v", err)
	}
	if n.Property("local_id") != "d1" {
		t.Errorf("Expected local_id d1, got %v", n.Property("local_id"))
	}

	neighbors, err := s.Neighbors(context.Background(), 2)
	if err != nil {
		t.Fatalf("Neighbors failed: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Other.ID != 1 {
		t.Errorf("Expected node 2 to neighbor node 1, got %+v", neighbors)
	}
}

func TestLoadRejectsDanglingRelationship(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	content := `{
		"nodes": [{"id": 1, "labels": [], "properties": {}}],
		"relationships": [{"id": 100, "from": 1, "to": 7, "type": "relatedTo"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for relationship referencing unknown node")
	}
}
