package model

import (
	"encoding/json"
	"testing"
)

func TestNodeRecordMarshalFlattensProperties(t *testing.T) {
	rec := &NodeRecord{
		ID:   42,
		Type: "dataset",
		Properties: map[string]any{
			"title":    "Ocean temperatures",
			"local_id": "rda/123",
		},
	}
	rec.AddExtra(ExtraRoot)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if obj["id"].(float64) != 42 {
		t.Errorf("Expected id 42, got %v", obj["id"])
	}
	if obj["type"] != "dataset" {
		t.Errorf("Expected type dataset, got %v", obj["type"])
	}
	if obj["title"] != "Ocean temperatures" {
		t.Errorf("Property title not flattened, got %v", obj["title"])
	}
	extra, ok := obj["extra"].([]any)
	if !ok || len(extra) != 1 || extra[0] != "root" {
		t.Errorf("Expected extra [root], got %v", obj["extra"])
	}
}

func TestNodeRecordMarshalOmitsEmptyExtra(t *testing.T) {
	rec := &NodeRecord{ID: 1, Type: "grant"}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := obj["extra"]; ok {
		t.Error("extra should be omitted when no flags are set")
	}
}

func TestNodeRecordAddExtraDeduplicates(t *testing.T) {
	rec := &NodeRecord{ID: 1, Type: "dataset"}
	rec.AddExtra(ExtraIncomplete)
	rec.AddExtra(ExtraIncomplete)

	if len(rec.Extra) != 1 {
		t.Errorf("Expected 1 flag after duplicate add, got %d", len(rec.Extra))
	}
	if !rec.HasExtra(ExtraIncomplete) {
		t.Error("Expected incomplete flag to be set")
	}
}

func TestGraphNodeType(t *testing.T) {
	tests := []struct {
		name string
		node GraphNode
		want string
	}{
		{"typed", GraphNode{ID: 1, Properties: map[string]any{"type": "dataset"}}, "dataset"},
		{"untyped", GraphNode{ID: 2, Properties: map[string]any{"title": "x"}}, ""},
		{"non-string type", GraphNode{ID: 3, Properties: map[string]any{"type": 7}}, ""},
		{"nil properties", GraphNode{ID: 4}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Type(); got != tt.want {
				t.Errorf("Type() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelationshipOtherID(t *testing.T) {
	rel := GraphRelationship{ID: 1, StartID: 10, EndID: 20}

	if got := rel.OtherID(10); got != 20 {
		t.Errorf("OtherID(10) = %d, want 20", got)
	}
	if got := rel.OtherID(20); got != 10 {
		t.Errorf("OtherID(20) = %d, want 10", got)
	}

	loop := GraphRelationship{ID: 2, StartID: 5, EndID: 5}
	if got := loop.OtherID(5); got != 5 {
		t.Errorf("self-loop OtherID(5) = %d, want 5", got)
	}
}
