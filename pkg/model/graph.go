package model

// TypeInstitution is the declared type of institution nodes. Institutions act
// as hubs in the graph and are never expanded into during extraction.
const TypeInstitution = "institution"

// PropertyType is the node property holding the declared node type.
const PropertyType = "type"

// GraphNode is an immutable snapshot of a node as read from the store.
// It is never mutated by the exporter; adapters hand out fresh copies.
type GraphNode struct {
	ID         int64          `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties,omitempty"`
}

// HasLabel reports whether the node carries the given label.
func (n *GraphNode) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Property returns the raw value of a property, or nil if absent.
func (n *GraphNode) Property(key string) any {
	if n.Properties == nil {
		return nil
	}
	return n.Properties[key]
}

// HasProperty reports whether the node carries the given property.
func (n *GraphNode) HasProperty(key string) bool {
	_, ok := n.Properties[key]
	return ok
}

// Type returns the node's declared type, or "" if the node is untyped.
func (n *GraphNode) Type() string {
	if s, ok := n.Property(PropertyType).(string); ok {
		return s
	}
	return ""
}

// GraphRelationship is an immutable snapshot of a directed relationship.
type GraphRelationship struct {
	ID         int64          `json:"id"`
	StartID    int64          `json:"from"`
	EndID      int64          `json:"to"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// OtherID returns the endpoint opposite to the given node id. For self-loops
// it returns the node id itself.
func (r *GraphRelationship) OtherID(nodeID int64) int64 {
	if r.StartID == nodeID {
		return r.EndID
	}
	return r.StartID
}
