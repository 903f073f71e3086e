package model

import "encoding/json"

// Extra flags attached to exported node records.
const (
	ExtraRoot       = "root"
	ExtraIncomplete = "incomplete"
)

// Document is the exported form of one extracted neighborhood. The JSON layout
// is a fixed contract with downstream consumers: exactly two top-level arrays.
type Document struct {
	Nodes         []*NodeRecord         `json:"nodes"`
	Relationships []*RelationshipRecord `json:"relationships"`
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		Nodes:         make([]*NodeRecord, 0),
		Relationships: make([]*RelationshipRecord, 0),
	}
}

// AddNode appends a node record.
func (d *Document) AddNode(n *NodeRecord) {
	d.Nodes = append(d.Nodes, n)
}

// AddRelationship appends a relationship record.
func (d *Document) AddRelationship(r *RelationshipRecord) {
	d.Relationships = append(d.Relationships, r)
}

// NodeRecord is one exported node. Properties are flattened into the JSON
// object next to id/type/extra, so the record needs a custom marshaller.
type NodeRecord struct {
	ID         int64
	Type       string
	Extra      []string
	Properties map[string]any
}

// AddExtra attaches a flag to the record, once.
func (n *NodeRecord) AddExtra(flag string) {
	for _, f := range n.Extra {
		if f == flag {
			return
		}
	}
	n.Extra = append(n.Extra, flag)
}

// HasExtra reports whether the record carries the given flag.
func (n *NodeRecord) HasExtra(flag string) bool {
	for _, f := range n.Extra {
		if f == flag {
			return true
		}
	}
	return false
}

// MarshalJSON flattens the property map into the record object. The id, type
// and extra keys win over property keys of the same name. Map marshalling
// sorts keys, which keeps serialized documents byte-stable.
func (n *NodeRecord) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(n.Properties)+3)
	for k, v := range n.Properties {
		obj[k] = v
	}
	obj["id"] = n.ID
	obj["type"] = n.Type
	if len(n.Extra) > 0 {
		obj["extra"] = n.Extra
	}
	return json.Marshal(obj)
}

// RelationshipRecord is one exported relationship. Both endpoints are
// guaranteed to be present in the document's node list.
type RelationshipRecord struct {
	ID   int64  `json:"id"`
	From int64  `json:"from"`
	To   int64  `json:"to"`
	Type string `json:"type"`
}
