package export

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
)

// Assemble turns an extraction arena into an output document. Every arena node
// becomes a record with its properties copied verbatim; the root gets the root
// flag.
//
// A relationship is owned by its start node and emitted exactly once, only
// when both endpoints are in the arena. When the far endpoint is missing the
// in-arena endpoint is flagged incomplete instead: outbound truncation flags
// the start node, inbound truncation flags the end node. No emitted
// relationship can therefore reference a node absent from the document.
//
// Nodes and relationships are sorted by id so serialized documents are
// byte-stable across runs.
func Assemble(ctx context.Context, snap store.Snapshot, rootID int64, arena map[int64]*model.GraphNode) (*model.Document, error) {
	doc := model.NewDocument()
	emitted := make(map[int64]bool)

	ids := slices.Sorted(maps.Keys(arena))
	for _, id := range ids {
		node := arena[id]
		rec := &model.NodeRecord{
			ID:         node.ID,
			Type:       node.Type(),
			Properties: node.Properties,
		}
		if node.ID == rootID {
			rec.AddExtra(model.ExtraRoot)
		}
		doc.AddNode(rec)

		rels, err := snap.Relationships(ctx, node.ID)
		if err != nil {
			return nil, fmt.Errorf("assembling node %d: %w", node.ID, err)
		}
		for _, rel := range rels {
			if rel.StartID == node.ID {
				if _, ok := arena[rel.EndID]; !ok {
					rec.AddExtra(model.ExtraIncomplete)
					continue
				}
				// The id guard covers adapters that report a self-loop from
				// both of its incidences.
				if emitted[rel.ID] {
					continue
				}
				emitted[rel.ID] = true
				doc.AddRelationship(&model.RelationshipRecord{
					ID:   rel.ID,
					From: rel.StartID,
					To:   rel.EndID,
					Type: rel.Type,
				})
			} else if _, ok := arena[rel.StartID]; !ok {
				// Inbound relationship whose owner is outside the arena: the
				// owner's perspective will never be processed.
				rec.AddExtra(model.ExtraIncomplete)
			}
		}
	}

	slices.SortFunc(doc.Relationships, func(a, b *model.RelationshipRecord) int {
		return int(a.ID - b.ID)
	})
	return doc, nil
}
