package export

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
)

// Fragments counts the weakly connected components of an assembled document.
// A well-formed neighborhood is one component; excluding institution hubs from
// traversal can split a document into several, which downstream linkage
// systems want to know about.
func Fragments(doc *model.Document) int {
	if len(doc.Nodes) == 0 {
		return 0
	}

	g := simple.NewUndirectedGraph()
	for _, n := range doc.Nodes {
		g.AddNode(simple.Node(n.ID))
	}
	for _, r := range doc.Relationships {
		if r.From == r.To {
			continue // self-loops do not affect connectivity
		}
		g.SetEdge(g.NewEdge(simple.Node(r.From), simple.Node(r.To)))
	}

	return len(topo.ConnectedComponents(g))
}
