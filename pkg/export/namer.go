package export

import (
	"net/url"
	"slices"

	"github.com/rdswitchboard/graph-exporter/pkg/model"
)

// Names derives the output keys for a node: one per matching source rule and
// identifier value, formed as <label>/<url-encoded-identifier>.json. Array
// valued identifying properties yield one name per element. Identifier values
// that are not strings are skipped silently, never failing the node. The
// result is sorted and duplicate-free; empty means the node cannot be named
// and must not be exported.
func Names(node *model.GraphNode, sources SourceSet) []string {
	seen := make(map[string]bool)

	for _, rule := range sources {
		if !node.HasLabel(rule.Label) {
			continue
		}
		switch value := node.Property(rule.Key).(type) {
		case string:
			seen[encodeName(rule.Label, value)] = true
		case []string:
			for _, v := range value {
				seen[encodeName(rule.Label, v)] = true
			}
		case []any:
			for _, v := range value {
				if s, ok := v.(string); ok {
					seen[encodeName(rule.Label, s)] = true
				}
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// encodeName form-encodes the identifier so it is safe as a single path
// segment; a slash inside an identifier becomes %2F.
func encodeName(label, identifier string) string {
	return label + "/" + url.QueryEscape(identifier) + ".json"
}
