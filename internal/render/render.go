package render

import (
	"regexp"
	"strings"

	"github.com/agentx-labs/groundwork/internal/facts"
)

// UnresolvedPattern matches the visible marker left for unresolved placeholders.
var UnresolvedPattern = regexp.MustCompile(`\[\[UNRESOLVED:([a-z][a-z0-9_.-]*)\]\]`)

// UnresolvedMarker returns the text emitted for a key with no value and no default.
func UnresolvedMarker(key string) string {
	return "[[UNRESOLVED:" + key + "]]"
}

// Result is the output of rendering one template.
type Result struct {
	Content    string
	Unresolved []string
}

// Render evaluates t against r in a single left-to-right pass.
func (t *Template) Render(r facts.Reader) Result {
	rs := &renderState{reader: r, seen: map[string]bool{}}
	rs.walk(t.nodes)
	return Result{Content: rs.out.String(), Unresolved: rs.unresolved}
}

type renderState struct {
	reader     facts.Reader
	out        strings.Builder
	unresolved []string
	seen       map[string]bool
}

func (rs *renderState) walk(nodes []node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *textNode:
			rs.out.WriteString(n.text)
		case *fieldNode:
			rs.field(n)
		case *ifNode:
			if facts.Truthy(rs.reader, n.key) {
				rs.walk(n.then)
			} else {
				rs.walk(n.els)
			}
		}
	}
}

func (rs *renderState) field(n *fieldNode) {
	if f, ok := rs.reader.Get(n.key); ok {
		if s, ok := f.Value.Render(); ok {
			rs.out.WriteString(s)
			return
		}
	}
	if n.hasDef {
		rs.out.WriteString(n.def)
		return
	}
	rs.out.WriteString(UnresolvedMarker(n.key))
	if !rs.seen[n.key] {
		rs.seen[n.key] = true
		rs.unresolved = append(rs.unresolved, n.key)
	}
}
