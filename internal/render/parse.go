package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const (
	leftDelim  = "{{"
	rightDelim = "}}"

	// maxDepth counts the outer conditional plus one nested level.
	maxDepth = 2
)

type node interface{}

type textNode struct {
	text string
}

type fieldNode struct {
	key    string
	def    string
	hasDef bool
}

type ifNode struct {
	key     string
	then    []node
	els     []node
	hasElse bool
	line    int
}

// Template is a parsed, validated template.
type Template struct {
	name  string
	nodes []node
	keys  []string
}

// Name returns the template name used in errors.
func (t *Template) Name() string { return t.name }

// Keys returns every fact key the template references, in first-use order.
func (t *Template) Keys() []string {
	return append([]string(nil), t.keys...)
}

type parser struct {
	name   string
	src    string
	pos    int
	schema *facts.Schema

	stack []*ifNode
	root  []node
	seen  map[string]bool
	keys  []string
}

// Parse validates text and returns a Template. A nil schema skips the
// key-existence check but keeps every syntactic one.
func Parse(name, text string, schema *facts.Schema) (*Template, error) {
	p := &parser{name: name, src: text, schema: schema, seen: map[string]bool{}}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &Template{name: name, nodes: p.root, keys: p.keys}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// built-in templates.
func MustParse(name, text string, schema *facts.Schema) *Template {
	t, err := Parse(name, text, schema)
	if err != nil {
		panic(err)
	}
	return t
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		i := strings.Index(p.src[p.pos:], leftDelim)
		if i < 0 {
			p.emit(&textNode{text: p.src[p.pos:]})
			p.pos = len(p.src)
			break
		}
		start := p.pos + i
		if start > p.pos {
			p.emit(&textNode{text: p.src[p.pos:start]})
		}

		j := strings.Index(p.src[start+len(leftDelim):], rightDelim)
		if j < 0 {
			return p.errorf(start, "unclosed action")
		}
		end := start + len(leftDelim) + j + len(rightDelim)
		body := strings.TrimSpace(p.src[start+len(leftDelim) : end-len(rightDelim)])
		p.pos = end

		if err := p.action(body, start, end); err != nil {
			return err
		}
	}

	if n := len(p.stack); n > 0 {
		return &TemplateError{Template: p.name, Line: p.stack[n-1].line, Msg: "if without matching end"}
	}
	return nil
}

func (p *parser) action(body string, start, end int) error {
	word, rest, _ := strings.Cut(body, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case "if":
		if err := p.checkKey(rest, start); err != nil {
			return err
		}
		if len(p.stack) >= maxDepth {
			return p.errorf(start, "conditionals may only nest one level deep")
		}
		p.standalone(start, end)
		n := &ifNode{key: rest, line: p.line(start)}
		p.emit(n)
		p.stack = append(p.stack, n)
	case "else":
		if rest != "" {
			return p.errorf(start, "unexpected %q after else", rest)
		}
		top := p.top()
		if top == nil {
			return p.errorf(start, "else without if")
		}
		if top.hasElse {
			return p.errorf(start, "duplicate else")
		}
		p.standalone(start, end)
		top.hasElse = true
	case "end":
		if rest != "" {
			return p.errorf(start, "unexpected %q after end", rest)
		}
		if p.top() == nil {
			return p.errorf(start, "end without if")
		}
		p.standalone(start, end)
		p.stack = p.stack[:len(p.stack)-1]
	default:
		return p.field(body, start)
	}
	return nil
}

func (p *parser) field(body string, start int) error {
	key, def, hasDef := strings.Cut(body, "|")
	key = strings.TrimSpace(key)
	if err := p.checkKey(key, start); err != nil {
		return err
	}
	n := &fieldNode{key: key}
	if hasDef {
		lit := strings.TrimSpace(def)
		s, err := strconv.Unquote(lit)
		if err != nil || !strings.HasPrefix(lit, `"`) {
			return p.errorf(start, "default for %s must be a double-quoted string, got %s", key, lit)
		}
		n.def, n.hasDef = s, true
	}
	p.emit(n)
	return nil
}

func (p *parser) checkKey(key string, at int) error {
	if key == "" {
		return p.errorf(at, "missing fact key")
	}
	if !facts.ValidKey(key) {
		return p.errorf(at, "malformed fact key %q", key)
	}
	if p.schema != nil {
		if _, ok := p.schema.Lookup(key); !ok {
			return p.errorf(at, "unknown fact key %q", key)
		}
	}
	if !p.seen[key] {
		p.seen[key] = true
		p.keys = append(p.keys, key)
	}
	return nil
}

// standalone removes the line around a block action when nothing else is on it.
func (p *parser) standalone(start, end int) {
	lineStart := strings.LastIndexByte(p.src[:start], '\n') + 1
	if strings.TrimLeft(p.src[lineStart:start], " \t") != "" {
		return
	}
	rest := p.src[end:]
	nl := strings.IndexByte(rest, '\n')
	tail := rest
	if nl >= 0 {
		tail = rest[:nl]
	}
	if strings.TrimRight(tail, " \t\r") != "" {
		return
	}

	// Drop the indentation already emitted as text.
	if indent := start - lineStart; indent > 0 {
		p.trimLast(indent)
	}
	if nl >= 0 {
		p.pos = end + nl + 1
	} else {
		p.pos = len(p.src)
	}
}

func (p *parser) trimLast(n int) {
	list := p.current()
	if len(*list) == 0 {
		return
	}
	t, ok := (*list)[len(*list)-1].(*textNode)
	if !ok || len(t.text) < n {
		return
	}
	t.text = t.text[:len(t.text)-n]
	if t.text == "" {
		*list = (*list)[:len(*list)-1]
	}
}

func (p *parser) top() *ifNode {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) current() *[]node {
	top := p.top()
	switch {
	case top == nil:
		return &p.root
	case top.hasElse:
		return &top.els
	default:
		return &top.then
	}
}

func (p *parser) emit(n node) {
	list := p.current()
	*list = append(*list, n)
}

func (p *parser) line(offset int) int {
	return strings.Count(p.src[:offset], "\n") + 1
}

func (p *parser) errorf(offset int, format string, args ...interface{}) error {
	return &TemplateError{Template: p.name, Line: p.line(offset), Msg: fmt.Sprintf(format, args...)}
}
