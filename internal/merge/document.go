package merge

import (
	"fmt"
	"regexp"
	"strings"
)

var markerRe = regexp.MustCompile(`^\s*(?:<!--|#|//)?\s*(/?)REGION:([A-Za-z0-9_.-]+)\s*(?:-->)?\s*$`)

// Region is one preserved span. Start and End are the line indexes of its
// marker lines.
type Region struct {
	Name     string
	Start    int
	End      int
	Parent   *Region
	Children []*Region
}

// Document is a parsed file: its lines (newlines kept) and the region tree.
type Document struct {
	lines   []string
	regions []*Region
	index   map[string]*Region
}

// Parse splits content into lines and builds the region tree.
func Parse(content string) (*Document, error) {
	d := &Document{lines: splitLines(content), index: map[string]*Region{}}

	var stack []*Region
	for i, line := range d.lines {
		m := markerRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			continue
		}
		closing, name := m[1] == "/", m[2]

		if !closing {
			if _, dup := d.index[name]; dup {
				return nil, &MergeError{Line: i + 1, Msg: fmt.Sprintf("duplicate region %q", name)}
			}
			r := &Region{Name: name, Start: i, End: -1}
			if n := len(stack); n > 0 {
				r.Parent = stack[n-1]
				r.Parent.Children = append(r.Parent.Children, r)
			} else {
				d.regions = append(d.regions, r)
			}
			d.index[name] = r
			stack = append(stack, r)
			continue
		}

		if len(stack) == 0 {
			return nil, &MergeError{Line: i + 1, Msg: fmt.Sprintf("end of region %q without start", name)}
		}
		top := stack[len(stack)-1]
		if top.Name != name {
			return nil, &MergeError{Line: i + 1, Msg: fmt.Sprintf("end of region %q while %q is open", name, top.Name)}
		}
		top.End = i
		stack = stack[:len(stack)-1]
	}

	if n := len(stack); n > 0 {
		open := stack[n-1]
		return nil, &MergeError{Line: open.Start + 1, Msg: fmt.Sprintf("region %q is never closed", open.Name)}
	}
	return d, nil
}

// HasRegions reports whether the document contains any region.
func (d *Document) HasRegions() bool { return len(d.regions) > 0 }

// Regions returns the top-level regions in document order.
func (d *Document) Regions() []*Region { return d.regions }

// Region looks a region up by name at any depth.
func (d *Document) Region(name string) (*Region, bool) {
	r, ok := d.index[name]
	return r, ok
}

// Names returns every region name in document order, nested ones included.
func (d *Document) Names() []string {
	var names []string
	walk(d.regions, func(r *Region) bool {
		names = append(names, r.Name)
		return true
	})
	return names
}

// Body returns the text between a region's marker lines.
func (d *Document) Body(r *Region) string {
	return strings.Join(d.lines[r.Start+1:r.End], "")
}

// Text returns a region including its marker lines.
func (d *Document) Text(r *Region) string {
	return strings.Join(d.lines[r.Start:r.End+1], "")
}

func walk(rs []*Region, fn func(*Region) bool) {
	for _, r := range rs {
		if fn(r) {
			walk(r.Children, fn)
		}
	}
}

// within reports whether r sits inside a region whose name is in set.
func within(r *Region, set map[string]bool) bool {
	for p := r.Parent; p != nil; p = p.Parent {
		if set[p.Name] {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
