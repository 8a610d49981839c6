package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Action says what a merge did to the destination.
type Action string

const (
	ActionCreated     Action = "created"
	ActionOverwritten Action = "overwritten"
	ActionMerged      Action = "merged"
	ActionUnchanged   Action = "unchanged"
)

// ConflictKind classifies a merge conflict.
type ConflictKind string

const (
	// ConflictOrphaned marks an existing region the new content no longer has.
	// Its text is appended at the end of the file.
	ConflictOrphaned ConflictKind = "orphaned"
	// ConflictNested marks a region that the existing file keeps inside another
	// preserved region; the copy in the new content is dropped.
	ConflictNested ConflictKind = "nested"
	// ConflictEditedOutside marks a file edited outside its regions since the
	// last write.
	ConflictEditedOutside ConflictKind = "edited-outside-region"
)

// Conflict is a non-fatal merge finding.
type Conflict struct {
	Kind   ConflictKind `json:"kind"`
	Region string       `json:"region,omitempty"`
	Msg    string       `json:"message"`
}

// Result is the outcome of merging one file.
type Result struct {
	Content   string
	Action    Action
	Preserved []string
	Orphaned  []string
	Conflicts []Conflict
}

// Merge combines newContent with the current destination content. A nil
// existing means the destination does not exist yet.
func Merge(existing *string, newContent string) (Result, error) {
	nd, err := Parse(newContent)
	if err != nil {
		return Result{}, inDoc(err, "new")
	}
	if existing == nil {
		return Result{Content: newContent, Action: ActionCreated}, nil
	}

	ed, err := Parse(*existing)
	if err != nil {
		return Result{}, inDoc(err, "existing")
	}
	if !ed.HasRegions() {
		res := Result{Content: newContent, Action: ActionOverwritten}
		if newContent == *existing {
			res.Action = ActionUnchanged
		}
		return res, nil
	}

	m := &merger{nd: nd, ed: ed, spliced: map[string]bool{}, dropped: map[string]bool{}}
	m.plan()
	m.emit(nd.lines, 0, len(nd.lines), nd.regions)
	m.appendOrphans()

	m.res.Content = m.out.String()
	m.res.Action = ActionMerged
	if m.res.Content == *existing {
		m.res.Action = ActionUnchanged
	}
	return m.res, nil
}

type merger struct {
	nd, ed  *Document
	spliced map[string]bool
	dropped map[string]bool
	out     strings.Builder
	res     Result
}

// plan picks the outermost regions of the new content that the existing file
// also has.
func (m *merger) plan() {
	var order []string
	walk(m.nd.regions, func(r *Region) bool {
		if _, ok := m.ed.index[r.Name]; ok {
			m.spliced[r.Name] = true
			order = append(order, r.Name)
			return false
		}
		return true
	})

	for _, name := range order {
		if within(m.ed.index[name], m.spliced) {
			m.dropped[name] = true
			m.res.Conflicts = append(m.res.Conflicts, Conflict{
				Kind:   ConflictNested,
				Region: name,
				Msg:    fmt.Sprintf("region %q is kept inside its enclosing region in the existing file", name),
			})
			continue
		}
		m.res.Preserved = append(m.res.Preserved, name)
	}
}

func (m *merger) emit(lines []string, from, to int, regions []*Region) {
	pos := from
	for _, r := range regions {
		write(&m.out, lines[pos:r.Start])
		switch {
		case m.dropped[r.Name]:
		case m.spliced[r.Name]:
			m.out.WriteString(lines[r.Start])
			m.out.WriteString(m.ed.Body(m.ed.index[r.Name]))
			m.out.WriteString(lines[r.End])
		default:
			m.out.WriteString(lines[r.Start])
			m.emit(lines, r.Start+1, r.End, r.Children)
			m.out.WriteString(lines[r.End])
		}
		pos = r.End + 1
	}
	write(&m.out, lines[pos:to])
}

// appendOrphans adds existing regions that did not survive into the new
// content, minus any sub-regions that were spliced elsewhere.
func (m *merger) appendOrphans() {
	walk(m.ed.regions, func(r *Region) bool {
		if !m.spliced[r.Name] {
			m.appendOrphan(r)
		}
		return false
	})
}

func (m *merger) appendOrphan(r *Region) {
	var text strings.Builder
	text.WriteString(m.ed.lines[r.Start])
	m.emitExisting(&text, r.Start+1, r.End, r.Children)
	text.WriteString(m.ed.lines[r.End])

	if s := m.out.String(); s != "" && !strings.HasSuffix(s, "\n") {
		m.out.WriteString("\n")
	}
	m.out.WriteString("\n")
	m.out.WriteString(text.String())
	if !strings.HasSuffix(text.String(), "\n") {
		m.out.WriteString("\n")
	}

	m.res.Orphaned = append(m.res.Orphaned, r.Name)
	m.res.Conflicts = append(m.res.Conflicts, Conflict{
		Kind:   ConflictOrphaned,
		Region: r.Name,
		Msg:    fmt.Sprintf("region %q is no longer in the template; its content was appended at the end", r.Name),
	})
}

// emitExisting copies existing lines, leaving out spliced sub-regions.
func (m *merger) emitExisting(w *strings.Builder, from, to int, regions []*Region) {
	pos := from
	for _, r := range regions {
		write(w, m.ed.lines[pos:r.Start])
		if !m.spliced[r.Name] {
			w.WriteString(m.ed.lines[r.Start])
			m.emitExisting(w, r.Start+1, r.End, r.Children)
			w.WriteString(m.ed.lines[r.End])
		}
		pos = r.End + 1
	}
	write(w, m.ed.lines[pos:to])
}

func write(w *strings.Builder, lines []string) {
	for _, l := range lines {
		w.WriteString(l)
	}
}

// Skeleton hashes content with the bodies of its top-level regions removed,
// so edits inside regions do not change it.
func Skeleton(content string) (string, error) {
	d, err := Parse(content)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	pos := 0
	for _, r := range d.regions {
		for _, l := range d.lines[pos : r.Start+1] {
			h.Write([]byte(l))
		}
		h.Write([]byte(d.lines[r.End]))
		pos = r.End + 1
	}
	for _, l := range d.lines[pos:] {
		h.Write([]byte(l))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Hash returns the hex SHA-256 of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func inDoc(err error, doc string) error {
	var me *MergeError
	if errors.As(err, &me) {
		me.Doc = doc
	}
	return err
}
