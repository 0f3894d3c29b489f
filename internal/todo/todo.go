// Package todo models tasks in a tab-indented outline and picks the one to
// work on next.
//
// A Todo is a view over one outline line plus its chain of ancestors; only
// the last line of the chain belongs to the todo, the rest supply inherited
// tags. A List owns the document, indexes todos by tag name and performs
// the lifecycle edits (select, split, add, complete), flushing the document
// to its Store after every change.
package todo

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amirbrooks/todonow/internal/outline"
	"github.com/amirbrooks/todonow/internal/tag"
)

// Todo is a task line together with the outline lines enclosing it.
type Todo struct {
	chain   []string
	index   int
	version uint64
}

// NewTodo builds the todo at doc[index].
func NewTodo(doc []string, index int) (*Todo, error) {
	if index < 0 || index >= len(doc) {
		return nil, fmt.Errorf("%w: line %d out of range (%d lines)", ErrMalformedDocument, index, len(doc))
	}
	return &Todo{chain: outline.AncestorChain(doc, index), index: index}, nil
}

// Index is the todo's line number (0-based) in the document it was read from.
func (t *Todo) Index() int { return t.index }

// Text is the todo's own line, including indentation.
func (t *Todo) Text() string { return t.chain[len(t.chain)-1] }

// SetText replaces the todo's own line in this view. The owning List writes
// it back to the document.
func (t *Todo) SetText(s string) { t.chain[len(t.chain)-1] = s }

// Chain returns a copy of the ancestor chain, outermost first.
func (t *Todo) Chain() []string { return append([]string{}, t.chain...) }

func (t *Todo) String() string { return t.Text() }

// Tags returns the tags of every line in the chain, outermost first.
func (t *Todo) Tags() []tag.Tag {
	var tags []tag.Tag
	for _, line := range t.chain {
		tags = append(tags, tag.Extract(line)...)
	}
	return tags
}

// OwnTags returns only the tags written on the todo's own line.
func (t *Todo) OwnTags() []tag.Tag { return tag.Extract(t.Text()) }

// HasTag reports whether a tag called name appears anywhere in the chain.
func (t *Todo) HasTag(name string) bool {
	for _, tg := range t.Tags() {
		if tg.Name() == name {
			return true
		}
	}
	return false
}

// AddTag appends tg to the todo line unless a tag of that name is already
// present on any line of the chain.
func (t *Todo) AddTag(tg tag.Tag) error {
	if t.HasTag(tg.Name()) {
		return fmt.Errorf("%w: %s already in todo", ErrDuplicateTag, tg.Name())
	}
	t.SetText(t.Text() + " " + tg.String())
	return nil
}

// RemoveTag strips the tag named like tg from the todo line. Tags inherited
// from enclosing lines cannot be removed.
func (t *Todo) RemoveTag(tg tag.Tag) error {
	if !t.HasTag(tg.Name()) {
		return fmt.Errorf("%w: %s", ErrTagNotFound, tg.Name())
	}
	span, ok, err := tg.FindIn(t.Text())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTagNotOnOwnLine, tg.Name())
	}
	t.SetText(excise(t.Text(), span))
	return nil
}

// RemoveTagsIf strips every tag on the todo line for which pred is true.
// Matching tags that are only inherited are left alone.
func (t *Todo) RemoveTagsIf(pred func(tag.Tag) bool) {
	line := t.Text()
	matches := tag.FindAll(line)
	for i := len(matches) - 1; i >= 0; i-- {
		if pred(matches[i].Tag) {
			line = excise(line, matches[i].Span)
		}
	}
	t.SetText(line)
}

// UnsetCurrent removes @CURRENT from the todo line. A missing tag is logged,
// not returned.
func (t *Todo) UnsetCurrent() bool {
	if err := t.RemoveTag(tag.Current()); err != nil {
		log.Warn("could not remove current tag", "todo", t.Text(), "err", err)
		return false
	}
	return true
}

// IgnoreUntil returns the @IGNOREUNTIL instant, read in loc, or the zero
// time when the todo has none.
func (t *Todo) IgnoreUntil(loc *time.Location) (time.Time, error) {
	var found []tag.Tag
	for _, tg := range t.Tags() {
		if tg.IsIgnore() {
			found = append(found, tg)
		}
	}
	switch len(found) {
	case 0:
		return time.Time{}, nil
	case 1:
		return found[0].Time(loc)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrAmbiguousIgnoreTag, t.Text())
	}
}

// Score counts the distinct tag names of the todo that are in targets.
func (t *Todo) Score(targets tag.Set) int {
	seen := make(map[string]bool)
	score := 0
	for _, tg := range t.Tags() {
		name := tg.Name()
		if seen[name] {
			continue
		}
		seen[name] = true
		if targets.Has(name) {
			score++
		}
	}
	return score
}

// excise removes span from line along with one separating space, never
// touching the leading indentation.
func excise(line string, span tag.Span) string {
	start, end := span.Start, span.End
	if start > outline.Depth(line) && isSpace(line[start-1]) {
		start--
	} else if end < len(line) && line[end] == ' ' {
		end++
	}
	return line[:start] + line[end:]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
