package todo

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/amirbrooks/todonow/internal/outline"
	"github.com/amirbrooks/todonow/internal/tag"
)

// LogTimeLayout stamps entries appended to the completion log.
const LogTimeLayout = "2006-01-02T15:04-0700"

// SplitTodo writes original's (possibly edited) line back and inserts
// addition as a raw line right below it. original must come from the
// current version of the document.
func (l *List) SplitTodo(original *Todo, addition string) error {
	if err := l.checkFresh(original); err != nil {
		return err
	}
	l.lines[original.index] = original.Text()
	l.lines = slices.Insert(l.lines, original.index+1, addition)
	return l.sync()
}

// AddNewTodo inserts text as the first entry of the ,INBOX section. It
// returns false when the document has no inbox.
func (l *List) AddNewTodo(text string) (bool, error) {
	for i, line := range l.lines {
		if strings.TrimSpace(line) != outline.SectionInbox {
			continue
		}
		entry := outline.Indent(text, outline.Depth(line)+1)
		l.lines = slices.Insert(l.lines, i+1, entry)
		return true, l.sync()
	}
	return false, nil
}

// MarkCurrentDone completes the current todo. A todo with @REPEAT stays in
// place, ignored until its next occurrence; any other todo is removed and a
// timestamped copy is appended to the end of the document.
func (l *List) MarkCurrentDone() error {
	cur, err := l.Current()
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrNoCurrentTodo
	}
	idx := cur.index
	done := l.lines[idx]

	cur.UnsetCurrent()
	cur.RemoveTagsIf(tag.Tag.IsIgnore)

	if repeat, ok := firstTag(cur.Tags(), tag.Tag.IsRepeat); ok {
		ignore, err := repeat.IgnoreFromRepeat(l.now())
		if err != nil {
			return err
		}
		if err := cur.AddTag(ignore); err != nil {
			return err
		}
		l.lines[idx] = cur.Text()
		l.logger.Info("rescheduled", "todo", strings.TrimSpace(cur.Text()))
		return l.sync()
	}

	// Todos are single lines: only the todo line itself is removed.
	l.lines = slices.Delete(l.lines, idx, idx+1)
	l.lines = append(l.lines, l.logEntry(done))
	l.logger.Info("done", "todo", strings.TrimSpace(done))
	return l.sync()
}

// SplitCurrent puts the top todo aside and inserts a follow-up task below
// it that becomes current. The follow-up copies the todo's own tags except
// @IGNOREUNTIL; the original is ignored for delay, or urgentDelay when it is
// @URGENT.
func (l *List) SplitCurrent(contexts []string, text string, delay, urgentDelay time.Duration) (*Todo, error) {
	top, err := l.TopTodo(contexts)
	if err != nil {
		return nil, err
	}
	if _, ok, err := tag.Current().FindIn(top.Text()); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTagNotOnOwnLine, tag.NameCurrent)
	}

	parts := []string{strings.TrimSpace(text)}
	for _, tg := range top.OwnTags() {
		if !tg.IsIgnore() {
			parts = append(parts, tg.String())
		}
	}
	addition := outline.Indent(strings.Join(parts, " "), outline.Depth(top.Text()))

	wait := delay
	if top.HasTag(tag.NameUrgent) {
		wait = urgentDelay
	}
	top.UnsetCurrent()
	top.RemoveTagsIf(tag.Tag.IsIgnore)
	if err := top.AddTag(tag.IgnoreUntil(l.now().Add(wait))); err != nil {
		return nil, err
	}
	if err := l.SplitTodo(top, addition); err != nil {
		return nil, err
	}
	return l.Current()
}

// logEntry formats a completed line for the log at the end of the document.
// The @CURRENT marker is dropped so the entry never reads as active work.
func (l *List) logEntry(line string) string {
	if span, ok, err := tag.Current().FindIn(line); err == nil && ok {
		line = excise(line, span)
	}
	return "\t" + l.now().Format(LogTimeLayout) + " " + strings.TrimLeft(line, " \t")
}

func firstTag(tags []tag.Tag, pred func(tag.Tag) bool) (tag.Tag, bool) {
	for _, tg := range tags {
		if pred(tg) {
			return tg, true
		}
	}
	return tag.Tag{}, false
}
