// Package tag parses and formats the inline annotations embedded in outline text.
//
// A tag is a sigil (@ for contexts, # for projects) followed by an upper-case
// identifier and an optional parenthesised, comma-separated argument list:
//
//	@HOME  #GARDEN  @IGNOREUNTIL(2024-05-02T09:30)  @REPEAT(WEEKLY,interval=2)
//
// Tags only start at the beginning of the text or after whitespace, so e-mail
// addresses and similar tokens are not picked up.
package tag

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	SigilContext = '@'
	SigilProject = '#'
)

// Reserved tag names.
const (
	NameCurrent     = "@CURRENT"
	NameIgnoreUntil = "@IGNOREUNTIL"
	NameRepeat      = "@REPEAT"
	NameUrgent      = "@URGENT"
)

// TimeLayout is the minute-precision form used by @IGNOREUNTIL.
const TimeLayout = "2006-01-02T15:04"

var (
	ErrInvalidTag   = errors.New("invalid tag")
	ErrAmbiguousTag = errors.New("ambiguous tag")
)

// AmbiguousTagError reports more than one occurrence of a tag name in a line.
// It satisfies errors.Is(err, ErrAmbiguousTag).
type AmbiguousTagError struct {
	Name  string
	Text  string
	Count int
}

func (e *AmbiguousTagError) Error() string {
	if e == nil {
		return "ambiguous tag"
	}
	return fmt.Sprintf("more than one %s tag (%d) in %q", e.Name, e.Count, e.Text)
}

func (e *AmbiguousTagError) Is(target error) bool {
	return target == ErrAmbiguousTag
}

var pattern = regexp.MustCompile(`(?:^|\s)([@#][A-Z0-9_]*)(?:\(([^)]*)\))?`)

// Tag is an immutable annotation value. The zero value is not a valid tag.
type Tag struct {
	sigil byte
	ident string
	args  []string
}

// Span is a half-open byte range [Start, End) within a line.
type Span struct {
	Start int
	End   int
}

// Match is a tag found in a line together with its position.
type Match struct {
	Tag  Tag
	Span Span
}

// New builds a tag from a name such as "@HOME" and optional arguments.
func New(name string, args ...string) (Tag, error) {
	if len(name) == 0 || (name[0] != SigilContext && name[0] != SigilProject) {
		return Tag{}, fmt.Errorf("%w: %q has no sigil", ErrInvalidTag, name)
	}
	for i := 1; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return Tag{}, fmt.Errorf("%w: %q", ErrInvalidTag, name)
		}
	}
	t := Tag{sigil: name[0], ident: name[1:]}
	if args != nil {
		t.args = append([]string{}, args...)
	}
	return t, nil
}

// MustNew is New that panics; intended for package-level reserved tags.
func MustNew(name string, args ...string) Tag {
	t, err := New(name, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads exactly one tag from s, e.g. "@BLAH(54 54)".
func Parse(s string) (Tag, error) {
	m := pattern.FindStringSubmatchIndex(s)
	if m == nil || m[0] != 0 || m[1] != len(s) {
		return Tag{}, fmt.Errorf("%w: %q", ErrInvalidTag, s)
	}
	return fromSubmatch(s, m), nil
}

func fromSubmatch(s string, m []int) Tag {
	name := s[m[2]:m[3]]
	t := Tag{sigil: name[0], ident: name[1:]}
	if m[4] >= 0 {
		t.args = strings.Split(s[m[4]:m[5]], ",")
	}
	return t
}

// FindAll returns every tag in s, left to right, with its byte span.
// Duplicates are preserved. The span covers the tag itself, not the
// whitespace that precedes it.
func FindAll(s string) []Match {
	idx := pattern.FindAllStringSubmatchIndex(s, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Match, 0, len(idx))
	for _, m := range idx {
		out = append(out, Match{
			Tag:  fromSubmatch(s, m),
			Span: Span{Start: m[2], End: m[1]},
		})
	}
	return out
}

// Extract returns the tags of s in order of appearance.
func Extract(s string) []Tag {
	matches := FindAll(s)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]Tag, len(matches))
	for i, m := range matches {
		tags[i] = m.Tag
	}
	return tags
}

// Name is the sigil and identifier, without arguments.
func (t Tag) Name() string {
	if t.sigil == 0 {
		return ""
	}
	return string(t.sigil) + t.ident
}

func (t Tag) Sigil() byte { return t.sigil }

// Args returns a copy of the argument list; nil when no parentheses were given.
func (t Tag) Args() []string {
	if t.args == nil {
		return nil
	}
	return append([]string{}, t.args...)
}

func (t Tag) HasArgs() bool { return t.args != nil }

func (t Tag) String() string {
	if t.args == nil {
		return t.Name()
	}
	return t.Name() + "(" + strings.Join(t.args, ",") + ")"
}

func (t Tag) IsContext() bool { return t.sigil == SigilContext }
func (t Tag) IsProject() bool { return t.sigil == SigilProject }

// SameName reports whether both tags share sigil and identifier.
func (t Tag) SameName(o Tag) bool { return t.Name() == o.Name() }

func (t Tag) IsCurrent() bool { return t.Name() == NameCurrent }
func (t Tag) IsIgnore() bool  { return t.Name() == NameIgnoreUntil }
func (t Tag) IsRepeat() bool  { return t.Name() == NameRepeat }
func (t Tag) IsUrgent() bool  { return t.Name() == NameUrgent }

// FindIn locates the single tag in s that has t's name, ignoring arguments.
// ok is false when there is none; more than one is an AmbiguousTagError.
func (t Tag) FindIn(s string) (Span, bool, error) {
	var found []Span
	for _, m := range FindAll(s) {
		if m.Tag.SameName(t) {
			found = append(found, m.Span)
		}
	}
	switch len(found) {
	case 0:
		return Span{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Span{}, false, &AmbiguousTagError{Name: t.Name(), Text: s, Count: len(found)}
	}
}

// Time parses the first argument as a minute-precision timestamp in loc.
func (t Tag) Time(loc *time.Location) (time.Time, error) {
	if len(t.args) == 0 {
		return time.Time{}, fmt.Errorf("%w: %s has no timestamp", ErrInvalidTag, t)
	}
	if loc == nil {
		loc = time.Local
	}
	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(t.args[0]), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidTag, t, err)
	}
	return ts, nil
}

// Current is the marker of the active todo.
func Current() Tag { return Tag{sigil: SigilContext, ident: NameCurrent[1:]} }

// Urgent is the priority escalator.
func Urgent() Tag { return Tag{sigil: SigilContext, ident: NameUrgent[1:]} }

// Ignore is an argument-less @IGNOREUNTIL, useful for name comparisons.
func Ignore() Tag { return Tag{sigil: SigilContext, ident: NameIgnoreUntil[1:]} }

// IgnoreUntil suppresses a todo until ts (truncated to the minute).
func IgnoreUntil(ts time.Time) Tag {
	return Tag{sigil: SigilContext, ident: NameIgnoreUntil[1:], args: []string{ts.Format(TimeLayout)}}
}

// Repeat declares a recurrence, e.g. Repeat("HOURLY,interval=2").
func Repeat(rule string) Tag {
	return Tag{sigil: SigilContext, ident: NameRepeat[1:], args: strings.Split(rule, ",")}
}

// Set is a set of tag names.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// FilterBySigil keeps names starting with sigil, sorted.
func FilterBySigil(names []string, sigil byte) []string {
	var out []string
	for _, n := range names {
		if len(n) > 0 && n[0] == sigil {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func isIdentByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
