package todo

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amirbrooks/todonow/internal/outline"
	"github.com/amirbrooks/todonow/internal/tag"
)

// Store persists the document. After Sync returns nil, Load yields the same
// lines.
type Store interface {
	Load() ([]string, error)
	Sync(lines []string) error
}

// Option configures a List.
type Option func(*List)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *List) { l.now = now }
}

// WithRand sets the random source used to break ties.
func WithRand(r *rand.Rand) Option {
	return func(l *List) { l.rnd = r }
}

// WithLogger sets the logger; the default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(l *List) { l.logger = logger }
}

// List owns an outline document and the indices derived from it.
type List struct {
	lines  []string
	store  Store
	now    func() time.Time
	rnd    *rand.Rand
	logger *log.Logger

	// version increases on every edit; todos built from an older version
	// carry stale line numbers.
	version uint64
	todos   []*Todo
	byTag   map[string][]*Todo
}

// New wraps lines. st may be nil, in which case edits are not persisted.
func New(lines []string, st Store, opts ...Option) *List {
	l := &List{
		lines:  append([]string{}, lines...),
		store:  st,
		now:    time.Now,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open loads the document from st.
func Open(st Store, opts ...Option) (*List, error) {
	lines, err := st.Load()
	if err != nil {
		return nil, err
	}
	return New(lines, st, opts...), nil
}

// Lines returns a copy of the document.
func (l *List) Lines() []string { return append([]string{}, l.lines...) }

// Version identifies the current state of the document.
func (l *List) Version() uint64 { return l.version }

// Parse rebuilds the todo collection and the tag index from the document.
// Depth-0 lines end a section; ,INBOX starts one whose todos sit at depth 1,
// ,PROJECTS and ,CONTEXTS start ones whose todos sit at depth 2. The indices
// are replaced even when an error is returned.
func (l *List) Parse() error {
	var todos []*Todo
	byTag := make(map[string][]*Todo)
	var current []int

	inSection := false
	todoDepth := -1
	for i, line := range l.lines {
		depth := outline.Depth(line)
		if depth == 0 {
			inSection = false
			todoDepth = -1
		}
		if d, ok := outline.TodoDepth(line); ok {
			inSection = true
			todoDepth = d
			continue
		}
		if !inSection || depth != todoDepth {
			continue
		}
		td := &Todo{chain: outline.AncestorChain(l.lines, i), index: i, version: l.version}
		todos = append(todos, td)
		seen := make(map[string]bool)
		for _, tg := range td.Tags() {
			name := tg.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			byTag[name] = append(byTag[name], td)
			if tg.IsCurrent() {
				current = append(current, i+1)
			}
		}
	}
	l.todos = todos
	l.byTag = byTag
	if len(current) > 1 {
		return &MultipleCurrentError{Lines: current}
	}
	return nil
}

// Todos returns every todo in document order.
func (l *List) Todos() ([]*Todo, error) {
	err := l.Parse()
	return l.todos, err
}

// TagNames returns the distinct tag names used by todos, sorted.
func (l *List) TagNames() ([]string, error) {
	err := l.Parse()
	names := make([]string, 0, len(l.byTag))
	for name := range l.byTag {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, err
}

// Tagged returns the todos carrying a tag called name.
func (l *List) Tagged(name string) ([]*Todo, error) {
	if err := l.Parse(); err != nil {
		return nil, err
	}
	return l.byTag[name], nil
}

// Current returns the todo marked @CURRENT, or nil if there is none.
func (l *List) Current() (*Todo, error) {
	if err := l.Parse(); err != nil {
		return nil, err
	}
	return l.current(), nil
}

func (l *List) current() *Todo {
	if ct := l.byTag[tag.NameCurrent]; len(ct) > 0 {
		return ct[0]
	}
	return nil
}

// sync marks the document as changed and writes it out.
func (l *List) sync() error {
	l.version++
	if l.store == nil {
		return nil
	}
	return l.store.Sync(l.Lines())
}

func (l *List) checkFresh(t *Todo) error {
	if t == nil {
		return fmt.Errorf("%w: nil todo", ErrMalformedDocument)
	}
	if t.version != l.version {
		return fmt.Errorf("%w: todo at line %d is from version %d, document is at %d",
			ErrStaleTodo, t.index+1, t.version, l.version)
	}
	if t.index >= len(l.lines) {
		return fmt.Errorf("%w: line %d out of range", ErrMalformedDocument, t.index+1)
	}
	return nil
}
