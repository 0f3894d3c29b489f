package todo

import (
	"errors"
	"fmt"

	"github.com/amirbrooks/todonow/internal/tag"
)

// TopTodo returns the todo to work on now and marks it @CURRENT.
//
// An existing current todo is returned unchanged. Otherwise every todo
// tagged with one of contexts, and not ignored until a later time, is scored
// by how many of contexts it carries; ties at the best score are broken
// uniformly at random by reservoir sampling. With no such candidate a todo
// is picked uniformly from the whole list.
func (l *List) TopTodo(contexts []string) (*Todo, error) {
	if err := l.Parse(); err != nil {
		return nil, err
	}
	if cur := l.current(); cur != nil {
		return cur, nil
	}

	best, err := l.bestMatch(contexts)
	if err != nil {
		return nil, err
	}
	if best == nil {
		if len(l.todos) == 0 {
			return nil, fmt.Errorf("%w: no todos in outline", ErrMalformedDocument)
		}
		best = l.todos[l.rnd.IntN(len(l.todos))]
	}

	// Stamp the document line directly; the chosen todo may inherit
	// tags that AddTag would refuse to duplicate.
	l.lines[best.index] += " " + tag.Current().String()
	if err := l.sync(); err != nil {
		return nil, err
	}
	if err := l.Parse(); err != nil {
		return nil, err
	}
	return l.current(), nil
}

func (l *List) bestMatch(contexts []string) (*Todo, error) {
	now := l.now()
	targets := tag.NewSet(contexts...)
	visited := make(map[int]bool)

	var best *Todo
	bestScore, ties := -1, 0
	for _, name := range contexts {
		for _, td := range l.byTag[name] {
			if visited[td.index] {
				continue
			}
			visited[td.index] = true

			until, err := td.IgnoreUntil(now.Location())
			if err != nil {
				if errors.Is(err, ErrAmbiguousIgnoreTag) {
					return nil, err
				}
				l.logger.Warn("unreadable ignore tag", "line", td.index+1, "err", err)
			}
			if until.After(now) {
				continue
			}

			score := td.Score(targets)
			switch {
			case score > bestScore:
				best, bestScore, ties = td, score, 1
			case score == bestScore:
				ties++
				if l.rnd.IntN(ties) == 0 {
					best = td
				}
			}
		}
	}
	return best, nil
}
