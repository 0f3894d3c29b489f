// Package orders decides what the user should be doing right now.
//
// Each Source may propose an Order. The Runner keeps the proposal with the
// highest priority, except that a proposal matching the previously
// announced order is always taken, so work in progress is not interrupted
// by an equal-priority alternative.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amirbrooks/todonow/internal/store"
	"github.com/amirbrooks/todonow/internal/tag"
	"github.com/amirbrooks/todonow/internal/todo"
)

type Priority int

const (
	PriorityMinimum Priority = 0
	PriorityDefault Priority = 50
	PriorityMedium  Priority = 75
	PriorityTop     Priority = 100
)

// CommandSplit is the follow-up command attached to todo orders.
const CommandSplit = "split"

// NothingToDo is the description of the fallback order.
const NothingToDo = "Nothing to do"

type Order struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description"`
	Command     string   `json:"command,omitempty"`
	Priority    Priority `json:"priority"`
	Source      string   `json:"source,omitempty"`
}

func (o Order) String() string { return o.Description }

// Source proposes an order. A nil order means the source has nothing to say.
type Source interface {
	Name() string
	Propose(ctx context.Context) (*Order, error)
}

// History remembers the last announced order.
type History interface {
	Load() (store.Settings, error)
	RecordOrder(text string) (store.LastOrder, error)
}

type Runner struct {
	Sources []Source
	History History
	Logger  *log.Logger
}

// Run asks every source in turn and records the winning order.
func (r *Runner) Run(ctx context.Context) (Order, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	last := ""
	if r.History != nil {
		st, err := r.History.Load()
		if err != nil {
			logger.Warn("unreadable settings", "err", err)
		} else if st.LastOrder != nil {
			last = st.LastOrder.Text
		}
	}

	best := Order{Description: NothingToDo, Priority: PriorityMinimum}
	for _, src := range r.Sources {
		if err := ctx.Err(); err != nil {
			return Order{}, err
		}
		o, err := src.Propose(ctx)
		if err != nil {
			return Order{}, fmt.Errorf("%s: %w", src.Name(), err)
		}
		if o == nil {
			continue
		}
		o.Source = src.Name()
		if Prefer(best, *o, last) {
			logger.Debug("order", "source", src.Name(), "priority", o.Priority, "text", strings.TrimSpace(o.Description))
			best = *o
		}
	}

	if r.History != nil {
		lo, err := r.History.RecordOrder(best.Description)
		if err != nil {
			return Order{}, err
		}
		best.ID = lo.ID
	}
	return best, nil
}

// Prefer reports whether candidate should replace current. last is the
// description of the previously announced order.
func Prefer(current, candidate Order, last string) bool {
	if last != "" && candidate.Description == last {
		return true
	}
	return candidate.Priority > current.Priority
}

// Announce formats o as a timestamped line.
func Announce(o Order, now time.Time) string {
	return now.Format(todo.LogTimeLayout) + " " + strings.TrimLeft(o.Description, " \t")
}

type bedtime struct {
	start, end int
	now        func() time.Time
}

// Bedtime proposes sleep at top priority from hour start until hour end.
func Bedtime(start, end int, now func() time.Time) Source {
	return &bedtime{start: start, end: end, now: now}
}

func (b *bedtime) Name() string { return "bedtime" }

func (b *bedtime) Propose(context.Context) (*Order, error) {
	h := b.now().Hour()
	var late bool
	if b.start <= b.end {
		late = h >= b.start && h < b.end
	} else {
		late = h >= b.start || h < b.end
	}
	if !late {
		return nil, nil
	}
	return &Order{Description: "Sleeeeeeeeeeeep is gooooooooooood", Priority: PriorityTop}, nil
}

type todoList struct {
	open     func() (*todo.List, error)
	contexts []string
}

// TodoList proposes the top todo for contexts. @URGENT todos get top
// priority.
func TodoList(open func() (*todo.List, error), contexts []string) Source {
	return &todoList{open: open, contexts: contexts}
}

func (t *todoList) Name() string { return "todolist" }

func (t *todoList) Propose(context.Context) (*Order, error) {
	list, err := t.open()
	if err != nil {
		return nil, err
	}
	top, err := list.TopTodo(t.contexts)
	if err != nil {
		if errors.Is(err, todo.ErrMalformedDocument) {
			if todos, terr := list.Todos(); terr == nil && len(todos) == 0 {
				return nil, nil
			}
		}
		return nil, err
	}
	if top == nil {
		return nil, nil
	}
	pr := PriorityDefault
	if strings.Contains(top.Text(), tag.NameUrgent) {
		pr = PriorityTop
	}
	return &Order{Description: top.Text(), Command: CommandSplit, Priority: pr}, nil
}
