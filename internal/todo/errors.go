package todo

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTag         = errors.New("duplicate tag")
	ErrTagNotFound          = errors.New("tag not found")
	ErrTagNotOnOwnLine      = errors.New("tag is inherited from an enclosing line")
	ErrAmbiguousIgnoreTag   = errors.New("more than one @IGNOREUNTIL tag")
	ErrMultipleCurrentTodos = errors.New("more than one current todo")
	ErrNoCurrentTodo        = errors.New("no current todo")
	ErrMalformedDocument    = errors.New("malformed document")
	ErrStaleTodo            = errors.New("todo refers to an outdated document")
)

// MultipleCurrentError lists the lines carrying @CURRENT.
// It satisfies errors.Is(err, ErrMultipleCurrentTodos).
type MultipleCurrentError struct {
	Lines []int
}

func (e *MultipleCurrentError) Error() string {
	if e == nil || len(e.Lines) == 0 {
		return ErrMultipleCurrentTodos.Error()
	}
	return fmt.Sprintf("%s (lines %v)", ErrMultipleCurrentTodos, e.Lines)
}

func (e *MultipleCurrentError) Is(target error) bool {
	return target == ErrMultipleCurrentTodos
}
