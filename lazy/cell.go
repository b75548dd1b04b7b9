// Package lazy provides single-assignment deferred values that survive
// interrupted evaluation.
//
// A Cell runs its recipe at most once to success. While one caller
// evaluates, others wait for that attempt and share its outcome. If the
// attempt fails or is interrupted (cancelled context, panic, goroutine exit), the cell goes
// back to Unevaluated so a later Get retries instead of observing a half
// built value. Only errors wrapped with Permanent are remembered.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the evaluation state of a Cell.
type State uint8

const (
	Unevaluated State = iota
	Evaluating
	Evaluated
	Failed
)

func (s State) String() string {
	switch s {
	case Unevaluated:
		return "unevaluated"
	case Evaluating:
		return "evaluating"
	case Evaluated:
		return "evaluated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Recipe computes the value of a Cell.
type Recipe[T any] func(ctx context.Context) (T, error)

type attempt[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Cell is a lazily computed value. The zero value is not usable; use New.
type Cell[T any] struct {
	recipe Recipe[T]

	mu      sync.Mutex
	state   State
	value   T
	err     error
	current *attempt[T]
}

// New returns an Unevaluated cell for recipe.
func New[T any](recipe Recipe[T]) *Cell[T] {
	return &Cell[T]{recipe: recipe}
}

// Value returns a cell that is already Evaluated.
func Value[T any](v T) *Cell[T] {
	return &Cell[T]{state: Evaluated, value: v}
}

// Get returns the value, evaluating the recipe if needed. A caller that
// waits for another caller's attempt and whose ctx ends first gets
// ctx.Err() and leaves the attempt running.
func (c *Cell[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	switch c.state {
	case Evaluated:
		v := c.value
		c.mu.Unlock()
		return v, nil
	case Failed:
		err := c.err
		c.mu.Unlock()
		var zero T
		return zero, err
	case Evaluating:
		a := c.current
		c.mu.Unlock()
		return a.wait(ctx)
	}

	a := &attempt[T]{done: make(chan struct{})}
	c.state = Evaluating
	c.current = a
	c.mu.Unlock()

	c.run(ctx, a)
	return a.value, a.err
}

// State returns the current state.
func (c *Cell[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cell[T]) run(ctx context.Context, a *attempt[T]) {
	completed := false
	defer func() {
		if r := recover(); r != nil {
			a.err = &PanicError{Value: r}
		} else if !completed {
			// runtime.Goexit in the recipe.
			var zero T
			a.value, a.err = zero, ErrAbandoned
		}

		c.mu.Lock()
		switch {
		case a.err == nil:
			c.state = Evaluated
			c.value = a.value
		case IsPermanent(a.err):
			c.state = Failed
			c.err = a.err
		default:
			c.state = Unevaluated
		}
		c.current = nil
		c.mu.Unlock()

		close(a.done)
	}()

	a.value, a.err = c.recipe(ctx)
	completed = true
}

func (a *attempt[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-a.done:
		return a.value, a.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ErrAbandoned is returned to callers waiting on an attempt whose recipe
// exited its goroutine without returning.
var ErrAbandoned = errors.New("lazy recipe exited without returning")

// PanicError is returned when a recipe panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("lazy recipe panicked: %v", e.Value)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as a failure a Cell must keep instead of retrying.
func Permanent(err error) error {
	if err == nil || IsPermanent(err) {
		return err
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
