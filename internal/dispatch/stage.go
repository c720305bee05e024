// Package dispatch runs a finished item through ordered stages of side
// effects. Steps inside a stage run in parallel; stages run one after the
// other.
package dispatch

import (
	"context"
)

// Step is one side effect applied to an item. Steps in the same stage share
// the item and must not write the same fields. A failing step returns an
// error; the pipeline logs it and moves on.
type Step[T any] func(ctx context.Context, item *T) error

// Stage is a named group of steps that may run concurrently for one item.
// The pipeline waits for all of them before starting the next stage.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}

func (s Stage[T]) Name() string { return s.name }

// Len is the number of steps in the stage.
func (s Stage[T]) Len() int { return len(s.steps) }
