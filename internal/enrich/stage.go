// Package enrich provides a small, generic pipeline abstraction that runs
// independent steps in parallel within a stage while keeping stages
// sequential.
package enrich

import (
	"context"
)

// Step mutates the given item. Steps in the same stage run concurrently on the
// same item, so each step should write to its own fields.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that are safe to execute in parallel for a single item.
type Stage[T any] struct {
	steps []Step[T]
}

func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
