package enrich

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Pipeline runs a sequence of stages over an item. Steps within the same stage
// run in parallel and stages run sequentially. A failing step is logged and
// does not stop the remaining steps or stages.
type Pipeline[T any] struct {
	name   string
	stages []Stage[T]
}

// NewPipeline constructs a Pipeline from the provided stages. Stages are
// applied to each item in order.
func NewPipeline[T any](name string, stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{name: name, stages: stages}
}

// Run applies every stage to item and returns the joined step errors. Steps
// observe ctx for cancellation; once ctx is done, later stages are skipped.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					log.Printf("%s: stage %d step failed: %v", p.name, i+1, err)
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(step)
		}
		wg.Wait() // stage barrier
	}
	return errors.Join(errs...)
}

// Process consumes items from in until it is closed, running the pipeline on
// each and handing the finished item to done when it is non-nil.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T, done func(item *T, err error)) {
	for item := range in {
		err := p.Run(ctx, item)
		if done != nil {
			done(item, err)
		}
	}
}
