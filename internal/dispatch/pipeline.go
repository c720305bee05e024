package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Pipeline applies its stages to every item it is given. Step errors never
// stop a later stage.
type Pipeline[T any] struct {
	stages []Stage[T]
	log    zerolog.Logger
}

// NewPipeline drops stages without steps.
func NewPipeline[T any](logger zerolog.Logger, stages ...Stage[T]) *Pipeline[T] {
	p := &Pipeline[T]{log: logger}
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		if s.Len() > 0 {
			p.stages = append(p.stages, s)
			names = append(names, s.Name())
		}
	}
	logger.Debug().Strs("stages", names).Msg("pipeline ready")
	return p
}

// Empty reports whether there is nothing to run.
func (p *Pipeline[T]) Empty() bool {
	return len(p.stages) == 0
}

// Apply runs every stage for item and returns the joined step errors.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) error {
	var errs []error
	for _, stage := range p.stages {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					p.log.Error().Err(err).Str("stage", stage.Name()).Msg("step failed")
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

// Process applies the pipeline to every item read from in until the channel
// is closed. Items are handled one at a time in arrival order.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	for item := range in {
		_ = p.Apply(ctx, item)
	}
}
