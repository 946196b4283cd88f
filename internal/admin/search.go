package admin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/debounce"
)

const DefaultSearchDelay = 500 * time.Millisecond

// ErrSuperseded is returned to a search that a newer keystroke replaced.
var ErrSuperseded = errors.New("search superseded by a newer one")

type searchOutcome[T any] struct {
	result     T
	err        error
	superseded bool
}

// SearchBox collapses a burst of searches into one trailing call of run.
// Callers block in Search until their term is run or replaced.
type SearchBox[T any] struct {
	deb *debounce.Debouncer
	run func(ctx context.Context, term string) (T, error)

	mu      sync.Mutex
	pending chan searchOutcome[T]
}

func NewSearchBox[T any](delay time.Duration, run func(ctx context.Context, term string) (T, error)) *SearchBox[T] {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &SearchBox[T]{deb: debounce.New(delay), run: run}
}

func (s *SearchBox[T]) Search(ctx context.Context, term string) (T, error) {
	var zero T
	ch := make(chan searchOutcome[T], 1)

	s.mu.Lock()
	if s.pending != nil {
		s.pending <- searchOutcome[T]{superseded: true}
	}
	s.pending = ch
	s.deb.Trigger(func() {
		s.mu.Lock()
		if s.pending != ch {
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()

		res, err := s.run(ctx, term)
		ch <- searchOutcome[T]{result: res, err: err}
	})
	s.mu.Unlock()

	select {
	case out := <-ch:
		if out.superseded {
			return zero, ErrSuperseded
		}
		return out.result, out.err
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == ch {
			s.pending = nil
			s.deb.Stop()
		}
		s.mu.Unlock()
		return zero, ctx.Err()
	}
}
