package parallel

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

type result[D any] struct {
	d D
	e error
}

// Map applies mapFunc to every element of a sequence with at most limit calls
// in flight. Input and output are iterators, so the typical usage is
//
//	for d, err := range parallel.NewMap(limit, f).Iter(ctx, seq) {}
//
// Results arrive in completion order. Errors carried by the input sequence are
// passed through without calling mapFunc. A canceled context or an early break
// stops feeding new elements; Iter returns once every started call finished.
type Map[E, D any] struct {
	limit   int
	mapFunc func(context.Context, E) (D, error)
}

func NewMap[E, D any](limit int, mapFunc func(context.Context, E) (D, error)) *Map[E, D] {
	return &Map[E, D]{
		limit:   max(limit, 1),
		mapFunc: mapFunc,
	}
}

func (m *Map[E, D]) Iter(ctx context.Context, seq iter.Seq2[E, error]) iter.Seq2[D, error] {
	return func(yield func(D, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		// one extra goroutine feeds the workers
		g.SetLimit(m.limit + 1)
		mapped := make(chan result[D], m.limit)

		send := func(r result[D]) {
			select {
			case mapped <- r:
			case <-gctx.Done():
			}
		}

		g.Go(func() error {
			for entry, err := range seq {
				if gctx.Err() != nil {
					return nil
				}
				if err != nil {
					send(result[D]{e: err})
					continue
				}
				g.Go(func() error {
					d, err := m.mapFunc(gctx, entry)
					send(result[D]{d: d, e: err})
					return nil
				})
			}
			return nil
		})

		go func() {
			_ = g.Wait()
			close(mapped)
		}()

		for r := range mapped {
			if ctx.Err() != nil || !yield(r.d, r.e) {
				break
			}
		}
		cancel()
		for range mapped {
		}
	}
}
