package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item and may return an error.
type WorkerFunc[T any] func(ctx context.Context, item T) error

type job[T any] struct {
	index int
	item  T
}

// Run processes items with at most numWorkers goroutines. The returned slice is aligned with
// items: errs[i] is the outcome of items[i], nil on success. Items that were never started
// because ctx was cancelled report ctx.Err().
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T]) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	started := make([]bool, len(items))
	jobs := make(chan job[T], numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					errs[j.index] = ctx.Err()
					continue
				}
				errs[j.index] = workerFunc(ctx, j.item)
			}
		}()
	}

OUT:
	for i, item := range items {
		select {
		case jobs <- job[T]{index: i, item: item}:
			started[i] = true
		case <-ctx.Done():
			break OUT
		}
	}
	close(jobs)
	wg.Wait()

	for i := range items {
		if !started[i] {
			errs[i] = ctx.Err()
		}
	}
	return errs
}

// FirstError returns the first non-nil error in errs.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
