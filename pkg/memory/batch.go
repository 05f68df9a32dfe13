package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrorPolicy selects how a batch reports per-target failures.
type ErrorPolicy int

const (
	// FailFast reports only the first failure in input order.
	FailFast ErrorPolicy = iota

	// CollectAll joins every failure into one error.
	CollectAll
)

// fanOut runs work for indexes 0..n-1 concurrently and returns the results
// index-aligned with the input. All targets always run to completion; the
// policy only shapes the returned error. On error the results slice is still
// returned so callers can salvage partial outcomes if they choose to.
func fanOut[T any](ctx context.Context, n int, policy ErrorPolicy, work func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = work(ctx, i)
		}(i)
	}
	wg.Wait()

	switch policy {
	case CollectAll:
		if err := errors.Join(errs...); err != nil {
			return results, err
		}
	default:
		for _, err := range errs {
			if err != nil {
				return results, err
			}
		}
	}

	return results, nil
}
