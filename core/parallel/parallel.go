package parallel

import (
	"runtime"
	"sync"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Parallelize splits [0, items) across the available CPU cores and runs fn
// on each subrange concurrently. It returns once every range has finished.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}

	// ceiling division
	span := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * span
		end := start + span
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially as a single [0, items) range
// when items is at or below threshold, and in parallel otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ParallelizeWithError runs fn over parallel ranges and returns the first
// error encountered. Ranges that have already started still run to
// completion; their errors are discarded. A panic inside a range is
// recovered and reported as a PanicError instead of taking down the process.
func ParallelizeWithError(items int, fn func(start, end int) error) error {
	var (
		once     sync.Once
		firstErr error
	)

	Parallelize(items, func(start, end int) {
		err := adapterrors.SafeExecute("parallel range", func() error {
			return fn(start, end)
		})
		if err != nil {
			once.Do(func() {
				firstErr = err
			})
		}
	})

	return firstErr
}

// ParallelizeWithErrorThreshold is the threshold-gated variant of
// ParallelizeWithError. The sequential path recovers panics the same way.
func ParallelizeWithErrorThreshold(items int, threshold int, fn func(start, end int) error) error {
	if items <= threshold {
		return adapterrors.SafeExecute("parallel range", func() error {
			return fn(0, items)
		})
	}
	return ParallelizeWithError(items, fn)
}
