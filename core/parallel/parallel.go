// Package parallel splits an index range into chunks processed by goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// Workers returns how many goroutines Chunks uses for items.
func Workers(items int) int {
	n := runtime.NumCPU()
	if n > items {
		n = items
	}
	return n
}

// Chunks calls fn over contiguous ranges [start, end) covering [0, items).
// With items at or below threshold fn runs once on the calling goroutine.
//
// Every chunk runs to completion. The error of the lowest failing chunk is
// returned; a panic inside fn is returned as a PanicError.
func Chunks(items, threshold int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		return errors.SafeExecute("parallel.Chunks", func() error { return fn(0, items) })
	}

	workers := Workers(items)
	// ceiling division
	chunkSize := (items + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, items)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			errs[w] = errors.SafeExecute("parallel.Chunks", func() error { return fn(s, e) })
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
