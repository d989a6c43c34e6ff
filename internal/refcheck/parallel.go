package refcheck

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/inodb/vibe-ref/internal/reference"
	"github.com/inodb/vibe-ref/internal/vcf"
)

// Opener returns a new, independently owned reference handle.
type Opener func() (reference.Reference, error)

// WorkItem holds a parsed variant ready for checking.
type WorkItem struct {
	Seq     int
	Variant *vcf.Variant
}

// WorkResult holds the check output for a single variant.
type WorkResult struct {
	Seq    int
	Result Result
	Err    error
}

// ParallelCheck checks work items using a pool of workers. Every worker
// opens its own reference handle before any item is consumed and closes it
// when items is drained. Results arrive in completion order; use
// OrderedCollect to consume them in sequence order. If workers is 0,
// runtime.NumCPU() is used.
func ParallelCheck(ctx context.Context, open Opener, items <-chan WorkItem, workers int) (<-chan WorkResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	refs := make([]reference.Reference, 0, workers)
	for range workers {
		ref, err := open()
		if err != nil {
			for _, r := range refs {
				r.Close()
			}
			return nil, fmt.Errorf("open reference for worker: %w", err)
		}
		refs = append(refs, ref)
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for _, ref := range refs {
		go func(ref reference.Reference) {
			defer wg.Done()
			defer ref.Close()
			checker := NewChecker(ref)
			for item := range items {
				res, err := checker.Check(item.Variant)
				select {
				case results <- WorkResult{Seq: item.Seq, Result: res, Err: err}:
				case <-ctx.Done():
					// Keep draining items so the producer can finish.
				}
			}
		}(ref)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, nil
}

// OrderedCollect calls fn once per result in Seq order, holding back
// results that arrive early. It returns when results is closed or fn fails;
// after a failure the rest of results is read and discarded.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	held := make(map[int]WorkResult)
	next := 0
	for wr := range results {
		held[wr.Seq] = wr
		for ready, ok := held[next]; ok; ready, ok = held[next] {
			delete(held, next)
			next++
			if err := fn(ready); err != nil {
				drain(results)
				return err
			}
		}
	}
	return nil
}

func drain(results <-chan WorkResult) {
	for range results {
	}
}
