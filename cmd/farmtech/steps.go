package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

// step is one named unit of setup or check work. run returns a short
// detail line on success.
type step struct {
	name string
	run  func(ctx context.Context) (string, error)
}

type stepResult struct {
	name    string
	detail  string
	err     error
	elapsed time.Duration
}

func (s step) exec(ctx context.Context) stepResult {
	start := time.Now()
	detail, err := s.run(ctx)
	return stepResult{name: s.name, detail: detail, err: err, elapsed: time.Since(start)}
}

// runSequential runs every step in order. A failed step does not stop the
// ones after it; each reports on its own.
func runSequential(ctx context.Context, steps []step) []stepResult {
	results := make([]stepResult, 0, len(steps))
	for _, s := range steps {
		results = append(results, s.exec(ctx))
	}
	return results
}

// runConcurrent runs independent steps in parallel and returns results in
// step order.
func runConcurrent(ctx context.Context, steps []step) []stepResult {
	results := make([]stepResult, len(steps))
	var g errgroup.Group
	g.SetLimit(4)
	for i, s := range steps {
		g.Go(func() error {
			results[i] = s.exec(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// report prints one line per result and returns the number of failures.
func report(w io.Writer, results []stepResult) int {
	failed := 0
	for i, r := range results {
		status := "PASS"
		detail := r.detail
		if r.err != nil {
			status = "FAIL"
			detail = r.err.Error()
			failed++
		}
		fmt.Fprintf(w, "  %d. [%s] %-14s %s (%s)\n", i+1, status, r.name, detail, r.elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "\n  %d/%d passed\n", len(results)-failed, len(results))
	return failed
}
