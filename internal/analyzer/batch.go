package analyzer

import (
	"context"
	"sync"
	"sync/atomic"

	"audio-analyzer/internal/logging"
	"audio-analyzer/internal/metrics"
)

// ProgressFunc receives completion counts as batch work finishes. It
// may be called concurrently from worker goroutines.
type ProgressFunc func(done, total int)

type batchJob struct {
	index int
	path  string
}

type batchResult struct {
	index  int
	record metrics.FileMetrics
	err    error
}

// AnalyzeBatch runs AnalyzeFile over every path with a bounded worker
// pool and returns one record per successfully analyzed file. Results
// preserve input order regardless of completion order. Files that fail
// are dropped and logged; the batch itself only fails when ctx ends.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string, workers int, progress ProgressFunc) ([]metrics.FileMetrics, error) {
	total := len(paths)
	if total == 0 {
		return []metrics.FileMetrics{}, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	jobs := make(chan batchJob)
	results := make(chan batchResult, total)

	var wg sync.WaitGroup
	var completed atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				record, err := a.AnalyzeFile(ctx, job.path)
				results <- batchResult{index: job.index, record: record, err: err}
				done := completed.Add(1)
				if progress != nil {
					progress(int(done), total)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- batchJob{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*metrics.FileMetrics, total)
	for result := range results {
		if result.err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("file dropped from results",
					logging.String("file", paths[result.index]),
					logging.Error(result.err))
			}
			continue
		}
		record := result.record
		ordered[result.index] = &record
	}

	collected := make([]metrics.FileMetrics, 0, total)
	for _, record := range ordered {
		if record != nil {
			collected = append(collected, *record)
		}
	}
	if err := ctx.Err(); err != nil {
		return collected, err
	}
	return collected, nil
}
