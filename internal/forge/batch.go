package forge

import (
	"context"
	"time"
)

// ProgressCallback reports batch progress; step is a short machine-readable
// tag ("queued", "generating", "done", or "cancelled" for requests skipped
// because the batch context was already done).
type ProgressCallback func(progress BatchProgress)

// ExecuteBatch runs requests through Generate with bounded parallelism,
// preserving output order regardless of completion order (spec.md §4.11).
// concurrency <= 0 falls back to 1.
func (f *Forge) ExecuteBatch(ctx context.Context, requests []Request, concurrency int, onProgress ProgressCallback) BatchResult {
	started := time.Now()

	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(requests))
	total := len(requests)

	for chunkStart := 0; chunkStart < total; chunkStart += concurrency {
		chunkEnd := chunkStart + concurrency
		if chunkEnd > total {
			chunkEnd = total
		}

		if ctx.Err() != nil {
			for i := chunkStart; i < total; i++ {
				results[i] = failedResult("cancelled", started)
				report(onProgress, i, total, "cancelled", "batch aborted")
			}
			break
		}

		f.runChunk(ctx, requests, results, chunkStart, chunkEnd, total, started, onProgress)
	}

	return summarize(results, started)
}

func (f *Forge) runChunk(ctx context.Context, requests []Request, results []Result, start, end, total int, started time.Time, onProgress ProgressCallback) {
	type outcome struct {
		index  int
		result Result
	}

	done := make(chan outcome, end-start)
	for i := start; i < end; i++ {
		report(onProgress, i, total, "queued", "")
		go func(idx int, req Request) {
			report(onProgress, idx, total, "generating", "")
			res := f.Generate(ctx, req)
			done <- outcome{index: idx, result: res}
		}(i, requests[i])
	}

	for i := start; i < end; i++ {
		o := <-done
		results[o.index] = o.result
		report(onProgress, o.index, total, "done", string(o.result.Status))
	}
}

func report(onProgress ProgressCallback, index, total int, step, message string) {
	if onProgress == nil {
		return
	}
	onProgress(BatchProgress{Index: index, Total: total, Step: step, Message: message})
}

func summarize(results []Result, started time.Time) BatchResult {
	out := BatchResult{
		Results:         results,
		TotalDurationMs: time.Since(started).Milliseconds(),
	}
	for _, r := range results {
		switch r.Status {
		case StatusCompleted:
			out.SuccessCount++
		case StatusPartial:
			out.PartialCount++
		case StatusFailed:
			out.FailureCount++
		}
	}
	return out
}
