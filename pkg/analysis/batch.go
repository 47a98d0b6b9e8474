package analysis

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sparkqual/sparkqual/pkg/source"
)

// DefaultConcurrency bounds parallel application analyses in a batch.
const DefaultConcurrency = 4

// BatchResult is the outcome for one application in a batch.
// Exactly one of Session and Err is set.
type BatchResult struct {
	AppIndex   int
	SourceName string
	Session    *Session
	Err        error
}

// AnalyzeBatch analyzes independent applications concurrently.
//
// Application indexes follow input order and results return in input
// order. A failure in one application never stops the others; it is
// reported on that application's BatchResult.
func AnalyzeBatch(ctx context.Context, sources []source.Source, concurrency int, opts Options) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]BatchResult, len(sources))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, src source.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := BatchResult{AppIndex: idx, SourceName: src.Name()}
			defer func() {
				// One corrupt log must not take down the batch.
				if r := recover(); r != nil {
					res.Session = nil
					res.Err = fmt.Errorf("analyze %s: panic: %v", src.Name(), r)
					results[idx] = res
				}
			}()

			if err := ctx.Err(); err != nil {
				res.Err = err
				results[idx] = res
				return
			}

			sess, err := AnalyzeSource(ctx, idx, src, opts)
			res.Session = sess
			res.Err = err
			results[idx] = res

			if err != nil && opts.Logger != nil {
				opts.Logger.Warn("Application analysis failed",
					zap.String("source", src.Name()),
					zap.Int("app_index", idx),
					zap.Error(err))
			}
		}(i, src)
	}

	wg.Wait()
	return results
}
