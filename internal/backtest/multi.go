package backtest

import (
	"context"
	"sync"

	"stock-signals/internal/series"
	"stock-signals/internal/strategy"
)

// MultiResult collects per-symbol results from a concurrent run.
type MultiResult struct {
	Results        map[string]*Result `json:"results"`
	Errors         map[string]error   `json:"-"`
	TotalSymbols   int                `json:"total_symbols"`
	SuccessfulRuns int                `json:"successful_runs"`
	FailedRuns     int                `json:"failed_runs"`
}

// RunAll backtests every series in parallel with at most workers
// goroutines. Symbols share no state, so each one gets its own strategy
// instance from newStrategy. That keeps adaptive strategies like the
// ensemble from interleaving weight updates across symbols.
//
// A cancelled context stops dispatching new symbols; results already
// computed remain in the returned MultiResult.
func (e *Engine) RunAll(ctx context.Context, newStrategy func() strategy.Strategy, all map[string]*series.Series, workers int) *MultiResult {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(all) {
		workers = len(all)
	}

	out := &MultiResult{
		Results:      make(map[string]*Result, len(all)),
		Errors:       make(map[string]error),
		TotalSymbols: len(all),
	}
	if len(all) == 0 {
		return out
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				res, err := e.Run(newStrategy(), all[symbol])
				mu.Lock()
				if err != nil {
					out.Errors[symbol] = err
					out.FailedRuns++
				} else {
					out.Results[symbol] = res
					out.SuccessfulRuns++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for symbol := range all {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()
	return out
}
