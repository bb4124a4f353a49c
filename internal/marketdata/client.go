// Package marketdata fetches daily price history from Yahoo Finance
// and serves it through a database-backed cache.
package marketdata

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"stock-signals/internal/series"
)

// Fetcher pulls daily bars from an upstream source.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]series.Point, error)
}

// YahooFetcher fetches daily charts from Yahoo Finance with retries.
type YahooFetcher struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func NewYahooFetcher() *YahooFetcher {
	return &YahooFetcher{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]series.Point, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	var lastErr error
	for attempt := 0; attempt < f.MaxRetries; attempt++ {
		points, err := fetchDailyChart(symbol, from, to)
		if err == nil {
			return points, nil
		}
		lastErr = fmt.Errorf("chart fetch for %s failed on attempt %d: %w", symbol, attempt+1, err)

		if attempt < f.MaxRetries-1 {
			delay := calculateRetryDelay(attempt, f.BaseDelay, f.MaxDelay, backoffFactor, jitterRange)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}
	return nil, lastErr
}

func fetchDailyChart(symbol string, from, to time.Time) ([]series.Point, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&from),
		End:      datetime.New(&to),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var points []series.Point
	for iter.Next() {
		bar := iter.Bar()
		points = append(points, series.Point{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   toPrice(bar.Open),
			High:   toPrice(bar.High),
			Low:    toPrice(bar.Low),
			Close:  toPrice(bar.Close),
			Volume: int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// toPrice narrows the exchange decimal to the float64 the series uses.
func toPrice(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

const (
	backoffFactor = 2.0
	jitterRange   = 0.1 // ±10% jitter
)

// calculateRetryDelay returns baseDelay * backoffFactor^attempt capped
// at maxDelay, with jitter to avoid thundering herd.
func calculateRetryDelay(attempt int, baseDelay, maxDelay time.Duration, backoffFactor, jitterRange float64) time.Duration {
	delay := float64(baseDelay) * math.Pow(backoffFactor, float64(attempt))

	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	jitter := delay * jitterRange * (2*rand.Float64() - 1)
	delay += jitter

	if delay < 0 {
		delay = float64(baseDelay)
	}

	return time.Duration(delay)
}
