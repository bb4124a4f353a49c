// Package db persists daily price history, issued predictions,
// strategy performance snapshots and trading triggers. The Postgres
// implementation threads transactions through the context; the
// in-memory implementation mirrors it for tests and dry runs.
package db

import (
	"context"
	"errors"
	"time"

	"stock-signals/internal/prediction"
	"stock-signals/internal/series"
)

// ErrUnavailable marks storage failures the caller should treat as
// "data unavailable right now" rather than as bad input. Check with
// errors.Is.
var ErrUnavailable = errors.New("storage unavailable")

// PriceStorage caches daily OHLCV bars per symbol.
type PriceStorage interface {
	SavePricePoints(ctx context.Context, symbol string, points []series.Point) error
	// PriceSeries returns the cached bars inside [from, to] inclusive,
	// oldest first. An unknown symbol yields an empty series, not an error.
	PriceSeries(ctx context.Context, symbol string, from, to time.Time) (*series.Series, error)
	// LatestPriceDate reports the most recent cached bar date for a
	// symbol. ok is false when nothing is cached.
	LatestPriceDate(ctx context.Context, symbol string) (date time.Time, ok bool, err error)
}

// PerformanceStorage keeps dated snapshots of per-strategy reliability.
type PerformanceStorage interface {
	SavePerformanceSnapshots(ctx context.Context, asOf time.Time, perf map[string]*prediction.StrategyPerformance) error
	// LatestPerformanceSnapshots returns the most recent snapshot set,
	// empty when none have been saved.
	LatestPerformanceSnapshots(ctx context.Context) (map[string]*prediction.StrategyPerformance, error)
}

// Event is a journaled pipeline event: a prediction issued, a trigger
// fired, an evaluation deferred.
type Event struct {
	ID          int64          `json:"id"`
	Time        time.Time      `json:"time"`
	Type        string         `json:"type"` // e.g. "prediction", "trigger", "error"
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// EventStorage journals pipeline events for later inspection.
type EventStorage interface {
	LogEvent(ctx context.Context, e Event) error
	// Events returns events of a type inside [start, end], oldest
	// first. An empty type matches all events.
	Events(ctx context.Context, eventType string, start, end time.Time) ([]Event, error)
}

// Storage is the full persistence surface of the pipeline.
type Storage interface {
	PriceStorage
	PerformanceStorage
	EventStorage
	prediction.Store
}
