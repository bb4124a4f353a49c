package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stock-signals/internal/series"
)

// Store persists predictions and triggers. Implementations surface
// unavailability as a distinct error; the tracker does not retry.
type Store interface {
	SavePrediction(ctx context.Context, r *Record) error
	// PendingPredictions returns unresolved records issued before the
	// given time, oldest first.
	PendingPredictions(ctx context.Context, issuedBefore time.Time) ([]Record, error)
	UpdateOutcome(ctx context.Context, r *Record) error
	// PredictionsSince returns all records issued at or after since.
	PredictionsSince(ctx context.Context, since time.Time) ([]Record, error)
	ResolvedPredictions(ctx context.Context) ([]Record, error)
	SaveTriggers(ctx context.Context, triggers []Trigger) error
	DeactivateTriggers(ctx context.Context, before time.Time) error
	ActiveTriggers(ctx context.Context) ([]Trigger, error)
}

// PriceSource supplies daily price history. Caching, staleness and
// retry policy live behind this interface.
type PriceSource interface {
	Get(ctx context.Context, symbol string, from, to time.Time, forceRefresh bool) (*series.Series, error)
}

// Tracker drives the prediction lifecycle: resolve pending predictions
// against price history, aggregate reliability, emit triggers.
type Tracker struct {
	store     Store
	prices    PriceSource
	evaluator *Evaluator
	generator *Generator
	log       zerolog.Logger
}

func NewTracker(store Store, prices PriceSource, log zerolog.Logger) *Tracker {
	return &Tracker{
		store:     store,
		prices:    prices,
		evaluator: NewEvaluator(),
		generator: NewGenerator(),
		log:       log,
	}
}

// UpdateOutcomes resolves every pending prediction whose price history
// is decisive and returns the number updated. Predictions with missing
// or still-indecisive price data are left for a later pass.
func (t *Tracker) UpdateOutcomes(ctx context.Context, now time.Time) (int, error) {
	pending, err := t.store.PendingPredictions(ctx, now.AddDate(0, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("loading pending predictions: %w", err)
	}

	updated := 0
	for i := range pending {
		r := &pending[i]
		sr, err := t.prices.Get(ctx, r.Symbol, r.DateIssued, now, false)
		if err != nil {
			t.log.Warn().Err(err).Str("symbol", r.Symbol).Msg("price history unavailable, deferring evaluation")
			continue
		}

		res, ok := t.evaluator.Evaluate(r, sr)
		if !ok {
			continue
		}
		if err := r.Apply(res); err != nil {
			return updated, err
		}
		if err := t.store.UpdateOutcome(ctx, r); err != nil {
			return updated, fmt.Errorf("storing outcome for %s: %w", r.Symbol, err)
		}
		t.log.Info().
			Str("symbol", r.Symbol).
			Str("outcome", string(res.Outcome)).
			Str("exit", string(res.Kind)).
			Float64("return_pct", res.ReturnPct).
			Int("days_held", res.DaysHeld).
			Msg("prediction resolved")
		updated++
	}
	return updated, nil
}

// GenerateTriggers rebuilds the active trigger set from the current
// prediction history. Triggers from earlier runs are deactivated first.
func (t *Tracker) GenerateTriggers(ctx context.Context, now time.Time) ([]Trigger, error) {
	recent, err := t.store.PredictionsSince(ctx, now.Add(-t.generator.Window))
	if err != nil {
		return nil, fmt.Errorf("loading recent predictions: %w", err)
	}
	resolved, err := t.store.ResolvedPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading resolved predictions: %w", err)
	}

	perf := Aggregate(resolved)

	prices := make(map[string]float64)
	seen := make(map[string]bool)
	for _, r := range recent {
		if seen[r.Symbol] {
			continue
		}
		seen[r.Symbol] = true
		sr, err := t.prices.Get(ctx, r.Symbol, now.AddDate(0, 0, -7), now, false)
		if err != nil || sr.Last() == nil {
			t.log.Warn().Str("symbol", r.Symbol).Msg("no current price, skipping symbol")
			continue
		}
		prices[r.Symbol] = sr.Last().Close
	}

	triggers := t.generator.Generate(now, recent, perf, prices)

	day := now.Truncate(24 * time.Hour)
	if err := t.store.DeactivateTriggers(ctx, day); err != nil {
		return nil, fmt.Errorf("deactivating stale triggers: %w", err)
	}
	if err := t.store.SaveTriggers(ctx, triggers); err != nil {
		return nil, fmt.Errorf("saving triggers: %w", err)
	}

	t.log.Info().Int("count", len(triggers)).Msg("trading triggers generated")
	return triggers, nil
}

// RunFullAnalysis resolves outcomes, regenerates triggers and renders
// the markdown performance report.
func (t *Tracker) RunFullAnalysis(ctx context.Context, now time.Time) (string, error) {
	updated, err := t.UpdateOutcomes(ctx, now)
	if err != nil {
		return "", err
	}
	t.log.Info().Int("updated", updated).Msg("prediction outcomes updated")

	triggers, err := t.GenerateTriggers(ctx, now)
	if err != nil {
		return "", err
	}

	resolved, err := t.store.ResolvedPredictions(ctx)
	if err != nil {
		return "", fmt.Errorf("loading resolved predictions: %w", err)
	}
	return Report(now, Aggregate(resolved), triggers), nil
}
