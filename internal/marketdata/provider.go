package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stock-signals/internal/db"
	"stock-signals/internal/prediction"
	"stock-signals/internal/series"
)

var _ prediction.PriceSource = (*Provider)(nil)

// ErrNoData marks a symbol and range neither the upstream nor the
// cache has bars for. Check with errors.Is.
var ErrNoData = errors.New("no price data available")

// Provider serves daily price history through the database cache,
// fetching from upstream only when the cache is missing or stale. A
// failed fetch falls back to whatever is cached rather than failing
// the caller outright.
type Provider struct {
	fetcher Fetcher
	store   db.PriceStorage
	log     zerolog.Logger

	// Staleness is how far the latest cached bar may lag behind the
	// requested end of range before a refresh is forced. The default
	// spans a weekend plus a holiday.
	Staleness time.Duration
}

func NewProvider(fetcher Fetcher, store db.PriceStorage, log zerolog.Logger) *Provider {
	return &Provider{
		fetcher:   fetcher,
		store:     store,
		log:       log.With().Str("component", "marketdata").Logger(),
		Staleness: 4 * 24 * time.Hour,
	}
}

// Get returns the daily bars for symbol inside [from, to]. With
// forceRefresh the upstream is always consulted first.
func (p *Provider) Get(ctx context.Context, symbol string, from, to time.Time, forceRefresh bool) (*series.Series, error) {
	if !forceRefresh {
		cached, err := p.cachedIfFresh(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}

	points, err := p.fetcher.FetchDaily(ctx, symbol, from, to)
	if err != nil {
		// Serve stale data over no data.
		sr, cacheErr := p.store.PriceSeries(ctx, symbol, from, to)
		if cacheErr == nil && sr.Len() > 0 {
			p.log.Warn().Str("symbol", symbol).Err(err).
				Msg("fetch failed, serving cached prices")
			return sr, nil
		}
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}

	if len(points) > 0 {
		if err := p.store.SavePricePoints(ctx, symbol, points); err != nil {
			return nil, fmt.Errorf("failed to cache prices for %s: %w", symbol, err)
		}
	}
	p.log.Debug().Str("symbol", symbol).Int("bars", len(points)).Msg("refreshed price cache")

	sr, err := p.store.PriceSeries(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if sr.Len() == 0 {
		return nil, fmt.Errorf("%w for %s between %s and %s", ErrNoData,
			symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return sr, nil
}

// cachedIfFresh returns the cached range when its newest bar is close
// enough to the requested end, nil when a refresh is needed.
func (p *Provider) cachedIfFresh(ctx context.Context, symbol string, from, to time.Time) (*series.Series, error) {
	latest, ok, err := p.store.LatestPriceDate(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !ok || latest.Before(to.Add(-p.Staleness)) {
		return nil, nil
	}

	sr, err := p.store.PriceSeries(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if sr.Len() == 0 {
		// Fresh elsewhere but empty in this window; refetch.
		return nil, nil
	}
	return sr, nil
}
