package recommend

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signals/internal/prediction"
	"stock-signals/internal/series"
	"stock-signals/internal/strategy"
)

type scripted struct {
	name       string
	minHistory int
	sig        strategy.Signal
}

func (s scripted) Name() string                { return s.name }
func (s scripted) MinHistory() int             { return s.minHistory }
func (s scripted) RequiresFundamentals() bool  { return false }
func (s scripted) GenerateSignal(*series.Series, int) strategy.Signal {
	return s.sig
}

func flatSeries(symbol string, n int, close float64) *series.Series {
	pts := make([]series.Point, n)
	for i := range pts {
		pts[i] = series.Point{
			Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   close,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: 1000,
		}
	}
	return series.New(symbol, pts)
}

func signal(t strategy.SignalType, conf float64, reason string) strategy.Signal {
	return strategy.Signal{Type: t, Confidence: conf, Reason: reason}
}

func TestAnalyzeMajorityVoteAndSizing(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	strategies := []strategy.Strategy{
		scripted{name: "a", minHistory: 2, sig: signal(strategy.Long, 0.8, "breakout")},
		scripted{name: "b", minHistory: 2, sig: signal(strategy.Long, 0.7, "momentum")},
		scripted{name: "c", minHistory: 2, sig: signal(strategy.Short, 0.9, "overbought")},
	}
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	records, err := engine.Analyze(strategies, map[string]*series.Series{
		"AAPL": flatSeries("AAPL", 25, 100),
	}, now)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "AAPL", r.Symbol)
	assert.Equal(t, prediction.ActionBuy, r.Action)
	assert.Equal(t, prediction.PositionLong, r.Type)
	assert.Equal(t, now, r.DateIssued)
	assert.InDelta(t, 0.75, r.Confidence, 1e-9)
	assert.Equal(t, []string{"a", "b"}, r.Strategies)
	assert.Equal(t, "a: breakout | b: momentum", r.Details)

	// Flat series: zero volatility and zero trend strength, so the
	// multipliers stay at their bases.
	assert.InDelta(t, 100.0, r.EntryPrice, 1e-9)
	assert.InDelta(t, 97.75, r.StopLoss, 1e-9)   // 100·(1 − 1.5·0.015)
	assert.InDelta(t, 109.0, r.TakeProfit, 1e-9) // 100·(1 + 4.5·0.02)
	// $2000 risk over a $2.25 stop distance.
	assert.Equal(t, 888, r.PositionSize)
	require.NoError(t, r.Validate())
}

func TestAnalyzeShortConsensus(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	strategies := []strategy.Strategy{
		scripted{name: "a", minHistory: 2, sig: signal(strategy.Short, 0.8, "breakdown")},
		scripted{name: "b", minHistory: 2, sig: signal(strategy.Long, 0.7, "dip buy")},
		scripted{name: "c", minHistory: 2, sig: signal(strategy.Short, 0.6, "distribution")},
	}

	records, err := engine.Analyze(strategies, map[string]*series.Series{
		"MSFT": flatSeries("MSFT", 25, 200),
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, prediction.ActionSell, r.Action)
	assert.Equal(t, prediction.PositionShort, r.Type)
	assert.Greater(t, r.StopLoss, r.EntryPrice)
	assert.Less(t, r.TakeProfit, r.EntryPrice)
}

func TestAnalyzeExitOnSplitVote(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	strategies := []strategy.Strategy{
		scripted{name: "a", minHistory: 2, sig: signal(strategy.Long, 0.8, "up")},
		scripted{name: "b", minHistory: 2, sig: signal(strategy.Short, 0.8, "down")},
		scripted{name: "c", minHistory: 2, sig: signal(strategy.Exit, 0.7, "flat")},
	}

	records, err := engine.Analyze(strategies, map[string]*series.Series{
		"AAPL": flatSeries("AAPL", 25, 100),
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, prediction.ActionExit, records[0].Action)
	assert.Equal(t, prediction.PositionClose, records[0].Type)
}

func TestAnalyzeFiltersWeakAndHoldSignals(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	strategies := []strategy.Strategy{
		scripted{name: "a", minHistory: 2, sig: signal(strategy.Long, 0.59, "weak")},
		scripted{name: "b", minHistory: 2, sig: strategy.HoldSignal("nothing")},
		scripted{name: "c", minHistory: 100, sig: signal(strategy.Long, 0.9, "short history")},
	}

	records, err := engine.Analyze(strategies, map[string]*series.Series{
		"AAPL": flatSeries("AAPL", 25, 100),
	}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAnalyzeOrdersRecordsBySymbol(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	strategies := []strategy.Strategy{
		scripted{name: "a", minHistory: 2, sig: signal(strategy.Long, 0.8, "up")},
	}

	records, err := engine.Analyze(strategies, map[string]*series.Series{
		"MSFT": flatSeries("MSFT", 25, 200),
		"AAPL": flatSeries("AAPL", 25, 100),
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AAPL", records[0].Symbol)
	assert.Equal(t, "MSFT", records[1].Symbol)
}

func TestAnalyzeValidatesConfig(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	engine.RiskPerTrade = 0

	_, err := engine.Analyze([]strategy.Strategy{
		scripted{name: "a", minHistory: 2, sig: signal(strategy.Long, 0.8, "up")},
	}, nil, time.Now())
	assert.Error(t, err)

	_, err = NewEngine(zerolog.Nop()).Analyze(nil, nil, time.Now())
	assert.Error(t, err)
}
