package backtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signals/internal/series"
	"stock-signals/internal/strategy"
)

// scripted replays a fixed signal per index, holding everywhere else.
type scripted struct {
	minHistory int
	signals    map[int]strategy.SignalType
}

func (s *scripted) Name() string               { return "scripted" }
func (s *scripted) MinHistory() int            { return s.minHistory }
func (s *scripted) RequiresFundamentals() bool { return false }

func (s *scripted) GenerateSignal(sr *series.Series, i int) strategy.Signal {
	if t, ok := s.signals[i]; ok {
		return strategy.Signal{Type: t, Confidence: 1}
	}
	return strategy.HoldSignal("scripted hold")
}

func flatSeries(symbol string, closes []float64) *series.Series {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]series.Point, len(closes))
	for i, c := range closes {
		pts[i] = series.Point{Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return series.New(symbol, pts)
}

func ohlcSeries(symbol string, bars [][3]float64) *series.Series {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]series.Point, len(bars))
	for i, b := range bars {
		pts[i] = series.Point{Date: base.AddDate(0, 0, i), Open: b[2], High: b[0], Low: b[1], Close: b[2], Volume: 1000}
	}
	return series.New(symbol, pts)
}

func TestRunLongSignalExit(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 108, 104, 103}
	sr := flatSeries("AAPL", closes)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{
		2: strategy.Long,
		5: strategy.Exit,
	}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, strategy.Long, tr.Type)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Equal(t, 104.0, tr.ExitPrice)
	assert.Equal(t, ExitSignal, tr.Reason)
	assert.InDelta(t, 0.04, tr.ReturnPct, 1e-9)
	assert.InDelta(t, 400, tr.PnL, 1e-9) // 4 points over 100 shares
	assert.Equal(t, 1, res.TotalTrades)
}

func TestRunShortTrade(t *testing.T) {
	closes := []float64{100, 100, 100, 95, 96, 92}
	sr := flatSeries("TSLA", closes)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{
		2: strategy.Short,
		5: strategy.Exit,
	}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, strategy.Short, tr.Type)
	assert.InDelta(t, 100.0/92.0-1, tr.ReturnPct, 1e-9)
	assert.InDelta(t, 800, tr.PnL, 1e-9)
	assert.Positive(t, tr.PnL)
}

func TestRunStopLoss(t *testing.T) {
	// Long at 100 with a 5% stop. The bar whose low pierces 95 closes
	// the trade at the stop price.
	bars := [][3]float64{
		{100, 100, 100}, {100, 100, 100}, {100, 100, 100},
		{101, 97, 98},
		{99, 94, 96},
		{97, 96, 97},
	}
	sr := ohlcSeries("AAPL", bars)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{2: strategy.Long}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, ExitStopLoss, tr.Reason)
	assert.InDelta(t, 95.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, -0.05, tr.ReturnPct, 1e-9)
}

func TestRunTakeProfit(t *testing.T) {
	bars := [][3]float64{
		{100, 100, 100}, {100, 100, 100}, {100, 100, 100},
		{108, 100, 107},
		{112, 106, 111},
	}
	sr := ohlcSeries("AAPL", bars)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{2: strategy.Long}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, ExitTakeProfit, tr.Reason)
	assert.InDelta(t, 110.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, 0.10, tr.ReturnPct, 1e-9)
}

func TestRunStopBeatsTargetOnSameBar(t *testing.T) {
	// One wide bar crosses both levels. The stop must win.
	bars := [][3]float64{
		{100, 100, 100}, {100, 100, 100}, {100, 100, 100},
		{115, 90, 100},
	}
	sr := ohlcSeries("AAPL", bars)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{2: strategy.Long}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitStopLoss, res.Trades[0].Reason)
}

func TestRunForceCloseAtSeriesEnd(t *testing.T) {
	closes := []float64{100, 100, 100, 101, 102}
	sr := flatSeries("AAPL", closes)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{2: strategy.Long}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, ExitEndOfData, tr.Reason)
	assert.Equal(t, 102.0, tr.ExitPrice)
	assert.Equal(t, sr.Last().Date, tr.ExitDate)
}

func TestRunSingleOpenPositionInvariant(t *testing.T) {
	// A second entry signal while a position is open must be ignored.
	closes := []float64{100, 100, 100, 100, 100, 100, 120}
	sr := flatSeries("AAPL", closes)
	strat := &scripted{minHistory: 2, signals: map[int]strategy.SignalType{
		2: strategy.Long,
		3: strategy.Short,
		4: strategy.Long,
	}}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, strategy.Long, res.Trades[0].Type)
	for _, tr := range res.Trades {
		assert.False(t, tr.ExitDate.Before(tr.EntryDate))
	}
}

func TestRunNoTrades(t *testing.T) {
	closes := []float64{100, 101, 102, 103}
	sr := flatSeries("AAPL", closes)
	strat := &scripted{minHistory: 2}

	res, err := NewEngine().Run(strat, sr)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.Metrics.TotalReturn)
	assert.Zero(t, res.Metrics.AvgReturnPerTrade)
	assert.InDelta(t, 0.03, res.BuyAndHold.TotalReturn, 1e-9)
}

func TestRunValidation(t *testing.T) {
	strat := &scripted{minHistory: 2}
	sr := flatSeries("AAPL", []float64{100, 101})

	_, err := NewEngine().Run(strat, nil)
	assert.Error(t, err)

	_, err = NewEngine().Run(nil, sr)
	assert.Error(t, err)

	bad := &Engine{Stop: 0, Profit: 0.1, Size: 100}
	_, err = bad.Run(strat, sr)
	assert.Error(t, err)
}

func TestMetricsAnnualization(t *testing.T) {
	trades := []Trade{{ReturnPct: 0.05}, {ReturnPct: 0.07}}
	m := computeMetrics(trades, 365)
	assert.InDelta(t, 0.12, m.TotalReturn, 1e-9)
	assert.InDelta(t, 0.12, m.AnnualizedReturn, 1e-9)
	assert.InDelta(t, 0.06, m.AvgReturnPerTrade, 1e-9)
	assert.Equal(t, 2, m.TotalTradesExecuted)

	half := computeMetrics(trades, 182.5)
	assert.Greater(t, half.AnnualizedReturn, m.AnnualizedReturn)

	zero := computeMetrics(nil, 0)
	assert.Zero(t, zero.AnnualizedReturn)
}

func TestRunAll(t *testing.T) {
	all := make(map[string]*series.Series)
	for i := 0; i < 8; i++ {
		symbol := fmt.Sprintf("SYM%d", i)
		all[symbol] = flatSeries(symbol, []float64{100, 100, 100, 101, 102, 103})
	}
	all["EMPTY"] = &series.Series{Symbol: "EMPTY"}

	engine := NewEngine()
	res := engine.RunAll(context.Background(), func() strategy.Strategy {
		return &scripted{minHistory: 2, signals: map[int]strategy.SignalType{2: strategy.Long, 4: strategy.Exit}}
	}, all, 3)

	assert.Equal(t, 9, res.TotalSymbols)
	assert.Equal(t, 8, res.SuccessfulRuns)
	assert.Equal(t, 1, res.FailedRuns)
	assert.Error(t, res.Errors["EMPTY"])
	for i := 0; i < 8; i++ {
		symbol := fmt.Sprintf("SYM%d", i)
		require.Contains(t, res.Results, symbol)
		assert.Len(t, res.Results[symbol].Trades, 1)
	}
}

func TestRunAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	all := map[string]*series.Series{
		"A": flatSeries("A", []float64{100, 100, 100, 101}),
	}
	res := NewEngine().RunAll(ctx, func() strategy.Strategy { return &scripted{minHistory: 2} }, all, 2)
	assert.LessOrEqual(t, res.SuccessfulRuns+res.FailedRuns, 1)
}
