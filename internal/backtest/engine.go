// Package backtest replays a price series through a strategy and a
// position state machine, producing closed trades and aggregate metrics.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"stock-signals/internal/series"
	"stock-signals/internal/strategy"
)

// ExitReason records what closed a position.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is a closed position. Immutable once emitted.
type Trade struct {
	Symbol     string              `json:"symbol"`
	Type       strategy.SignalType `json:"type"`
	EntryDate  time.Time           `json:"entry_date"`
	EntryPrice float64             `json:"entry_price"`
	ExitDate   time.Time           `json:"exit_date"`
	ExitPrice  float64             `json:"exit_price"`
	Size       int                 `json:"size"`
	PnL        float64             `json:"pnl"`
	ReturnPct  float64             `json:"return_pct"`
	Reason     ExitReason          `json:"reason"`
}

// TradeMetrics summarizes a trade list. Recomputed wholesale, never
// mutated in place.
type TradeMetrics struct {
	TotalReturn         float64 `json:"total_return"`
	AnnualizedReturn    float64 `json:"annualized_return"`
	TotalTradesExecuted int     `json:"total_trades_executed"`
	AvgReturnPerTrade   float64 `json:"avg_return_per_trade"`
}

// BuyAndHold is the baseline of holding from first to last close of the
// replayed range.
type BuyAndHold struct {
	StartPrice       float64 `json:"start_price"`
	EndPrice         float64 `json:"end_price"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

// Result is the output of one engine run over one symbol.
type Result struct {
	Symbol      string       `json:"symbol"`
	Strategy    string       `json:"strategy"`
	Trades      []Trade      `json:"trades"`
	Metrics     TradeMetrics `json:"metrics"`
	BuyAndHold  BuyAndHold   `json:"buy_and_hold"`
	TotalTrades int          `json:"total_trades"`
}

// position is the transient state of one engine run. At most one open
// position exists per run.
type position struct {
	direction  strategy.SignalType
	entryDate  time.Time
	entryPrice float64
	stopLoss   float64
	takeProfit float64
	size       int
}

// Engine turns strategy signals into simulated trades. Stop and Profit
// are fractional distances from the entry price, Size is a fixed share
// count per position.
type Engine struct {
	Stop   float64
	Profit float64
	Size   int
}

func NewEngine() *Engine {
	return &Engine{Stop: 0.05, Profit: 0.10, Size: 100}
}

func (e *Engine) validate() error {
	if e.Stop <= 0 || e.Stop >= 1 {
		return fmt.Errorf("stop fraction %v out of (0,1)", e.Stop)
	}
	if e.Profit <= 0 {
		return fmt.Errorf("profit fraction %v must be positive", e.Profit)
	}
	if e.Size <= 0 {
		return fmt.Errorf("position size %d must be positive", e.Size)
	}
	return nil
}

// Run replays sr through strat. Indices below the strategy's minimum
// history are skipped; a position still open when the series ends is
// closed at the final close.
//
// On a bar where both the stop and the target are nominally crossable,
// the stop wins. An explicit exit signal is honored before either level
// is checked, at that bar's close.
func (e *Engine) Run(strat strategy.Strategy, sr *series.Series) (*Result, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, errors.New("nil strategy")
	}
	if sr == nil || sr.Len() == 0 {
		return nil, errors.New("empty series")
	}

	var trades []Trade
	var open *position

	for i := strat.MinHistory(); i < sr.Len(); i++ {
		sig := strat.GenerateSignal(sr, i)
		bar := sr.Points[i]

		if open != nil {
			switch {
			case sig.Type == strategy.Exit:
				trades = append(trades, closeTrade(sr.Symbol, open, bar.Date, bar.Close, ExitSignal))
				open = nil
			case open.direction == strategy.Long && bar.Low <= open.stopLoss,
				open.direction == strategy.Short && bar.High >= open.stopLoss:
				trades = append(trades, closeTrade(sr.Symbol, open, bar.Date, open.stopLoss, ExitStopLoss))
				open = nil
			case open.direction == strategy.Long && bar.High >= open.takeProfit,
				open.direction == strategy.Short && bar.Low <= open.takeProfit:
				trades = append(trades, closeTrade(sr.Symbol, open, bar.Date, open.takeProfit, ExitTakeProfit))
				open = nil
			}
			continue
		}

		if sig.Type == strategy.Long || sig.Type == strategy.Short {
			open = e.open(sig.Type, bar)
		}
	}

	if open != nil {
		last := sr.Last()
		trades = append(trades, closeTrade(sr.Symbol, open, last.Date, last.Close, ExitEndOfData))
	}

	start := sr.Points[0]
	end := *sr.Last()
	days := end.Date.Sub(start.Date).Hours() / 24

	return &Result{
		Symbol:      sr.Symbol,
		Strategy:    strat.Name(),
		Trades:      trades,
		Metrics:     computeMetrics(trades, days),
		BuyAndHold:  buyAndHold(start.Close, end.Close, days),
		TotalTrades: len(trades),
	}, nil
}

func (e *Engine) open(dir strategy.SignalType, bar series.Point) *position {
	p := &position{
		direction:  dir,
		entryDate:  bar.Date,
		entryPrice: bar.Close,
		size:       e.Size,
	}
	if dir == strategy.Long {
		p.stopLoss = bar.Close * (1 - e.Stop)
		p.takeProfit = bar.Close * (1 + e.Profit)
	} else {
		p.stopLoss = bar.Close * (1 + e.Stop)
		p.takeProfit = bar.Close * (1 - e.Profit)
	}
	return p
}

func closeTrade(symbol string, p *position, date time.Time, price float64, reason ExitReason) Trade {
	t := Trade{
		Symbol:     symbol,
		Type:       p.direction,
		EntryDate:  p.entryDate,
		EntryPrice: p.entryPrice,
		ExitDate:   date,
		ExitPrice:  price,
		Size:       p.size,
		Reason:     reason,
	}
	if p.direction == strategy.Long {
		t.PnL = (price - p.entryPrice) * float64(p.size)
		t.ReturnPct = price/p.entryPrice - 1
	} else {
		t.PnL = (p.entryPrice - price) * float64(p.size)
		t.ReturnPct = p.entryPrice/price - 1
	}
	return t
}

func computeMetrics(trades []Trade, days float64) TradeMetrics {
	m := TradeMetrics{TotalTradesExecuted: len(trades)}
	for _, t := range trades {
		m.TotalReturn += t.ReturnPct
	}
	m.AnnualizedReturn = annualize(m.TotalReturn, days)
	if len(trades) > 0 {
		m.AvgReturnPerTrade = m.TotalReturn / float64(len(trades))
	}
	return m
}

func buyAndHold(startPrice, endPrice, days float64) BuyAndHold {
	b := BuyAndHold{StartPrice: startPrice, EndPrice: endPrice}
	if startPrice > 0 {
		b.TotalReturn = endPrice/startPrice - 1
	}
	b.AnnualizedReturn = annualize(b.TotalReturn, days)
	return b
}

func annualize(totalReturn, days float64) float64 {
	if days <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, 365/days) - 1
}
