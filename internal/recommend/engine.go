// Package recommend combines a day's strategy signals per symbol into
// sized, risk-bounded prediction records.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stock-signals/internal/indicator"
	"stock-signals/internal/prediction"
	"stock-signals/internal/series"
	"stock-signals/internal/strategy"
)

// Engine votes strategy signals into one recommendation per symbol.
type Engine struct {
	// MinConfidence filters out weak individual signals before voting.
	MinConfidence float64
	// AccountSize and RiskPerTrade bound the dollar risk of one trade;
	// position size is that risk divided by the per-share stop distance.
	AccountSize  float64
	RiskPerTrade float64
	// BaseStop and BaseProfit are the stop and target multipliers
	// before volatility and trend scaling.
	BaseStop   float64
	BaseProfit float64

	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		MinConfidence: 0.6,
		AccountSize:   100000,
		RiskPerTrade:  0.02,
		BaseStop:      1.5,
		BaseProfit:    4.5,
		log:           log.With().Str("component", "recommend").Logger(),
	}
}

func (e *Engine) Validate() error {
	if e.MinConfidence < 0 || e.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %v", e.MinConfidence)
	}
	if e.AccountSize <= 0 {
		return fmt.Errorf("account size must be positive, got %v", e.AccountSize)
	}
	if e.RiskPerTrade <= 0 || e.RiskPerTrade > 1 {
		return fmt.Errorf("risk per trade must be in (0,1], got %v", e.RiskPerTrade)
	}
	return nil
}

// vote is one strategy's filtered contribution to a symbol.
type vote struct {
	strategy   string
	signal     strategy.SignalType
	confidence float64
	reason     string
	entryPrice float64
	stopLoss   float64
	takeProfit float64
}

// Analyze runs every strategy against the latest bar of every symbol
// and returns one consensus record per symbol with agreeing signals,
// sorted by symbol. now becomes DateIssued on the records.
func (e *Engine) Analyze(strategies []strategy.Strategy, all map[string]*series.Series, now time.Time) ([]prediction.Record, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies to analyze with")
	}

	symbols := make([]string, 0, len(all))
	for symbol := range all {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var records []prediction.Record
	for _, symbol := range symbols {
		sr := all[symbol]
		if sr == nil || sr.Len() == 0 {
			continue
		}
		votes := e.collectVotes(strategies, sr)
		if len(votes) == 0 {
			continue
		}
		if r, ok := e.consensus(symbol, now, votes); ok {
			records = append(records, r)
			e.log.Info().Str("symbol", symbol).
				Str("action", string(r.Action)).
				Float64("confidence", r.Confidence).
				Strs("strategies", r.Strategies).
				Msg("recommendation issued")
		}
	}
	return records, nil
}

func (e *Engine) collectVotes(strategies []strategy.Strategy, sr *series.Series) []vote {
	last := sr.Len() - 1
	closes := sr.Closes(last)
	price := closes[len(closes)-1]
	if price <= 0 {
		return nil
	}

	trendStrength, _ := indicator.TrendStrength(closes, 20)
	volatility := dailyVolatility(closes, 20)

	stopMultiplier := e.BaseStop * (1 + volatility)
	profitMultiplier := e.BaseProfit * (1 + trendStrength*1.5)

	var votes []vote
	for _, strat := range strategies {
		if sr.Len() < strat.MinHistory() {
			continue
		}
		sig := strat.GenerateSignal(sr, last)
		if sig.Type == strategy.Hold || sig.Confidence < e.MinConfidence {
			continue
		}

		v := vote{
			strategy:   strat.Name(),
			signal:     sig.Type,
			confidence: sig.Confidence,
			reason:     sig.Reason,
			entryPrice: price,
		}
		switch sig.Type {
		case strategy.Long:
			v.stopLoss = price * (1 - stopMultiplier*0.015)
			v.takeProfit = price * (1 + profitMultiplier*0.02)
		default: // short or exit
			v.stopLoss = price * (1 + stopMultiplier*0.015)
			v.takeProfit = price * (1 - profitMultiplier*0.02)
		}
		votes = append(votes, v)
	}
	return votes
}

// consensus applies the majority vote and risk sizing.
func (e *Engine) consensus(symbol string, now time.Time, votes []vote) (prediction.Record, bool) {
	var long, short, exit []vote
	for _, v := range votes {
		switch v.signal {
		case strategy.Long:
			long = append(long, v)
		case strategy.Short:
			short = append(short, v)
		case strategy.Exit:
			exit = append(exit, v)
		}
	}

	var (
		action     prediction.Action
		posType    prediction.PositionType
		supporting []vote
	)
	switch {
	case len(long) > 0 && len(long) > len(short):
		action, posType, supporting = prediction.ActionBuy, prediction.PositionLong, long
	case len(short) > 0 && len(short) > len(long):
		action, posType, supporting = prediction.ActionSell, prediction.PositionShort, short
	case len(exit) > 0:
		action, posType, supporting = prediction.ActionExit, prediction.PositionClose, exit
	default:
		return prediction.Record{}, false
	}

	total := 0.0
	names := make([]string, 0, len(supporting))
	details := make([]string, 0, len(supporting))
	for _, v := range supporting {
		total += v.confidence
		names = append(names, v.strategy)
		details = append(details, fmt.Sprintf("%s: %s", v.strategy, v.reason))
	}

	lead := supporting[0]
	riskPerShare := math.Abs(lead.entryPrice - lead.stopLoss)
	size := 0
	if riskPerShare > 0 {
		size = int(e.AccountSize * e.RiskPerTrade / riskPerShare)
	}

	return prediction.Record{
		Symbol:       symbol,
		DateIssued:   now,
		Action:       action,
		Type:         posType,
		Confidence:   total / float64(len(supporting)),
		EntryPrice:   lead.entryPrice,
		StopLoss:     lead.stopLoss,
		TakeProfit:   lead.takeProfit,
		PositionSize: size,
		Strategies:   names,
		Details:      strings.Join(details, " | "),
	}, true
}

// dailyVolatility is the standard deviation of daily returns over the
// trailing window, 0.02 when there is not enough history.
func dailyVolatility(closes []float64, window int) float64 {
	if len(closes) < 2 {
		return 0.02
	}
	start := len(closes) - window - 1
	if start < 0 {
		start = 0
	}
	var returns []float64
	for i := start + 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns = append(returns, closes[i]/closes[i-1]-1)
		}
	}
	if len(returns) < 2 {
		return 0.02
	}
	return indicator.StdDev(returns)
}
