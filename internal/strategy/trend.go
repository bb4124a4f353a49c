package strategy

import (
	"fmt"
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// Trend combines ATR-based breakouts over dynamic support/resistance
// with a trend-strength gate, and exits when price reverts to within one
// ATR of the support/resistance midpoint.
type Trend struct {
	ATRPeriod         int
	TrendPeriod       int
	BreakoutThreshold float64 // ATR multiplier for breakouts
	MinTrendStrength  float64 // minimum ratio of trend-direction days
}

func NewTrend() *Trend {
	return &Trend{ATRPeriod: 14, TrendPeriod: 20, BreakoutThreshold: 1.5, MinTrendStrength: 0.6}
}

func (s *Trend) Name() string               { return "Trend Following" }
func (s *Trend) MinHistory() int            { return s.TrendPeriod + 1 }
func (s *Trend) RequiresFundamentals() bool { return false }

func (s *Trend) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	highs := sr.Highs(i)
	lows := sr.Lows(i)

	atr := indicator.ATR(highs, lows, closes, s.ATRPeriod)
	currentATR := atr[len(atr)-1]
	strength, uptrend := indicator.TrendStrength(closes, s.TrendPeriod)
	// Exclude the current bar so a fresh extreme still counts as a breakout.
	support, resistance := indicator.SupportResistance(highs[:len(highs)-1], lows[:len(lows)-1], s.TrendPeriod)
	close := closes[len(closes)-1]

	metrics := map[string]float64{
		"trend_strength": strength,
		"atr":            currentATR,
		"support":        support,
		"resistance":     resistance,
		"close":          close,
	}

	sig := Signal{Type: Hold, Reason: "no significant trend", Metrics: metrics}

	switch {
	case close > resistance+currentATR*s.BreakoutThreshold:
		sig.Type = Long
		sig.Confidence = math.Min(strength*1.5, 1.0)
		sig.Reason = "Price breakout above resistance"
	case close < support-currentATR*s.BreakoutThreshold:
		sig.Type = Short
		sig.Confidence = math.Min((1-strength)*1.5, 1.0)
		sig.Reason = "Price breakdown below support"
	case strength > s.MinTrendStrength && uptrend:
		sig.Type = Long
		sig.Confidence = strength
		sig.Reason = fmt.Sprintf("Strong uptrend (%.0f%% strength)", strength*100)
	case strength > s.MinTrendStrength && !uptrend:
		sig.Type = Short
		sig.Confidence = 1 - strength
		sig.Reason = fmt.Sprintf("Strong downtrend (%.0f%% strength)", (1-strength)*100)
	}

	// Reversion toward the midpoint overrides a directional call.
	if sig.Type == Long || sig.Type == Short {
		mid := (support + resistance) / 2
		if math.Abs(close-mid) < currentATR {
			sig.Type = Exit
			sig.Confidence = 0.5
			sig.Reason = "Price reverting to mean"
		}
	}

	return sig
}
