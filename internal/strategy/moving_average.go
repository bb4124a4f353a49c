package strategy

import (
	"fmt"
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// MovingAverage trades 50/200 SMA crossovers: long on a golden cross,
// short on a death cross, exit when the spread shrinks back toward zero.
type MovingAverage struct {
	FastPeriod int
	SlowPeriod int
}

func NewMovingAverage() *MovingAverage {
	return &MovingAverage{FastPeriod: 50, SlowPeriod: 200}
}

func (s *MovingAverage) Name() string               { return "Moving Average Crossover" }
func (s *MovingAverage) MinHistory() int            { return s.SlowPeriod + 1 }
func (s *MovingAverage) RequiresFundamentals() bool { return false }

func (s *MovingAverage) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	fast := indicator.SMA(closes, s.FastPeriod)
	slow := indicator.SMA(closes, s.SlowPeriod)
	spread := (fast - slow) / slow

	prevCloses := closes[:len(closes)-1]
	prevFast := indicator.SMA(prevCloses, s.FastPeriod)
	prevSlow := indicator.SMA(prevCloses, s.SlowPeriod)
	prevSpread := (prevFast - prevSlow) / prevSlow

	metrics := map[string]float64{
		"sma_fast": fast,
		"sma_slow": slow,
		"spread":   spread,
		"close":    closes[len(closes)-1],
	}

	sig := Signal{Type: Hold, Metrics: metrics}

	switch {
	case spread > 0 && prevSpread <= 0:
		sig.Type = Long
		sig.Confidence = math.Min(math.Abs(spread)*100, 1.0)
		sig.Reason = fmt.Sprintf("Golden Cross: SMA %d (%.2f) crossed above SMA %d (%.2f)", s.FastPeriod, fast, s.SlowPeriod, slow)
	case spread < 0 && prevSpread >= 0:
		sig.Type = Short
		sig.Confidence = math.Min(math.Abs(spread)*100, 1.0)
		sig.Reason = fmt.Sprintf("Death Cross: SMA %d (%.2f) crossed below SMA %d (%.2f)", s.FastPeriod, fast, s.SlowPeriod, slow)
	case (prevSpread > spread && spread > 0) || (prevSpread < spread && spread < 0):
		// The spread was nonzero and is shrinking back toward zero.
		sig.Type = Exit
		sig.Confidence = math.Min(math.Abs(spread)*25, 1.0)
		sig.Reason = fmt.Sprintf("Trend weakening: spread changed from %.2f%% to %.2f%%", prevSpread*100, spread*100)
	case spread > 0:
		sig.Type = Long
		sig.Confidence = math.Min(math.Abs(spread)*50, 1.0)
		sig.Reason = fmt.Sprintf("Bullish trend: SMA %d above SMA %d", s.FastPeriod, s.SlowPeriod)
	case spread < 0:
		sig.Type = Short
		sig.Confidence = math.Min(math.Abs(spread)*50, 1.0)
		sig.Reason = fmt.Sprintf("Bearish trend: SMA %d below SMA %d", s.FastPeriod, s.SlowPeriod)
	default:
		sig.Reason = "no SMA crossover"
	}

	return sig
}
