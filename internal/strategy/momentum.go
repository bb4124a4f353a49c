package strategy

import (
	"fmt"
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// Momentum combines RSI extremes with rate of change: long when RSI is
// oversold while momentum turns positive, short on the mirror condition.
type Momentum struct {
	RSIPeriod  int
	ROCPeriod  int
	Oversold   float64
	Overbought float64
}

func NewMomentum() *Momentum {
	return &Momentum{RSIPeriod: 14, ROCPeriod: 10, Oversold: 30, Overbought: 70}
}

func (s *Momentum) Name() string { return "Momentum" }

func (s *Momentum) MinHistory() int {
	if s.RSIPeriod > s.ROCPeriod {
		return s.RSIPeriod + 1
	}
	return s.ROCPeriod + 1
}

func (s *Momentum) RequiresFundamentals() bool { return false }

func (s *Momentum) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	rsi := indicator.RSI(closes, s.RSIPeriod)
	roc := indicator.RateOfChange(closes, s.ROCPeriod)

	metrics := map[string]float64{
		"rsi":   rsi,
		"roc":   roc,
		"close": closes[len(closes)-1],
	}

	sig := Signal{Type: Hold, Reason: "no momentum extreme", Metrics: metrics}

	switch {
	case rsi <= s.Oversold && roc > 0:
		sig.Type = Long
		sig.Confidence = math.Min(0.5+(s.Oversold-rsi)/s.Oversold+roc, 1.0)
		sig.Reason = fmt.Sprintf("RSI oversold at %.1f with positive momentum %.2f%%", rsi, roc*100)
	case rsi >= s.Overbought && roc < 0:
		sig.Type = Short
		sig.Confidence = math.Min(0.5+(rsi-s.Overbought)/(100-s.Overbought)-roc, 1.0)
		sig.Reason = fmt.Sprintf("RSI overbought at %.1f with negative momentum %.2f%%", rsi, roc*100)
	case rsi > 40 && rsi < 60:
		sig.Type = Exit
		sig.Confidence = 0.5
		sig.Reason = fmt.Sprintf("RSI back to neutral at %.1f", rsi)
	}

	return sig
}
