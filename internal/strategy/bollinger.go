package strategy

import (
	"fmt"
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// Bollinger buys near the lower band, shorts near the upper band and
// exits near the middle band. Proximity is measured as a fraction of the
// band width.
type Bollinger struct {
	Period        int
	K             float64
	BandThreshold float64 // fractional band-width distance
}

func NewBollinger() *Bollinger {
	return &Bollinger{Period: 20, K: 2.0, BandThreshold: 0.1}
}

func (s *Bollinger) Name() string               { return "Bollinger Bands" }
func (s *Bollinger) MinHistory() int            { return s.Period + 1 }
func (s *Bollinger) RequiresFundamentals() bool { return false }

func (s *Bollinger) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	close := closes[len(closes)-1]
	upper, middle, lower := indicator.Bollinger(closes, s.Period, s.K)
	width := upper - lower

	metrics := map[string]float64{
		"upper_band":  upper,
		"middle_band": middle,
		"lower_band":  lower,
		"close":       close,
	}
	if width > 0 {
		metrics["percent_b"] = (close - lower) / width
	}

	sig := Signal{Type: Hold, Reason: "price inside bands", Metrics: metrics}
	if width <= 0 {
		return sig
	}

	lowerDist := (close - lower) / width
	upperDist := (upper - close) / width
	middleDist := math.Abs(close-middle) / width

	switch {
	case lowerDist < s.BandThreshold:
		sig.Type = Long
		sig.Confidence = math.Min(0.5+(s.BandThreshold-lowerDist)/s.BandThreshold*0.5, 1.0)
		sig.Reason = fmt.Sprintf("Price %.2f near lower band %.2f", close, lower)
	case upperDist < s.BandThreshold:
		sig.Type = Short
		sig.Confidence = math.Min(0.5+(s.BandThreshold-upperDist)/s.BandThreshold*0.5, 1.0)
		sig.Reason = fmt.Sprintf("Price %.2f near upper band %.2f", close, upper)
	case middleDist < s.BandThreshold:
		sig.Type = Exit
		sig.Confidence = 0.5
		sig.Reason = fmt.Sprintf("Price %.2f reverting to middle band %.2f", close, middle)
	}

	return sig
}
