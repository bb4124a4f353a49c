package strategy

import (
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// MACD trades histogram sign flips, boosted by a simple price/MACD
// divergence check, and exits when histogram momentum weakens.
type MACD struct {
	Fast   int
	Slow   int
	Signal int

	// DivergenceWindow is the trailing window for the divergence check;
	// MinDivergence is the fractional price move required.
	DivergenceWindow int
	MinDivergence    float64
}

func NewMACD() *MACD {
	return &MACD{Fast: 12, Slow: 26, Signal: 9, DivergenceWindow: 5, MinDivergence: 0.02}
}

func (s *MACD) Name() string               { return "MACD Strategy" }
func (s *MACD) MinHistory() int            { return s.Slow + s.Signal + 1 }
func (s *MACD) RequiresFundamentals() bool { return false }

// checkDivergence reports whether price and MACD moved against each other
// over the trailing window by more than the minimum divergence.
func (s *MACD) checkDivergence(closes, macd []float64) (bullish, bearish bool) {
	w := s.DivergenceWindow
	if len(closes) < w || len(macd) < w {
		return false, false
	}
	pw := closes[len(closes)-w:]
	mw := macd[len(macd)-w:]

	priceChange := (pw[len(pw)-1] - pw[0]) / pw[0]
	macdChange := mw[len(mw)-1] - mw[0]

	bullish = priceChange < -s.MinDivergence && macdChange > 0
	bearish = priceChange > s.MinDivergence && macdChange < 0
	return bullish, bearish
}

func (s *MACD) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	macd, signalLine, histogram := indicator.MACD(closes, s.Fast, s.Slow, s.Signal)

	curMACD := macd[len(macd)-1]
	curHist := histogram[len(histogram)-1]
	prevHist := histogram[len(histogram)-2]

	metrics := map[string]float64{
		"macd":      curMACD,
		"signal":    signalLine[len(signalLine)-1],
		"histogram": curHist,
		"close":     closes[len(closes)-1],
	}

	bullishDiv, bearishDiv := s.checkDivergence(closes, macd)

	sig := Signal{Type: Hold, Reason: "no significant MACD signals", Metrics: metrics}
	if curMACD == 0 {
		return sig
	}

	switch {
	case curHist > 0 && prevHist < 0:
		sig.Type = Long
		sig.Confidence = math.Min(math.Abs(curHist/curMACD), 1.0)
		sig.Reason = "MACD crossed above signal line"
		if bullishDiv {
			sig.Confidence = math.Min(sig.Confidence*1.5, 1.0)
			sig.Reason += " with bullish divergence"
		}
	case curHist < 0 && prevHist > 0:
		sig.Type = Short
		sig.Confidence = math.Min(math.Abs(curHist/curMACD), 1.0)
		sig.Reason = "MACD crossed below signal line"
		if bearishDiv {
			sig.Confidence = math.Min(sig.Confidence*1.5, 1.0)
			sig.Reason += " with bearish divergence"
		}
	case (curHist > 0 && curHist < prevHist) || (curHist < 0 && curHist > prevHist):
		sig.Type = Exit
		sig.Confidence = math.Min(math.Abs(curHist/curMACD)*0.5, 1.0)
		sig.Reason = "MACD momentum weakening"
	}

	return sig
}
