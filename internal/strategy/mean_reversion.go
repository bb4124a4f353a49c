package strategy

import (
	"fmt"
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// MeanReversion enters when price closes beyond a Bollinger band while
// stretched more than a deviation threshold from its short-period mean,
// and exits once price reverts to that mean.
type MeanReversion struct {
	BandPeriod   int
	K            float64
	MeanPeriod   int
	DevThreshold float64 // minimum stretch from the short mean
	ExitBand     float64 // reversion distance that closes the stretch
}

func NewMeanReversion() *MeanReversion {
	return &MeanReversion{BandPeriod: 20, K: 2.0, MeanPeriod: 10, DevThreshold: 0.02, ExitBand: 0.005}
}

func (s *MeanReversion) Name() string               { return "Mean Reversion" }
func (s *MeanReversion) MinHistory() int            { return s.BandPeriod + 1 }
func (s *MeanReversion) RequiresFundamentals() bool { return false }

func (s *MeanReversion) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	close := closes[len(closes)-1]
	upper, _, lower := indicator.Bollinger(closes, s.BandPeriod, s.K)
	shortMean := indicator.SMA(closes, s.MeanPeriod)
	deviation := (close - shortMean) / shortMean

	metrics := map[string]float64{
		"upper_band": upper,
		"lower_band": lower,
		"short_mean": shortMean,
		"deviation":  deviation,
		"close":      close,
	}

	sig := Signal{Type: Hold, Reason: "price near its mean", Metrics: metrics}

	switch {
	case close <= lower && deviation < -s.DevThreshold:
		sig.Type = Long
		sig.Confidence = math.Min(math.Abs(deviation)*25, 1.0)
		sig.Reason = fmt.Sprintf("Price %.2f below lower band, %.1f%% under %d-day mean", close, -deviation*100, s.MeanPeriod)
	case close >= upper && deviation > s.DevThreshold:
		sig.Type = Short
		sig.Confidence = math.Min(math.Abs(deviation)*25, 1.0)
		sig.Reason = fmt.Sprintf("Price %.2f above upper band, %.1f%% over %d-day mean", close, deviation*100, s.MeanPeriod)
	case math.Abs(deviation) < s.ExitBand:
		sig.Type = Exit
		sig.Confidence = 0.5
		sig.Reason = fmt.Sprintf("Price %.2f reverted to %d-day mean %.2f", close, s.MeanPeriod, shortMean)
	}

	return sig
}
