package strategy

import (
	"fmt"
	"math"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// VolumePrice trades volume spikes confirmed by a price move, and exits
// once volume dries back up after a recent spike.
type VolumePrice struct {
	Window          int
	VolumeThreshold float64 // spike multiple over the trailing average
	PriceThreshold  float64 // minimum daily move to confirm the spike
}

func NewVolumePrice() *VolumePrice {
	return &VolumePrice{Window: 20, VolumeThreshold: 2.0, PriceThreshold: 0.02}
}

func (s *VolumePrice) Name() string               { return "Volume-Price Analysis" }
func (s *VolumePrice) MinHistory() int            { return s.Window + 1 }
func (s *VolumePrice) RequiresFundamentals() bool { return false }

func (s *VolumePrice) GenerateSignal(sr *series.Series, i int) Signal {
	if i < s.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	closes := sr.Closes(i)
	volumes := sr.Volumes(i)

	ratio := indicator.VolumeRatio(volumes, s.Window)
	prevClose := closes[len(closes)-2]
	close := closes[len(closes)-1]
	change := (close - prevClose) / prevClose

	metrics := map[string]float64{
		"volume_ratio": ratio,
		"daily_return": change,
		"close":        close,
	}

	sig := Signal{Type: Hold, Reason: "no significant volume-price action", Metrics: metrics}

	switch {
	case ratio > s.VolumeThreshold && change > s.PriceThreshold:
		sig.Type = Long
		sig.Confidence = math.Min(ratio/s.VolumeThreshold, 1.0)
		sig.Reason = fmt.Sprintf("High volume up move: %.1fx avg volume", ratio)
	case ratio > s.VolumeThreshold && change < -s.PriceThreshold:
		sig.Type = Short
		sig.Confidence = math.Min(ratio/s.VolumeThreshold, 1.0)
		sig.Reason = fmt.Sprintf("High volume down move: %.1fx avg volume", ratio)
	case ratio < 0.5 && indicator.VolumeRatio(volumes[:len(volumes)-1], s.Window) > s.VolumeThreshold:
		// The spike has passed. Unwind whatever it opened.
		sig.Type = Exit
		sig.Confidence = 0.5
		sig.Reason = "Volume returning to normal levels"
	}

	return sig
}
