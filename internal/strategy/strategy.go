// Package strategy holds the signal generators. Each strategy reads a
// price series at an index and recommends a direction with a confidence.
package strategy

import (
	"stock-signals/internal/series"
)

// SignalType is the direction a strategy recommends at a given bar.
type SignalType int8

const (
	Hold SignalType = iota
	Long
	Short
	Exit
)

func (t SignalType) String() string {
	switch t {
	case Long:
		return "long"
	case Short:
		return "short"
	case Exit:
		return "exit"
	default:
		return "hold"
	}
}

// Signal is a strategy's recommendation for one bar of a series.
type Signal struct {
	Type       SignalType         `json:"type"`
	Confidence float64            `json:"confidence"` // in [0,1]
	Reason     string             `json:"reason"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// HoldSignal is the neutral signal used when a strategy cannot act.
func HoldSignal(reason string) Signal {
	return Signal{Type: Hold, Confidence: 0, Reason: reason}
}

// Strategy is the interface for all trading strategies. GenerateSignal
// must be pure given (series, index); the Ensemble is the one exception,
// whose weight state mutates between evaluation passes.
type Strategy interface {
	Name() string
	// MinHistory returns the number of bars needed before the first
	// trustworthy signal.
	MinHistory() int
	RequiresFundamentals() bool
	GenerateSignal(s *series.Series, i int) Signal
}

var registry = map[string]func() Strategy{
	"moving-average": func() Strategy { return NewMovingAverage() },
	"macd":           func() Strategy { return NewMACD() },
	"bollinger":      func() Strategy { return NewBollinger() },
	"momentum":       func() Strategy { return NewMomentum() },
	"mean-reversion": func() Strategy { return NewMeanReversion() },
	"trend":          func() Strategy { return NewTrend() },
	"volume-price":   func() Strategy { return NewVolumePrice() },
}

// Known reports whether name is a registered strategy name.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// New builds the strategies named in names. Unknown names are skipped;
// callers taking user input should reject them with Known first.
func New(names []string) []Strategy {
	var strats []Strategy
	for _, name := range names {
		if build, ok := registry[name]; ok {
			strats = append(strats, build())
		}
	}
	return strats
}

// NewEnsembleFromNames builds an ensemble over the named component
// strategies, defaulting to the full set when names is empty.
func NewEnsembleFromNames(names []string) *Ensemble {
	if len(names) == 0 {
		names = []string{"moving-average", "macd", "bollinger", "momentum", "mean-reversion", "trend", "volume-price"}
	}
	return NewEnsemble(New(names))
}
