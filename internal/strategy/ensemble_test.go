package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signals/internal/series"
)

// scripted emits a fixed signal regardless of the bar, or defers to a
// custom func when set.
type scripted struct {
	name string
	sig  Signal
	fn   func(sr *series.Series, i int) Signal
}

func (s *scripted) Name() string               { return s.name }
func (s *scripted) MinHistory() int            { return 2 }
func (s *scripted) RequiresFundamentals() bool { return false }

func (s *scripted) GenerateSignal(sr *series.Series, i int) Signal {
	if s.fn != nil {
		return s.fn(sr, i)
	}
	return s.sig
}

func risingSeries(n int) *series.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return seriesFromCloses(closes)
}

func TestEnsembleCombinesWeightedVotes(t *testing.T) {
	e := NewEnsemble([]Strategy{
		&scripted{name: "a", sig: Signal{Type: Long, Confidence: 0.8}},
		&scripted{name: "b", sig: Signal{Type: Long, Confidence: 0.6}},
		&scripted{name: "c", sig: Signal{Type: Hold, Confidence: 0.4, Reason: "waiting"}},
	})
	sr := risingSeries(10)

	sig := e.GenerateSignal(sr, sr.Len()-1)
	assert.Equal(t, Long, sig.Type)
	// long bucket 1.4 of total weight 1.8
	assert.InDelta(t, 1.4/1.8, sig.Confidence, 1e-9)

	// None of the components ever closed a simulated position, so there
	// is no performance history and the weights stay untouched.
	for name, w := range e.Weights() {
		assert.InDelta(t, 1.0, w, 1e-9, name)
	}
}

func TestEnsembleDiscardsWeakVotes(t *testing.T) {
	e := NewEnsemble([]Strategy{
		&scripted{name: "a", sig: Signal{Type: Long, Confidence: 0.2}},
		&scripted{name: "b", sig: Signal{Type: Short, Confidence: 0.29}},
	})
	sr := risingSeries(10)

	sig := e.GenerateSignal(sr, sr.Len()-1)
	assert.Equal(t, Hold, sig.Type)
	assert.Zero(t, sig.Confidence)
	assert.Equal(t, "No significant signals", sig.Reason)
}

func TestEnsembleHoldsOnThinPlurality(t *testing.T) {
	// A near-even four-way split: long wins the vote but its normalized
	// share stays under the confidence threshold.
	e := NewEnsemble([]Strategy{
		&scripted{name: "a", sig: Signal{Type: Long, Confidence: 0.31}},
		&scripted{name: "b", sig: Signal{Type: Short, Confidence: 0.30}},
		&scripted{name: "c", sig: Signal{Type: Exit, Confidence: 0.30}},
		&scripted{name: "d", sig: Signal{Type: Hold, Confidence: 0.30}},
	})
	sr := risingSeries(10)

	sig := e.GenerateSignal(sr, sr.Len()-1)
	assert.Equal(t, Hold, sig.Type)
	assert.InDelta(t, 0.31/1.21, sig.Confidence, 1e-9)
	assert.Equal(t, "No consensus above confidence threshold", sig.Reason)
}

func TestEnsembleTiePrefersExit(t *testing.T) {
	e := NewEnsemble([]Strategy{
		&scripted{name: "a", sig: Signal{Type: Exit, Confidence: 0.5}},
		&scripted{name: "b", sig: Signal{Type: Long, Confidence: 0.5}},
	})
	sr := risingSeries(10)

	sig := e.GenerateSignal(sr, sr.Len()-1)
	assert.Equal(t, Exit, sig.Type)
}

func TestEnsembleWeightsFavorWinners(t *testing.T) {
	// The winner rides the rising series long, the loser shorts it.
	// Both close out every other bar so each window produces returns.
	winner := &scripted{name: "winner", fn: func(sr *series.Series, i int) Signal {
		if i%2 == 0 {
			return Signal{Type: Long, Confidence: 0.9}
		}
		return Signal{Type: Exit, Confidence: 0.9}
	}}
	loser := &scripted{name: "loser", fn: func(sr *series.Series, i int) Signal {
		if i%2 == 0 {
			return Signal{Type: Short, Confidence: 0.9}
		}
		return Signal{Type: Exit, Confidence: 0.9}
	}}
	e := NewEnsemble([]Strategy{winner, loser})
	sr := risingSeries(60)

	start := e.Weights()
	require.InDelta(t, 1.0, start["winner"], 1e-9)
	require.InDelta(t, 1.0, start["loser"], 1e-9)

	for i := 30; i < sr.Len(); i++ {
		e.GenerateSignal(sr, i)
	}

	w := e.Weights()
	assert.Greater(t, w["winner"], w["loser"])
	assert.GreaterOrEqual(t, w["loser"], 0.0)
}

func TestEnsembleExposesComponentMetrics(t *testing.T) {
	e := NewEnsemble([]Strategy{
		&scripted{name: "a", sig: Signal{Type: Long, Confidence: 0.8, Metrics: map[string]float64{"rsi": 25}}},
	})
	sr := risingSeries(10)

	sig := e.GenerateSignal(sr, sr.Len()-1)
	assert.InDelta(t, 25, sig.Metrics["a_rsi"], 1e-9)
	assert.Contains(t, sig.Metrics, "a_weight")
}
