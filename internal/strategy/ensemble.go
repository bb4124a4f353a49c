package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"stock-signals/internal/indicator"
	"stock-signals/internal/series"
)

// Ensemble combines the signals of its component strategies using
// confidence-weighted voting. Component weights adapt over time: each
// call replays the components' recent signals, scores the simulated
// returns, and nudges the weights toward the better performers.
//
// Unlike the other strategies the ensemble carries mutable state. An
// instance must not be shared across goroutines without serializing
// GenerateSignal, which the internal mutex takes care of.
type Ensemble struct {
	Strategies       []Strategy
	MinConfidence    float64 // component signals below this are discarded
	EvaluationWindow int     // points replayed per evaluation, also history cap
	LearningRate     float64

	mu      sync.Mutex
	weights map[string]float64
	history map[string][]float64
}

func NewEnsemble(strategies []Strategy) *Ensemble {
	e := &Ensemble{
		Strategies:       strategies,
		MinConfidence:    0.3,
		EvaluationWindow: 20,
		LearningRate:     0.1,
		weights:          make(map[string]float64, len(strategies)),
		history:          make(map[string][]float64, len(strategies)),
	}
	for _, s := range strategies {
		e.weights[s.Name()] = 1.0
	}
	return e
}

func (e *Ensemble) Name() string { return "Ensemble Strategy" }

func (e *Ensemble) MinHistory() int {
	min := 0
	for _, s := range e.Strategies {
		if h := s.MinHistory(); h > min {
			min = h
		}
	}
	return min
}

func (e *Ensemble) RequiresFundamentals() bool {
	for _, s := range e.Strategies {
		if s.RequiresFundamentals() {
			return true
		}
	}
	return false
}

// Weights returns a copy of the current component weights.
func (e *Ensemble) Weights() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

func (e *Ensemble) GenerateSignal(sr *series.Series, i int) Signal {
	if i < e.MinHistory() || i >= sr.Len() {
		return HoldSignal("insufficient data")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.evaluatePerformance(sr, i)
	e.updateWeights()

	type vote struct {
		name string
		sig  Signal
	}
	votes := make([]vote, 0, len(e.Strategies))
	for _, s := range e.Strategies {
		votes = append(votes, vote{name: s.Name(), sig: s.GenerateSignal(sr, i)})
	}

	buckets := map[SignalType]float64{Long: 0, Short: 0, Exit: 0, Hold: 0}
	total := 0.0
	var reasons []string
	metrics := make(map[string]float64)

	for _, v := range votes {
		for name, val := range v.sig.Metrics {
			metrics[v.name+"_"+name] = val
		}
		if v.sig.Confidence < e.MinConfidence {
			continue
		}
		w := e.weights[v.name]
		weighted := v.sig.Confidence * w
		buckets[v.sig.Type] += weighted
		total += weighted
		reasons = append(reasons, fmt.Sprintf("%s (%.2f): %s (%.0f%%)", v.name, w, v.sig.Type, v.sig.Confidence*100))
	}
	for name, w := range e.weights {
		metrics[name+"_weight"] = w
	}

	if total == 0 {
		return Signal{Type: Hold, Reason: "No significant signals", Metrics: metrics}
	}
	for t := range buckets {
		buckets[t] /= total
	}

	best := Hold
	bestWeight := 0.0
	tied := []SignalType{}
	for t, w := range buckets {
		switch {
		case w > bestWeight:
			best, bestWeight = t, w
			tied = []SignalType{t}
		case w == bestWeight:
			tied = append(tied, t)
		}
	}
	if len(tied) > 1 {
		// Prefer getting out over staying in on a split vote.
		best = Hold
		for _, t := range tied {
			if t == Exit {
				best = Exit
				break
			}
		}
	}
	if best != Hold && bestWeight < e.MinConfidence {
		// The winning bucket is too thin a plurality to act on.
		return Signal{Type: Hold, Confidence: bestWeight, Reason: "No consensus above confidence threshold", Metrics: metrics}
	}

	return Signal{Type: best, Confidence: bestWeight, Reason: strings.Join(reasons, "\n"), Metrics: metrics}
}

// evaluatePerformance replays each component's signals over the trailing
// evaluation window, entry and exit driven by signals alone, and appends
// a performance score to the component's rolling history.
func (e *Ensemble) evaluatePerformance(sr *series.Series, i int) {
	start := i - e.EvaluationWindow + 1
	if start < 0 {
		start = 0
	}
	if i-start < 1 {
		return
	}

	for _, s := range e.Strategies {
		var returns []float64
		open := false
		short := false
		entry := 0.0

		for j := start; j <= i; j++ {
			sig := s.GenerateSignal(sr, j)
			close := sr.Points[j].Close
			switch {
			case !open && sig.Type == Long:
				open, short, entry = true, false, close
			case !open && sig.Type == Short:
				open, short, entry = true, true, close
			case open && sig.Type == Exit:
				if short {
					returns = append(returns, entry/close-1)
				} else {
					returns = append(returns, close/entry-1)
				}
				open = false
			}
		}

		if len(returns) == 0 {
			continue
		}
		avg := indicator.Mean(returns)
		div := 1.0
		if len(returns) > 1 {
			if sd := indicator.StdDev(returns); sd > 0 {
				div = sd
			}
		}
		sharpe := avg / div
		score := -math.Abs(avg)
		if sharpe > 0 {
			score = avg * sharpe
		}

		h := append(e.history[s.Name()], score)
		if len(h) > e.EvaluationWindow {
			h = h[1:]
		}
		e.history[s.Name()] = h
	}
}

// updateWeights moves each weight toward a target derived from the
// exponentially weighted average of its score history. The learning
// rate smooths the move so one good or bad window cannot dominate.
// Components without history keep their current weight.
func (e *Ensemble) updateWeights() {
	targets := make(map[string]float64, len(e.Strategies))
	totalScore := 0.0

	names := make([]string, 0, len(e.Strategies))
	for _, s := range e.Strategies {
		names = append(names, s.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		h := e.history[name]
		if len(h) == 0 {
			// No evidence yet, leave the weight alone.
			continue
		}
		var sum, wsum float64
		for i, score := range h {
			w := math.Exp(float64(i) / float64(len(h)))
			sum += score * w
			wsum += w
		}
		targets[name] = math.Max(0.1, sum/wsum)
		totalScore += targets[name]
	}

	if totalScore <= 0 {
		return
	}
	for _, name := range names {
		target, ok := targets[name]
		if !ok {
			continue
		}
		e.weights[name] += e.LearningRate * (target/totalScore - e.weights[name])
	}
}
