package prediction

import (
	"fmt"
	"math"
	"sort"
	"time"

	"stock-signals/internal/indicator"
)

// Generator synthesizes trading triggers from recent predictions and
// aggregated strategy reliability.
type Generator struct {
	// Window is how far back predictions are considered.
	Window time.Duration
	// MinPredictions is the minimum number of recent predictions a
	// symbol needs before a trigger is considered.
	MinPredictions int
	// ConsistencyDepth is how many of the latest predictions vote on
	// action consistency.
	ConsistencyDepth int
	// MinConfidence gates trigger emission.
	MinConfidence float64
	// BasePositionValue is the dollar base for sizing.
	BasePositionValue float64

	// Reliability thresholds for a backing strategy.
	MinAccuracy    float64
	MinTrackRecord int
}

func NewGenerator() *Generator {
	return &Generator{
		Window:            30 * 24 * time.Hour,
		MinPredictions:    2,
		ConsistencyDepth:  5,
		MinConfidence:     0.7,
		BasePositionValue: 1000,
		MinAccuracy:       0.6,
		MinTrackRecord:    5,
	}
}

// Generate builds triggers for every symbol whose recent prediction
// stream is consistent enough and backed by at least one reliable
// strategy. prices supplies the current price per symbol; symbols
// without a price are skipped.
func (g *Generator) Generate(now time.Time, records []Record, perf map[string]*StrategyPerformance, prices map[string]float64) []Trigger {
	cutoff := now.Add(-g.Window)

	bySymbol := make(map[string][]Record)
	for _, r := range records {
		if r.DateIssued.Before(cutoff) {
			continue
		}
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var triggers []Trigger
	for _, symbol := range symbols {
		recent := bySymbol[symbol]
		if len(recent) < g.MinPredictions {
			continue
		}
		sort.Slice(recent, func(i, j int) bool {
			return recent[i].DateIssued.After(recent[j].DateIssued)
		})

		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}
		if t, ok := g.analyze(now, symbol, recent, perf, price); ok {
			triggers = append(triggers, t)
		}
	}
	return triggers
}

// analyze scores the progression of one symbol's recent predictions,
// newest first.
func (g *Generator) analyze(now time.Time, symbol string, recent []Record, perf map[string]*StrategyPerformance, price float64) (Trigger, bool) {
	latest := recent[0]

	var backingStrength float64
	var reliable []string
	for _, name := range latest.Strategies {
		p, ok := perf[name]
		if !ok {
			continue
		}
		if p.AccuracyRate > g.MinAccuracy && p.TotalPredictions >= g.MinTrackRecord {
			backingStrength += p.AccuracyRate * p.WinRate
			reliable = append(reliable, name)
		}
	}

	depth := g.ConsistencyDepth
	if depth > len(recent) {
		depth = len(recent)
	}
	agree := 0
	for _, r := range recent[:depth] {
		if r.Action == latest.Action {
			agree++
		}
	}
	actionConsistency := float64(agree) / float64(depth)

	confidence := (latest.Confidence + backingStrength + actionConsistency) / 3
	if confidence < g.MinConfidence || len(reliable) == 0 {
		return Trigger{}, false
	}

	positionValue := g.BasePositionValue * math.Min(confidence*1.5, 2.0)

	var accuracies, avgDays []float64
	for _, name := range reliable {
		accuracies = append(accuracies, perf[name].AccuracyRate)
		avgDays = append(avgDays, perf[name].AvgDaysHeld)
	}
	reasoning := fmt.Sprintf(
		"Consistent %s signal with %.0f%% consistency. Backed by %d reliable strategies with avg accuracy: %.0f%%",
		latest.Action, actionConsistency*100, len(reliable), indicator.Mean(accuracies)*100,
	)

	return Trigger{
		Symbol:          symbol,
		Action:          latest.Action,
		Confidence:      confidence,
		Reasoning:       reasoning,
		StrategyBacking: reliable,
		EntryPrice:      price,
		StopLoss:        latest.StopLoss,
		TakeProfit:      latest.TakeProfit,
		PositionSize:    int(positionValue / price),
		RiskLevel:       riskLevel(confidence),
		TimeHorizon:     timeHorizon(indicator.Mean(avgDays)),
		DateCreated:     now,
		Active:          true,
	}, true
}

func riskLevel(confidence float64) RiskLevel {
	switch {
	case confidence >= 0.85:
		return RiskLow
	case confidence >= 0.75:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func timeHorizon(avgDaysHeld float64) TimeHorizon {
	switch {
	case avgDaysHeld <= 5:
		return HorizonShort
	case avgDaysHeld <= 15:
		return HorizonMedium
	default:
		return HorizonLong
	}
}
