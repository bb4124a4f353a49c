package prediction

import (
	"math"

	"stock-signals/internal/indicator"
)

// Aggregate rolls resolved records up into per-strategy reliability
// metrics. A record backing several strategies counts toward each of
// them. Unresolved records are skipped.
func Aggregate(records []Record) map[string]*StrategyPerformance {
	grouped := make(map[string][]Record)
	for _, r := range records {
		if !r.Resolved() {
			continue
		}
		for _, name := range r.Strategies {
			grouped[name] = append(grouped[name], r)
		}
	}

	out := make(map[string]*StrategyPerformance, len(grouped))
	for name, group := range grouped {
		out[name] = summarize(name, group)
	}
	return out
}

func summarize(name string, group []Record) *StrategyPerformance {
	perf := &StrategyPerformance{
		StrategyName:     name,
		TotalPredictions: len(group),
	}

	returns := make([]float64, 0, len(group))
	var daysSum float64
	var daysCount int
	var wins int
	var grossProfit, grossLoss float64

	for _, r := range group {
		if r.Outcome == OutcomeSuccess {
			perf.SuccessfulPredictions++
		}
		returns = append(returns, r.ReturnPct)
		if r.ReturnPct > 0 {
			wins++
			grossProfit += r.ReturnPct
		} else if r.ReturnPct < 0 {
			grossLoss += -r.ReturnPct
		}
		if r.DaysHeld > 0 {
			daysSum += float64(r.DaysHeld)
			daysCount++
		}
	}
	perf.FailedPredictions = perf.TotalPredictions - perf.SuccessfulPredictions

	total := float64(perf.TotalPredictions)
	perf.AccuracyRate = float64(perf.SuccessfulPredictions) / total
	perf.WinRate = float64(wins) / total
	perf.AvgReturn = indicator.Mean(returns)
	if daysCount > 0 {
		perf.AvgDaysHeld = daysSum / float64(daysCount)
	}

	if grossLoss > 0 {
		perf.ProfitFactor = grossProfit / grossLoss
	} else {
		perf.ProfitFactor = math.Inf(1)
	}

	if len(returns) > 1 {
		if sd := indicator.StdDev(returns); sd > 0 {
			perf.SharpeRatio = indicator.Mean(returns) / sd
		}
	}

	// Simplified drawdown over the cumulative return sequence.
	var cum, peak float64
	for _, r := range returns {
		cum += r
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > perf.MaxDrawdown {
			perf.MaxDrawdown = dd
		}
	}

	return perf
}
