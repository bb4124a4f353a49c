package prediction

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report renders a markdown performance report: strategies sorted by
// accuracy, then the currently active triggers.
func Report(now time.Time, perf map[string]*StrategyPerformance, triggers []Trigger) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# PREDICTION PERFORMANCE REPORT\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format("2006-01-02 15:04:05"))

	b.WriteString("## STRATEGY PERFORMANCE\n\n")

	names := make([]string, 0, len(perf))
	for name := range perf {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if perf[names[i]].AccuracyRate != perf[names[j]].AccuracyRate {
			return perf[names[i]].AccuracyRate > perf[names[j]].AccuracyRate
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		p := perf[name]
		fmt.Fprintf(&b, "### %s\n", name)
		fmt.Fprintf(&b, "- **Accuracy Rate:** %.1f%%\n", p.AccuracyRate*100)
		fmt.Fprintf(&b, "- **Win Rate:** %.1f%%\n", p.WinRate*100)
		fmt.Fprintf(&b, "- **Avg Return:** %.2f%%\n", p.AvgReturn*100)
		fmt.Fprintf(&b, "- **Total Predictions:** %d\n", p.TotalPredictions)
		fmt.Fprintf(&b, "- **Profit Factor:** %.2f\n", p.ProfitFactor)
		fmt.Fprintf(&b, "- **Sharpe Ratio:** %.2f\n", p.SharpeRatio)
		fmt.Fprintf(&b, "- **Avg Days Held:** %.1f\n\n", p.AvgDaysHeld)
	}

	b.WriteString("## ACTIVE TRADING TRIGGERS\n\n")

	if len(triggers) == 0 {
		b.WriteString("*No active trading triggers at this time.*\n")
		return b.String()
	}

	sorted := make([]Trigger, len(triggers))
	copy(sorted, triggers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	for _, t := range sorted {
		fmt.Fprintf(&b, "### %s - %s\n", t.Symbol, t.Action)
		fmt.Fprintf(&b, "- **Confidence:** %.1f%%\n", t.Confidence*100)
		fmt.Fprintf(&b, "- **Risk Level:** %s\n", t.RiskLevel)
		fmt.Fprintf(&b, "- **Position Size:** %d shares\n", t.PositionSize)
		fmt.Fprintf(&b, "- **Entry Price:** $%.2f\n", t.EntryPrice)
		fmt.Fprintf(&b, "- **Stop Loss:** $%.2f\n", t.StopLoss)
		fmt.Fprintf(&b, "- **Take Profit:** $%.2f\n", t.TakeProfit)
		fmt.Fprintf(&b, "- **Time Horizon:** %s\n", t.TimeHorizon)
		fmt.Fprintf(&b, "- **Reasoning:** %s\n\n", t.Reasoning)
	}

	return b.String()
}
