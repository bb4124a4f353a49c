// Package prediction tracks how issued trading predictions play out:
// labeling outcomes against subsequent price action, rolling the labels
// into per-strategy reliability metrics, and synthesizing sized trading
// triggers from those metrics.
package prediction

import (
	"errors"
	"time"
)

// Action is the recommended order side of a prediction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionExit Action = "EXIT"
)

// PositionType is the market exposure a prediction implies.
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
	PositionClose PositionType = "CLOSE"
)

// Outcome labels a resolved prediction.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ExitKind records what resolved a prediction.
type ExitKind string

const (
	ExitTargetHit ExitKind = "target_hit"
	ExitStopLoss  ExitKind = "stop_loss"
	ExitTimeout   ExitKind = "timeout"
)

// Record is one issued prediction. The outcome fields start empty and
// are filled exactly once when the evaluator can resolve it.
type Record struct {
	ID           int64        `json:"id"`
	Symbol       string       `json:"symbol"`
	DateIssued   time.Time    `json:"date_issued"`
	Action       Action       `json:"action"`
	Type         PositionType `json:"type"`
	Confidence   float64      `json:"confidence"`
	EntryPrice   float64      `json:"entry_price"`
	StopLoss     float64      `json:"stop_loss"`
	TakeProfit   float64      `json:"take_profit"`
	PositionSize int          `json:"position_size"`
	Strategies   []string     `json:"strategies"`
	Details      string       `json:"details"`

	Outcome         Outcome    `json:"outcome,omitempty"`
	ExitKind        ExitKind   `json:"exit_kind,omitempty"`
	ActualExitPrice float64    `json:"actual_exit_price,omitempty"`
	ActualExitDate  *time.Time `json:"actual_exit_date,omitempty"`
	PnL             float64    `json:"pnl,omitempty"`
	ReturnPct       float64    `json:"return_pct,omitempty"`
	DaysHeld        int        `json:"days_held,omitempty"`
}

// Resolved reports whether the outcome fields have been filled.
func (r *Record) Resolved() bool { return r.Outcome != "" }

// Apply fills the outcome fields from res. It fails if the record was
// already resolved; outcomes are written once, never edited.
func (r *Record) Apply(res Resolution) error {
	if r.Resolved() {
		return errors.New("prediction outcome already recorded")
	}
	r.Outcome = res.Outcome
	r.ExitKind = res.Kind
	r.ActualExitPrice = res.ExitPrice
	exitDate := res.ExitDate
	r.ActualExitDate = &exitDate
	r.PnL = res.PnL
	r.ReturnPct = res.ReturnPct
	r.DaysHeld = res.DaysHeld
	return nil
}

// Validate checks the fields set at issue time.
func (r *Record) Validate() error {
	if r.Symbol == "" {
		return errors.New("prediction symbol cannot be empty")
	}
	if r.DateIssued.IsZero() {
		return errors.New("prediction date_issued cannot be zero")
	}
	switch r.Action {
	case ActionBuy, ActionSell, ActionExit:
	default:
		return errors.New("prediction action must be BUY, SELL or EXIT")
	}
	switch r.Type {
	case PositionLong, PositionShort, PositionClose:
	default:
		return errors.New("prediction type must be LONG, SHORT or CLOSE")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.New("prediction confidence must be in [0,1]")
	}
	if r.EntryPrice <= 0 {
		return errors.New("prediction entry price must be positive")
	}
	return nil
}

// StrategyPerformance is the aggregate reliability of one strategy,
// recomputed wholesale on every aggregation pass.
type StrategyPerformance struct {
	StrategyName          string  `json:"strategy_name"`
	TotalPredictions      int     `json:"total_predictions"`
	SuccessfulPredictions int     `json:"successful_predictions"`
	FailedPredictions     int     `json:"failed_predictions"`
	AccuracyRate          float64 `json:"accuracy_rate"`
	AvgReturn             float64 `json:"avg_return"`
	AvgDaysHeld           float64 `json:"avg_days_held"`
	WinRate               float64 `json:"win_rate"`
	ProfitFactor          float64 `json:"profit_factor"` // +Inf when there are no losses
	SharpeRatio           float64 `json:"sharpe_ratio"`
	MaxDrawdown           float64 `json:"max_drawdown"`
}

// RiskLevel buckets a trigger's confidence.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// TimeHorizon buckets the expected holding period of a trigger.
type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "SHORT"
	HorizonMedium TimeHorizon = "MEDIUM"
	HorizonLong   TimeHorizon = "LONG"
)

// Trigger is a synthesized, sized trading recommendation. Triggers are
// created fresh each generation cycle; earlier ones are deactivated,
// never edited.
type Trigger struct {
	Symbol          string      `json:"symbol"`
	Action          Action      `json:"action"`
	Confidence      float64     `json:"confidence"`
	Reasoning       string      `json:"reasoning"`
	StrategyBacking []string    `json:"strategy_backing"`
	EntryPrice      float64     `json:"entry_price"`
	StopLoss        float64     `json:"stop_loss"`
	TakeProfit      float64     `json:"take_profit"`
	PositionSize    int         `json:"position_size"`
	RiskLevel       RiskLevel   `json:"risk_level"`
	TimeHorizon     TimeHorizon `json:"time_horizon"`
	DateCreated     time.Time   `json:"date_created"`
	Active          bool        `json:"active"`
}
