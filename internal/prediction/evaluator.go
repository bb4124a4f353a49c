package prediction

import (
	"time"

	"stock-signals/internal/series"
)

// Resolution is what actually happened to a prediction.
type Resolution struct {
	Outcome   Outcome
	Kind      ExitKind
	ExitPrice float64
	ExitDate  time.Time
	PnL       float64
	ReturnPct float64
	DaysHeld  int
}

// Evaluator resolves predictions by replaying the price action that
// followed their issue date.
type Evaluator struct {
	MaxHoldingDays int
}

func NewEvaluator() *Evaluator {
	return &Evaluator{MaxHoldingDays: 30}
}

// Evaluate walks sr forward from the bar after the record's issue date.
// A touched stop resolves before a touched target on the same bar, the
// same tie break the backtest engine applies. Once the holding period
// exceeds MaxHoldingDays the prediction times out at that bar's close.
//
// ok is false when the series has no decisive bar yet, for example when
// price data is missing or too short. The record stays unresolved and is
// eligible for a later pass.
func (e *Evaluator) Evaluate(r *Record, sr *series.Series) (Resolution, bool) {
	if sr == nil || r.Type == PositionClose {
		return Resolution{}, false
	}

	for _, p := range sr.After(r.DateIssued).Points {
		daysHeld := int(p.Date.Sub(r.DateIssued).Hours() / 24)

		if daysHeld > e.MaxHoldingDays {
			return e.resolve(r, ExitTimeout, p.Close, p.Date, daysHeld), true
		}

		switch r.Type {
		case PositionLong:
			if p.Low <= r.StopLoss {
				return e.resolve(r, ExitStopLoss, r.StopLoss, p.Date, daysHeld), true
			}
			if p.High >= r.TakeProfit {
				return e.resolve(r, ExitTargetHit, r.TakeProfit, p.Date, daysHeld), true
			}
		case PositionShort:
			if p.High >= r.StopLoss {
				return e.resolve(r, ExitStopLoss, r.StopLoss, p.Date, daysHeld), true
			}
			if p.Low <= r.TakeProfit {
				return e.resolve(r, ExitTargetHit, r.TakeProfit, p.Date, daysHeld), true
			}
		}
	}

	return Resolution{}, false
}

func (e *Evaluator) resolve(r *Record, kind ExitKind, exitPrice float64, exitDate time.Time, daysHeld int) Resolution {
	res := Resolution{
		Kind:      kind,
		ExitPrice: exitPrice,
		ExitDate:  exitDate,
		DaysHeld:  daysHeld,
	}

	if r.Type == PositionLong {
		res.PnL = (exitPrice - r.EntryPrice) * float64(r.PositionSize)
		res.ReturnPct = exitPrice/r.EntryPrice - 1
	} else {
		res.PnL = (r.EntryPrice - exitPrice) * float64(r.PositionSize)
		res.ReturnPct = r.EntryPrice/exitPrice - 1
	}

	switch kind {
	case ExitTargetHit:
		res.Outcome = OutcomeSuccess
	case ExitStopLoss:
		res.Outcome = OutcomeFailure
	default:
		// A timeout with any gain counts as success. Debatable, but
		// that is the established classification.
		if res.ReturnPct > 0 {
			res.Outcome = OutcomeSuccess
		} else {
			res.Outcome = OutcomeFailure
		}
	}
	return res
}
