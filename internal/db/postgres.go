package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"stock-signals/internal/prediction"
	"stock-signals/internal/series"
)

// Transaction context key
type txKey struct{}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction retrieves a transaction from context, or returns nil if not present
func GetTransaction(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

var _ Storage = (*Postgres)(nil)

// Postgres is the production Storage backed by a Postgres database.
type Postgres struct {
	db *sql.DB
}

// New wraps an already opened database handle.
func New(sqlDB *sql.DB) (*Postgres, error) {
	if sqlDB == nil {
		return nil, errors.New("nil database handle")
	}
	return &Postgres{db: sqlDB}, nil
}

// Connect opens and pings a Postgres database.
func Connect(ctx context.Context, dsn string) (*Postgres, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, unavailable(fmt.Errorf("failed to ping database: %w", err))
	}
	return &Postgres{db: sqlDB}, nil
}

func (p *Postgres) GetDB() *sql.DB {
	return p.db
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// unavailable tags a storage failure so callers can distinguish it
// from bad input with errors.Is(err, ErrUnavailable).
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUnavailable, err)
}

// executeWithTransaction executes a function with proper transaction management.
// If a transaction exists in context, it uses that. Otherwise, it creates a new one.
func (p *Postgres) executeWithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx := GetTransaction(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := p.db.Begin()
	if err != nil {
		return unavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}

	if fnErr := fn(tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return unavailable(fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr))
		}
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return unavailable(fmt.Errorf("transaction commit failed: %w", commitErr))
	}

	return nil
}

// queryWithTransaction executes a query using transaction from context if available
func (p *Postgres) queryWithTransaction(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tx := GetTransaction(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return p.db.QueryContext(ctx, query, args...)
}

// InitSchema creates the tables the pipeline needs. Safe to call on
// every startup.
func (p *Postgres) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prices (
			symbol TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			volume BIGINT NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			date_issued TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,
			position_type TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			take_profit DOUBLE PRECISION NOT NULL,
			position_size INTEGER NOT NULL,
			strategies JSONB NOT NULL DEFAULT '[]',
			details TEXT NOT NULL DEFAULT '',
			outcome TEXT,
			exit_kind TEXT,
			actual_exit_price DOUBLE PRECISION,
			actual_exit_date TIMESTAMPTZ,
			pnl DOUBLE PRECISION,
			return_pct DOUBLE PRECISION,
			days_held INTEGER,
			UNIQUE (symbol, date_issued, action)
		)`,
		`CREATE TABLE IF NOT EXISTS strategy_performance (
			strategy_name TEXT NOT NULL,
			as_of TIMESTAMPTZ NOT NULL,
			total_predictions INTEGER NOT NULL,
			successful_predictions INTEGER NOT NULL,
			failed_predictions INTEGER NOT NULL,
			accuracy_rate DOUBLE PRECISION NOT NULL,
			avg_return DOUBLE PRECISION NOT NULL,
			avg_days_held DOUBLE PRECISION NOT NULL,
			win_rate DOUBLE PRECISION NOT NULL,
			profit_factor DOUBLE PRECISION NOT NULL,
			sharpe_ratio DOUBLE PRECISION NOT NULL,
			max_drawdown DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (strategy_name, as_of)
		)`,
		`CREATE TABLE IF NOT EXISTS trading_triggers (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			strategy_backing JSONB NOT NULL DEFAULT '[]',
			entry_price DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			take_profit DOUBLE PRECISION NOT NULL,
			position_size INTEGER NOT NULL,
			risk_level TEXT NOT NULL,
			time_horizon TEXT NOT NULL,
			date_created TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			time TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			data JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_time ON events (type, time)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_pending ON predictions (date_issued) WHERE outcome IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_triggers_active ON trading_triggers (date_created) WHERE is_active`,
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return unavailable(fmt.Errorf("failed to create schema: %w", err))
			}
		}
		return nil
	})
}

// SavePricePoints upserts daily bars for a symbol.
func (p *Postgres) SavePricePoints(ctx context.Context, symbol string, points []series.Point) error {
	if symbol == "" {
		return errors.New("symbol cannot be empty")
	}
	if len(points) == 0 {
		return nil
	}
	for i := range points {
		if err := points[i].Validate(); err != nil {
			return fmt.Errorf("invalid point at index %d for %s: %w", i, symbol, err)
		}
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (symbol, date, open, high, low, close, volume)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open=EXCLUDED.open, high=EXCLUDED.high, low=EXCLUDED.low,
			close=EXCLUDED.close, volume=EXCLUDED.volume`)
		if err != nil {
			return unavailable(fmt.Errorf("failed to prepare price insert: %w", err))
		}
		defer stmt.Close()

		for _, pt := range points {
			if _, err := stmt.ExecContext(ctx, symbol, pt.Date, pt.Open, pt.High, pt.Low, pt.Close, pt.Volume); err != nil {
				return unavailable(fmt.Errorf("failed to save price for %s at %s: %w", symbol, pt.Date.Format("2006-01-02"), err))
			}
		}
		return nil
	})
}

func (p *Postgres) PriceSeries(ctx context.Context, symbol string, from, to time.Time) (*series.Series, error) {
	rows, err := p.queryWithTransaction(ctx, `
	SELECT date, open, high, low, close, volume FROM prices
	WHERE symbol=$1 AND date >= $2 AND date <= $3
	ORDER BY date ASC`, symbol, from, to)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to query prices for %s: %w", symbol, err))
	}
	defer rows.Close()

	var points []series.Point
	for rows.Next() {
		var pt series.Point
		if err := rows.Scan(&pt.Date, &pt.Open, &pt.High, &pt.Low, &pt.Close, &pt.Volume); err != nil {
			return nil, unavailable(fmt.Errorf("failed to scan price for %s: %w", symbol, err))
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("failed to read prices for %s: %w", symbol, err))
	}
	return series.New(symbol, points), nil
}

func (p *Postgres) LatestPriceDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	const q = `SELECT max(date) FROM prices WHERE symbol=$1`
	var row *sql.Row
	if tx := GetTransaction(ctx); tx != nil {
		row = tx.QueryRowContext(ctx, q, symbol)
	} else {
		row = p.db.QueryRowContext(ctx, q, symbol)
	}
	var latest sql.NullTime
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, false, unavailable(fmt.Errorf("failed to query latest price date for %s: %w", symbol, err))
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time, true, nil
}

// SavePrediction inserts a record and fills its ID. Re-saving the same
// (symbol, date_issued, action) keeps the existing row and returns its ID.
func (p *Postgres) SavePrediction(ctx context.Context, r *prediction.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid prediction for %s: %w", r.Symbol, err)
	}
	strategies, err := json.Marshal(r.Strategies)
	if err != nil {
		return fmt.Errorf("failed to encode strategies for %s: %w", r.Symbol, err)
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
		INSERT INTO predictions (symbol, date_issued, action, position_type, confidence,
			entry_price, stop_loss, take_profit, position_size, strategies, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (symbol, date_issued, action) DO NOTHING
		RETURNING id`,
			r.Symbol, r.DateIssued, r.Action, r.Type, r.Confidence,
			r.EntryPrice, r.StopLoss, r.TakeProfit, r.PositionSize, strategies, r.Details).Scan(&r.ID)
		if errors.Is(err, sql.ErrNoRows) {
			// Duplicate issue; keep the original row.
			err = tx.QueryRowContext(ctx, `
			SELECT id FROM predictions WHERE symbol=$1 AND date_issued=$2 AND action=$3`,
				r.Symbol, r.DateIssued, r.Action).Scan(&r.ID)
		}
		if err != nil {
			return unavailable(fmt.Errorf("failed to save prediction for %s: %w", r.Symbol, err))
		}
		return nil
	})
}

func (p *Postgres) PendingPredictions(ctx context.Context, issuedBefore time.Time) ([]prediction.Record, error) {
	return p.queryPredictions(ctx, `WHERE outcome IS NULL AND date_issued < $1 ORDER BY date_issued ASC`, issuedBefore)
}

func (p *Postgres) PredictionsSince(ctx context.Context, since time.Time) ([]prediction.Record, error) {
	return p.queryPredictions(ctx, `WHERE date_issued >= $1 ORDER BY date_issued ASC`, since)
}

func (p *Postgres) ResolvedPredictions(ctx context.Context) ([]prediction.Record, error) {
	return p.queryPredictions(ctx, `WHERE outcome IS NOT NULL ORDER BY date_issued ASC`)
}

func (p *Postgres) queryPredictions(ctx context.Context, clause string, args ...any) ([]prediction.Record, error) {
	rows, err := p.queryWithTransaction(ctx, `
	SELECT id, symbol, date_issued, action, position_type, confidence,
		entry_price, stop_loss, take_profit, position_size, strategies, details,
		outcome, exit_kind, actual_exit_price, actual_exit_date, pnl, return_pct, days_held
	FROM predictions `+clause, args...)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to query predictions: %w", err))
	}
	defer rows.Close()

	var records []prediction.Record
	for rows.Next() {
		r, err := scanPrediction(rows)
		if err != nil {
			return nil, unavailable(fmt.Errorf("failed to scan prediction: %w", err))
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("failed to read predictions: %w", err))
	}
	return records, nil
}

func scanPrediction(rows *sql.Rows) (prediction.Record, error) {
	var (
		r          prediction.Record
		strategies []byte
		outcome    sql.NullString
		exitKind   sql.NullString
		exitPrice  sql.NullFloat64
		exitDate   sql.NullTime
		pnl        sql.NullFloat64
		returnPct  sql.NullFloat64
		daysHeld   sql.NullInt64
	)
	if err := rows.Scan(&r.ID, &r.Symbol, &r.DateIssued, &r.Action, &r.Type, &r.Confidence,
		&r.EntryPrice, &r.StopLoss, &r.TakeProfit, &r.PositionSize, &strategies, &r.Details,
		&outcome, &exitKind, &exitPrice, &exitDate, &pnl, &returnPct, &daysHeld); err != nil {
		return prediction.Record{}, err
	}
	if err := json.Unmarshal(strategies, &r.Strategies); err != nil {
		return prediction.Record{}, fmt.Errorf("failed to decode strategies: %w", err)
	}
	if outcome.Valid {
		r.Outcome = prediction.Outcome(outcome.String)
		r.ExitKind = prediction.ExitKind(exitKind.String)
		r.ActualExitPrice = exitPrice.Float64
		if exitDate.Valid {
			d := exitDate.Time
			r.ActualExitDate = &d
		}
		r.PnL = pnl.Float64
		r.ReturnPct = returnPct.Float64
		r.DaysHeld = int(daysHeld.Int64)
	}
	return r, nil
}

// UpdateOutcome writes the outcome fields of a resolved record.
// Outcomes are written once; a second write is an error.
func (p *Postgres) UpdateOutcome(ctx context.Context, r *prediction.Record) error {
	if !r.Resolved() {
		return fmt.Errorf("prediction %d for %s has no outcome to record", r.ID, r.Symbol)
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE predictions SET outcome=$1, exit_kind=$2, actual_exit_price=$3,
			actual_exit_date=$4, pnl=$5, return_pct=$6, days_held=$7
		WHERE id=$8 AND outcome IS NULL`,
			r.Outcome, r.ExitKind, r.ActualExitPrice, r.ActualExitDate,
			r.PnL, r.ReturnPct, r.DaysHeld, r.ID)
		if err != nil {
			return unavailable(fmt.Errorf("failed to update outcome for prediction %d: %w", r.ID, err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return unavailable(fmt.Errorf("failed to update outcome for prediction %d: %w", r.ID, err))
		}
		if n == 0 {
			return fmt.Errorf("prediction %d is missing or already resolved", r.ID)
		}
		return nil
	})
}

func (p *Postgres) SaveTriggers(ctx context.Context, triggers []prediction.Trigger) error {
	if len(triggers) == 0 {
		return nil
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trading_triggers (symbol, action, confidence, reasoning, strategy_backing,
			entry_price, stop_loss, take_profit, position_size, risk_level, time_horizon,
			date_created, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`)
		if err != nil {
			return unavailable(fmt.Errorf("failed to prepare trigger insert: %w", err))
		}
		defer stmt.Close()

		for _, t := range triggers {
			backing, err := json.Marshal(t.StrategyBacking)
			if err != nil {
				return fmt.Errorf("failed to encode strategy backing for %s: %w", t.Symbol, err)
			}
			if _, err := stmt.ExecContext(ctx, t.Symbol, t.Action, t.Confidence, t.Reasoning, backing,
				t.EntryPrice, t.StopLoss, t.TakeProfit, t.PositionSize, t.RiskLevel, t.TimeHorizon,
				t.DateCreated, t.Active); err != nil {
				return unavailable(fmt.Errorf("failed to save trigger for %s: %w", t.Symbol, err))
			}
		}
		return nil
	})
}

func (p *Postgres) DeactivateTriggers(ctx context.Context, before time.Time) error {
	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		UPDATE trading_triggers SET is_active=FALSE
		WHERE is_active AND date_created < $1`, before); err != nil {
			return unavailable(fmt.Errorf("failed to deactivate triggers: %w", err))
		}
		return nil
	})
}

func (p *Postgres) ActiveTriggers(ctx context.Context) ([]prediction.Trigger, error) {
	rows, err := p.queryWithTransaction(ctx, `
	SELECT symbol, action, confidence, reasoning, strategy_backing,
		entry_price, stop_loss, take_profit, position_size, risk_level, time_horizon,
		date_created, is_active
	FROM trading_triggers WHERE is_active ORDER BY confidence DESC, symbol ASC`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to query active triggers: %w", err))
	}
	defer rows.Close()

	var triggers []prediction.Trigger
	for rows.Next() {
		var (
			t       prediction.Trigger
			backing []byte
		)
		if err := rows.Scan(&t.Symbol, &t.Action, &t.Confidence, &t.Reasoning, &backing,
			&t.EntryPrice, &t.StopLoss, &t.TakeProfit, &t.PositionSize, &t.RiskLevel, &t.TimeHorizon,
			&t.DateCreated, &t.Active); err != nil {
			return nil, unavailable(fmt.Errorf("failed to scan trigger: %w", err))
		}
		if err := json.Unmarshal(backing, &t.StrategyBacking); err != nil {
			return nil, fmt.Errorf("failed to decode strategy backing for %s: %w", t.Symbol, err)
		}
		triggers = append(triggers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("failed to read triggers: %w", err))
	}
	return triggers, nil
}

// LogEvent journals one pipeline event.
func (p *Postgres) LogEvent(ctx context.Context, e Event) error {
	if e.Type == "" {
		return errors.New("event type cannot be empty")
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (time, type, description, data) VALUES ($1,$2,$3,$4)`,
			e.Time, e.Type, e.Description, payload); err != nil {
			return unavailable(fmt.Errorf("failed to log %s event: %w", e.Type, err))
		}
		return nil
	})
}

func (p *Postgres) Events(ctx context.Context, eventType string, start, end time.Time) ([]Event, error) {
	rows, err := p.queryWithTransaction(ctx, `
	SELECT id, time, type, description, data FROM events
	WHERE ($1 = '' OR type = $1) AND time >= $2 AND time <= $3
	ORDER BY time ASC, id ASC`, eventType, start, end)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to query events: %w", err))
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Time, &e.Type, &e.Description, &payload); err != nil {
			return nil, unavailable(fmt.Errorf("failed to scan event: %w", err))
		}
		if err := json.Unmarshal(payload, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("failed to read events: %w", err))
	}
	return events, nil
}

func (p *Postgres) SavePerformanceSnapshots(ctx context.Context, asOf time.Time, perf map[string]*prediction.StrategyPerformance) error {
	if len(perf) == 0 {
		return nil
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO strategy_performance (strategy_name, as_of, total_predictions,
			successful_predictions, failed_predictions, accuracy_rate, avg_return,
			avg_days_held, win_rate, profit_factor, sharpe_ratio, max_drawdown)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (strategy_name, as_of) DO UPDATE SET
			total_predictions=EXCLUDED.total_predictions,
			successful_predictions=EXCLUDED.successful_predictions,
			failed_predictions=EXCLUDED.failed_predictions,
			accuracy_rate=EXCLUDED.accuracy_rate, avg_return=EXCLUDED.avg_return,
			avg_days_held=EXCLUDED.avg_days_held, win_rate=EXCLUDED.win_rate,
			profit_factor=EXCLUDED.profit_factor, sharpe_ratio=EXCLUDED.sharpe_ratio,
			max_drawdown=EXCLUDED.max_drawdown`)
		if err != nil {
			return unavailable(fmt.Errorf("failed to prepare performance insert: %w", err))
		}
		defer stmt.Close()

		for name, sp := range perf {
			// Profit factor is +Inf when the strategy has no losing
			// predictions; store a sentinel Postgres can hold.
			pf := sp.ProfitFactor
			if pf > maxStoredProfitFactor {
				pf = maxStoredProfitFactor
			}
			if _, err := stmt.ExecContext(ctx, name, asOf, sp.TotalPredictions,
				sp.SuccessfulPredictions, sp.FailedPredictions, sp.AccuracyRate, sp.AvgReturn,
				sp.AvgDaysHeld, sp.WinRate, pf, sp.SharpeRatio, sp.MaxDrawdown); err != nil {
				return unavailable(fmt.Errorf("failed to save performance for %s: %w", name, err))
			}
		}
		return nil
	})
}

// maxStoredProfitFactor caps the +Inf profit factor of loss-free
// strategies at a finite value for storage.
const maxStoredProfitFactor = 1e6

func (p *Postgres) LatestPerformanceSnapshots(ctx context.Context) (map[string]*prediction.StrategyPerformance, error) {
	rows, err := p.queryWithTransaction(ctx, `
	SELECT strategy_name, total_predictions, successful_predictions, failed_predictions,
		accuracy_rate, avg_return, avg_days_held, win_rate, profit_factor,
		sharpe_ratio, max_drawdown
	FROM strategy_performance
	WHERE as_of = (SELECT max(as_of) FROM strategy_performance)`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to query performance snapshots: %w", err))
	}
	defer rows.Close()

	perf := make(map[string]*prediction.StrategyPerformance)
	for rows.Next() {
		sp := &prediction.StrategyPerformance{}
		if err := rows.Scan(&sp.StrategyName, &sp.TotalPredictions, &sp.SuccessfulPredictions,
			&sp.FailedPredictions, &sp.AccuracyRate, &sp.AvgReturn, &sp.AvgDaysHeld,
			&sp.WinRate, &sp.ProfitFactor, &sp.SharpeRatio, &sp.MaxDrawdown); err != nil {
			return nil, unavailable(fmt.Errorf("failed to scan performance snapshot: %w", err))
		}
		perf[sp.StrategyName] = sp
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("failed to read performance snapshots: %w", err))
	}
	return perf, nil
}
