package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"stock-signals/internal/backtest"
	"stock-signals/internal/calendar"
	"stock-signals/internal/config"
	"stock-signals/internal/db"
	"stock-signals/internal/logging"
	"stock-signals/internal/marketdata"
	"stock-signals/internal/notifier"
	"stock-signals/internal/prediction"
	"stock-signals/internal/recommend"
	"stock-signals/internal/series"
	"stock-signals/internal/strategy"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewWithConfig(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Str("mode", cfg.Mode).Msg("run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store, cleanup, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	provider := marketdata.NewProvider(marketdata.NewYahooFetcher(), store, logger)
	if cfg.CacheStaleness > 0 {
		provider.Staleness = cfg.CacheStaleness
	}

	switch cfg.Mode {
	case "backtest":
		return runBacktest(ctx, cfg, logger, provider)
	case "analyze":
		return runAnalyze(ctx, cfg, logger, store, provider)
	case "track":
		return runTrack(ctx, cfg, logger, store, provider)
	case "report":
		return runReport(ctx, store, provider, logger)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger zerolog.Logger) (db.Storage, func(), error) {
	if cfg.DBConnStr == "" {
		logger.Warn().Msg("no database configured, using in-memory storage; nothing persists across runs")
		return db.NewMemoryStorage(), func() {}, nil
	}

	pg, err := db.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pg.InitSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("initializing schema: %w", err)
	}
	return pg, func() { pg.Close() }, nil
}

// fetchAll loads the configured date range for every symbol, skipping
// symbols whose history cannot be fetched.
func fetchAll(ctx context.Context, cfg config.Config, logger zerolog.Logger, provider *marketdata.Provider) map[string]*series.Series {
	all := make(map[string]*series.Series, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		sr, err := provider.Get(ctx, symbol, cfg.From, cfg.To, cfg.ForceRefresh)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("skipping symbol without price history")
			continue
		}
		all[symbol] = sr
	}
	return all
}

func runBacktest(ctx context.Context, cfg config.Config, logger zerolog.Logger, provider *marketdata.Provider) error {
	all := fetchAll(ctx, cfg, logger, provider)
	if len(all) == 0 {
		return fmt.Errorf("no price history for any configured symbol")
	}

	engine := backtest.NewEngine()
	engine.Stop = cfg.StopPercent
	engine.Profit = cfg.ProfitPercent
	engine.Size = cfg.PositionSize

	factory := func() strategy.Strategy { return strategy.NewEnsembleFromNames(cfg.Strategies) }
	if len(cfg.Strategies) == 1 {
		factory = func() strategy.Strategy { return strategy.New(cfg.Strategies)[0] }
	}

	multi := engine.RunAll(ctx, factory, all, cfg.Workers)
	for symbol, err := range multi.Errors {
		logger.Warn().Err(err).Str("symbol", symbol).Msg("backtest failed")
	}
	for symbol, result := range multi.Results {
		logger.Info().
			Str("symbol", symbol).
			Str("strategy", result.Strategy).
			Int("trades", result.TotalTrades).
			Float64("total_return", result.Metrics.TotalReturn).
			Float64("annualized_return", result.Metrics.AnnualizedReturn).
			Float64("buy_and_hold", result.BuyAndHold.TotalReturn).
			Msg("backtest complete")
	}
	logger.Info().
		Int("symbols", multi.TotalSymbols).
		Int("succeeded", multi.SuccessfulRuns).
		Int("failed", multi.FailedRuns).
		Msg("backtest run finished")
	return nil
}

func runAnalyze(ctx context.Context, cfg config.Config, logger zerolog.Logger, store db.Storage, provider *marketdata.Provider) error {
	now := time.Now().UTC()
	if !calendar.IsTradingDay(now) {
		logger.Info().Str("next", calendar.NextTradingDay(now).Format("2006-01-02")).
			Msg("market closed today, skipping analysis")
		return nil
	}

	all := fetchAll(ctx, cfg, logger, provider)
	if len(all) == 0 {
		return fmt.Errorf("no price history for any configured symbol")
	}

	engine := recommend.NewEngine(logger)
	engine.AccountSize = cfg.AccountSize
	engine.RiskPerTrade = cfg.RiskPerTrade
	engine.MinConfidence = cfg.MinConfidence

	records, err := engine.Analyze(strategy.New(strategyNames(cfg)), all, now)
	if err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		if err := store.SavePrediction(ctx, r); err != nil {
			return fmt.Errorf("saving prediction for %s: %w", r.Symbol, err)
		}
		if err := store.LogEvent(ctx, db.Event{
			Time:        now,
			Type:        "prediction",
			Description: fmt.Sprintf("%s %s @ %.2f", r.Action, r.Symbol, r.EntryPrice),
			Data: map[string]any{
				"symbol":     r.Symbol,
				"action":     string(r.Action),
				"confidence": r.Confidence,
				"strategies": strings.Join(r.Strategies, ","),
			},
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to journal prediction")
		}
	}
	logger.Info().Int("predictions", len(records)).Msg("analysis complete")
	return nil
}

func runTrack(ctx context.Context, cfg config.Config, logger zerolog.Logger, store db.Storage, provider *marketdata.Provider) error {
	now := time.Now().UTC()
	tracker := prediction.NewTracker(store, provider, logger)

	updated, err := tracker.UpdateOutcomes(ctx, now)
	if err != nil {
		return fmt.Errorf("updating outcomes: %w", err)
	}
	logger.Info().Int("updated", updated).Msg("prediction outcomes updated")

	triggers, err := tracker.GenerateTriggers(ctx, now)
	if err != nil {
		return fmt.Errorf("generating triggers: %w", err)
	}

	notify := buildNotifier(cfg)
	for _, t := range triggers {
		msg := fmt.Sprintf("%s %s @ %.2f (conf %.0f%%, stop %.2f, target %.2f, size %d)",
			t.Action, t.Symbol, t.EntryPrice, t.Confidence*100, t.StopLoss, t.TakeProfit, t.PositionSize)
		if err := notify.SendWithRetry(msg); err != nil {
			logger.Warn().Err(err).Str("symbol", t.Symbol).Msg("trigger notification failed")
		}
		if err := store.LogEvent(ctx, db.Event{
			Time:        now,
			Type:        "trigger",
			Description: msg,
			Data:        map[string]any{"symbol": t.Symbol, "confidence": t.Confidence},
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to journal trigger")
		}
	}
	logger.Info().Int("triggers", len(triggers)).Msg("tracking pass complete")
	return nil
}

func runReport(ctx context.Context, store db.Storage, provider *marketdata.Provider, logger zerolog.Logger) error {
	tracker := prediction.NewTracker(store, provider, logger)

	report, err := tracker.RunFullAnalysis(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}
	fmt.Println(report)
	return nil
}

func buildNotifier(cfg config.Config) notifier.Notifier {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		return notifier.Nop{}
	}
	return notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID,
		cfg.NotificationRetries, cfg.NotificationDelay)
}

func strategyNames(cfg config.Config) []string {
	if len(cfg.Strategies) > 0 {
		return cfg.Strategies
	}
	return []string{"moving-average", "macd", "bollinger", "momentum", "mean-reversion", "trend", "volume-price"}
}
