package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/betbot/config"
	"github.com/alejandrodnm/betbot/internal/adapters/exchange"
	"github.com/alejandrodnm/betbot/internal/adapters/model"
	"github.com/alejandrodnm/betbot/internal/adapters/notify"
	"github.com/alejandrodnm/betbot/internal/adapters/paper"
	"github.com/alejandrodnm/betbot/internal/adapters/sportsfeed"
	"github.com/alejandrodnm/betbot/internal/adapters/storage"
	"github.com/alejandrodnm/betbot/internal/agent"
	"github.com/alejandrodnm/betbot/internal/ledger"
	"github.com/alejandrodnm/betbot/internal/ports"
	"github.com/alejandrodnm/betbot/internal/risk"
)

// simulationHold is how long a simulated bet stays pending before it
// resolves against its market-implied probability.
const simulationHold = 10 * time.Minute

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one cycle and exit")
	dryRun := flag.Bool("dry-run", false, "use local fixtures instead of real APIs")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full assessment table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("betbot starting",
		"config", *configPath,
		"mode", cfg.Agent.Mode,
		"research_interval", cfg.ResearchInterval(),
		"dry_run", *dryRun,
		"once", *once,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bank, err := openLedger(ctx, cfg, store)
	if err != nil {
		slog.Error("failed to restore bankroll", "err", err)
		os.Exit(1)
	}

	var research ports.ResearchProvider
	var estimator ports.BeliefEstimator
	if *dryRun {
		research = sportsfeed.NewFixtures()
		estimator = model.NewFixtures()
	} else {
		research = sportsfeed.NewClient(cfg.API.FeedBase)
		estimator = model.NewClient(cfg.API.ModelBase, cfg.API.ModelAPIKey)
	}

	var executor ports.Executor
	var results ports.ResultProvider
	switch cfg.Agent.Mode {
	case config.ModeLive:
		exch := exchange.NewClient(cfg.API.ExchangeBase, cfg.API.ExchangeAPIKey)
		executor, results = exch, exch
		if balance, err := exch.Balance(ctx); err != nil {
			slog.Warn("could not fetch exchange balance", "err", err)
		} else {
			slog.Info("exchange balance", "available", balance)
		}
	case config.ModeSimulation:
		executor = paper.NewExecutor()
		results = paper.NewSimulationResults(simulationHold)
	default: // test
		executor = paper.NewExecutor()
		results = paper.NewTestResults()
	}

	engine := risk.NewEngine(risk.NewLimiter(risk.Limits{
		MinEdge:          cfg.Betting.MinEdgeThreshold,
		MaxKellyFraction: cfg.Betting.MaxKellyFraction,
		MinBet:           cfg.Betting.MinBet,
		MaxBet:           cfg.Betting.MaxBet,
		DailyBetLimit:    cfg.Risk.DailyBetLimit,
	}, bank))

	notifier := notify.NewConsole(*table)

	controller := agent.New(agent.Config{
		ResearchInterval: cfg.ResearchInterval(),
		PhaseTimeout:     cfg.PhaseTimeout(),
	}, agent.Deps{
		Research:  research,
		Estimator: estimator,
		Engine:    engine,
		Executor:  executor,
		Store:     store,
		Notifier:  notifier,
		Bank:      bank,
	})

	reconciler := agent.NewReconciler(bank, store, results, estimator, cfg.LoopInterval())
	if err := reconciler.RestoreExposure(ctx); err != nil {
		slog.Error("failed to restore exposure", "err", err)
		os.Exit(1)
	}

	if *once {
		if err := controller.RunCycle(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		if _, err := reconciler.ReconcileOnce(ctx); err != nil {
			slog.Error("reconcile failed", "err", err)
		}
		return
	}

	go func() {
		if err := reconciler.Run(ctx); err != nil {
			slog.Error("reconciler exited with error", "err", err)
		}
	}()

	if err := controller.Run(ctx); err != nil {
		slog.Error("controller exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("betbot stopped cleanly")
}

// openLedger restores the ledger from the persisted snapshot, or starts a
// fresh one from the configured bankroll.
func openLedger(ctx context.Context, cfg *config.Config, store ports.Storage) (*ledger.Ledger, error) {
	lcfg := ledger.Config{
		InitialCapital: cfg.Betting.Bankroll,
		DailyLossLimit: cfg.Risk.DailyLossLimit,
	}

	state, ok, err := store.LoadBankroll(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Info("starting fresh bankroll", "capital", cfg.Betting.Bankroll)
		return ledger.New(lcfg), nil
	}

	slog.Info("restored bankroll",
		"available", state.AvailableCapital,
		"exposure", state.ReservedExposure,
		"daily_pnl", state.DailyRealizedPnL,
	)
	return ledger.Restore(lcfg, state), nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
