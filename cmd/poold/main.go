package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solana-pool-engine/internal/config"
	"solana-pool-engine/internal/eligibility"
	"solana-pool-engine/internal/ledger"
	"solana-pool-engine/internal/observability"
	"solana-pool-engine/internal/orchestrator"
	"solana-pool-engine/internal/reconcile"
	"solana-pool-engine/internal/service"
	"solana-pool-engine/internal/storage"
	chstore "solana-pool-engine/internal/storage/clickhouse"
	"solana-pool-engine/internal/storage/memory"
	"solana-pool-engine/internal/storage/migrations"
	"solana-pool-engine/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Pool admission and ledger reconciliation engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine: periodic reconciliation, event watcher, metrics",
		RunE:  runServe,
	}
	addEngineFlags(serveCmd)
	serveCmd.Flags().String("ledger-ws-endpoint", "", "ledger websocket endpoint for the event watcher")
	serveCmd.Flags().Duration("reconcile-interval", 5*time.Minute, "periodic reconciliation interval")
	serveCmd.Flags().String("metrics-addr", ":9091", "prometheus metrics listen address")
	root.AddCommand(serveCmd)

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and exit",
		RunE:  runReconcile,
	}
	addEngineFlags(reconcileCmd)
	root.AddCommand(reconcileCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("ledger-endpoint", nil, "ledger RPC endpoints, primary first (comma-separated)")
	cmd.Flags().Duration("ledger-call-timeout", 10*time.Second, "per-call ledger timeout")
	cmd.Flags().String("program-id", "", "current pool program deployment")
	cmd.Flags().StringSlice("historical-program-id", nil, "retired program deployments, newest first")
	cmd.Flags().String("signer-public-key", "", "base58 signer public key for ledger writes")
	cmd.Flags().String("postgres-dsn", "", "PostgreSQL DSN for the pool index")
	cmd.Flags().String("clickhouse-dsn", "", "ClickHouse DSN for audit events")
	cmd.Flags().Bool("use-memory", false, "use in-memory stores instead of databases")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// engine bundles the wired components and their teardown.
type engine struct {
	svc        *service.Service
	reconciler *reconcile.Reconciler
	pruner     *reconcile.Pruner
	pools      storage.PoolStore

	closers []func()
}

func (e *engine) close() {
	e.pruner.Close()
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*engine, error) {
	e := &engine{}

	var (
		pools       storage.PoolStore
		investments storage.InvestmentStore
		dividends   storage.DividendStore
		audit       storage.AuditEventStore
	)

	if cfg.UseMemory {
		logger.Warn("using in-memory stores, index will not survive restarts")
		pools = memory.NewPoolStore()
		investments = memory.NewInvestmentStore()
		dividends = memory.NewDividendStore()
		audit = memory.NewAuditEventStore()
	} else {
		pgPool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.closers = append(e.closers, pgPool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pgPool); err != nil {
			e.close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}

		pools = postgres.NewPoolStore(pgPool)
		investments = postgres.NewInvestmentStore(pgPool)
		dividends = postgres.NewDividendStore(pgPool)

		if cfg.ClickhouseDSN != "" {
			chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
			if err != nil {
				e.close()
				return nil, fmt.Errorf("clickhouse migrations: %w", err)
			}
			e.closers = append(e.closers, func() { chConn.Close() })
			audit = chstore.NewAuditEventStore(chConn)
		} else {
			logger.Warn("no clickhouse DSN, keeping audit events in memory")
			audit = memory.NewAuditEventStore()
		}
	}

	gateway, err := ledger.New(ledger.Config{
		Endpoints:            cfg.LedgerEndpoints,
		CallTimeout:          cfg.LedgerCallTimeout,
		ProgramID:            cfg.ProgramID,
		HistoricalProgramIDs: cfg.HistoricalProgramIDs,
	}, logger)
	if err != nil {
		e.close()
		return nil, err
	}

	validator, err := eligibility.New(eligibility.Options{
		Ledger:               gateway,
		Pools:                pools,
		ProgramID:            cfg.ProgramID,
		HistoricalProgramIDs: cfg.HistoricalProgramIDs,
		Logger:               logger,
	})
	if err != nil {
		e.close()
		return nil, err
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Validator: validator,
		Ledger:    gateway,
		Pools:     pools,
		Audit:     audit,
		Signer:    ledger.Signer{PublicKey: cfg.SignerPublicKey},
		Logger:    logger,
	})
	if err != nil {
		e.close()
		return nil, err
	}

	e.pruner = reconcile.NewPruner(pools, logger)

	e.reconciler, err = reconcile.New(reconcile.Options{
		Ledger:    gateway,
		ProgramID: cfg.ProgramID,
		Pruner:    e.pruner,
		Audit:     audit,
		Logger:    logger,
	})
	if err != nil {
		e.close()
		return nil, err
	}

	e.svc, err = service.New(service.Options{
		Orchestrator: orch,
		Reconciler:   e.reconciler,
		Pruner:       e.pruner,
		Pools:        pools,
		Investments:  investments,
		Dividends:    dividends,
		Logger:       logger,
	})
	if err != nil {
		e.close()
		return nil, err
	}

	e.pools = pools
	return e, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux()}
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}()

	if cfg.LedgerWSEndpoint != "" {
		if err := startWatcher(ctx, cfg, eng, logger); err != nil {
			logger.Warn("event watcher unavailable, relying on periodic sweep",
				zap.Error(err))
		}
	}

	logger.Info("engine started",
		zap.String("program_id", cfg.ProgramID),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval))

	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	sweep(ctx, eng, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			sweep(ctx, eng, logger)
		}
	}
}

// sweep runs one full reconciliation pass.
func sweep(ctx context.Context, eng *engine, logger *zap.Logger) {
	start := time.Now()
	records, err := eng.pools.ListWithLedgerReference(ctx)
	if err != nil {
		logger.Error("sweep: list index failed", zap.Error(err))
		return
	}

	report := eng.reconciler.VerifyAll(ctx, records)
	observability.RecordReconcileRun(
		len(report.Verified), len(report.Pruned), len(report.Ambiguous),
		time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulReconcile.Set(float64(time.Now().Unix()))
	observability.DefaultMetrics.PruneQueueDepth.Set(float64(eng.pruner.QueueDepth()))
}

// startWatcher subscribes to ledger log events and reconciles mentioned
// pools immediately instead of waiting for the next sweep.
func startWatcher(ctx context.Context, cfg config.Config, eng *engine, logger *zap.Logger) error {
	source, err := ledger.NewWSEventSource(ctx, cfg.LedgerWSEndpoint, nil, logger)
	if err != nil {
		return err
	}

	events, err := source.SubscribePoolEvents(ctx, []string{cfg.ProgramID})
	if err != nil {
		source.Close()
		return err
	}

	go func() {
		defer source.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.PoolID == "" {
					continue
				}
				reconcileOne(ctx, eng, ev.PoolID, logger)
			}
		}
	}()

	logger.Info("event watcher started", zap.String("endpoint", cfg.LedgerWSEndpoint))
	return nil
}

func reconcileOne(ctx context.Context, eng *engine, poolID string, logger *zap.Logger) {
	rec, err := eng.pools.GetByID(ctx, poolID)
	if errors.Is(err, storage.ErrNotFound) {
		return // event about a pool we never indexed
	}
	if err != nil {
		logger.Warn("watcher: read pool failed",
			zap.String("pool_id", poolID), zap.Error(err))
		return
	}

	if eng.reconciler.VerifyOne(ctx, rec) == reconcile.OutcomePruned {
		eng.pruner.Enqueue([]string{rec.PoolID})
		logger.Info("watcher: pool pruned after ledger event",
			zap.String("pool_id", rec.PoolID))
	}
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	records, err := eng.pools.ListWithLedgerReference(ctx)
	if err != nil {
		return fmt.Errorf("list index: %w", err)
	}

	report := eng.reconciler.VerifyAll(ctx, records)
	logger.Info("reconciliation finished",
		zap.Int("checked", len(records)),
		zap.Strings("pruned", report.Pruned),
		zap.Strings("ambiguous", report.Ambiguous))
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
