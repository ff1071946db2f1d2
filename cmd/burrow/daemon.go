package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fentz26/burrow/internal/audit"
	"github.com/fentz26/burrow/internal/config"
	"github.com/fentz26/burrow/internal/controlplane"
	"github.com/fentz26/burrow/internal/observability"
	"github.com/fentz26/burrow/internal/roster"
	"github.com/fentz26/burrow/internal/scheduler"
	"github.com/fentz26/burrow/internal/security"
	"github.com/fentz26/burrow/internal/store"
	"github.com/fentz26/burrow/internal/tracing"
	"github.com/fentz26/burrow/internal/workplace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the burrow daemon",
	Long:  `Starts the burrow daemon: the scheduler loops, the security and workplace coordinators, bed assignment and the HTTP API.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite decision journal (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Tracing.Enable {
		if err := tracing.Init("burrow", controlplane.Version, cfg.Tracing.Output); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				logger.Warn("tracing shutdown", zap.Error(err))
			}
		}()
	}

	var (
		db       controlplane.Pinger
		recorder *audit.Recorder
		opts     = []scheduler.Option{scheduler.WithLogger(logger)}
	)
	if cfg.Store.Path != "" {
		s, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				logger.Warn("database close", zap.Error(err))
			}
		}()
		db = s
		recorder = audit.NewRecorder(s)
		opts = append(opts, scheduler.WithRecorder(recorder))
	} else {
		logger.Warn("decision journal disabled")
	}

	colony := roster.New(logger)
	sched := scheduler.New(colony, &cfg.Scheduler, opts...)
	sec := security.New(sched, &cfg.Security, logger)
	wp := workplace.New(sched, &cfg.Workplace, logger)

	service := controlplane.NewService(sched, colony, sec, wp, recorder, logger)
	sec.OnDecision(service.RecordPassDecision)
	server := controlplane.NewServer(service, db, cfg.Server.Addr, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Shutdown()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return colony.Run(gctx, cfg.Roster.BedInterval) })
	g.Go(func() error { return sec.Run(gctx) })
	g.Go(func() error { return wp.Run(gctx) })
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}
