package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ivylane/studio-live/internal/api"
	"github.com/ivylane/studio-live/internal/config"
	"github.com/ivylane/studio-live/internal/diag"
	"github.com/ivylane/studio-live/internal/dispatch"
	"github.com/ivylane/studio-live/internal/event"
	"github.com/ivylane/studio-live/internal/fallback"
	"github.com/ivylane/studio-live/internal/notify"
	"github.com/ivylane/studio-live/internal/realtime"
	"github.com/ivylane/studio-live/internal/version"
)

// consoleSink prints notices as they are shown.
type consoleSink struct{}

func (consoleSink) Show(n notify.Notification) {
	fmt.Printf("[%s] %s\n", n.CreatedAt.Format("15:04:05"), n.Text)
}

func (consoleSink) Expire(string) {}

func main() {
	// .env is optional, real deployments use the environment directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/livewatch.yaml", "path to config file")
	subscriber := flag.String("subscriber", "", "subscriber id for the realtime channel")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting livewatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	if *subscriber == "" {
		*subscriber = os.Getenv("STUDIO_SUBSCRIBER")
	}
	if *subscriber == "" {
		logger.Error("no subscriber id: pass -subscriber or set STUDIO_SUBSCRIBER")
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"base_url", cfg.Server.BaseURL,
		"subscriber", *subscriber,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connection manager owns the channel session.
	manager := realtime.NewManager(realtime.Config{
		BaseURL:              cfg.Server.BaseURL,
		RealtimePath:         cfg.Server.RealtimePath,
		KeepaliveInterval:    cfg.Realtime.KeepaliveInterval,
		ReconnectBaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		FrameBufferSize:      cfg.Realtime.FrameBufferSize,
		SendTimeout:          cfg.Realtime.SendTimeout,
		HandshakeTimeout:     cfg.Realtime.HandshakeTimeout,
	}, logger)

	// Registry and dispatcher outlive any one connection.
	registry := dispatch.NewRegistry()
	metrics := dispatch.NewMetrics(prometheus.DefaultRegisterer)
	dispatcher := dispatch.NewDispatcher(registry, manager.Frames(), logger,
		dispatch.WithMetrics(metrics))

	// Refresh signal plus notices on the console.
	var refresh notify.RefreshSignal
	presenter := notify.NewPresenter(notify.Config{
		HistoryLimit:    cfg.Notify.HistoryLimit,
		DisplayDuration: cfg.Notify.DisplayDuration,
	}, &refresh, logger, notify.WithSink(consoleSink{}))
	presenter.Attach(registry)
	defer presenter.Close()

	// Degraded-mode poller probes the REST side before each bump.
	apiClient := api.NewClient(cfg.Server.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Polling.ProbeTimeout),
	)
	poller := fallback.New(fallback.Config{
		Interval:     cfg.Polling.Interval,
		ProbeTimeout: cfg.Polling.ProbeTimeout,
	}, &refresh, apiClient, logger)

	// When the session gives up reconnecting, switch to periodic refresh.
	failSub := registry.On(event.KindConnection, func(m event.Message) {
		p, ok := m.Payload.(event.ConnectionPayload)
		if !ok {
			return
		}
		if p.Status == event.StatusFailed {
			poller.Activate(ctx)
		}
	})
	defer failSub.Cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	var diagServer *diag.Server
	if cfg.Diag.Enabled {
		diagServer = diag.NewServer(cfg.Diag.Port, diag.Sources{
			Manager:    manager,
			Dispatcher: dispatcher,
			RefreshSeq: refresh.Seq,
			Degraded:   poller.Active,
			Notices:    func() int { return len(presenter.Notices()) },
		}, logger)
		g.Go(diagServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return diagServer.Shutdown(shutdownCtx)
		})
	}

	// A failed first dial is not fatal: the session is already on its
	// reconnect schedule, and exhausting the budget emits the failed
	// status that switches us to periodic refresh.
	if err := manager.Connect(ctx, *subscriber); err != nil {
		logger.Warn("initial connect failed, session will retry", "error", err)
	}

	logger.Info("livewatch running", "state", manager.State())

	<-ctx.Done()
	logger.Info("shutting down...")

	manager.Disconnect()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := poller.Stop(stopCtx); err != nil {
		logger.Warn("poller stop", "error", err)
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("livewatch stopped")
}
