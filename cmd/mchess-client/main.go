package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/mchess-live/internal/config"
	"github.com/park285/mchess-live/internal/console"
	"github.com/park285/mchess-live/internal/dispatch"
	"github.com/park285/mchess-live/internal/httpapi"
	"github.com/park285/mchess-live/internal/live"
	"github.com/park285/mchess-live/internal/obslog"
	"github.com/park285/mchess-live/internal/readmodel"
	"github.com/park285/mchess-live/internal/wsconn"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := wsconn.NewManager(cfg.WSURL(), cfg.ReconnectDelay, cfg.PingInterval, obslog.Named("ws"))
	outbox := dispatch.NewOutbox(ws, cfg.Actor, obslog.Named("outbox"))
	state := live.NewState(live.Options{PositionSource: cfg.PositionSource}, outbox, obslog.Named("live"))

	var publisher live.Publisher
	if cfg.RedisURL != "" {
		pub, err := readmodel.Dial(ctx, cfg.RedisURL, cfg.RedisChannel, cfg.RedisViewKey, cfg.ViewTTL, obslog.Named("readmodel"))
		if err != nil {
			// 렌더러 fan-out 없이도 클라이언트는 동작
			logger.Warn("readmodel_disabled", zap.Error(err))
		} else {
			publisher = pub
			defer func() { _ = pub.Close() }()
		}
	}

	loop := live.NewLoop(state, publisher, obslog.Named("loop"))
	ws.OnFrame(loop.Frame)
	ws.OnStateChange(loop.ConnectionChanged)

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	logger.Info("mchess_client_start", zap.String("ws_url", cfg.WSURL()), zap.String("actor", cfg.Actor))
	if err := ws.Connect(ctx); err != nil {
		logger.Warn("ws_initial_connect_failed", zap.Error(err), zap.Duration("retry_in", cfg.ReconnectDelay))
	}

	var srv *httpapi.Server
	if cfg.HTTPAddr != "" {
		srv = httpapi.New(cfg.HTTPAddr, loop, obslog.Named("http"))
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Error("http_serve_error", zap.Error(err))
			}
		}()
	}

	if cfg.Console && console.Interactive() {
		c := console.New(loop, os.Stdout, obslog.Named("console"))
		go func() {
			if err := c.Run(ctx, cfg.HistoryFile); err != nil {
				logger.Error("console_error", zap.Error(err))
			}
			stop()
		}()
	}

	<-ctx.Done()
	logger.Info("mchess_client_stopping")

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("http_shutdown_error", zap.Error(err))
		}
	}
	if err := ws.Close(sctx); err != nil {
		logger.Warn("ws_close_error", zap.Error(err))
	}
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("live_loop_error", zap.Error(err))
	}
}
