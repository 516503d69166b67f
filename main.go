package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	httpadapter "github.com/satriahrh/dsa-assistant/adapters/http"
	"github.com/satriahrh/dsa-assistant/adapters/hasher"
	"github.com/satriahrh/dsa-assistant/adapters/llm"
	"github.com/satriahrh/dsa-assistant/adapters/metrics"
	"github.com/satriahrh/dsa-assistant/adapters/websocket"
	"github.com/satriahrh/dsa-assistant/config"
	"github.com/satriahrh/dsa-assistant/usecase"
	"github.com/satriahrh/dsa-assistant/utils/log"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.L().Fatal("Invalid configuration", zap.Error(err))
	}
	// The package logger was built before .env was read.
	if cfg.Debug {
		l, _ := zap.NewDevelopment()
		log.SetLogger(l)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completer, err := llm.New(ctx, cfg)
	if err != nil {
		log.L().Fatal("Failed to create completion client", zap.Error(err))
	}

	m := metrics.New()
	svc := usecase.NewHintService(completer, hasher.New(), m)

	var limiter *httpadapter.Limiter
	if cfg.RateLimitEnabled {
		limiter = httpadapter.NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, m.RateLimitedInc)
	}
	ws := websocket.NewServer(svc, m, limiter, cfg.ExposeErrorDetails)

	e := httpadapter.NewRouter(httpadapter.RouterConfig{
		ExposeErrorDetails: cfg.ExposeErrorDetails,
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		BodyLimit:          cfg.BodyLimit,
		TrustedProxies:     cfg.TrustedProxies,
	}, httpadapter.RouterDeps{
		Hints:     httpadapter.NewHintHandler(svc, ws, cfg.ExposeErrorDetails),
		Sessions:  httpadapter.NewSessions(cfg.SessionSecret, cfg.SessionTTL),
		Metrics:   m,
		Limiter:   limiter,
		Websocket: ws.Handler,
	})

	go func() {
		log.L().Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("provider", completer.Name()),
			zap.String("model", completer.Model()),
		)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ws.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.L().Error("Graceful shutdown failed", zap.Error(err))
	}
}
