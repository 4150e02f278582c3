package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmtech/irrigation/internal/auth"
	"github.com/farmtech/irrigation/internal/server"
	"github.com/farmtech/irrigation/internal/version"
	"github.com/farmtech/irrigation/internal/ws"
	"go.uber.org/zap"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	v, logger, ok := loadRuntime(*configPath)
	if !ok {
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("FarmTech server starting", zap.String("version", version.Short()))

	srvCfg, err := server.ConfigFromViper(v)
	if err != nil {
		logger.Error("invalid server configuration", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, v, logger, allModules())
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return 1
	}

	if err := a.reg.StartAll(ctx); err != nil {
		logger.Error("failed to start modules", zap.Error(err))
		a.close(context.Background())
		return 1
	}

	tokens, err := tokenService(v)
	if err != nil {
		logger.Error("invalid auth configuration", zap.Error(err))
		a.close(context.Background())
		return 1
	}
	var guard server.Middleware
	if tokens != nil {
		guard = auth.Guard(tokens)
		logger.Info("operator token guard enabled",
			zap.String("component", "auth"),
			zap.Duration("token_ttl", tokens.TTL()),
		)
	} else {
		logger.Warn("auth.jwt_secret not set; mutating API routes are open",
			zap.String("component", "auth"),
		)
	}

	wsHandler := ws.NewHandler(a.bus, srvCfg.AllowedOrigins, logger.Named("ws"))
	defer wsHandler.Close()

	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return a.db.DB().PingContext(ctx)
	})
	srv := server.New(srvCfg, a.reg, logger, readyCheck, guard, wsHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("FarmTech server ready", zap.String("addr", srvCfg.Addr()))
	fmt.Fprintf(os.Stderr, "\n  FarmTech %s is ready!\n  API: http://localhost:%d/api/v1\n\n", version.Short(), srvCfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			code = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	a.close(shutdownCtx)

	logger.Info("FarmTech server stopped")
	return code
}
