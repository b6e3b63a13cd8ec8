package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"laser_backend/internal/app/di"
	"laser_backend/internal/app/router"
	"laser_backend/internal/platform/db"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	cfg, err := di.LoadConfig(os.Getenv("LASER_CONFIG"), nil)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg di.Config) error {
	// db
	gdb, err := db.OpenDB(cfg.DB, di.Models()...)
	if err != nil {
		return err
	}

	// Redis（任意）
	rdb := di.NewRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	settings, err := di.NewSettingsUsecase(ctx, gdb, rdb, cfg)
	if err != nil {
		return err
	}

	// JWT_SECRETチェック
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. Login and all mutating routes will fail.")
	}

	// ルータ生成
	r := router.NewRouter(router.Options{
		JWTSecret:    cfg.JWTSecret,
		AllowOrigins: cfg.AllowOrigins,
		Checks:       di.ReadyChecks(gdb, rdb),
	}, di.NewAuthHandler(gdb, cfg), di.NewSettingsHandler(settings))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// シグナル受信時に SSE のストリームも終了させる
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr, "profile", cfg.Profile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
