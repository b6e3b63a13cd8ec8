package di

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "laser_backend/internal/feature/auth/adapters"
	authhandler "laser_backend/internal/feature/auth/transport/handler"
	authusecase "laser_backend/internal/feature/auth/usecase"
	settingsadapters "laser_backend/internal/feature/outputsettings/adapters"
	settingshandler "laser_backend/internal/feature/outputsettings/transport/handler"
	"laser_backend/internal/feature/outputsettings/usecase"
	"laser_backend/internal/platform/cache"
	"laser_backend/internal/platform/http/handler"
	jwtmw "laser_backend/internal/platform/jwt"
	"laser_backend/internal/platform/redis"
	"laser_backend/internal/platform/snapshotbus"
)

// Models returns every GORM model owned by the server.
func Models() []any {
	return append(settingsadapters.Models(), &authadapters.OperatorModel{})
}

// NewRedis connects to Redis when it is configured.
// If Redis is unavailable it returns nil and snapshots are only served over HTTP.
func NewRedis(ctx context.Context, cfg redis.Config) *goredis.Client {
	if !cfg.Enabled() {
		slog.Info("REDIS_HOST not set, snapshot publishing to Redis disabled")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rdb, err := redis.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Warn("Redis unavailable, running without snapshot publishing", "error", err)
		return nil
	}
	return rdb
}

// NewSnapshotPublisher returns the publisher feeding the output engine.
// A nil client yields a publisher that drops every snapshot.
func NewSnapshotPublisher(rdb *goredis.Client, channel string) usecase.SnapshotPublisher {
	return snapshotbus.NewRedisPublisher(rdb, channel)
}

// NewSettingsUsecase wires the output settings feature and loads cfg.Profile.
func NewSettingsUsecase(ctx context.Context, gdb *gorm.DB, rdb *goredis.Client, cfg Config) (*usecase.SettingsUsecase, error) {
	// 履歴はRedisがあればキャッシュする（nilなら素通し）
	repo := cache.NewCachingHistory(rdb, 0, settingsadapters.NewProfileRepository(gdb), "")
	uc := usecase.NewSettingsUsecase(repo, repo, NewSnapshotPublisher(rdb, cfg.Channel), snapshotbus.NewBroadcaster(), cfg.Profile)
	if _, err := uc.Open(ctx); err != nil {
		return nil, err
	}
	return uc, nil
}

// NewSettingsHandler wraps uc for HTTP.
func NewSettingsHandler(uc *usecase.SettingsUsecase) *settingshandler.SettingsHandler {
	return settingshandler.NewSettingsHandler(uc)
}

// NewAuthHandler wires operator authentication.
func NewAuthHandler(gdb *gorm.DB, cfg Config) *authhandler.AuthHandler {
	operators := authadapters.NewOperatorRepository(gdb)
	tokens := jwtmw.NewGenerator(cfg.JWTSecret, cfg.TokenTTL)
	return authhandler.NewAuthHandler(authusecase.NewAuthUsecase(operators, tokens))
}

// ReadyChecks returns the dependency checks served on /readyz.
func ReadyChecks(gdb *gorm.DB, rdb *goredis.Client) map[string]handler.Check {
	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
