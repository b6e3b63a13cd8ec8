// Package di はアプリケーションの構成要素を生成するファクトリーを提供します。
package di

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"laser_backend/internal/platform/db"
	"laser_backend/internal/platform/redis"
	"laser_backend/internal/platform/snapshotbus"
)

// Config is the process configuration shared by the commands.
type Config struct {
	Port         string        `koanf:"port"`
	Profile      string        `koanf:"profile"`
	Channel      string        `koanf:"channel"`
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"jwt_ttl"`
	AllowOrigins []string      `koanf:"cors_origins"`
	DB           db.Config     `koanf:"db"`
	Redis        redis.Config  `koanf:"redis"`
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"PORT":             "port",
	"OUTPUT_PROFILE":   "profile",
	"SNAPSHOT_CHANNEL": "channel",
	"JWT_SECRET":       "jwt_secret",
	"JWT_TTL":          "jwt_ttl",
	"CORS_ORIGINS":     "cors_origins",
	"DB_DRIVER":        "db.driver",
	"DB_PATH":          "db.path",
	"DB_USER":          "db.user",
	"DB_PASSWORD":      "db.password",
	"DB_NAME":          "db.name",
	"DB_HOST":          "db.host",
	"DB_PORT":          "db.port",
	"DB_SSLMODE":       "db.sslmode",
	"RUN_MIGRATIONS":   "db.migrate",
	"REDIS_HOST":       "redis.host",
	"REDIS_PORT":       "redis.port",
	"REDIS_PASSWORD":   "redis.password",
	"REDIS_DB":         "redis.db",
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"profile":   "profile",
	"channel":   "channel",
	"db-driver": "db.driver",
	"db-path":   "db.path",
}

// LoadConfig builds the configuration from, in increasing priority:
// defaults, the YAML file at path (optional), environment variables and
// explicitly set flags (optional).
//
// 環境変数:
//   - PORT: 待ち受けポート（デフォルト 8080）
//   - OUTPUT_PROFILE: 起動時に有効化するプロファイル
//   - SNAPSHOT_CHANNEL: スナップショットを配信するRedisチャンネル
//   - JWT_SECRET, JWT_TTL: トークン署名鍵と有効期間（例: 30m）
//   - CORS_ORIGINS: カンマ区切りの許可オリジン
//   - DB_*, RUN_MIGRATIONS, REDIS_*: 接続先
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"port":    "8080",
		"profile": "default",
		"channel": snapshotbus.DefaultChannel,
		"jwt_ttl": "12h",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 空の環境変数は未設定として扱う
	if err := k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		key, ok := envKeys[name]
		if !ok || value == "" {
			return "", nil
		}
		if key == "cors_origins" {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("jwt_ttl must be positive, got %s", cfg.TokenTTL)
	}
	cfg.AllowOrigins = splitList(strings.Join(cfg.AllowOrigins, ","))
	cfg.DB.ApplyDefaults()
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
