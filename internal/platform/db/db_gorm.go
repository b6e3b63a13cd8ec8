// Package db はGORMによるデータベース接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	// DriverSQLite は単体リグ向けのデフォルトドライバーです。
	DriverSQLite = "sqlite"
	// DriverPostgres は複数リグで共有する場合のドライバーです。
	DriverPostgres = "postgres"

	defaultSQLitePath = "laser.db"
	applicationName   = "laser_backend"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config holds the database connection settings.
type Config struct {
	Driver   string `koanf:"driver"`
	Path     string `koanf:"path"` // sqlite only
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	SSLMode  string `koanf:"sslmode"`
	Migrate  bool   `koanf:"migrate"`
}

// ApplyDefaults fills unset fields. SQLite databases are always migrated;
// postgres only when Migrate is set explicitly.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Path == "" {
		c.Path = defaultSQLitePath
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.Driver == DriverSQLite {
		c.Migrate = true
	}
}

// BuildDSN returns the data source name for cfg.Driver.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
	}
	// 書き込み競合時に即エラーにならないよう busy_timeout を設定
	return cfg.Path + "?_busy_timeout=5000&_foreign_keys=on"
}

// Dialector returns the gorm dialector for cfg. Postgres connections are
// opened through pgx so that a malformed DSN fails before any dial.
func Dialector(cfg Config) (gorm.Dialector, error) {
	dsn := BuildDSN(cfg)
	switch cfg.Driver {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		pcfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid postgres settings: %w", err)
		}
		// pg_stat_activity で接続元を識別できるようにする
		pcfg.RuntimeParams["application_name"] = applicationName
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*pcfg)}), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(dsn string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB connects to the configured database and migrates models when
// cfg.Migrate is set. Duplicate key errors are translated to gorm.ErrDuplicatedKey.
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gcfg := &gorm.Config{TranslateError: true}
	db, err := ConnectWithRetry(BuildDSN(cfg), 60*time.Second, func(string) (*gorm.DB, error) {
		return gorm.Open(dialector, gcfg)
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite {
		// SQLite は単一ライターのため接続を1本に制限する
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.Migrate && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("database connected", "driver", cfg.Driver, "migrated", cfg.Migrate)
	return db, nil
}
