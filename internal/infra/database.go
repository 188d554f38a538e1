// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"script-migrator/config"
	"script-migrator/internal/domain"
	"script-migrator/internal/usecase"
)

// dialector はドライバに応じたgormのダイアレクタを返す。
func dialector(target domain.Target) (gorm.Dialector, error) {
	switch target.Driver {
	case domain.DriverSQLServer:
		return sqlserver.Open(target.DSN), nil
	case domain.DriverPostgres:
		// 複数ステートメントを含むバッチはシンプルプロトコルでのみ実行できる
		return postgres.New(postgres.Config{DSN: target.DSN, PreferSimpleProtocol: true}), nil
	case domain.DriverMySQL:
		return mysql.Open(target.DSN), nil
	case domain.DriverSQLite:
		return sqlite.Open(target.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %q", target.Driver)
	}
}

// NewDB はgormによるデータベース接続を初期化する。
func NewDB(target domain.Target, cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(target)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.OtelEnabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("installing tracing plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 接続プール設定（セッション単位の設定をバッチ間で引き継ぐため既定は1接続）
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	return db, nil
}

// GormBackend はgormを使ったSQLバックエンド。
type GormBackend struct {
	cfg *config.Config
}

// NewGormBackend は新しいGormBackendを生成する。
func NewGormBackend(cfg *config.Config) *GormBackend {
	return &GormBackend{cfg: cfg}
}

// Open は対象データベースに接続し、疎通を確認する。
func (b *GormBackend) Open(ctx context.Context, target domain.Target) (usecase.Connection, error) {
	db, err := NewDB(target, b.cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	slog.DebugContext(ctx, "connected to database",
		"identity", target.Identity(),
		"driver", target.Driver,
	)
	return &GormConnection{db: db}, nil
}

// GormConnection は1つの対象データベースへの接続。
type GormConnection struct {
	db *gorm.DB
}

// NewGormConnection は既存の*gorm.DBから接続を生成する。
func NewGormConnection(db *gorm.DB) *GormConnection {
	return &GormConnection{db: db}
}

// Exec はバッチをそのまま実行する。トランザクションは使わない。
func (c *GormConnection) Exec(ctx context.Context, sql string) error {
	return c.db.WithContext(ctx).Exec(sql).Error
}

// Close は接続を閉じる。
func (c *GormConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
