package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"script-migrator/internal/domain"
	"script-migrator/internal/middleware"
)

// TrackingRepository はトラッキングファイルの読み書きのインターフェース。
type TrackingRepository interface {
	Load(ctx context.Context) domain.TrackingStore
	Save(ctx context.Context, store domain.TrackingStore) error
}

// ExecutionLogRepository は実行ログの追記のインターフェース。
type ExecutionLogRepository interface {
	Append(ctx context.Context, id domain.Identity, lines []string) error
}

// Connection は開いたデータベース接続。
type Connection interface {
	BatchExecutor
	Close() error
}

// SQLBackend は対象データベースへの接続を開くインターフェース。
type SQLBackend interface {
	Open(ctx context.Context, target domain.Target) (Connection, error)
}

// RunService は複数の接続先へのマイグレーション実行を統括する。
type RunService struct {
	migration *MigrationService
	tracking  TrackingRepository
	logs      ExecutionLogRepository
	backend   SQLBackend
}

// NewRunService は新しいRunServiceを生成する。
func NewRunService(migration *MigrationService, tracking TrackingRepository, logs ExecutionLogRepository, backend SQLBackend) *RunService {
	return &RunService{
		migration: migration,
		tracking:  tracking,
		logs:      logs,
		backend:   backend,
	}
}

// Run は接続先を1つずつ順番に処理する。
// あるIdentityの失敗は他のIdentityの処理を止めない。スクリプトディレクトリを
// 読み込めない場合のみ全体を中断する。トラッキングファイルはIdentityごとに保存する。
func (s *RunService) Run(ctx context.Context, targets []domain.Target) (*domain.RunReport, error) {
	report := &domain.RunReport{RunID: uuid.New().String()}
	logger := slog.With("run_id", report.RunID)

	store := s.tracking.Load(ctx)

	var errs []error
	for _, target := range targets {
		result, err := s.runTarget(ctx, logger, store, target)
		report.Results = append(report.Results, result)

		if saveErr := s.tracking.Save(ctx, store); saveErr != nil {
			// 以降の結果を永続化できないため中断する
			return report, errors.Join(append(errs, err, fmt.Errorf("failed to save tracking file: %w", saveErr))...)
		}

		if err == nil {
			continue
		}
		errs = append(errs, err)
		if errors.Is(err, domain.ErrDiscovery) {
			logger.ErrorContext(ctx, "aborting run",
				"operation", "run",
				"identity", result.Identity,
				"error", err,
			)
			return report, errors.Join(errs...)
		}
	}

	return report, errors.Join(errs...)
}

// runTarget は1つの接続先にスクリプトを適用する。
func (s *RunService) runTarget(ctx context.Context, logger *slog.Logger, store domain.TrackingStore, target domain.Target) (domain.RunResult, error) {
	id := target.Identity()
	result := domain.RunResult{Identity: id}

	ctx, span := tracer.Start(ctx, "apply "+id.String())
	defer span.End()
	span.SetAttributes(
		attribute.String("migration.identity", id.String()),
		attribute.String("db.system", string(target.Driver)),
	)

	entry := store.GetOrCreate(id)
	conn := newLazyConnection(s.backend, target)
	defer func() {
		if err := conn.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close connection",
				"identity", id,
				"error", err,
			)
		}
	}()

	executed, err := s.migration.Apply(ctx, id, entry, conn)
	result.Executed = executed

	// 失敗した場合も、実行済みのスクリプトはログに残す
	if logErr := s.logs.Append(ctx, id, executed); logErr != nil {
		err = errors.Join(err, logErr)
	}

	if err != nil {
		result.Outcome = domain.RunOutcomeFailed
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "migration failed",
			"operation", "run_target",
			"identity", id,
			"executed", len(executed),
			"error", err,
		)
		middleware.WriteAuditLog(ctx, "APPLY", id.String(), len(executed), "FAILED")
		return result, err
	}

	if len(executed) == 0 {
		result.Outcome = domain.RunOutcomeUpToDate
	} else {
		result.Outcome = domain.RunOutcomeApplied
	}
	logger.InfoContext(ctx, "migration completed",
		"operation", "run_target",
		"identity", id,
		"outcome", result.Outcome,
		"executed", len(executed),
	)
	middleware.WriteAuditLog(ctx, "APPLY", id.String(), len(executed), "SUCCESS")
	return result, nil
}

// lazyConnection は最初のバッチ実行時に接続を開く。
// 未実行のスクリプトがないIdentityではデータベースに接続しない。
type lazyConnection struct {
	backend SQLBackend
	target  domain.Target
	conn    Connection
}

func newLazyConnection(backend SQLBackend, target domain.Target) *lazyConnection {
	return &lazyConnection{backend: backend, target: target}
}

// Exec はバッチを実行する。接続に失敗した場合はErrConnectionを返す。
func (c *lazyConnection) Exec(ctx context.Context, sql string) error {
	if c.conn == nil {
		conn, err := c.backend.Open(ctx, c.target)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrConnection, c.target.Identity(), err)
		}
		c.conn = conn
	}
	return c.conn.Exec(ctx, sql)
}

// Close は接続を開いていれば閉じる。
func (c *lazyConnection) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
