package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"script-migrator/internal/domain"
	"script-migrator/pkg/sqlbatch"
)

var tracer = otel.Tracer("script-migrator/internal/usecase")

// ScriptRepository はスクリプトの探索と読み込みのインターフェース。
type ScriptRepository interface {
	Locate(ctx context.Context, id domain.Identity) (*domain.ScriptCatalog, error)
	Read(ctx context.Context, script domain.ScriptFile) (string, error)
}

// BatchExecutor は1バッチ分のSQLを実行するインターフェース。
type BatchExecutor interface {
	Exec(ctx context.Context, sql string) error
}

// MigrationService はIdentityごとのスクリプト適用のビジネスロジックを提供する。
type MigrationService struct {
	scripts ScriptRepository
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(scripts ScriptRepository) *MigrationService {
	return &MigrationService{scripts: scripts}
}

// Plan はトラッキング状態とスクリプトディレクトリから未実行のスクリプトを算出する。
// entryは変更しない。
func (s *MigrationService) Plan(ctx context.Context, id domain.Identity, entry *domain.TrackingEntry) (*domain.Plan, error) {
	catalog, err := s.scripts.Locate(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{Identity: id}

	// フルスクリプトは既存の差分スクリプトをすべて含むスナップショットとみなす
	if !entry.FullRun && catalog.Full != nil {
		plan.Full = catalog.Full
		plan.Snapshot = catalog.Partials
		return plan, nil
	}

	for _, p := range catalog.Partials {
		if entry.HasScript(p.Name) {
			continue
		}
		plan.Partials = append(plan.Partials, p)
	}
	return plan, nil
}

// Apply は未実行のスクリプトを実行し、entryを更新する。
// 実行したスクリプトごとに実行ログの行を返す。
// バッチが失敗した時点で中断し、それまでに実行したスクリプトの記録は残す。
func (s *MigrationService) Apply(ctx context.Context, id domain.Identity, entry *domain.TrackingEntry, exec BatchExecutor) ([]string, error) {
	plan, err := s.Plan(ctx, id, entry)
	if err != nil {
		return nil, err
	}

	var executed []string

	if plan.Full != nil {
		if err := s.runScript(ctx, *plan.Full, exec); err != nil {
			return executed, err
		}
		entry.MarkFullRun()
		for _, p := range plan.Snapshot {
			entry.MarkScript(p.Name)
		}
		executed = append(executed, fmt.Sprintf("Ran full script %s", plan.Full.Name))

		slog.InfoContext(ctx, "full script applied",
			"operation", "apply",
			"identity", id,
			"script", plan.Full.Name,
			"snapshot_scripts", len(plan.Snapshot),
		)
	}

	for _, p := range plan.Partials {
		if err := s.runScript(ctx, p, exec); err != nil {
			return executed, err
		}
		entry.MarkScript(p.Name)
		executed = append(executed, fmt.Sprintf("Ran script %s", p.Name))

		slog.InfoContext(ctx, "script applied",
			"operation", "apply",
			"identity", id,
			"script", p.Name,
		)
	}

	return executed, nil
}

// runScript はスクリプトを読み込み、バッチを文書順に実行する。
func (s *MigrationService) runScript(ctx context.Context, script domain.ScriptFile, exec BatchExecutor) error {
	ctx, span := tracer.Start(ctx, "script "+script.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("migration.identity", script.Identity.String()),
		attribute.String("migration.script", script.Name),
		attribute.String("migration.kind", string(script.Kind)),
	)

	text, err := s.scripts.Read(ctx, script)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return &domain.ExecutionError{Identity: script.Identity, Script: script.Name, Err: err}
	}

	n := 0
	for batch := range sqlbatch.Batches(text) {
		n++
		if err := exec.Exec(ctx, batch); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "failed to execute batch",
				"operation", "run_script",
				"identity", script.Identity,
				"script", script.Name,
				"batch", n,
				"error", err,
			)
			if errors.Is(err, domain.ErrConnection) {
				return err
			}
			return &domain.ExecutionError{Identity: script.Identity, Script: script.Name, Batch: n, Err: err}
		}
	}
	span.SetAttributes(attribute.Int("migration.batches", n))
	return nil
}
