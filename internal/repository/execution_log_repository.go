package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"script-migrator/internal/domain"
)

// ExecutionLogRepository はIdentityごとの実行ログ（{outputDir}/{identity}.log）に追記する。
type ExecutionLogRepository struct {
	dir string
}

// NewExecutionLogRepository は新しいExecutionLogRepositoryを生成する。
func NewExecutionLogRepository(outputDir string) *ExecutionLogRepository {
	return &ExecutionLogRepository{dir: outputDir}
}

// Path は指定されたIdentityの実行ログのパスを返す。
func (r *ExecutionLogRepository) Path(id domain.Identity) string {
	return filepath.Join(r.dir, id.LogFileName())
}

// Append は実行したスクリプトの記録を1行ずつ追記する。
func (r *ExecutionLogRepository) Append(ctx context.Context, id domain.Identity, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	path := r.Path(id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open execution log",
			"operation", "append_execution_log",
			"identity", id,
			"path", path,
			"error", err,
		)
		return fmt.Errorf("failed to open execution log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return fmt.Errorf("failed to write execution log: %w", err)
	}
	return nil
}
