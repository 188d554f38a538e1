package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"script-migrator/internal/domain"
)

const (
	// TrackingFileName はスクリプトディレクトリ内のトラッキングファイル名。
	TrackingFileName = "tracking.json"

	gitignoreFileName = ".gitignore"
)

// TrackingRepository はトラッキングファイルの読み書きを行う。
type TrackingRepository struct {
	path string
}

// NewTrackingRepository はスクリプトディレクトリのトラッキングファイルを扱うリポジトリを生成する。
func NewTrackingRepository(scriptsDir string) *TrackingRepository {
	return &TrackingRepository{path: filepath.Join(scriptsDir, TrackingFileName)}
}

// Path はトラッキングファイルのパスを返す。
func (r *TrackingRepository) Path() string {
	return r.path
}

// Load はトラッキングファイルを読み込む。
// ファイルが存在しない、または解析できない場合は空のストアを返し、エラーにはしない。
// 破損時は適用済みスクリプトが再実行され得るため警告ログを出力する。
func (r *TrackingRepository) Load(ctx context.Context) domain.TrackingStore {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "tracking file is unreadable, starting with an empty store",
				"operation", "load_tracking",
				"path", r.path,
				"error", fmt.Errorf("%w: %v", domain.ErrTrackingCorrupt, err),
			)
		}
		return domain.NewTrackingStore()
	}

	store := domain.NewTrackingStore()
	if err := json.Unmarshal(data, &store); err != nil {
		slog.WarnContext(ctx, "tracking file is corrupt, already applied scripts may run again",
			"operation", "load_tracking",
			"path", r.path,
			"error", fmt.Errorf("%w: %v", domain.ErrTrackingCorrupt, err),
		)
		return domain.NewTrackingStore()
	}
	if store == nil {
		// "null" の場合
		return domain.NewTrackingStore()
	}
	return store
}

// Save はストア全体を書き込む。一時ファイルに書き込んでからリネームするため、
// 書き込み途中でクラッシュしても壊れたファイルは残らない。
func (r *TrackingRepository) Save(ctx context.Context, store domain.TrackingStore) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracking store: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(r.path, data); err != nil {
		slog.ErrorContext(ctx, "failed to save tracking file",
			"operation", "save_tracking",
			"path", r.path,
			"error", err,
		)
		return err
	}
	return nil
}

// EnsureExists はトラッキングファイルが存在しない場合に空のストアを書き込む。
func (r *TrackingRepository) EnsureExists(ctx context.Context) error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat tracking file: %w", err)
	}
	return r.Save(ctx, domain.NewTrackingStore())
}

// EnsureIgnored はスクリプトディレクトリの.gitignoreにトラッキングファイルを登録する。
func (r *TrackingRepository) EnsureIgnored(ctx context.Context) error {
	path := filepath.Join(filepath.Dir(r.path), gitignoreFileName)

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return os.WriteFile(path, []byte(TrackingFileName+"\n"), 0644)
	case err != nil:
		return fmt.Errorf("failed to open %s: %w", gitignoreFileName, err)
	}

	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == TrackingFileName {
			found = true
			break
		}
	}
	scanErr := scanner.Err()
	f.Close()
	if scanErr != nil {
		return fmt.Errorf("failed to read %s: %w", gitignoreFileName, scanErr)
	}
	if found {
		return nil
	}

	af, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", gitignoreFileName, err)
	}
	defer af.Close()

	if _, err := af.WriteString("\n" + TrackingFileName + "\n"); err != nil {
		return fmt.Errorf("failed to update %s: %w", gitignoreFileName, err)
	}
	slog.DebugContext(ctx, "registered tracking file in .gitignore", "path", path)
	return nil
}

// writeFileAtomic は同じディレクトリの一時ファイルに書き込んでからリネームする。
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tracking-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		// エラー時は一時ファイルを削除
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename to final: %w", err)
	}
	return nil
}
