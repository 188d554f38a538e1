// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"script-migrator/internal/domain"
)

// ScriptRepository はスクリプトディレクトリからスクリプトを探索する。
type ScriptRepository struct {
	dir string
}

// NewScriptRepository は新しいScriptRepositoryを生成する。
func NewScriptRepository(dir string) *ScriptRepository {
	return &ScriptRepository{dir: dir}
}

// Dir はスクリプトディレクトリのパスを返す。
func (r *ScriptRepository) Dir() string {
	return r.dir
}

// Locate は指定されたIdentityのフルスクリプトと差分スクリプトを探索する。
// ファイルの内容は読み込まない。
func (r *ScriptRepository) Locate(ctx context.Context, id domain.Identity) (*domain.ScriptCatalog, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read scripts directory",
			"operation", "locate",
			"identity", id,
			"dir", r.dir,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrDiscovery, err)
	}

	prefix := id.ScriptPrefix()
	fullName := id.FullScriptName()

	catalog := &domain.ScriptCatalog{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if name == fullName {
			catalog.Full = &domain.ScriptFile{
				Identity: id,
				Kind:     domain.ScriptKindFull,
				Name:     name,
				Path:     filepath.Join(r.dir, name),
			}
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, domain.ScriptSuffix) {
			continue
		}
		// 大文字小文字違いのフルスクリプトは差分として扱わない
		if strings.EqualFold(name, fullName) {
			continue
		}

		catalog.Partials = append(catalog.Partials, domain.ScriptFile{
			Identity: id,
			Kind:     domain.ScriptKindPartial,
			Name:     name,
			Path:     filepath.Join(r.dir, name),
		})
	}

	// ファイル名のバイト順でソート（ロケール非依存）
	sort.Slice(catalog.Partials, func(i, j int) bool {
		return catalog.Partials[i].Name < catalog.Partials[j].Name
	})

	return catalog, nil
}

// Read はスクリプトの内容を読み込む。
func (r *ScriptRepository) Read(ctx context.Context, script domain.ScriptFile) (string, error) {
	content, err := os.ReadFile(script.Path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read script file",
			"operation", "read",
			"identity", script.Identity,
			"script", script.Name,
			"error", err,
		)
		return "", fmt.Errorf("failed to read script %s: %w", script.Name, err)
	}
	return string(content), nil
}

// ListIdentities はディレクトリ内のフルスクリプトからIdentityを列挙する。
// 差分スクリプトのみのIdentityはファイル名から一意に判別できないため含まない。
func (r *ScriptRepository) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDiscovery, err)
	}

	var ids []domain.Identity
	suffix := "_" + domain.FullScriptSuffix
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		ids = append(ids, domain.Identity(strings.TrimSuffix(name, suffix)))
	}
	return ids, nil
}
