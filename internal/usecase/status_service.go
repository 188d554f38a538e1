package usecase

import (
	"context"
	"fmt"
	"sort"

	"script-migrator/internal/domain"
)

// IdentityLister はスクリプトディレクトリからIdentityを列挙するインターフェース。
type IdentityLister interface {
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
}

// TrackingLoader はトラッキングファイルを読み込むインターフェース。
type TrackingLoader interface {
	Load(ctx context.Context) domain.TrackingStore
}

// StatusService は適用状況の参照を提供する。SQLは実行しない。
type StatusService struct {
	migration  *MigrationService
	tracking   TrackingLoader
	identities IdentityLister
}

// NewStatusService は新しいStatusServiceを生成する。
func NewStatusService(migration *MigrationService, tracking TrackingLoader, identities IdentityLister) *StatusService {
	return &StatusService{
		migration:  migration,
		tracking:   tracking,
		identities: identities,
	}
}

// ListStatuses はトラッキング済みとスクリプトディレクトリ上のIdentityの状況を返す。
func (s *StatusService) ListStatuses(ctx context.Context) ([]*domain.TargetStatus, error) {
	store := s.tracking.Load(ctx)

	seen := make(map[domain.Identity]bool)
	for _, id := range store.Identities() {
		seen[id] = true
	}
	fromDir, err := s.identities.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range fromDir {
		seen[id] = true
	}

	ids := make([]domain.Identity, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	statuses := make([]*domain.TargetStatus, 0, len(ids))
	for _, id := range ids {
		status, err := s.describe(ctx, store, id)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// GetStatus は指定されたIdentityの状況を返す。
// トラッキングにもスクリプトディレクトリにも存在しない場合はErrIdentityNotFoundを返す。
func (s *StatusService) GetStatus(ctx context.Context, id domain.Identity) (*domain.TargetStatus, error) {
	store := s.tracking.Load(ctx)
	status, err := s.describe(ctx, store, id)
	if err != nil {
		return nil, err
	}

	_, tracked := store[id]
	if !tracked && status.Plan.Empty() && len(status.Plan.Snapshot) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
	}
	return status, nil
}

// PlanTargets は接続先ごとの次回実行計画を返す。
func (s *StatusService) PlanTargets(ctx context.Context, targets []domain.Target) ([]*domain.TargetStatus, error) {
	store := s.tracking.Load(ctx)

	statuses := make([]*domain.TargetStatus, 0, len(targets))
	for _, target := range targets {
		status, err := s.describe(ctx, store, target.Identity())
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *StatusService) describe(ctx context.Context, store domain.TrackingStore, id domain.Identity) (*domain.TargetStatus, error) {
	// ストアを変更しないよう、未登録の場合は空のエントリで計画する
	entry, ok := store[id]
	if !ok || entry == nil {
		entry = &domain.TrackingEntry{}
	}

	plan, err := s.migration.Plan(ctx, id, entry)
	if err != nil {
		return nil, err
	}
	return &domain.TargetStatus{
		Identity: id,
		FullRun:  entry.FullRun,
		Scripts:  entry.Scripts.Names(),
		Plan:     plan,
	}, nil
}
