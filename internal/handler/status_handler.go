// Package handler はHTTPハンドラを提供する。
package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"script-migrator/internal/domain"
	"script-migrator/internal/middleware"
	"script-migrator/pkg/httputil"
)

var identityRegex = regexp.MustCompile(`^[A-Za-z0-9_.,$#@-]+$`)

// StatusService は適用状況の参照のインターフェース。
type StatusService interface {
	ListStatuses(ctx context.Context) ([]*domain.TargetStatus, error)
	GetStatus(ctx context.Context, id domain.Identity) (*domain.TargetStatus, error)
}

// StatusHandler は適用状況を返すHTTPハンドラ。
type StatusHandler struct {
	service StatusService
}

// NewStatusHandler は新しいStatusHandlerを生成する。
func NewStatusHandler(service StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// TargetResponse はIdentityごとの状況のレスポンス形式。
type TargetResponse struct {
	Identity string   `json:"identity"`
	FullRun  bool     `json:"fullRun"`
	Scripts  []string `json:"scripts"`
	Pending  *Pending `json:"pending,omitempty"`
}

// Pending は次回実行時の計画のレスポンス形式。
type Pending struct {
	Full     string   `json:"full,omitempty"`
	Scripts  []string `json:"scripts"`
	Snapshot []string `json:"snapshot"`
}

// TargetListResponse は一覧のレスポンス形式。
type TargetListResponse struct {
	Targets []TargetResponse `json:"targets"`
}

func scriptNames(files []domain.ScriptFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

func toResponse(status *domain.TargetStatus, withPlan bool) TargetResponse {
	resp := TargetResponse{
		Identity: status.Identity.String(),
		FullRun:  status.FullRun,
		Scripts:  status.Scripts,
	}
	if withPlan && status.Plan != nil {
		resp.Pending = &Pending{
			Scripts:  scriptNames(status.Plan.Partials),
			Snapshot: scriptNames(status.Plan.Snapshot),
		}
		if status.Plan.Full != nil {
			resp.Pending.Full = status.Plan.Full.Name
		}
	}
	return resp
}

// ListTargets は全Identityの適用状況を返す。
func (h *StatusHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.ListStatuses(r.Context())
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "LIST_TARGETS", "", 0, "FAILED")
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := TargetListResponse{Targets: make([]TargetResponse, len(statuses))}
	for i, s := range statuses {
		resp.Targets[i] = toResponse(s, false)
	}
	middleware.WriteAuditLog(r.Context(), "LIST_TARGETS", "", len(statuses), "SUCCESS")
	httputil.JSON(w, http.StatusOK, resp)
}

// GetTarget は指定されたIdentityの適用状況と未実行のスクリプトを返す。
func (h *StatusHandler) GetTarget(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if !identityRegex.MatchString(identity) {
		httputil.Error(w, http.StatusBadRequest, "INVALID_IDENTITY", "invalid identity format")
		return
	}

	status, err := h.service.GetStatus(r.Context(), domain.Identity(identity))
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_TARGET", identity, 0, "FAILED")
		if errors.Is(err, domain.ErrIdentityNotFound) {
			httputil.Error(w, http.StatusNotFound, "IDENTITY_NOT_FOUND", "identity not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_TARGET", identity, len(status.Scripts), "SUCCESS")
	httputil.JSON(w, http.StatusOK, toResponse(status, true))
}

// Health はヘルスチェック用のハンドラ。
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
