package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"script-migrator/config"
	"script-migrator/internal/domain"
)

// mockStatusService はテスト用のモックサービス。
type mockStatusService struct {
	listResult []*domain.TargetStatus
	listErr    error
	getResult  *domain.TargetStatus
	getErr     error
	gotID      domain.Identity
}

func (m *mockStatusService) ListStatuses(ctx context.Context) ([]*domain.TargetStatus, error) {
	return m.listResult, m.listErr
}

func (m *mockStatusService) GetStatus(ctx context.Context, id domain.Identity) (*domain.TargetStatus, error) {
	m.gotID = id
	return m.getResult, m.getErr
}

func newTestRouter(svc StatusService) http.Handler {
	return NewRouter(NewStatusHandler(svc), &config.Config{})
}

func TestStatusHandler_ListTargets(t *testing.T) {
	svc := &mockStatusService{listResult: []*domain.TargetStatus{
		{Identity: "a_one", FullRun: true, Scripts: []string{"a_one_001_script.sql"}, Plan: &domain.Plan{}},
		{Identity: "b_two", Scripts: []string{}, Plan: &domain.Plan{}},
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/targets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d", rec.Code)
	}

	var resp TargetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Targets) != 2 {
		t.Fatalf("want 2 targets, got %d", len(resp.Targets))
	}
	if resp.Targets[0].Identity != "a_one" || !resp.Targets[0].FullRun {
		t.Errorf("unexpected target: %+v", resp.Targets[0])
	}
	if resp.Targets[0].Pending != nil {
		t.Error("list response must not include pending plan")
	}
}

func TestStatusHandler_ListTargets_Error(t *testing.T) {
	router := newTestRouter(&mockStatusService{listErr: domain.ErrDiscovery})

	req := httptest.NewRequest(http.MethodGet, "/v1/targets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want status 500, got %d", rec.Code)
	}
}

func TestStatusHandler_GetTarget(t *testing.T) {
	svc := &mockStatusService{getResult: &domain.TargetStatus{
		Identity: "a_one",
		Scripts:  []string{},
		Plan: &domain.Plan{
			Full:     &domain.ScriptFile{Name: "a_one_full_database_script.sql"},
			Snapshot: []domain.ScriptFile{{Name: "a_one_001_script.sql"}},
		},
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/targets/a_one", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d", rec.Code)
	}
	if svc.gotID != "a_one" {
		t.Errorf("want identity a_one, got %s", svc.gotID)
	}

	var resp TargetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Pending == nil || resp.Pending.Full != "a_one_full_database_script.sql" {
		t.Fatalf("unexpected pending: %+v", resp.Pending)
	}
	if len(resp.Pending.Snapshot) != 1 || len(resp.Pending.Scripts) != 0 {
		t.Errorf("unexpected pending: %+v", resp.Pending)
	}
}

func TestStatusHandler_GetTarget_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", "/v1/targets/z_none", domain.ErrIdentityNotFound, http.StatusNotFound, "IDENTITY_NOT_FOUND"},
		{"internal", "/v1/targets/a_one", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"invalid identity", "/v1/targets/a%20one", nil, http.StatusBadRequest, "INVALID_IDENTITY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockStatusService{getErr: tt.err})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("want status %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["code"] != tt.wantCode {
				t.Errorf("want code %s, got %s", tt.wantCode, resp["code"])
			}
		})
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&mockStatusService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
}
