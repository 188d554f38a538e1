package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"script-migrator/config"
	"script-migrator/internal/middleware"
)

// NewRouter はルーターを生成する。
func NewRouter(h *StatusHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)

	// ルート定義
	r.Get("/healthz", Health)
	r.Route("/v1/targets", func(r chi.Router) {
		r.Get("/", h.ListTargets)
		r.Get("/{identity}", h.GetTarget)
	})

	if cfg.OtelEnabled {
		return otelhttp.NewHandler(r, "script-migrator")
	}
	return r
}
