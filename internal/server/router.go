package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medika-labs/medquery/internal/api"
	"github.com/medika-labs/medquery/internal/api/handlers"
	"github.com/medika-labs/medquery/internal/api/middleware"
)

type RouterConfig struct {
	// APIToken enables bearer authentication on query routes when set.
	APIToken        string
	QueryHandler    *handlers.QueryHandler
	DatabaseHandler *handlers.DatabaseHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.APIToken != "" {
			r.Use(middleware.TokenAuth(cfg.APIToken))
		}

		r.Post("/query/run", cfg.QueryHandler.Run)
		r.Get("/databases", cfg.DatabaseHandler.List)
	})

	return r
}
