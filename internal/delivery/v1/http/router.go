package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const readinessTimeout = 2 * time.Second

// Checker проверяет доступность внешней зависимости.
type Checker interface {
	Ping(ctx context.Context) error
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует служебные эндпоинты. В checks передаются зависимости, без которых сервис не готов.
func (r *Router) Init(checks map[string]Checker) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()

		status := make(map[string]string, len(checks))
		ready := true
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				r.logger.Warnf("Readiness check %s failed: %v", name, err)
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}

		if !ready {
			writeJSON(w, http.StatusServiceUnavailable, &Response{Success: false, Message: "Service Unavailable", Data: status})
			return
		}

		WriteSuccess(w, http.StatusOK, status)
	})
}
