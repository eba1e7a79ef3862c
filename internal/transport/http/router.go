// Package httptransport assembles the service's HTTP surface. It owns no
// business logic: each module contributes its own handler and this package
// decides which routes sit behind admin auth.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veridoc/internal/platform/middleware"
	"veridoc/pkg/platform/httputil"
)

// Registrar is anything that can mount routes on a chi router. All module
// handlers implement it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Logger *slog.Logger

	// AdminJWTKey signs the bearer tokens required on admin routes.
	AdminJWTKey string

	// Public surface.
	Routing Registrar
	Bank    Registrar

	// Admin surface (ledger forensics + tenant management).
	Ledger  Registrar
	Tenants Registrar

	// Checks run by /healthz; nil entries are skipped.
	HealthChecks map[string]HealthChecker
}

// NewRouter builds the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public pipeline endpoints: upload routing and statement tooling.
	r.Group(func(r chi.Router) {
		deps.Routing.Register(r)
		deps.Bank.Register(r)
	})

	// Admin endpoints: the audit trail and the tenant directory.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(deps.AdminJWTKey, deps.Logger))
		deps.Ledger.Register(r)
		deps.Tenants.Register(r)
	})

	return r
}

// handleHealth pings each registered dependency with a short deadline.
func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps.HealthChecks))
		for name, checker := range deps.HealthChecks {
			if checker == nil {
				continue
			}
			if err := checker.HealthCheck(ctx); err != nil {
				deps.Logger.WarnContext(ctx, "health check failed",
					"dependency", name,
					"error", err,
				)
				checks[name] = "unreachable"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": checks,
		})
	}
}
