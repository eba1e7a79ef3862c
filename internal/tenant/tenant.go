package tenant

import (
	"log/slog"

	"veridoc/internal/tenant/handler"
	"veridoc/internal/tenant/metrics"
	"veridoc/internal/tenant/service"
)

// Service exposes tenant registration and lifecycle orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the tenant service.
type Handler = handler.Handler

// NewService constructs the tenant service with required dependencies.
func NewService(store service.TenantStore, recorder service.Recorder, logger *slog.Logger, m *metrics.Metrics, opts ...service.Option) *Service {
	return service.New(store, recorder, logger, m, opts...)
}

// WithTransactor makes tenant mutations and their ledger events commit in one
// transaction.
var WithTransactor = service.WithTransactor

// NewHandler constructs an HTTP handler for admin-facing tenant routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
