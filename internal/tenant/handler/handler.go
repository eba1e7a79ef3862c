package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// Service defines the interface for tenant operations.
type Service interface {
	Register(ctx context.Context, taxID domain.TaxID, name string) (*models.Tenant, error)
	Get(ctx context.Context, id domain.TenantID) (*models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
	Deactivate(ctx context.Context, id domain.TenantID) (*models.Tenant, error)
	Reactivate(ctx context.Context, id domain.TenantID) (*models.Tenant, error)
}

// Handler wires admin tenant endpoints to the tenant service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tenant handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant admin endpoints on the router. Callers are expected
// to have wrapped the router in admin auth middleware already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/tenants", h.handleRegister)
	r.Get("/admin/tenants", h.handleList)
	r.Get("/admin/tenants/{id}", h.handleGet)
	r.Post("/admin/tenants/{id}/deactivate", h.handleDeactivate)
	r.Post("/admin/tenants/{id}/reactivate", h.handleReactivate)
}

type registerRequest struct {
	TaxID string `json:"tax_id"`
	Name  string `json:"name"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[registerRequest](w, r)
	if !ok {
		return
	}
	taxID, err := domain.ParseTaxID(req.TaxID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.Register(ctx, taxID, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "tenant registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"tax_id", req.TaxID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant registered",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenant.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tenant, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Deactivate)
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reactivate)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, domain.TenantID) (*models.Tenant, error)) {
	ctx := r.Context()
	id, err := domain.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tenant, err := apply(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "tenant status changed",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenant.ID,
		"status", tenant.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, tenant)
}
