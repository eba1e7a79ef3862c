// Package handler exposes the audit ledger's read, verify, review, and
// forensic export endpoints. All routes are mounted behind admin auth.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/ledger"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/requestcontext"
)

// defaultExportLimit bounds a forensic export when the caller does not say.
const defaultExportLimit = 1000

// Handler wires ledger endpoints to the ledger.
type Handler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// New constructs a ledger handler with its dependencies.
func New(l *ledger.Ledger, logger *slog.Logger) *Handler {
	return &Handler{ledger: l, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger", h.HandleList)
	r.Get("/ledger/export", h.HandleExport)
	r.Get("/ledger/{id}", h.HandleGet)
	r.Get("/ledger/{id}/verify", h.HandleVerify)
	r.Post("/ledger/{id}/review", h.HandleReview)
}

// HandleList handles GET /ledger with optional tenant_id, attention_pending,
// and limit query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "ledger query failed", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// HandleGet handles GET /ledger/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	event, err := h.ledger.Find(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, translateLookup(err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

// HandleVerify handles GET /ledger/{id}/verify. A commitment mismatch is a
// 200 with intact=false: integrity violations are reported as data, the
// caller decides policy.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.ledger.Verify(ctx, id)
	if err != nil {
		httputil.WriteError(w, translateLookup(err))
		return
	}

	if !result.Intact {
		h.logger.ErrorContext(ctx, "ledger integrity violation",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", id,
			"stored_hash", result.StoredHash,
			"recomputed_hash", result.RecomputedHash,
		)
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// reviewRequest is the wire shape for marking an event reviewed.
type reviewRequest struct {
	// ReviewedBy overrides the authenticated actor, for reviews recorded on
	// someone's behalf.
	ReviewedBy string `json:"reviewed_by,omitempty"`
}

// HandleReview handles POST /ledger/{id}/review. The reviewer defaults to the
// authenticated actor.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req reviewRequest
	if r.ContentLength != 0 {
		var ok bool
		req, ok = httputil.DecodeJSON[reviewRequest](w, r)
		if !ok {
			return
		}
	}

	reviewer := req.ReviewedBy
	if reviewer == "" {
		reviewer = requestcontext.Actor(ctx)
	}

	if err := h.ledger.MarkReviewed(ctx, id, reviewer); err != nil {
		httputil.WriteError(w, translateLookup(err))
		return
	}

	h.logger.InfoContext(ctx, "ledger event reviewed",
		"request_id", requestcontext.RequestID(ctx),
		"event_id", id,
		"reviewed_by", reviewer,
	)

	w.WriteHeader(http.StatusNoContent)
}

// ExportRow pairs one ledger event with its verification result.
type ExportRow struct {
	Event        ledger.Event        `json:"event"`
	Verification ledger.VerifyResult `json:"verification"`
}

// ExportResponse is the forensic export envelope.
type ExportResponse struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Total       int         `json:"total"`
	Violations  int         `json:"violations"`
	Rows        []ExportRow `json:"rows"`
}

// HandleExport handles GET /ledger/export: every selected row is paired with
// its recomputed commitment so the export is self-auditing.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if filter.Limit == 0 {
		filter.Limit = defaultExportLimit
	}

	events, err := h.ledger.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "ledger query failed", err))
		return
	}

	resp := ExportResponse{
		GeneratedAt: time.Now().UTC(),
		Total:       len(events),
		Rows:        make([]ExportRow, 0, len(events)),
	}
	for _, event := range events {
		verification := h.ledger.VerifyEvent(event)
		if !verification.Intact {
			resp.Violations++
		}
		resp.Rows = append(resp.Rows, ExportRow{Event: event, Verification: verification})
	}

	h.logger.InfoContext(ctx, "forensic export generated",
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
		"rows", resp.Total,
		"violations", resp.Violations,
	)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (ledger.Filter, error) {
	var filter ledger.Filter

	if raw := r.URL.Query().Get("tenant_id"); raw != "" {
		tenantID, err := domain.ParseTenantID(raw)
		if err != nil {
			return ledger.Filter{}, err
		}
		filter.TenantID = tenantID
	}

	if raw := r.URL.Query().Get("attention_pending"); raw != "" {
		pending, err := strconv.ParseBool(raw)
		if err != nil {
			return ledger.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "attention_pending must be a boolean")
		}
		filter.AttentionPending = pending
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ledger.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// translateLookup maps store sentinels onto domain errors for the wire.
func translateLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeNotFound, "ledger event not found", err)
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(dErrors.CodeUnavailable, "ledger query failed", err)
}
