// Package handler exposes the document routing endpoint over HTTP.
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/routing"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// maxUploadBytes bounds a single document upload (multipart overhead
// included). CFDI XML files are tens of kilobytes; statements a few megabytes.
const maxUploadBytes = 16 << 20

// Handler wires the routing endpoint to the trust router.
type Handler struct {
	router *routing.Router
	logger *slog.Logger
}

// New constructs a routing handler with its dependencies.
func New(router *routing.Router, logger *slog.Logger) *Handler {
	return &Handler{router: router, logger: logger}
}

// Register mounts routing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/route", h.HandleUpload)
}

// HandleUpload handles POST /documents/route. The request is multipart/form-data
// with a "file" part and optional "tenant_id", "format", and "process"
// fields. The claimed tenant_id is treated as a hint only; the verdict comes
// from the document content.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	req, err := parseUploadRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision := h.router.Route(ctx, req)

	h.logger.InfoContext(ctx, "document routed",
		"request_id", requestID,
		"decision", decision.Decision,
		"reason", decision.Reason,
		"requires_attention", decision.RequiresAttention,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, statusFor(decision), FromDecision(decision))
}

// parseUploadRequest extracts the document and claim fields from the
// multipart form. A missing file part is not an error here; the router
// rejects and audits it.
func parseUploadRequest(r *http.Request) (routing.RouteRequest, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return routing.RouteRequest{}, dErrors.New(dErrors.CodeInvalidInput, "request body must be multipart/form-data")
	}

	req := routing.RouteRequest{
		Process: r.FormValue("process"),
	}

	if claimed := r.FormValue("tenant_id"); claimed != "" {
		tenantID, err := domain.ParseTenantID(claimed)
		if err != nil {
			return routing.RouteRequest{}, err
		}
		req.ClaimedTenantID = tenantID
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// No file part: hand the empty request to the router so the
		// rejection is audited like any other.
		return req, nil
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		return routing.RouteRequest{}, dErrors.New(dErrors.CodeInvalidInput, "file part could not be read")
	}
	req.Document = doc
	req.Filename = header.Filename

	format, err := resolveFormat(r.FormValue("format"), header.Filename)
	if err != nil {
		return routing.RouteRequest{}, err
	}
	req.Format = format

	return req, nil
}

// resolveFormat takes the explicit format field when present, otherwise
// infers it from the uploaded filename extension.
func resolveFormat(explicit, filename string) (domain.DocumentFormat, error) {
	if explicit != "" {
		return domain.ParseDocumentFormat(explicit)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document format not given and not inferable from filename")
	}
	return domain.ParseDocumentFormat(ext)
}

// statusFor maps a verdict to an HTTP status. Admissions are 200; rejections
// the uploader can act on are 422; internal faults are 503 with no detail.
func statusFor(d routing.RoutingDecision) int {
	switch {
	case d.Admitted():
		return http.StatusOK
	case d.Reason.Internal():
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
