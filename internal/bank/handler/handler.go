// Package handler exposes statement classification and balance validation
// over HTTP.
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/bank"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// maxStatementBytes bounds a statement text upload.
const maxStatementBytes = 8 << 20

// Handler wires bank endpoints to the classifier.
type Handler struct {
	classifier *bank.Classifier
	logger     *slog.Logger
}

// New constructs a bank handler with its dependencies.
func New(classifier *bank.Classifier, logger *slog.Logger) *Handler {
	return &Handler{classifier: classifier, logger: logger}
}

// Register mounts bank endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/statements/classify", h.HandleClassify)
	r.Post("/statements/validate-balances", h.HandleValidateBalances)
}

// HandleClassify handles POST /statements/classify. The body is the raw
// statement text.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	rawText, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStatementBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "statement body could not be read"))
		return
	}
	if len(rawText) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "statement body is empty"))
		return
	}

	result := h.classifier.Classify(ctx, string(rawText))

	h.logger.InfoContext(ctx, "statement classified",
		"request_id", requestcontext.RequestID(ctx),
		"parser", result.Parser,
		"confidence", result.Confidence,
		"unreliable_origin", result.UnreliableOrigin,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// validateBalancesRequest is the wire shape for the balance check.
type validateBalancesRequest struct {
	Movements []bank.Movement `json:"movements"`
}

// HandleValidateBalances handles POST /statements/validate-balances.
func (h *Handler) HandleValidateBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[validateBalancesRequest](w, r)
	if !ok {
		return
	}

	report, err := bank.ValidateBalances(req.Movements)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "movement list is empty"))
		return
	}

	h.logger.InfoContext(ctx, "balances validated",
		"request_id", requestcontext.RequestID(ctx),
		"balanced", report.Balanced,
		"movements", len(req.Movements),
	)

	httputil.WriteJSON(w, http.StatusOK, report)
}
