// Package routing implements the zero-trust router for document uploads.
//
// A claimed destination tenant is never trusted: the router extracts the tax
// id from the document itself, resolves it in the tenant directory, and the
// resolved tenant always wins. Every decision, including every rejection, is
// recorded in the ledger before the verdict is returned, and any internal
// fault fails closed to REJECT.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veridoc/internal/extract"
	"veridoc/internal/ledger"
	"veridoc/internal/routing/metrics"
	"veridoc/internal/routing/ports"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/platform/tracer"
	"veridoc/pkg/requestcontext"
)

// DefaultProcess is recorded when the caller does not name the business
// operation behind the upload.
const DefaultProcess = "cfdi/importar-xml"

// Recorder is the slice of the ledger the router needs.
type Recorder interface {
	Append(ctx context.Context, event ledger.Event) (ledger.Receipt, error)
}

// Router decides where an uploaded document belongs.
type Router struct {
	tenants  ports.TenantLookup
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures optional Router dependencies.
type Option func(*Router)

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// NewRouter creates a Router. The tenant lookup, recorder, and logger are
// required.
func NewRouter(tenants ports.TenantLookup, recorder Recorder, logger *slog.Logger, opts ...Option) (*Router, error) {
	if tenants == nil {
		return nil, fmt.Errorf("routing: tenant lookup is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("routing: recorder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("routing: logger is required")
	}

	r := &Router{tenants: tenants, recorder: recorder, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Route evaluates one upload and returns the verdict. It never returns an
// error: infrastructure faults and panics collapse to a fail-closed REJECT,
// and the ledger entry is written no matter which branch decided.
func (r *Router) Route(ctx context.Context, req RouteRequest) RoutingDecision {
	ctx, span := tracer.StartSpan(ctx, "routing.Route")
	defer span.End()

	if req.Process == "" {
		req.Process = DefaultProcess
	}

	decision := r.decideSafely(ctx, req)
	decision.DecidedAt = requestcontext.Now(ctx).UTC()

	r.audit(ctx, req, decision)

	r.metrics.RecordDecision(string(decision.Decision), string(decision.Reason))
	if decision.Decision == DecisionRelocate {
		r.metrics.RecordRelocation()
	}
	if decision.Reason.Internal() {
		r.metrics.RecordInternalFault()
	}

	span.SetAttributes(attribute.String("routing.decision", string(decision.Decision)))
	return decision
}

// decideSafely runs the decision algorithm under a panic guard. A panic in
// routing code must surface to the caller as a rejection, not a 500 with no
// audit trail.
func (r *Router) decideSafely(ctx context.Context, req RouteRequest) (decision RoutingDecision) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "routing panic, failing closed",
				slog.Any("panic", p),
				slog.String("request_id", requestcontext.RequestID(ctx)),
			)
			decision = RoutingDecision{
				Decision:          DecisionReject,
				Reason:            ReasonInternalFault,
				RequestedTenantID: req.ClaimedTenantID,
			}
		}
	}()
	return r.decide(ctx, req)
}

func (r *Router) decide(ctx context.Context, req RouteRequest) RoutingDecision {
	if len(req.Document) == 0 {
		return RoutingDecision{
			Decision:          DecisionReject,
			Reason:            ReasonNoFile,
			RequestedTenantID: req.ClaimedTenantID,
		}
	}

	taxID, ok := extract.Extract(req.Document, req.Format)
	if !ok {
		return RoutingDecision{
			Decision:          DecisionReject,
			Reason:            ReasonTaxIDNotDetected,
			RequestedTenantID: req.ClaimedTenantID,
		}
	}

	tenant, err := r.tenants.ResolveTaxID(ctx, taxID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return RoutingDecision{
				Decision:          DecisionReject,
				Reason:            ReasonTaxIDNotRegistered,
				DetectedTaxID:     taxID,
				RequestedTenantID: req.ClaimedTenantID,
			}
		}
		// Lookup failure: fail closed. Admitting a document without a
		// verified destination is never an option.
		r.logger.ErrorContext(ctx, "tenant lookup failed, failing closed",
			slog.String("error", err.Error()),
			slog.String("request_id", requestcontext.RequestID(ctx)),
		)
		tracer.RecordError(trace.SpanFromContext(ctx), err)
		return RoutingDecision{
			Decision:          DecisionReject,
			Reason:            ReasonInternalFault,
			DetectedTaxID:     taxID,
			RequestedTenantID: req.ClaimedTenantID,
		}
	}

	if !tenant.Active {
		return RoutingDecision{
			Decision:          DecisionReject,
			Reason:            ReasonTenantInactive,
			DetectedTaxID:     taxID,
			RequestedTenantID: req.ClaimedTenantID,
		}
	}

	if !req.ClaimedTenantID.IsNil() && req.ClaimedTenantID != tenant.ID {
		return RoutingDecision{
			Decision:          DecisionRelocate,
			Reason:            ReasonClaimOverridden,
			DetectedTaxID:     taxID,
			RequestedTenantID: req.ClaimedTenantID,
			FinalTenantID:     tenant.ID,
			RequiresAttention: true,
		}
	}

	return RoutingDecision{
		Decision:          DecisionAllow,
		Reason:            ReasonMatched,
		DetectedTaxID:     taxID,
		RequestedTenantID: req.ClaimedTenantID,
		FinalTenantID:     tenant.ID,
	}
}

// audit records the decision. The append uses a context detached from the
// request's cancellation so a client that disconnects mid-upload still leaves
// a trail.
func (r *Router) audit(ctx context.Context, req RouteRequest, decision RoutingDecision) {
	event := ledger.Event{
		Actor:             requestcontext.Actor(ctx),
		RequestedTenantID: decision.RequestedTenantID,
		DetectedTaxID:     decision.DetectedTaxID,
		FinalTenantID:     decision.FinalTenantID,
		Action:            actionFor(decision.Decision),
		Process:           req.Process,
		Outcome:           outcomeFor(decision.Decision),
		Severity:          severityFor(decision),
		Reason:            string(decision.Reason),
		PayloadSummary:    payloadSummary(req),
		RequiresAttention: decision.RequiresAttention,
	}

	if _, err := r.recorder.Append(context.WithoutCancel(ctx), event); err != nil {
		// Append only fails on invalid events, which here means a routing
		// bug.
		r.logger.ErrorContext(ctx, "routing decision could not be recorded",
			slog.String("error", err.Error()),
			slog.String("decision", string(decision.Decision)),
		)
	}
}

func actionFor(d Decision) ledger.Action {
	switch d {
	case DecisionAllow:
		return ledger.ActionAllow
	case DecisionRelocate:
		return ledger.ActionRelocate
	default:
		return ledger.ActionReject
	}
}

func outcomeFor(d Decision) ledger.Outcome {
	if d == DecisionReject {
		return ledger.OutcomeFailed
	}
	return ledger.OutcomeSuccess
}

func severityFor(d RoutingDecision) ledger.Severity {
	switch {
	case d.Reason.Internal():
		return ledger.SeverityError
	case d.Decision == DecisionRelocate:
		return ledger.SeverityWarning
	case d.Decision == DecisionReject:
		return ledger.SeverityWarning
	default:
		return ledger.SeverityInfo
	}
}

func payloadSummary(req RouteRequest) string {
	name := req.Filename
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("file=%s format=%s size=%d", name, req.Format, len(req.Document))
}
