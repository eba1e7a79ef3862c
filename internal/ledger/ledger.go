package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"veridoc/internal/ledger/metrics"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/platform/tracer"
	"veridoc/pkg/requestcontext"
)

// eventActor resolves the actor for log lines about refused mutations.
func eventActor(ctx context.Context) string {
	if actor := requestcontext.Actor(ctx); actor != "" {
		return actor
	}
	return ActorSystem
}

// ErrLedgerImmutable is returned by Modify and Delete unconditionally,
// regardless of caller privilege. The refusal is logged through the ordinary
// application error channel, never through the ledger itself.
var ErrLedgerImmutable = fmt.Errorf("ledger events are immutable: %w", sentinel.ErrImmutable)

// Config carries the ledger's injected secrets and knobs. The salt is
// explicit constructor input so tests can supply deterministic values; it is
// never read from ambient process state here.
type Config struct {
	Salt string
}

// Ledger is the append-only audit log with tamper-evident commitments.
//
// Append is the only write path shared across concurrent callers; it takes no
// lock because each append is an independent insert under a server-generated
// id. Ordering between concurrent events is by timestamp only — readers must
// not assume append order equals causal order.
type Ledger struct {
	cfg      Config
	store    Store
	fallback Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithFallback sets the secondary durable sink for failed appends.
func WithFallback(sink Sink) Option {
	return func(l *Ledger) { l.fallback = sink }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New constructs the ledger. The logger is required: it is the last link in
// the append fallback chain.
func New(cfg Config, store Store, logger *slog.Logger, opts ...Option) (*Ledger, error) {
	if cfg.Salt == "" {
		return nil, fmt.Errorf("ledger salt must not be empty")
	}
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("ledger logger is required")
	}
	l := &Ledger{cfg: cfg, store: store, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Receipt reports what happened to one appended event.
type Receipt struct {
	EventID domain.EventID
	Hash    string
	// Persisted is true when the primary store accepted the event.
	Persisted bool
	// FellBack is true when the event went to the secondary sink instead.
	FellBack bool
}

// Append records an event. The commitment hash is computed before any write,
// so a crash between hash computation and write can never produce a
// stored-but-unhashed record.
//
// Append never fails the business action it is auditing: a primary store
// failure escalates to the fallback sink, and a fallback failure escalates to
// an ERROR log carrying the full event. The returned error is non-nil only
// for events that are invalid at the call site (programming errors), never
// for infrastructure trouble.
func (l *Ledger) Append(ctx context.Context, event Event) (Receipt, error) {
	ctx, span := tracer.StartSpan(ctx, "ledger.append")
	defer span.End()

	if !event.Action.IsValid() {
		return Receipt{}, dErrors.New(dErrors.CodeInvalidInput, "unknown ledger action")
	}
	if event.Process == "" {
		return Receipt{}, dErrors.New(dErrors.CodeInvalidInput, "ledger event requires a process name")
	}

	event.normalize(time.Now())
	event.Hash = commitment(l.cfg.Salt, event)
	span.SetAttributes(
		attribute.String("ledger.action", string(event.Action)),
		attribute.String("ledger.process", event.Process),
	)

	receipt := Receipt{EventID: event.ID, Hash: event.Hash}

	err := l.store.Insert(ctx, event)
	if err == nil {
		l.metrics.IncAppended(string(event.Action))
		receipt.Persisted = true
		return receipt, nil
	}

	// Primary store is unreachable or rejecting writes. The audited business
	// action still completes on its own merits; the event escalates down the
	// chain so at least one trace survives.
	l.metrics.IncAppendFailures()
	l.logger.ErrorContext(ctx, "ledger append failed, escalating to fallback sink",
		"event_id", event.ID,
		"action", event.Action,
		"process", event.Process,
		"error", err,
	)

	if l.fallback != nil {
		fbErr := l.fallback.Append(ctx, event)
		if fbErr == nil {
			l.metrics.IncFallbackAppends()
			receipt.FellBack = true
			return receipt, nil
		}
		l.logger.ErrorContext(ctx, "ledger fallback sink failed",
			"event_id", event.ID,
			"error", fbErr,
		)
	}

	// Last link in the chain: the process log itself is the surviving trace.
	l.metrics.IncLostToLog()
	l.logger.ErrorContext(ctx, "CRITICAL: ledger event survived only in process log",
		"event", event,
	)
	return receipt, nil
}

// VerifyResult is the outcome of recomputing one event's commitment.
// A mismatch means the record was altered after writing, or the salt or
// algorithm changed — an operational distinction the caller makes; this core
// reports the facts as data, it never throws.
type VerifyResult struct {
	Intact         bool   `json:"intact"`
	RecomputedHash string `json:"recomputed_hash"`
	StoredHash     string `json:"stored_hash"`
}

// Verify recomputes the commitment for a stored event and compares it
// byte-for-byte with the stored hash.
func (l *Ledger) Verify(ctx context.Context, id domain.EventID) (VerifyResult, error) {
	event, err := l.store.FindByID(ctx, id)
	if err != nil {
		return VerifyResult{}, err
	}
	return l.VerifyEvent(event), nil
}

// VerifyEvent checks an already-loaded event. Used by the forensic export,
// which verifies rows in bulk.
func (l *Ledger) VerifyEvent(event Event) VerifyResult {
	recomputed := commitment(l.cfg.Salt, event)
	result := VerifyResult{
		Intact:         recomputed == event.Hash,
		RecomputedHash: recomputed,
		StoredHash:     event.Hash,
	}
	if !result.Intact {
		l.metrics.IncIntegrityViolations()
	}
	return result
}

// Find returns a stored event by id.
func (l *Ledger) Find(ctx context.Context, id domain.EventID) (Event, error) {
	return l.store.FindByID(ctx, id)
}

// List returns events matching the filter, newest first.
func (l *Ledger) List(ctx context.Context, filter Filter) ([]Event, error) {
	return l.store.List(ctx, filter)
}

// MarkReviewed sets the review pair — the only fields outside the frozen set.
func (l *Ledger) MarkReviewed(ctx context.Context, id domain.EventID, reviewedBy string) error {
	if reviewedBy == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reviewer is required")
	}
	return l.store.SetReviewed(ctx, id, reviewedBy)
}

// Modify unconditionally fails: ledger entries are frozen at append time.
// It exists so callers reaching for mutation get a distinguished error
// instead of a missing method, and so the refusal leaves a log trace.
func (l *Ledger) Modify(ctx context.Context, id domain.EventID, _ map[string]any) error {
	l.logger.WarnContext(ctx, "ledger modification refused",
		"event_id", id,
		"actor", eventActor(ctx),
	)
	return ErrLedgerImmutable
}

// Delete unconditionally fails, same contract as Modify.
func (l *Ledger) Delete(ctx context.Context, id domain.EventID) error {
	l.logger.WarnContext(ctx, "ledger deletion refused",
		"event_id", id,
		"actor", eventActor(ctx),
	)
	return ErrLedgerImmutable
}
