// Package bank classifies the origin of uploaded bank statements.
//
// Classification is a heuristic, so its output is two-tiered: a lower bar
// (NameThreshold) to say which bank probably produced the file, a higher bar
// (ReliableThreshold) to vouch for the file's origin. Files under the higher
// bar carry UnreliableOrigin, a flag downstream compliance logic must never
// clear. Every classification leaves one ledger entry.
package bank

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"veridoc/internal/bank/metrics"
	"veridoc/internal/ledger"
	"veridoc/pkg/platform/tracer"
	"veridoc/pkg/requestcontext"
)

// classifyProcess names the business operation behind every classification
// ledger entry.
const classifyProcess = "bank/clasificar-origen"

// Thresholds are the classifier policy constants, on the 0-100 confidence
// scale. They are injected rather than hard-coded; the asymmetry between them
// is deliberate (naming a bank is cheaper than trusting the file).
type Thresholds struct {
	// NameThreshold is the minimum confidence to report an issuer name. It
	// doubles as the absolute cutoff below which the verdict collapses to
	// Unknown with confidence 0.
	NameThreshold int
	// ReliableThreshold is the minimum confidence to consider the origin
	// reliable. Below it, UnreliableOrigin is set.
	ReliableThreshold int
}

// DefaultThresholds returns the standard 40/80 policy.
func DefaultThresholds() Thresholds {
	return Thresholds{NameThreshold: 40, ReliableThreshold: 80}
}

func (t Thresholds) validate() error {
	if t.NameThreshold <= 0 || t.NameThreshold > 100 {
		return fmt.Errorf("bank: name threshold must be in (0,100], got %d", t.NameThreshold)
	}
	if t.ReliableThreshold < t.NameThreshold || t.ReliableThreshold > 100 {
		return fmt.Errorf("bank: reliable threshold must be in [%d,100], got %d", t.NameThreshold, t.ReliableThreshold)
	}
	return nil
}

// Classification is the classifier's verdict for one statement.
type Classification struct {
	// Issuer is the display name of the detected bank, or IssuerUnknown when
	// no entry cleared the naming bar. The generic parser never carries a
	// named issuer.
	Issuer string `json:"issuer"`
	// Confidence is 0-100.
	Confidence int    `json:"confidence"`
	Parser     Parser `json:"parser"`
	// UnreliableOrigin marks statements whose origin could not be vouched
	// for. It is persisted on the audit trail and never cleared downstream.
	UnreliableOrigin bool `json:"unreliable_origin"`
}

// Recorder is the slice of the ledger the classifier needs.
type Recorder interface {
	Append(ctx context.Context, event ledger.Event) (ledger.Receipt, error)
}

// Classifier scores statement text against the issuer catalog.
type Classifier struct {
	catalog    []Issuer
	thresholds Thresholds
	recorder   Recorder
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures optional Classifier dependencies.
type Option func(*Classifier)

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Classifier) { c.metrics = m }
}

// NewClassifier creates a Classifier over the built-in issuer catalog.
func NewClassifier(thresholds Thresholds, recorder Recorder, logger *slog.Logger, opts ...Option) (*Classifier, error) {
	if err := thresholds.validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		return nil, fmt.Errorf("bank: recorder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("bank: logger is required")
	}

	c := &Classifier{
		catalog:    defaultCatalog(),
		thresholds: thresholds,
		recorder:   recorder,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify scores rawText against the catalog, records the verdict on the
// ledger, and returns it. Like routing, the audit append is detached from the
// caller's cancellation.
func (c *Classifier) Classify(ctx context.Context, rawText string) Classification {
	ctx, span := tracer.StartSpan(ctx, "bank.Classify")
	defer span.End()

	result := c.detect(rawText)

	c.audit(ctx, result, len(rawText))
	c.metrics.RecordClassification(string(result.Parser), result.Confidence, result.UnreliableOrigin)

	return result
}

// detect is the pure scoring pass.
func (c *Classifier) detect(rawText string) Classification {
	upper := strings.ToUpper(rawText)

	var (
		best      *Issuer
		bestScore float64
	)
	for i := range c.catalog {
		issuer := &c.catalog[i]
		score := scoreIssuer(issuer, upper, rawText)
		// Strictly greater: ties keep the first highest found.
		if score > bestScore {
			best, bestScore = issuer, score
		}
	}

	confidence := int(bestScore*100 + 0.5)
	if best == nil || confidence < c.thresholds.NameThreshold {
		return Classification{
			Issuer:           IssuerUnknown,
			Confidence:       0,
			Parser:           ParserGeneric,
			UnreliableOrigin: true,
		}
	}

	return Classification{
		Issuer:           best.Name,
		Confidence:       confidence,
		Parser:           best.Parser,
		UnreliableOrigin: confidence < c.thresholds.ReliableThreshold,
	}
}

// scoreIssuer accumulates one issuer's score. Keywords match against the
// uppercased text; date and account patterns run against the raw text.
func scoreIssuer(issuer *Issuer, upper, raw string) float64 {
	var score float64
	for _, keyword := range issuer.Keywords {
		if strings.Contains(upper, keyword) {
			score += keywordWeight
		}
	}
	for _, pattern := range issuer.DatePatterns {
		if pattern.MatchString(raw) {
			score += dateWeight
			break
		}
	}
	if issuer.AccountPattern != nil && issuer.AccountPattern.MatchString(raw) {
		score += accountWeight
	}
	return score
}

func (c *Classifier) audit(ctx context.Context, result Classification, textLen int) {
	severity := ledger.SeverityInfo
	if result.UnreliableOrigin {
		severity = ledger.SeverityWarning
	}

	event := ledger.Event{
		Actor:             requestcontext.Actor(ctx),
		Action:            ledger.ActionAccess,
		Process:           classifyProcess,
		Outcome:           ledger.OutcomeSuccess,
		Severity:          severity,
		Reason:            fmt.Sprintf("issuer=%s confidence=%d parser=%s", result.Issuer, result.Confidence, result.Parser),
		PayloadSummary:    fmt.Sprintf("statement text, %d bytes", textLen),
		RequiresAttention: result.UnreliableOrigin,
		UnreliableOrigin:  result.UnreliableOrigin,
	}

	if _, err := c.recorder.Append(context.WithoutCancel(ctx), event); err != nil {
		c.logger.ErrorContext(ctx, "bank classification could not be recorded",
			"error", err,
			"issuer", result.Issuer,
		)
	}
}
