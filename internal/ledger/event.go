// Package ledger is the append-only record of every trust decision and data
// mutation. Entries are the legal evidence of compliance: once written, every
// field except the review pair is frozen forever, and a commitment hash over
// the frozen fields makes any later alteration detectable.
package ledger

import (
	"time"
	"unicode/utf8"

	"veridoc/pkg/domain"
)

// Action classifies what the recorded operation did.
type Action string

const (
	// Routing outcomes.
	ActionAllow    Action = "ALLOW"
	ActionReject   Action = "REJECT"
	ActionRelocate Action = "RELOCATE"
	// Data mutations and reads recorded by non-routing callers.
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionAccess Action = "ACCESS"
)

// validActions is the single source of truth for recordable actions.
var validActions = map[Action]bool{
	ActionAllow:    true,
	ActionReject:   true,
	ActionRelocate: true,
	ActionCreate:   true,
	ActionUpdate:   true,
	ActionDelete:   true,
	ActionAccess:   true,
}

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool { return validActions[a] }

// Outcome reports how the recorded operation ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
	OutcomePartial Outcome = "PARTIAL"
)

// Severity routes events to the right operator channel.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// ActorSystem attributes events with no authenticated caller.
const ActorSystem = "SYSTEM"

// maxPayloadSummary bounds the payload summary. Summaries describe the
// document (name, size, detected fields); raw file bytes and credentials must
// never be recorded, and truncation caps what a misbehaving caller can leak.
const maxPayloadSummary = 1024

// Event is one append-only ledger entry.
//
// Invariants:
//   - Every field except Reviewed and ReviewedBy is frozen at append time.
//   - Hash commits to the frozen fields plus a server-held salt; recomputing
//     it against a stored row detects any post-write alteration.
//   - Events are never updated in their hashed fields and never deleted.
type Event struct {
	ID        domain.EventID `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`

	// Subject tenant identifiers for the decision: what the caller claimed,
	// what the document said, and what the router finally assigned.
	RequestedTenantID domain.TenantID `json:"requested_tenant_id,omitempty"`
	DetectedTaxID     domain.TaxID    `json:"detected_tax_id,omitempty"`
	FinalTenantID     domain.TenantID `json:"final_tenant_id,omitempty"`

	Action   Action   `json:"action"`
	Process  string   `json:"process"`
	Outcome  Outcome  `json:"outcome"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`

	// PayloadSummary is a bounded description of the processed payload.
	PayloadSummary string `json:"payload_summary,omitempty"`

	// RequiresAttention flags the event for the operator review queue
	// (RELOCATE corrections, unreliable origins).
	RequiresAttention bool `json:"requires_attention"`

	// UnreliableOrigin carries the classifier's verdict. Downstream
	// compliance logic must never clear it.
	UnreliableOrigin bool `json:"unreliable_origin"`

	// The only mutable pair: operator review bookkeeping.
	Reviewed   bool   `json:"reviewed"`
	ReviewedBy string `json:"reviewed_by,omitempty"`

	// Hash is the commitment over the frozen fields plus the server salt.
	Hash string `json:"hash"`
}

// normalize assigns server-side identity and clamps caller-influenced fields.
// Timestamps are truncated to millisecond precision so the value that is
// hashed survives a round trip through the store unchanged.
func (e *Event) normalize(now time.Time) {
	if e.ID.IsNil() {
		e.ID = domain.NewEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Millisecond)
	if e.Actor == "" {
		e.Actor = ActorSystem
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeSuccess
	}
	if len(e.PayloadSummary) > maxPayloadSummary {
		// Back off to a rune boundary so the hashed summary stays valid
		// UTF-8 after the cut.
		cut := maxPayloadSummary
		for cut > 0 && !utf8.RuneStart(e.PayloadSummary[cut]) {
			cut--
		}
		e.PayloadSummary = e.PayloadSummary[:cut]
	}
}
