package routing

import (
	"time"

	"veridoc/pkg/domain"
)

// Decision is the final verdict for a document upload.
type Decision string

const (
	// DecisionAllow admits the document under the tenant it resolved to.
	DecisionAllow Decision = "ALLOW"
	// DecisionRelocate admits the document but under a different tenant than
	// the caller claimed. The resolved tenant always wins.
	DecisionRelocate Decision = "RELOCATE"
	// DecisionReject refuses the document entirely.
	DecisionReject Decision = "REJECT"
)

// ReasonCode classifies why a decision came out the way it did. Input reasons
// are safe to show to the uploader; ReasonInternalFault is not.
type ReasonCode string

const (
	ReasonMatched            ReasonCode = "tenant_matched"
	ReasonClaimOverridden    ReasonCode = "claimed_tenant_overridden"
	ReasonNoFile             ReasonCode = "no_file_provided"
	ReasonTaxIDNotDetected   ReasonCode = "tax_id_not_detected"
	ReasonTaxIDNotRegistered ReasonCode = "tax_id_not_registered"
	ReasonTenantInactive     ReasonCode = "tenant_inactive"
	ReasonInternalFault      ReasonCode = "internal_fault"
)

// Internal reports whether the reason is an infrastructure fault rather than a
// problem with the upload itself. Internal reasons must not leak detail to the
// caller.
func (c ReasonCode) Internal() bool {
	return c == ReasonInternalFault
}

// RouteRequest carries one document upload through the router.
type RouteRequest struct {
	// Document is the raw uploaded file. Empty means no file was provided.
	Document []byte
	Format   domain.DocumentFormat

	// ClaimedTenantID is the tenant the caller says the document belongs to.
	// It is a claim, never a fact; the router verifies it against the
	// document's own content. Nil means the caller made no claim.
	ClaimedTenantID domain.TenantID

	// Process identifies the business operation, e.g. "cfdi/importar-xml".
	Process string

	// Filename is used only for audit payload summaries, never for routing.
	Filename string
}

// RoutingDecision is the router's verdict plus everything the audit trail and
// the HTTP layer need to act on it.
type RoutingDecision struct {
	Decision          Decision        `json:"decision"`
	Reason            ReasonCode      `json:"reason"`
	DetectedTaxID     domain.TaxID    `json:"detected_tax_id,omitempty"`
	RequestedTenantID domain.TenantID `json:"requested_tenant_id,omitempty"`
	FinalTenantID     domain.TenantID `json:"final_tenant_id,omitempty"`
	RequiresAttention bool            `json:"requires_attention"`
	DecidedAt         time.Time       `json:"decided_at"`
}

// Admitted reports whether the document may be stored (under FinalTenantID).
func (d RoutingDecision) Admitted() bool {
	return d.Decision == DecisionAllow || d.Decision == DecisionRelocate
}
