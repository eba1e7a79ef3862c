package handler

import (
	"veridoc/internal/routing"
)

// RouteResponse is the wire shape of a routing verdict.
type RouteResponse struct {
	Decision          string `json:"decision"`
	Reason            string `json:"reason"`
	DetectedTaxID     string `json:"detected_tax_id,omitempty"`
	RequestedTenantID string `json:"requested_tenant_id,omitempty"`
	FinalTenantID     string `json:"final_tenant_id,omitempty"`
	RequiresAttention bool   `json:"requires_attention"`
	DecidedAt         string `json:"decided_at"`
}

// FromDecision converts a routing decision to its wire shape. Internal fault
// reasons are masked; the caller only learns the document could not be
// validated.
func FromDecision(d routing.RoutingDecision) RouteResponse {
	reason := string(d.Reason)
	if d.Reason.Internal() {
		reason = "document could not be validated"
	}

	resp := RouteResponse{
		Decision:          string(d.Decision),
		Reason:            reason,
		RequiresAttention: d.RequiresAttention,
		DecidedAt:         d.DecidedAt.Format(timestampLayout),
	}
	if !d.DetectedTaxID.IsNil() {
		resp.DetectedTaxID = string(d.DetectedTaxID)
	}
	if !d.RequestedTenantID.IsNil() {
		resp.RequestedTenantID = d.RequestedTenantID.String()
	}
	if !d.FinalTenantID.IsNil() {
		resp.FinalTenantID = d.FinalTenantID.String()
	}
	return resp
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"
