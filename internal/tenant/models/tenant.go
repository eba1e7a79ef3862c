package models

import (
	"time"

	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// Tenant is the aggregate root for one registered legal entity (empresa).
//
// Invariants:
//   - TaxID is a valid RFC and unique across tenants
//   - TaxID is immutable after construction: every ledger event references
//     the tenant the RFC resolved to at routing time, so rewriting the RFC
//     would sever the traceability chain the ledger exists to provide.
//     Re-registering under a new RFC is a new tenant.
//   - Name is non-empty and at most 128 characters
//   - Status is either active or inactive
//   - Status transitions: active ↔ inactive only
//   - CreatedAt is immutable after construction
//
// Deactivation suspends routing for the tenant without touching its history:
// uploads resolving to an inactive tenant are rejected, but every ledger
// event it ever produced stays queryable and verifiable.
type Tenant struct {
	ID        domain.TenantID `json:"id"`
	TaxID     domain.TaxID    `json:"tax_id"`
	Name      string          `json:"name"`
	Status    TenantStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// CanTransitionTo reports whether the status change is a legal transition.
func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	switch s {
	case TenantStatusActive:
		return target == TenantStatusInactive
	case TenantStatusInactive:
		return target == TenantStatusActive
	default:
		return false
	}
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanDeactivate checks if the tenant can transition to inactive status.
func (t *Tenant) CanDeactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	return nil
}

// Deactivate validates and applies the transition to inactive.
func (t *Tenant) Deactivate(now time.Time) error {
	if err := t.CanDeactivate(); err != nil {
		return err
	}
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
	return nil
}

// CanReactivate checks if the tenant can transition to active status.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

// Reactivate validates and applies the transition to active.
func (t *Tenant) Reactivate(now time.Time) error {
	if err := t.CanReactivate(); err != nil {
		return err
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = now
	return nil
}

// NewTenant constructs a valid active tenant or reports why it cannot.
func NewTenant(tenantID domain.TenantID, taxID domain.TaxID, name string, now time.Time) (*Tenant, error) {
	if taxID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant tax id cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	return &Tenant{
		ID:        tenantID,
		TaxID:     taxID,
		Name:      name,
		Status:    TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
