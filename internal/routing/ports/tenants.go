package ports

import (
	"context"

	"veridoc/pkg/domain"
)

// TenantLookup resolves a detected tax id to its registered tenant. This port
// keeps the router independent of the tenant service, its cache, and its
// storage backend.
type TenantLookup interface {
	// ResolveTaxID returns the tenant registered under taxID.
	// Must return sentinel.ErrNotFound (possibly wrapped) when no tenant is
	// registered for the tax id; any other error is treated as an
	// infrastructure fault and the caller fails closed.
	ResolveTaxID(ctx context.Context, taxID domain.TaxID) (*TenantRecord, error)
}

// TenantRecord is the minimal tenant view the router needs (port model, not a
// storage model).
type TenantRecord struct {
	ID     domain.TenantID
	TaxID  domain.TaxID
	Name   string
	Active bool
}
