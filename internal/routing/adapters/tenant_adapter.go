package adapters

import (
	"context"

	"veridoc/internal/routing/ports"
	tenantModels "veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
)

// TenantAdapter is an in-process adapter that implements ports.TenantLookup by
// calling the tenant service directly. When the directory is split out into
// its own process this can be replaced with an HTTP adapter without touching
// the routing domain layer.
type TenantAdapter struct {
	tenants tenantFinder
}

type tenantFinder interface {
	FindByTaxID(ctx context.Context, taxID domain.TaxID) (*tenantModels.Tenant, error)
}

// NewTenantAdapter creates a new in-process tenant lookup adapter.
func NewTenantAdapter(tenants tenantFinder) ports.TenantLookup {
	return &TenantAdapter{tenants: tenants}
}

func (a *TenantAdapter) ResolveTaxID(ctx context.Context, taxID domain.TaxID) (*ports.TenantRecord, error) {
	tenant, err := a.tenants.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}

	return &ports.TenantRecord{
		ID:     tenant.ID,
		TaxID:  tenant.TaxID,
		Name:   tenant.Name,
		Active: tenant.IsActive(),
	}, nil
}
