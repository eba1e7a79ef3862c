// Package store provides tenant persistence. The in-memory implementation
// backs unit tests and local development; postgres is the production store,
// optionally fronted by the redis lookup cache for the routing hot path.
package store

import (
	"context"
	"fmt"
	"sync"

	"veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// InMemory keeps tenants in process memory, indexed by id and tax id.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.TenantID]models.Tenant
	byTaxID map[domain.TaxID]domain.TenantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.TenantID]models.Tenant),
		byTaxID: make(map[domain.TaxID]domain.TenantID),
	}
}

// CreateIfTaxIDAvailable inserts the tenant unless the tax id is taken.
func (s *InMemory) CreateIfTaxIDAvailable(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byTaxID[tenant.TaxID]; taken {
		return fmt.Errorf("tax id already registered: %w", sentinel.ErrConflict)
	}
	s.byID[tenant.ID] = *tenant
	s.byTaxID[tenant.TaxID] = tenant.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tenant, ok := s.byID[id]; ok {
		copied := tenant
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByTaxID(_ context.Context, taxID domain.TaxID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byTaxID[taxID]; ok {
		tenant := s.byID[id]
		return &tenant, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenants := make([]models.Tenant, 0, len(s.byID))
	for _, tenant := range s.byID {
		tenants = append(tenants, tenant)
	}
	return tenants, nil
}

// UpdateStatus persists a lifecycle transition. The tax id and creation time
// are deliberately not updatable through any store method.
func (s *InMemory) UpdateStatus(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[tenant.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Status = tenant.Status
	existing.UpdatedAt = tenant.UpdatedAt
	s.byID[tenant.ID] = existing
	return nil
}
