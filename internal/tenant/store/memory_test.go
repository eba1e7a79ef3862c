package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

type TenantStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *TenantStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestTenantStoreSuite(t *testing.T) {
	suite.Run(t, new(TenantStoreSuite))
}

func (s *TenantStoreSuite) newTenant(taxID domain.TaxID, name string) *models.Tenant {
	tenant, err := models.NewTenant(domain.NewTenantID(), taxID, name, time.Now())
	s.Require().NoError(err)
	return tenant
}

// TestCreationAndLookups verifies the store correctly creates and retrieves tenants.
func (s *TenantStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds tenant by ID", func() {
		tenant := s.newTenant("ACM010101AAA", "ACME")
		s.Require().NoError(s.store.CreateIfTaxIDAvailable(s.ctx, tenant))

		found, err := s.store.FindByID(s.ctx, tenant.ID)
		s.Require().NoError(err)
		s.Equal(tenant.Name, found.Name)
	})

	s.Run("finds tenant by tax id", func() {
		tenant := s.newTenant("BDN920505XY2", "Bodegas del Norte")
		s.Require().NoError(s.store.CreateIfTaxIDAvailable(s.ctx, tenant))

		found, err := s.store.FindByTaxID(s.ctx, "BDN920505XY2")
		s.Require().NoError(err)
		s.Equal(tenant.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewTenantID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unregistered tax id", func() {
		_, err := s.store.FindByTaxID(s.ctx, "ZZZ010101ZZ9")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestTaxIDUniqueness verifies the registration invariant.
func (s *TenantStoreSuite) TestTaxIDUniqueness() {
	s.Run("rejects duplicate tax id", func() {
		first := s.newTenant("ACM010101AAA", "ACME")
		second := s.newTenant("ACM010101AAA", "ACME Clone")

		s.Require().NoError(s.store.CreateIfTaxIDAvailable(s.ctx, first))

		err := s.store.CreateIfTaxIDAvailable(s.ctx, second)
		s.Require().Error(err)
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

// TestStatusUpdates verifies lifecycle persistence leaves identity untouched.
func (s *TenantStoreSuite) TestStatusUpdates() {
	s.Run("persists a deactivation", func() {
		tenant := s.newTenant("ACM010101AAA", "ACME")
		s.Require().NoError(s.store.CreateIfTaxIDAvailable(s.ctx, tenant))

		s.Require().NoError(tenant.Deactivate(time.Now()))
		s.Require().NoError(s.store.UpdateStatus(s.ctx, tenant))

		found, err := s.store.FindByID(s.ctx, tenant.ID)
		s.Require().NoError(err)
		s.Equal(models.TenantStatusInactive, found.Status)
		s.Equal(domain.TaxID("ACM010101AAA"), found.TaxID)
	})

	s.Run("returns ErrNotFound for unknown tenant", func() {
		ghost := s.newTenant("GHO010101AA1", "Ghost")
		err := s.store.UpdateStatus(s.ctx, ghost)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
