//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/ledger"
	"veridoc/internal/tenant/models"
	"veridoc/internal/tenant/service"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/platform/tx"
	"veridoc/pkg/requestcontext"
	"veridoc/pkg/testutil/containers"
)

func mustTenant(t *testing.T, rawTaxID, name string) *models.Tenant {
	t.Helper()
	taxID, err := domain.ParseTaxID(rawTaxID)
	require.NoError(t, err)
	tenant, err := models.NewTenant(domain.NewTenantID(), taxID, name, time.Now())
	require.NoError(t, err)
	return tenant
}

func TestPostgresTenantStoreIntegration(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../migrations")
	ctx := context.Background()
	store := NewPostgres(pg.DB)

	t.Run("create and find", func(t *testing.T) {
		pg.Truncate(t, "tenants")
		tenant := mustTenant(t, "ACM010101AAA", "ACME SA de CV")
		require.NoError(t, store.CreateIfTaxIDAvailable(ctx, tenant))

		byID, err := store.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, tenant.TaxID, byID.TaxID)

		byTaxID, err := store.FindByTaxID(ctx, tenant.TaxID)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, byTaxID.ID)
	})

	t.Run("duplicate tax id conflicts", func(t *testing.T) {
		pg.Truncate(t, "tenants")
		require.NoError(t, store.CreateIfTaxIDAvailable(ctx, mustTenant(t, "ACM010101AAA", "ACME SA de CV")))

		err := store.CreateIfTaxIDAvailable(ctx, mustTenant(t, "ACM010101AAA", "impostor"))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("status update never touches tax id", func(t *testing.T) {
		pg.Truncate(t, "tenants")
		tenant := mustTenant(t, "ACM010101AAA", "ACME SA de CV")
		require.NoError(t, store.CreateIfTaxIDAvailable(ctx, tenant))

		require.NoError(t, tenant.Deactivate(time.Now()))
		require.NoError(t, store.UpdateStatus(ctx, tenant))

		reloaded, err := store.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TenantStatusInactive, reloaded.Status)
		assert.Equal(t, tenant.TaxID, reloaded.TaxID)
	})

	t.Run("unknown lookups report not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, domain.NewTenantID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestTransactionalRegistrationIntegration(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../migrations")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := requestcontext.WithActor(context.Background(), "ops@despacho.mx")

	audit, err := ledger.New(ledger.Config{Salt: "tx-integration-salt"}, ledger.NewPostgres(pg.DB), logger)
	require.NoError(t, err)

	svc := service.New(NewPostgres(pg.DB), audit, logger, nil,
		service.WithTransactor(tx.NewRunner(pg.DB)))

	t.Run("registration commits the tenant and its event together", func(t *testing.T) {
		pg.Truncate(t, "tenants", "ledger_events")

		taxID, err := domain.ParseTaxID("ACM010101AAA")
		require.NoError(t, err)

		tenant, err := svc.Register(ctx, taxID, "ACME SA de CV")
		require.NoError(t, err)

		var tenants int
		require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT count(*) FROM tenants`).Scan(&tenants))
		assert.Equal(t, 1, tenants)

		events, err := audit.List(ctx, ledger.Filter{TenantID: tenant.ID})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "tenants/registrar", events[0].Process)
		assert.Equal(t, "ops@despacho.mx", events[0].Actor)
	})

	t.Run("conflicting registration rolls back without an event", func(t *testing.T) {
		pg.Truncate(t, "tenants", "ledger_events")

		taxID, err := domain.ParseTaxID("ACM010101AAA")
		require.NoError(t, err)

		_, err = svc.Register(ctx, taxID, "ACME SA de CV")
		require.NoError(t, err)

		_, err = svc.Register(ctx, taxID, "impostor")
		require.Error(t, err)

		var events int
		require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT count(*) FROM ledger_events`).Scan(&events))
		assert.Equal(t, 1, events)

		var tenants int
		require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT count(*) FROM tenants`).Scan(&tenants))
		assert.Equal(t, 1, tenants)
	})
}

func TestCachedTenantStoreIntegration(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../migrations")
	rd := containers.NewRedisContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	backend := NewPostgres(pg.DB)
	cached := NewCached(backend, rd.Client, time.Minute, logger)

	t.Run("lookup is served from cache on repeat", func(t *testing.T) {
		pg.Truncate(t, "tenants")
		require.NoError(t, rd.FlushAll(ctx))

		tenant := mustTenant(t, "ACM010101AAA", "ACME SA de CV")
		require.NoError(t, cached.CreateIfTaxIDAvailable(ctx, tenant))

		first, err := cached.FindByTaxID(ctx, tenant.TaxID)
		require.NoError(t, err)

		// Remove the row behind the cache's back; a cached lookup still
		// answers until invalidation.
		_, err = pg.DB.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, first.ID.String())
		require.NoError(t, err)

		second, err := cached.FindByTaxID(ctx, tenant.TaxID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("status update invalidates the cached lookup", func(t *testing.T) {
		pg.Truncate(t, "tenants")
		require.NoError(t, rd.FlushAll(ctx))

		tenant := mustTenant(t, "BNT010101BB2", "Banorte Client SA")
		require.NoError(t, cached.CreateIfTaxIDAvailable(ctx, tenant))

		_, err := cached.FindByTaxID(ctx, tenant.TaxID)
		require.NoError(t, err)

		require.NoError(t, tenant.Deactivate(time.Now()))
		require.NoError(t, cached.UpdateStatus(ctx, tenant))

		reloaded, err := cached.FindByTaxID(ctx, tenant.TaxID)
		require.NoError(t, err)
		assert.Equal(t, models.TenantStatusInactive, reloaded.Status)
	})

	t.Run("missing tenant is never negatively cached", func(t *testing.T) {
		pg.Truncate(t, "tenants")
		require.NoError(t, rd.FlushAll(ctx))

		taxID, err := domain.ParseTaxID("XNU010101XX1")
		require.NoError(t, err)

		_, err = cached.FindByTaxID(ctx, taxID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		// Register and look up again immediately: the earlier miss must not
		// shadow the new tenant.
		tenant, err := models.NewTenant(domain.NewTenantID(), taxID, "Nuevo SA", time.Now())
		require.NoError(t, err)
		require.NoError(t, cached.CreateIfTaxIDAvailable(ctx, tenant))

		found, err := cached.FindByTaxID(ctx, taxID)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, found.ID)
	})
}
