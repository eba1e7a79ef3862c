package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
)

// Backend is the subset of the tenant store the cache decorates.
type Backend interface {
	CreateIfTaxIDAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, id domain.TenantID) (*models.Tenant, error)
	FindByTaxID(ctx context.Context, taxID domain.TaxID) (*models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
	UpdateStatus(ctx context.Context, tenant *models.Tenant) error
}

// Cached fronts a tenant store with a redis read-through cache on the
// by-tax-id lookup, which sits on the trust router's hot path (every upload
// triggers one).
//
// Cache misses and redis failures fall through to the backend: the cache can
// only ever make lookups faster, never change their answer. Negative results
// are not cached — a just-registered tenant must be routable immediately.
type Cached struct {
	backend Backend
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCached wraps the backend. A nil client disables caching entirely.
func NewCached(backend Backend, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{backend: backend, client: client, ttl: ttl, logger: logger}
}

func lookupKey(taxID domain.TaxID) string {
	return "tenant:taxid:" + taxID.String()
}

func (c *Cached) FindByTaxID(ctx context.Context, taxID domain.TaxID) (*models.Tenant, error) {
	if c.client == nil {
		return c.backend.FindByTaxID(ctx, taxID)
	}

	cached, err := c.client.Get(ctx, lookupKey(taxID)).Bytes()
	if err == nil {
		var tenant models.Tenant
		if err := json.Unmarshal(cached, &tenant); err == nil {
			return &tenant, nil
		}
		// Corrupt entry: drop it and fall through to the backend.
		c.client.Del(ctx, lookupKey(taxID))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "tenant lookup cache unavailable, falling through",
			"error", err,
		)
	}

	tenant, err := c.backend.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(tenant); err == nil {
		if err := c.client.Set(ctx, lookupKey(taxID), payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "tenant lookup cache write failed",
				"error", err,
			)
		}
	}
	return tenant, nil
}

func (c *Cached) CreateIfTaxIDAvailable(ctx context.Context, tenant *models.Tenant) error {
	return c.backend.CreateIfTaxIDAvailable(ctx, tenant)
}

func (c *Cached) FindByID(ctx context.Context, id domain.TenantID) (*models.Tenant, error) {
	return c.backend.FindByID(ctx, id)
}

func (c *Cached) List(ctx context.Context) ([]models.Tenant, error) {
	return c.backend.List(ctx)
}

// UpdateStatus invalidates the cached lookup so a deactivation takes effect
// on the next upload, not after TTL expiry.
func (c *Cached) UpdateStatus(ctx context.Context, tenant *models.Tenant) error {
	if err := c.backend.UpdateStatus(ctx, tenant); err != nil {
		return err
	}
	if c.client != nil {
		if err := c.client.Del(ctx, lookupKey(tenant.TaxID)).Err(); err != nil {
			c.logger.WarnContext(ctx, "tenant lookup cache invalidation failed",
				"tenant_id", tenant.ID,
				"error", err,
			)
		}
	}
	return nil
}
