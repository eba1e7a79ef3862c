package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
	txcontext "veridoc/pkg/platform/tx"
)

// Postgres persists tenants in the tenants table. A unique index on tax_id
// enforces the registration invariant under concurrent creation.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer returns the transaction threaded through ctx, if any, so a tenant
// mutation lands in the same transaction as its ledger event.
func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) CreateIfTaxIDAvailable(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, tax_id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(tenant.ID),
		tenant.TaxID.String(),
		tenant.Name,
		string(tenant.Status),
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("tax id already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.TenantID) (*models.Tenant, error) {
	query := `SELECT id, tax_id, name, status, created_at, updated_at FROM tenants WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *Postgres) FindByTaxID(ctx context.Context, taxID domain.TaxID) (*models.Tenant, error) {
	query := `SELECT id, tax_id, name, status, created_at, updated_at FROM tenants WHERE tax_id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, taxID.String()))
}

func (s *Postgres) List(ctx context.Context) ([]models.Tenant, error) {
	query := `SELECT id, tax_id, name, status, created_at, updated_at FROM tenants ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

// UpdateStatus persists a lifecycle transition. tax_id is not in the SET
// list by design; there is no code path that rewrites it.
func (s *Postgres) UpdateStatus(ctx context.Context, tenant *models.Tenant) error {
	query := `UPDATE tenants SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(tenant.ID),
		string(tenant.Status),
		tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanOne(row *sql.Row) (*models.Tenant, error) {
	tenant, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return tenant, nil
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		tenant models.Tenant
		id     uuid.UUID
		taxID  string
		status string
	)
	if err := row.Scan(&id, &taxID, &tenant.Name, &status, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
		return nil, err
	}
	tenant.ID = domain.TenantID(id)
	tenant.TaxID = domain.TaxID(taxID)
	tenant.Status = models.TenantStatus(status)
	return &tenant, nil
}
