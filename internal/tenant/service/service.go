package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"veridoc/internal/ledger"
	"veridoc/internal/tenant/metrics"
	"veridoc/internal/tenant/models"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/requestcontext"
)

// TenantStore is the persistence contract the service depends on.
type TenantStore interface {
	CreateIfTaxIDAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, id domain.TenantID) (*models.Tenant, error)
	FindByTaxID(ctx context.Context, taxID domain.TaxID) (*models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
	UpdateStatus(ctx context.Context, tenant *models.Tenant) error
}

// Recorder is the ledger port. Defined here to keep the dependency direction
// pointing at the ledger's types without importing its constructors.
type Recorder interface {
	Append(ctx context.Context, event ledger.Event) (ledger.Receipt, error)
}

// Transactor spans a tenant mutation and its ledger event so both commit or
// neither does. SQL-backed deployments pass tx.Runner; stores that consult
// the threaded transaction then share it.
type Transactor interface {
	InTx(ctx context.Context, fn func(context.Context) error) error
}

// Service orchestrates tenant registration and lifecycle. Every mutation it
// performs is recorded in the audit ledger; there is deliberately no
// operation that changes a tenant's tax id (see models.Tenant invariants).
type Service struct {
	store    TenantStore
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	txr      Transactor
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithTransactor makes every mutation and its ledger event commit in one
// transaction.
func WithTransactor(t Transactor) Option {
	return func(s *Service) { s.txr = t }
}

func New(store TenantStore, recorder Recorder, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{store: store, recorder: recorder, logger: logger, metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inTx runs fn under the configured transactor; without one, fn runs on the
// caller's context directly.
func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.txr == nil {
		return fn(ctx)
	}
	return s.txr.InTx(ctx, fn)
}

// Register creates a tenant under a canonical tax id.
//
// Errors: CodeConflict when the tax id is already registered;
// CodeInvariantViolation for invalid names.
func (s *Service) Register(ctx context.Context, taxID domain.TaxID, name string) (*models.Tenant, error) {
	tenant, err := models.NewTenant(domain.NewTenantID(), taxID, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.store.CreateIfTaxIDAvailable(txCtx, tenant); err != nil {
			return err
		}
		s.record(txCtx, ledger.Event{
			Actor:          requestcontext.Actor(ctx),
			FinalTenantID:  tenant.ID,
			DetectedTaxID:  tenant.TaxID,
			Action:         ledger.ActionCreate,
			Process:        "tenants/registrar",
			Outcome:        ledger.OutcomeSuccess,
			Reason:         "tenant registered",
			PayloadSummary: fmt.Sprintf("tenant %q under %s", tenant.Name, tenant.TaxID),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a tenant is already registered under this tax id")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not register tenant", err)
	}

	s.metrics.IncRegistered()
	return tenant, nil
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id domain.TenantID) (*models.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load tenant", err)
	}
	return tenant, nil
}

// FindByTaxID resolves a tenant from a canonical tax id. The trust router
// consumes this through its own lookup port.
func (s *Service) FindByTaxID(ctx context.Context, taxID domain.TaxID) (*models.Tenant, error) {
	return s.store.FindByTaxID(ctx, taxID)
}

// List returns all registered tenants.
func (s *Service) List(ctx context.Context) ([]models.Tenant, error) {
	tenants, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not list tenants", err)
	}
	return tenants, nil
}

// Deactivate suspends routing for a tenant. Its ledger history is untouched.
func (s *Service) Deactivate(ctx context.Context, id domain.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, id, "tenants/desactivar", func(t *models.Tenant) error {
		return t.Deactivate(requestcontext.Now(ctx))
	})
}

// Reactivate restores routing for a suspended tenant.
func (s *Service) Reactivate(ctx context.Context, id domain.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, id, "tenants/reactivar", func(t *models.Tenant) error {
		return t.Reactivate(requestcontext.Now(ctx))
	})
}

func (s *Service) transition(ctx context.Context, id domain.TenantID, process string, apply func(*models.Tenant) error) (*models.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(tenant); err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.store.UpdateStatus(txCtx, tenant); err != nil {
			return err
		}
		s.record(txCtx, ledger.Event{
			Actor:          requestcontext.Actor(ctx),
			FinalTenantID:  tenant.ID,
			DetectedTaxID:  tenant.TaxID,
			Action:         ledger.ActionUpdate,
			Process:        process,
			Outcome:        ledger.OutcomeSuccess,
			Reason:         fmt.Sprintf("tenant status set to %s", tenant.Status),
			PayloadSummary: fmt.Sprintf("tenant %q", tenant.Name),
		})
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not update tenant", err)
	}
	return tenant, nil
}

func (s *Service) record(ctx context.Context, event ledger.Event) {
	if _, err := s.recorder.Append(ctx, event); err != nil {
		// Append only errors on malformed events, which is a bug here.
		s.logger.ErrorContext(ctx, "tenant mutation produced an invalid ledger event",
			"process", event.Process,
			"error", err,
		)
	}
}
