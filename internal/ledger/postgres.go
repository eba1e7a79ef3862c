package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
	txcontext "veridoc/pkg/platform/tx"
)

// PostgresStore persists ledger events in the ledger_events table.
//
// The table is insert-only by schema contract: migrations install a trigger
// that raises on UPDATE (except the review columns) and on DELETE, so even a
// raw SQL session cannot bypass the immutability guarantee this store
// enforces in code.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, event Event) error {
	query := `
		INSERT INTO ledger_events (
			id, timestamp, actor,
			requested_tenant_id, detected_tax_id, final_tenant_id,
			action, process, outcome, severity, reason, payload_summary,
			requires_attention, unreliable_origin, reviewed, reviewed_by, hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.Timestamp,
		event.Actor,
		nullableTenant(event.RequestedTenantID),
		nullableString(event.DetectedTaxID.String()),
		nullableTenant(event.FinalTenantID),
		string(event.Action),
		event.Process,
		string(event.Outcome),
		string(event.Severity),
		event.Reason,
		event.PayloadSummary,
		event.RequiresAttention,
		event.UnreliableOrigin,
		event.Reviewed,
		event.ReviewedBy,
		event.Hash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("insert ledger event: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

const eventColumns = `
	id, timestamp, actor,
	requested_tenant_id, detected_tax_id, final_tenant_id,
	action, process, outcome, severity, reason, payload_summary,
	requires_attention, unreliable_origin, reviewed, reviewed_by, hash
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EventID) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(id))
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("find ledger event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE TRUE`
	var args []any
	if !filter.TenantID.IsNil() {
		args = append(args, uuid.UUID(filter.TenantID))
		query += fmt.Sprintf(" AND final_tenant_id = $%d", len(args))
	}
	if filter.AttentionPending {
		query += " AND requires_attention AND NOT reviewed"
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}

// SetReviewed touches only the review pair. The schema trigger permits
// exactly this update shape; anything wider raises.
func (s *PostgresStore) SetReviewed(ctx context.Context, id domain.EventID, reviewedBy string) error {
	query := `UPDATE ledger_events SET reviewed = TRUE, reviewed_by = $2 WHERE id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(id), reviewedBy)
	if err != nil {
		return fmt.Errorf("mark ledger event reviewed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark ledger event reviewed: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var (
		event     Event
		eventID   uuid.UUID
		requested *uuid.UUID
		detected  sql.NullString
		final     *uuid.UUID
		action    string
		outcome   string
		severity  string
	)
	err := row.Scan(
		&eventID,
		&event.Timestamp,
		&event.Actor,
		&requested,
		&detected,
		&final,
		&action,
		&event.Process,
		&outcome,
		&severity,
		&event.Reason,
		&event.PayloadSummary,
		&event.RequiresAttention,
		&event.UnreliableOrigin,
		&event.Reviewed,
		&event.ReviewedBy,
		&event.Hash,
	)
	if err != nil {
		return Event{}, err
	}
	event.ID = domain.EventID(eventID)
	if requested != nil {
		event.RequestedTenantID = domain.TenantID(*requested)
	}
	if detected.Valid {
		event.DetectedTaxID = domain.TaxID(detected.String)
	}
	if final != nil {
		event.FinalTenantID = domain.TenantID(*final)
	}
	event.Action = Action(action)
	event.Outcome = Outcome(outcome)
	event.Severity = Severity(severity)
	event.Timestamp = event.Timestamp.UTC()
	return event, nil
}

func nullableTenant(id domain.TenantID) *uuid.UUID {
	if id.IsNil() {
		return nil
	}
	u := uuid.UUID(id)
	return &u
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
