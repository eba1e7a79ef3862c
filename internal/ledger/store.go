package ledger

import (
	"context"

	"veridoc/pkg/domain"
)

// Store is the insert-only persistence contract for ledger events.
//
// Implementations must reject anything but inserts and review-flag updates;
// where the storage technology allows it, the same constraint is declared at
// the schema level too (see migrations/0001_ledger.sql for the postgres
// trigger), so a raw UPDATE or DELETE outside this code path fails as well.
type Store interface {
	// Insert persists a fully normalized, hashed event. Duplicate ids are a
	// sentinel.ErrConflict.
	Insert(ctx context.Context, event Event) error

	// FindByID returns the stored event or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id domain.EventID) (Event, error)

	// List returns events matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Event, error)

	// SetReviewed updates the review pair — the only mutable fields — and
	// nothing else.
	SetReviewed(ctx context.Context, id domain.EventID, reviewedBy string) error
}

// Filter narrows ledger queries. Zero values mean "no constraint".
type Filter struct {
	TenantID domain.TenantID
	// AttentionPending selects events flagged for attention and not yet
	// reviewed — the operator queue that RELOCATE corrections feed.
	AttentionPending bool
	Limit            int
}
