package domain

import (
	"github.com/google/uuid"

	dErrors "veridoc/pkg/domain-errors"
)

// Typed IDs prevent accidental cross-assignment between aggregates. Construct
// via ParseX at trust boundaries; direct casting bypasses validation.

// TenantID identifies one registered legal entity.
type TenantID uuid.UUID

// EventID identifies one append-only ledger entry.
type EventID uuid.UUID

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseTenantID validates and returns a TenantID from external input.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseEventID validates and returns an EventID from external input.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// NewTenantID returns a fresh random TenantID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewEventID returns a fresh random EventID.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id TenantID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) String() string { return uuid.UUID(id).String() }

func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EventID) String() string { return uuid.UUID(id).String() }

// Text marshaling so ids serialize as canonical UUID strings in JSON payloads
// and the ledger's fallback JSONL, not as raw byte arrays.

func (id TenantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = TenantID(u)
	return nil
}

func (id EventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EventID(u)
	return nil
}
