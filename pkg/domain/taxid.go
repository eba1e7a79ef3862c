package domain

import (
	"regexp"
	"strings"

	dErrors "veridoc/pkg/domain-errors"
)

// TaxID is the canonical fiscal identifier (RFC) of a legal entity: 3-4
// letters (moral vs. physical person), a 6-digit date, and a 3-character
// homoclave, 12-13 characters total. It is the sole basis for tenant
// attribution, so it is immutable once attached to a tenant.
//
// The zero value means "no tax id detected" and is a first-class result of
// fingerprint extraction, not an error.
type TaxID string

// taxIDPattern is the RFC grammar. Ñ and & are legal in the name segment.
var taxIDPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// ParseTaxID validates external input against the RFC grammar. Input is
// upper-cased and trimmed first so user-typed identifiers normalize to the
// canonical form.
func ParseTaxID(s string) (TaxID, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tax id cannot be empty")
	}
	if !taxIDPattern.MatchString(normalized) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tax id does not match the RFC grammar")
	}
	return TaxID(normalized), nil
}

// MatchTaxID reports whether s is a well-formed RFC without normalizing.
// Extractors use this on raw document tokens, where case is significant
// evidence and must not be repaired.
func MatchTaxID(s string) bool {
	return taxIDPattern.MatchString(s)
}

func (t TaxID) IsNil() bool    { return t == "" }
func (t TaxID) String() string { return string(t) }
