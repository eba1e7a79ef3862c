package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veridoc/pkg/domain-errors"
)

// TestParseTenantID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseTenantID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseTenantID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseTenantID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseTenantID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseTenantID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, TenantID(validUUID), id)
	})
}

func TestParseTaxID(t *testing.T) {
	t.Run("accepts 12 character moral person RFC", func(t *testing.T) {
		id, err := ParseTaxID("ACM010101AAA")
		require.NoError(t, err)
		assert.Equal(t, TaxID("ACM010101AAA"), id)
	})

	t.Run("accepts 13 character physical person RFC", func(t *testing.T) {
		id, err := ParseTaxID("GOMC850101AB1")
		require.NoError(t, err)
		assert.Equal(t, TaxID("GOMC850101AB1"), id)
	})

	t.Run("accepts Ñ and ampersand in the name segment", func(t *testing.T) {
		_, err := ParseTaxID("Ñ&A010101AA1")
		require.NoError(t, err)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		id, err := ParseTaxID("  acm010101aaa ")
		require.NoError(t, err)
		assert.Equal(t, TaxID("ACM010101AAA"), id)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseTaxID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, bad := range []string{"AC010101AAA", "ACMEX010101AAA", "ACM01AAA"} {
			_, err := ParseTaxID(bad)
			require.Error(t, err, "expected rejection for %q", bad)
		}
	})

	t.Run("rejects letters in the date segment", func(t *testing.T) {
		_, err := ParseTaxID("ACM01X101AAA")
		require.Error(t, err)
	})
}

func TestParseDocumentFormat(t *testing.T) {
	t.Run("accepts supported formats", func(t *testing.T) {
		for _, s := range []string{"xml", "pdf", "xlsx"} {
			f, err := ParseDocumentFormat(s)
			require.NoError(t, err)
			assert.True(t, f.IsValid())
		}
	})

	t.Run("rejects unknown format instead of falling through", func(t *testing.T) {
		_, err := ParseDocumentFormat("docx")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects empty format", func(t *testing.T) {
		_, err := ParseDocumentFormat("")
		require.Error(t, err)
	})
}
