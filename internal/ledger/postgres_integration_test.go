//go:build integration

package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/testutil/containers"
)

func TestPostgresStoreIntegration(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store := NewPostgres(pg.DB)
	l, err := New(Config{Salt: "integration-salt"}, store, logger)
	require.NoError(t, err)

	newEvent := func(action Action) Event {
		return Event{
			Action:        action,
			Process:       "cfdi/importar-xml",
			FinalTenantID: domain.NewTenantID(),
		}
	}

	t.Run("append and verify round trip", func(t *testing.T) {
		receipt, err := l.Append(ctx, newEvent(ActionAllow))
		require.NoError(t, err)
		require.True(t, receipt.Persisted)
		require.False(t, receipt.FellBack)

		result, err := l.Verify(ctx, receipt.EventID)
		require.NoError(t, err)
		assert.True(t, result.Intact, "timestamptz round trip must not break the commitment")
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		event := Event{
			ID:        domain.NewEventID(),
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
			Actor:     ActorSystem,
			Action:    ActionAccess,
			Process:   "cfdi/importar-xml",
			Outcome:   OutcomeSuccess,
			Severity:  SeverityInfo,
			Hash:      "sha256:0000",
		}
		require.NoError(t, store.Insert(ctx, event))

		err := store.Insert(ctx, event)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("schema blocks update of frozen fields", func(t *testing.T) {
		receipt, err := l.Append(ctx, newEvent(ActionReject))
		require.NoError(t, err)

		_, err = pg.DB.ExecContext(ctx,
			`UPDATE ledger_events SET outcome = 'SUCCESS' WHERE id = $1`,
			uuid.UUID(receipt.EventID))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "append-only")
	})

	t.Run("schema blocks delete", func(t *testing.T) {
		receipt, err := l.Append(ctx, newEvent(ActionRelocate))
		require.NoError(t, err)

		_, err = pg.DB.ExecContext(ctx,
			`DELETE FROM ledger_events WHERE id = $1`,
			uuid.UUID(receipt.EventID))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "append-only")
	})

	t.Run("review pair is the only mutable carve-out", func(t *testing.T) {
		receipt, err := l.Append(ctx, newEvent(ActionRelocate))
		require.NoError(t, err)

		require.NoError(t, l.MarkReviewed(ctx, receipt.EventID, "ops@despacho.mx"))

		reviewed, err := l.Find(ctx, receipt.EventID)
		require.NoError(t, err)
		assert.True(t, reviewed.Reviewed)
		assert.Equal(t, "ops@despacho.mx", reviewed.ReviewedBy)

		// The commitment excludes the review pair, so the row stays intact.
		assert.True(t, l.VerifyEvent(reviewed).Intact)
	})

	t.Run("filter by tenant and attention pending", func(t *testing.T) {
		pg.Truncate(t, "ledger_events")

		flagged := newEvent(ActionRelocate)
		flagged.RequiresAttention = true
		receipt, err := l.Append(ctx, flagged)
		require.NoError(t, err)
		_, err = l.Append(ctx, newEvent(ActionAllow))
		require.NoError(t, err)

		pending, err := l.List(ctx, Filter{AttentionPending: true})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, receipt.EventID, pending[0].ID)

		byTenant, err := l.List(ctx, Filter{TenantID: pending[0].FinalTenantID})
		require.NoError(t, err)
		require.Len(t, byTenant, 1)
	})
}
