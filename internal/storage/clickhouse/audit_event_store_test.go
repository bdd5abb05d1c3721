package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

func TestAuditEventStoreInsertAndGetRecent(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAuditEventStore(conn)

	require.NoError(t, store.Insert(ctx, &domain.AuditEvent{
		Kind:       domain.AuditReconcilePruned,
		PoolID:     "pool-1",
		Subject:    "ledger-pool-1",
		Detail:     "absent on chain",
		ObservedAt: 100,
	}))
	require.NoError(t, store.Insert(ctx, &domain.AuditEvent{
		Kind:       domain.AuditReconcileVerified,
		PoolID:     "pool-2",
		ObservedAt: 200,
	}))

	events, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.AuditReconcileVerified, events[0].Kind)
	require.Equal(t, int64(200), events[0].ObservedAt)
	require.Equal(t, "absent on chain", events[1].Detail)

	require.ErrorIs(t, store.Insert(ctx, &domain.AuditEvent{PoolID: "pool-3"}), storage.ErrInvalidInput)
}

func TestAuditEventStoreInsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAuditEventStore(conn)

	var batch []*domain.AuditEvent
	for i := int64(1); i <= 50; i++ {
		batch = append(batch, &domain.AuditEvent{
			Kind:       domain.AuditReconcileVerified,
			PoolID:     "pool-1",
			ObservedAt: i * 10,
		})
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	// Empty batch is a no-op.
	require.NoError(t, store.InsertBulk(ctx, nil))

	events, err := store.GetRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, events, 5)
	require.Equal(t, int64(500), events[0].ObservedAt)
	require.Equal(t, int64(460), events[4].ObservedAt)
}

func TestAuditEventStoreGetRecentDefaultLimit(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAuditEventStore(conn)

	var batch []*domain.AuditEvent
	for i := int64(1); i <= 120; i++ {
		batch = append(batch, &domain.AuditEvent{
			Kind:       domain.AuditDecodeFallback,
			Subject:    "asset-1",
			ObservedAt: i,
		})
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	events, err := store.GetRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 100)
}
