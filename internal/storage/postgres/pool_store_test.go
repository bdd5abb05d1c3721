package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

func testPool(poolID string, createdAt int64, assets ...domain.AssetBinding) *domain.PoolRecord {
	return &domain.PoolRecord{
		PoolID:          poolID,
		Name:            "pool " + poolID,
		Description:     "test pool",
		Assets:          assets,
		TotalValue:      10_000,
		TokenSupply:     1_000,
		TokenPrice:      10,
		Status:          domain.PoolStatusActive,
		LedgerReference: "sig-" + poolID,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestPoolStoreRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStore(pool)

	p := testPool("pool-1", 100,
		domain.AssetBinding{AssetID: "asset-1", Name: "A", Value: 6_000, Percentage: 60},
		domain.AssetBinding{AssetID: "asset-2", Name: "B", Value: 4_000, Percentage: 40},
	)
	require.NoError(t, store.Insert(ctx, p))

	got, err := store.GetByID(ctx, "pool-1")
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Equal(t, p.LedgerReference, got.LedgerReference)
	require.Len(t, got.Assets, 2)
	require.Equal(t, "asset-1", got.Assets[0].AssetID)
	require.Equal(t, 60.0, got.Assets[0].Percentage)

	// Duplicate insert maps the unique violation.
	require.ErrorIs(t, store.Insert(ctx, p), storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPoolStoreUpdateReplacesBindings(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStore(pool)

	p := testPool("pool-1", 100,
		domain.AssetBinding{AssetID: "asset-1", Value: 10_000, Percentage: 100})
	require.NoError(t, store.Insert(ctx, p))

	p.Status = domain.PoolStatusClosed
	p.Assets = []domain.AssetBinding{
		{AssetID: "asset-2", Value: 10_000, Percentage: 100},
	}
	require.NoError(t, store.Update(ctx, p))

	got, err := store.GetByID(ctx, "pool-1")
	require.NoError(t, err)
	require.Equal(t, domain.PoolStatusClosed, got.Status)
	require.Len(t, got.Assets, 1)
	require.Equal(t, "asset-2", got.Assets[0].AssetID)

	require.ErrorIs(t, store.Update(ctx, testPool("missing", 1)), storage.ErrNotFound)
}

func TestPoolStoreDeleteBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStore(pool)

	require.NoError(t, store.Insert(ctx, testPool("pool-1", 100)))
	require.NoError(t, store.Insert(ctx, testPool("pool-2", 200)))
	require.NoError(t, store.Insert(ctx, testPool("pool-3", 300)))

	// Missing IDs are skipped silently.
	require.NoError(t, store.DeleteBatch(ctx, []string{"pool-1", "pool-3", "no-such"}))

	remaining, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "pool-2", remaining[0].PoolID)
}

func TestPoolStoreGetByAsset(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStore(pool)

	require.NoError(t, store.Insert(ctx, testPool("pool-1", 100,
		domain.AssetBinding{AssetID: "asset-x", Value: 10_000, Percentage: 100})))
	require.NoError(t, store.Insert(ctx, testPool("pool-2", 200,
		domain.AssetBinding{AssetID: "asset-y", Value: 10_000, Percentage: 100})))

	pools, err := store.GetByAsset(ctx, "asset-x")
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.Equal(t, "pool-1", pools[0].PoolID)
	require.Len(t, pools[0].Assets, 1)
}

func TestPoolStoreListWithLedgerReference(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStore(pool)

	require.NoError(t, store.Insert(ctx, testPool("pool-b", 200)))
	require.NoError(t, store.Insert(ctx, testPool("pool-a", 100)))

	listed, err := store.ListWithLedgerReference(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// created_at ordering
	require.Equal(t, "pool-a", listed[0].PoolID)
	require.Equal(t, "pool-b", listed[1].PoolID)
}
