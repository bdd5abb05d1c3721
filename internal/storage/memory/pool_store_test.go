package memory

import (
	"context"
	"errors"
	"testing"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

func testPool(poolID string, createdAt int64, assets ...domain.AssetBinding) *domain.PoolRecord {
	return &domain.PoolRecord{
		PoolID:          poolID,
		Name:            "pool " + poolID,
		Assets:          assets,
		Status:          domain.PoolStatusActive,
		LedgerReference: "sig-" + poolID,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestPoolStoreInsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	p := testPool("pool-1", 100, domain.AssetBinding{AssetID: "asset-1", Value: 1000, Percentage: 100})
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.GetByID(ctx, "pool-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "pool pool-1" || len(got.Assets) != 1 {
		t.Errorf("unexpected record: %+v", got)
	}

	// Returned record is a copy; mutating it must not affect the store.
	got.Assets[0].AssetID = "mutated"
	again, _ := store.GetByID(ctx, "pool-1")
	if again.Assets[0].AssetID != "asset-1" {
		t.Error("store state was mutated through a returned copy")
	}
}

func TestPoolStoreInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	if err := store.Insert(ctx, testPool("pool-1", 100)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, testPool("pool-1", 200)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got: %v", err)
	}
}

func TestPoolStoreRejectsMissingLedgerReference(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	p := testPool("pool-1", 100)
	p.LedgerReference = ""
	if err := store.Insert(ctx, p); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestPoolStoreGetNotFound(t *testing.T) {
	store := NewPoolStore()
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestPoolStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	if err := store.Update(ctx, testPool("pool-1", 100)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for update of missing pool, got: %v", err)
	}

	if err := store.Insert(ctx, testPool("pool-1", 100)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated := testPool("pool-1", 100)
	updated.Status = domain.PoolStatusClosed
	if err := store.Update(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.GetByID(ctx, "pool-1")
	if got.Status != domain.PoolStatusClosed {
		t.Errorf("expected CLOSED, got %s", got.Status)
	}
}

func TestPoolStoreDeleteBatchSkipsMissing(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	store.Insert(ctx, testPool("pool-1", 100))
	store.Insert(ctx, testPool("pool-2", 200))

	if err := store.DeleteBatch(ctx, []string{"pool-1", "no-such-pool"}); err != nil {
		t.Fatalf("delete batch: %v", err)
	}

	pools, _ := store.List(ctx)
	if len(pools) != 1 || pools[0].PoolID != "pool-2" {
		t.Errorf("expected only pool-2 to remain, got %v", pools)
	}
}

func TestPoolStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	store.Insert(ctx, testPool("pool-b", 200))
	store.Insert(ctx, testPool("pool-a", 100))
	store.Insert(ctx, testPool("pool-c", 100))

	pools, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{"pool-a", "pool-c", "pool-b"} // created_at, then pool_id
	for i, p := range pools {
		if p.PoolID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], p.PoolID)
		}
	}
}

func TestPoolStoreGetByAsset(t *testing.T) {
	ctx := context.Background()
	store := NewPoolStore()

	store.Insert(ctx, testPool("pool-1", 100,
		domain.AssetBinding{AssetID: "asset-x", Value: 500, Percentage: 100}))
	store.Insert(ctx, testPool("pool-2", 200,
		domain.AssetBinding{AssetID: "asset-x", Value: 300, Percentage: 60},
		domain.AssetBinding{AssetID: "asset-y", Value: 200, Percentage: 40}))
	store.Insert(ctx, testPool("pool-3", 300,
		domain.AssetBinding{AssetID: "asset-y", Value: 100, Percentage: 100}))

	pools, err := store.GetByAsset(ctx, "asset-x")
	if err != nil {
		t.Fatalf("get by asset: %v", err)
	}
	if len(pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(pools))
	}
	if pools[0].PoolID != "pool-1" || pools[1].PoolID != "pool-2" {
		t.Errorf("unexpected pools: %s, %s", pools[0].PoolID, pools[1].PoolID)
	}
}
