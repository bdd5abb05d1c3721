package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/ledger"
	"solana-pool-engine/internal/ledger/stub"
	"solana-pool-engine/internal/record"
	"solana-pool-engine/internal/storage/memory"
)

const testProgramID = "prog-test"

func indexed(poolID string) *domain.PoolRecord {
	return &domain.PoolRecord{
		PoolID:          poolID,
		Name:            poolID,
		Status:          domain.PoolStatusActive,
		LedgerReference: "sig-" + poolID,
	}
}

func TestVerifyAllClassification(t *testing.T) {
	led := stub.New(testProgramID)
	led.AddPool(testProgramID, "pool-live", &record.PoolAccount{ID: "pool-live"})
	led.PoolErrs[testProgramID+"/pool-flaky"] = &ledger.TransportError{
		Endpoint: "http://primary", Err: errors.New("timeout"),
	}
	led.PoolErrs[testProgramID+"/pool-corrupt"] = ledger.ErrNotFoundOrUndecodable

	audit := memory.NewAuditEventStore()
	r, err := New(Options{Ledger: led, ProgramID: testProgramID, Audit: audit})
	require.NoError(t, err)

	report := r.VerifyAll(context.Background(), []*domain.PoolRecord{
		indexed("pool-live"),
		indexed("pool-gone"),
		indexed("pool-flaky"),
		indexed("pool-corrupt"),
	})

	require.Equal(t, []string{"pool-live"}, report.Verified)
	require.Equal(t, []string{"pool-gone"}, report.Pruned)
	require.ElementsMatch(t, []string{"pool-flaky", "pool-corrupt"}, report.Ambiguous)

	events, err := audit.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 4)
}

func TestVerifyAllIdempotent(t *testing.T) {
	led := stub.New(testProgramID)
	led.AddPool(testProgramID, "pool-live", &record.PoolAccount{ID: "pool-live"})

	r, err := New(Options{Ledger: led, ProgramID: testProgramID})
	require.NoError(t, err)

	records := []*domain.PoolRecord{indexed("pool-live"), indexed("pool-gone")}

	first := r.VerifyAll(context.Background(), records)
	second := r.VerifyAll(context.Background(), records)

	require.Equal(t, first.Verified, second.Verified)
	require.Equal(t, first.Pruned, second.Pruned)
	require.Equal(t, first.Ambiguous, second.Ambiguous)
}

func TestVerifyAllHandsPrunedToPruner(t *testing.T) {
	led := stub.New(testProgramID)
	led.AddPool(testProgramID, "pool-live", &record.PoolAccount{ID: "pool-live"})

	pools := memory.NewPoolStore()
	ctx := context.Background()
	require.NoError(t, pools.Insert(ctx, &domain.PoolRecord{
		PoolID: "pool-live", Name: "live", LedgerReference: "sig-1",
		Status: domain.PoolStatusActive,
	}))
	require.NoError(t, pools.Insert(ctx, &domain.PoolRecord{
		PoolID: "pool-gone", Name: "gone", LedgerReference: "sig-2",
		Status: domain.PoolStatusActive,
	}))

	pruner := NewPruner(pools, nil)
	r, err := New(Options{Ledger: led, ProgramID: testProgramID, Pruner: pruner})
	require.NoError(t, err)

	records, err := pools.ListWithLedgerReference(ctx)
	require.NoError(t, err)

	report := r.VerifyAll(ctx, records)
	require.Equal(t, []string{"pool-gone"}, report.Pruned)

	// Close drains the queue, so the delete has happened by now.
	pruner.Close()

	remaining, err := pools.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "pool-live", remaining[0].PoolID)
}

func TestPrunerSurvivesStoreFailure(t *testing.T) {
	pools := memory.NewPoolStore()
	pruner := NewPruner(pools, nil)

	// Deleting IDs that do not exist is not an error; the worker must
	// keep running either way.
	pruner.Enqueue([]string{"no-such-pool"})
	pruner.Enqueue([]string{"another"})
	pruner.Close()
}

func TestPrunerEnqueueNeverBlocks(t *testing.T) {
	pools := memory.NewPoolStore()
	pruner := NewPruner(pools, nil)
	defer pruner.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			pruner.Enqueue([]string{"pool-x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue blocked")
	}
}

func TestPrunerEnqueueDuringClose(t *testing.T) {
	for i := 0; i < 200; i++ {
		pruner := NewPruner(memory.NewPoolStore(), nil)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 100; j++ {
				pruner.Enqueue([]string{"pool-x"})
			}
		}()

		// Close while the goroutine is still enqueuing. A late batch must
		// be dropped, never sent on the closed channel.
		pruner.Close()
		<-done

		pruner.Enqueue([]string{"pool-after-close"})
		pruner.Close()
	}
}
