package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-pool-engine/internal/observability"
	"solana-pool-engine/internal/storage"
)

// DefaultPruneTimeout bounds one delete batch.
const DefaultPruneTimeout = 30 * time.Second

// Pruner deletes pruned pool IDs from the index asynchronously. Callers
// enqueue and move on; a slow or failing store never blocks the read path.
type Pruner struct {
	pools   storage.PoolStore
	logger  *zap.Logger
	timeout time.Duration

	batches chan []string
	wg      sync.WaitGroup

	// mu orders Enqueue against Close: the channel must never be sent to
	// after it is closed.
	mu     sync.Mutex
	closed bool
}

// NewPruner creates a Pruner and starts its worker.
func NewPruner(pools storage.PoolStore, logger *zap.Logger) *Pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pruner{
		pools:   pools,
		logger:  logger,
		timeout: DefaultPruneTimeout,
		batches: make(chan []string, 64),
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Enqueue hands a batch of pool IDs to the worker. Never blocks: when the
// queue is full or the pruner is already closed the batch is dropped and
// logged, and the next reconciliation run will re-derive it.
func (p *Pruner) Enqueue(poolIDs []string) {
	if len(poolIDs) == 0 {
		return
	}
	ids := make([]string, len(poolIDs))
	copy(ids, poolIDs)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("pruner closed, dropping batch",
			zap.Int("batch_size", len(ids)))
		return
	}

	select {
	case p.batches <- ids:
	default:
		p.logger.Warn("prune queue full, dropping batch",
			zap.Int("batch_size", len(ids)))
	}
}

// Close drains the queue and stops the worker. Safe to call twice, and safe
// against concurrent Enqueue calls, which are dropped once closing starts.
func (p *Pruner) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.batches)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// QueueDepth reports the number of batches waiting.
func (p *Pruner) QueueDepth() int { return len(p.batches) }

func (p *Pruner) worker() {
	defer p.wg.Done()

	for ids := range p.batches {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.pools.DeleteBatch(ctx, ids)
		cancel()

		if err != nil {
			// Deletion is best-effort; the entries stay until the next run.
			observability.DefaultMetrics.PruneBatchErrors.Inc()
			p.logger.Warn("prune batch failed",
				zap.Strings("pool_ids", ids),
				zap.Error(err))
			continue
		}
		p.logger.Info("pruned index entries",
			zap.Strings("pool_ids", ids))
	}
}
