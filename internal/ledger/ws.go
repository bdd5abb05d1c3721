package ledger

import "context"

// EventSource is the subscription surface for on-chain pool activity.
type EventSource interface {
	// SubscribePoolEvents subscribes to log lines mentioning the given
	// program IDs. The returned channel closes when the source closes.
	SubscribePoolEvents(ctx context.Context, programIDs []string) (<-chan PoolEvent, error)

	// Close shuts the subscription connection down.
	Close() error
}

// PoolEvent is one observed on-chain event touching a pool.
type PoolEvent struct {
	Signature string
	Slot      int64
	// PoolID is the pool the event mentions, when the log line names one.
	PoolID string
	Logs   []string
}
