package domain

// Dividend is one distribution event for a pool. Append-only.
// Corresponds to the dividends table in PostgreSQL.
type Dividend struct {
	PoolID        string  // FK to pools
	Amount        float64 // total distributed amount
	PerToken      float64 // amount per pool token
	DistributedAt int64   // distribution timestamp (ms)
	LedgerTxSig   string  // ledger transaction reference
}
