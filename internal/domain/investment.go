package domain

// Investment is an investor's position in a pool.
// Corresponds to the investments table in PostgreSQL. Created on first
// investment, accumulated on repeat investment and dividend distribution,
// never deleted (historical record).
type Investment struct {
	PoolID            string  // FK to pools
	InvestorAddress   string  // investor wallet address (base58)
	Amount            float64 // cumulative invested amount
	Tokens            float64 // cumulative pool tokens held
	TokenPrice        float64 // token price at last investment
	InvestedAt        int64   // last investment timestamp (ms)
	DividendsReceived float64 // cumulative dividends credited
	IsActive          bool    // false once the position is divested
}
