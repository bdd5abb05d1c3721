// Package stub provides an in-memory ledger.Reader / ledger.Writer for
// testing components above the gateway.
package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-pool-engine/internal/ledger"
	"solana-pool-engine/internal/record"
)

// Ledger implements ledger.Reader and ledger.Writer from in-memory maps.
// Error maps force specific failures per identifier.
type Ledger struct {
	mu sync.Mutex

	Assets   map[string]*record.AssetRecord
	Pools    map[string]map[string]*record.PoolAccount // programID -> poolID
	Mappings map[string]string                         // assetID -> poolID

	AssetErrs   map[string]error // forced GetAsset failures
	PoolErrs    map[string]error // forced GetPool failures, key programID+"/"+poolID
	MappingErrs map[string]error // forced mapping failures
	CreateErr   error            // forced CreatePool failure
	BindErrs    map[string]error // forced BindAsset failures per assetID

	// NextPoolID is assigned to the next created pool.
	NextPoolID string

	CreateCalls int
	BindCalls   []string
	programID   string
}

// New creates an empty stub ledger for the given current program ID.
func New(programID string) *Ledger {
	return &Ledger{
		Assets:      make(map[string]*record.AssetRecord),
		Pools:       map[string]map[string]*record.PoolAccount{programID: {}},
		Mappings:    make(map[string]string),
		AssetErrs:   make(map[string]error),
		PoolErrs:    make(map[string]error),
		MappingErrs: make(map[string]error),
		BindErrs:    make(map[string]error),
		programID:   programID,
	}
}

// AddPool registers a pool account under a program deployment.
func (l *Ledger) AddPool(programID, poolID string, acct *record.PoolAccount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Pools[programID] == nil {
		l.Pools[programID] = make(map[string]*record.PoolAccount)
	}
	l.Pools[programID][poolID] = acct
}

func (l *Ledger) GetAsset(_ context.Context, assetID string) (*record.AssetRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.AssetErrs[assetID]; err != nil {
		return nil, err
	}
	rec, ok := l.Assets[assetID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return rec, nil
}

func (l *Ledger) GetPool(_ context.Context, programID, poolID string) (*record.PoolAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.PoolErrs[programID+"/"+poolID]; err != nil {
		return nil, err
	}
	acct, ok := l.Pools[programID][poolID]
	if !ok || !acct.Exists() {
		return nil, ledger.ErrNotFound
	}
	return acct, nil
}

func (l *Ledger) GetAssetPoolMapping(_ context.Context, assetID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.MappingErrs[assetID]; err != nil {
		return "", err
	}
	return l.Mappings[assetID], nil
}

func (l *Ledger) CreatePool(_ context.Context, _ ledger.PoolSpec, _ ledger.Signer) (*ledger.TxReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.CreateCalls++
	if l.CreateErr != nil {
		return nil, l.CreateErr
	}

	poolID := l.NextPoolID
	if poolID == "" {
		poolID = fmt.Sprintf("stub-pool-%d", l.CreateCalls)
	}
	if l.Pools[l.programID] == nil {
		l.Pools[l.programID] = make(map[string]*record.PoolAccount)
	}
	l.Pools[l.programID][poolID] = &record.PoolAccount{ID: poolID}

	return &ledger.TxReceipt{Signature: "sig-create-" + poolID, PoolID: poolID}, nil
}

func (l *Ledger) BindAsset(_ context.Context, poolID, assetID string, _ ledger.Signer) (*ledger.TxReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.BindCalls = append(l.BindCalls, assetID)
	if err := l.BindErrs[assetID]; err != nil {
		return nil, err
	}

	l.Mappings[assetID] = poolID
	if acct, ok := l.Pools[l.programID][poolID]; ok {
		acct.AssetCount++
	}
	return &ledger.TxReceipt{Signature: "sig-bind-" + assetID}, nil
}

var _ ledger.Reader = (*Ledger)(nil)
var _ ledger.Writer = (*Ledger)(nil)
