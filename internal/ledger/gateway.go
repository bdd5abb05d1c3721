// Package ledger is the gateway to the on-chain pool program.
//
// Reads are attempted against an ordered list of redundant RPC endpoints,
// each attempt bounded by a per-call timeout. A transport failure moves to
// the next endpoint; so does a decode failure, because a single endpoint
// may serve corrupted data. If decoding failed everywhere the gateway
// reports ErrNotFoundOrUndecodable rather than a generic failure, so the
// caller can decide whether "not found" is acceptable. Writes go to the
// primary endpoint only and are never retried automatically.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"solana-pool-engine/internal/observability"
	"solana-pool-engine/internal/record"
)

// Reader is the read surface consumed by the validator and the reconciler.
type Reader interface {
	// GetAsset reads the asset registry record. Returns ErrNotFound when
	// the ledger attests the asset does not exist, ErrNotFoundOrUndecodable
	// when no endpoint produced a decodable record.
	GetAsset(ctx context.Context, assetID string) (*record.AssetRecord, error)

	// GetPool reads the pool registry record under the given program
	// deployment. Returns ErrNotFound for a well-formed negative answer.
	GetPool(ctx context.Context, programID, poolID string) (*record.PoolAccount, error)

	// GetAssetPoolMapping resolves the asset-to-pool mapping. An empty
	// string means the asset is mapped to no pool.
	GetAssetPoolMapping(ctx context.Context, assetID string) (string, error)
}

// Writer is the write surface consumed by the orchestrator.
type Writer interface {
	// CreatePool creates the pool record on the ledger. Never retried
	// automatically: a duplicate pool is worse than a failed request.
	CreatePool(ctx context.Context, spec PoolSpec, signer Signer) (*TxReceipt, error)

	// BindAsset binds one asset to an existing ledger pool. Safe to retry;
	// the program rejects a second binding with RevertCodeAlreadyPooled.
	BindAsset(ctx context.Context, poolID, assetID string, signer Signer) (*TxReceipt, error)
}

// PoolSpec carries the pool parameters for the on-chain create call.
type PoolSpec struct {
	Name              string  `json:"name"`
	TokenSupply       float64 `json:"tokenSupply"`
	TokenPrice        float64 `json:"tokenPrice"`
	MinimumInvestment float64 `json:"minimumInvestment"`
	ExpectedYieldRate float64 `json:"expectedYieldRate"`
	MaturityDate      int64   `json:"maturityDate"`
}

// TxReceipt is the outcome of a successful ledger write.
type TxReceipt struct {
	Signature string `json:"signature"`
	Slot      int64  `json:"slot"`
	PoolID    string `json:"poolId,omitempty"`
}

// Config configures the gateway. The program IDs are injected here, never
// read from ambient state.
type Config struct {
	// Endpoints is the ordered redundant endpoint list; the first entry is
	// the primary and the only one that receives writes.
	Endpoints []string
	// CallTimeout bounds each individual RPC attempt.
	CallTimeout time.Duration
	// ProgramID is the current pool program deployment.
	ProgramID string
	// HistoricalProgramIDs are retired deployments, newest first. Asset
	// mappings may still point into them.
	HistoricalProgramIDs []string
}

// Gateway implements Reader and Writer over JSON-RPC endpoints.
type Gateway struct {
	endpoints   []*endpoint
	callTimeout time.Duration
	programID   string
	historical  []string
	logger      *zap.Logger
}

// New creates a gateway. At least one endpoint is required.
func New(cfg Config, logger *zap.Logger) (*Gateway, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("ledger: no endpoints configured")
	}
	if err := ValidateIdentifier(cfg.ProgramID); err != nil {
		return nil, err
	}
	for _, id := range cfg.HistoricalProgramIDs {
		if err := ValidateIdentifier(id); err != nil {
			return nil, err
		}
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	eps := make([]*endpoint, len(cfg.Endpoints))
	for i, url := range cfg.Endpoints {
		eps[i] = newEndpoint(url, timeout)
	}

	return &Gateway{
		endpoints:   eps,
		callTimeout: timeout,
		programID:   cfg.ProgramID,
		historical:  cfg.HistoricalProgramIDs,
		logger:      logger,
	}, nil
}

// ProgramID returns the current program deployment.
func (g *Gateway) ProgramID() string { return g.programID }

// HistoricalProgramIDs returns the retired deployments, newest first.
func (g *Gateway) HistoricalProgramIDs() []string { return g.historical }

var _ Reader = (*Gateway)(nil)
var _ Writer = (*Gateway)(nil)

// read walks the endpoint list until decode succeeds. decode errors and
// transport errors both move on; they are distinguished only once every
// endpoint has been tried.
func (g *Gateway) read(ctx context.Context, method string, params []interface{}, decode func(json.RawMessage) error) error {
	var lastTransport *TransportError
	sawDecodeFailure := false

	for _, ep := range g.endpoints {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		start := time.Now()
		result, err := ep.call(callCtx, method, params)
		cancel()
		callKind := ""
		if err != nil {
			callKind = "transport"
		}
		observability.RecordLedgerCall(method, time.Since(start).Seconds(), callKind)

		if err != nil {
			lastTransport = &TransportError{Endpoint: ep.url, Err: err}
			observability.DefaultMetrics.EndpointFailovers.Inc()
			g.logger.Warn("ledger read failed, trying next endpoint",
				zap.String("method", method),
				zap.String("endpoint", ep.url),
				zap.Error(err))
			continue
		}

		// A null result is the node's explicit "no such record".
		if len(result) == 0 || string(result) == "null" {
			return ErrNotFound
		}

		// The closure only decodes, so any error here means this endpoint
		// served a record we cannot interpret. Another endpoint may still
		// hold a clean copy.
		if err := decode(result); err != nil {
			sawDecodeFailure = true
			var decErr *record.DecodeError
			if errors.As(err, &decErr) {
				observability.RecordDecodeFailure(decErr.Field)
			}
			observability.DefaultMetrics.EndpointFailovers.Inc()
			g.logger.Warn("undecodable record from endpoint",
				zap.String("method", method),
				zap.String("endpoint", ep.url),
				zap.Error(err))
			continue
		}
		return nil
	}

	if sawDecodeFailure {
		return ErrNotFoundOrUndecodable
	}
	if lastTransport != nil {
		return lastTransport
	}
	return ErrNotFoundOrUndecodable
}

var errMalformedRecord = errors.New("malformed ledger record")

// GetAsset reads and decodes the asset registry record.
func (g *Gateway) GetAsset(ctx context.Context, assetID string) (*record.AssetRecord, error) {
	if err := ValidateIdentifier(assetID); err != nil {
		return nil, err
	}

	var rec *record.AssetRecord
	err := g.read(ctx, "getAssetRecord", []interface{}{assetID, g.programID}, func(raw json.RawMessage) error {
		decoded, err := record.DecodeAssetRecord(raw)
		if err != nil {
			return err
		}
		rec = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	for field, source := range rec.Sources {
		observability.RecordDecodeSource(field, string(source))
	}
	if fallbacks := record.FallbackSources(rec.Sources); len(fallbacks) > 0 {
		g.logger.Info("asset record decoded via fallback",
			zap.String("asset_id", assetID),
			zap.Any("sources", fallbacks))
	}

	if rec.ID == "" || rec.ID == record.ZeroIdentifier {
		return nil, ErrNotFound
	}
	return rec, nil
}

// GetPool reads and decodes the pool registry record under programID.
func (g *Gateway) GetPool(ctx context.Context, programID, poolID string) (*record.PoolAccount, error) {
	var acct *record.PoolAccount
	err := g.read(ctx, "getPoolRecord", []interface{}{poolID, programID}, func(raw json.RawMessage) error {
		decoded, err := record.DecodePoolAccount(raw)
		if err != nil {
			return err
		}
		acct = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !acct.Exists() {
		return nil, ErrNotFound
	}
	for field, source := range acct.Sources {
		observability.RecordDecodeSource(field, string(source))
	}
	return acct, nil
}

// GetAssetPoolMapping resolves the asset's pool mapping on the current
// program. Empty string means no mapping.
func (g *Gateway) GetAssetPoolMapping(ctx context.Context, assetID string) (string, error) {
	var poolID string
	err := g.read(ctx, "getAssetPoolMapping", []interface{}{assetID, g.programID}, func(raw json.RawMessage) error {
		decoded, err := record.DecodeMapping(raw)
		if err != nil {
			return err
		}
		poolID = decoded
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		// No mapping entry at all is the same answer as a zeroed one.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return poolID, nil
}

// write issues one attempt against the primary endpoint.
func (g *Gateway) write(ctx context.Context, method string, params []interface{}) (*TxReceipt, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	result, err := g.endpoints[0].call(callCtx, method, params)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		var revert *RevertError
		if errors.As(err, &revert) {
			observability.RecordLedgerCall(method, elapsed, "revert")
			observability.DefaultMetrics.LedgerWritesTotal.WithLabelValues(method, "revert").Inc()
			return nil, revert
		}
		observability.RecordLedgerCall(method, elapsed, "transport")
		observability.DefaultMetrics.LedgerWritesTotal.WithLabelValues(method, "transport").Inc()
		return nil, &TransportError{Endpoint: g.endpoints[0].url, Err: err}
	}
	observability.RecordLedgerCall(method, elapsed, "")

	var receipt TxReceipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		observability.DefaultMetrics.LedgerWritesTotal.WithLabelValues(method, "malformed").Inc()
		return nil, errMalformedRecord
	}
	if receipt.Signature == "" {
		observability.DefaultMetrics.LedgerWritesTotal.WithLabelValues(method, "malformed").Inc()
		return nil, errMalformedRecord
	}
	observability.DefaultMetrics.LedgerWritesTotal.WithLabelValues(method, "ok").Inc()
	return &receipt, nil
}

// CreatePool creates the pool record on the ledger.
func (g *Gateway) CreatePool(ctx context.Context, spec PoolSpec, signer Signer) (*TxReceipt, error) {
	if err := signer.Validate(); err != nil {
		return nil, err
	}

	receipt, err := g.write(ctx, "createPool", []interface{}{spec, signer.PublicKey, g.programID})
	if err != nil {
		return nil, err
	}
	if receipt.PoolID == "" {
		return nil, errMalformedRecord
	}

	g.logger.Info("ledger pool created",
		zap.String("pool_id", receipt.PoolID),
		zap.String("signature", receipt.Signature))
	return receipt, nil
}

// BindAsset binds one asset to a ledger pool.
func (g *Gateway) BindAsset(ctx context.Context, poolID, assetID string, signer Signer) (*TxReceipt, error) {
	if err := signer.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(assetID); err != nil {
		return nil, err
	}

	return g.write(ctx, "bindAssetToPool", []interface{}{poolID, assetID, signer.PublicKey, g.programID})
}
