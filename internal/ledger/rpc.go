package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultCallTimeout = 10 * time.Second
)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Program revert reasons surface as RPC errors in the 7000 range; see the
// RevertCode constants. Pre-upgrade nodes use this generic code with the
// reason in the message.
const rpcCodeExecutionReverted = -32015

// isRevert reports whether the RPC error is a program revert rather than
// a node-side failure.
func (e *rpcError) isRevert() bool {
	return e.Code == rpcCodeExecutionReverted || (e.Code >= 7000 && e.Code < 8000)
}

// endpoint is one RPC node of the redundant set.
type endpoint struct {
	url       string
	client    *http.Client
	requestID atomic.Uint64
}

func newEndpoint(url string, callTimeout time.Duration) *endpoint {
	return &endpoint{
		url: url,
		// The per-call context deadline bounds the request; the client
		// timeout is only a backstop and must stay above it.
		client: &http.Client{Timeout: 2 * callTimeout},
	}
}

// call performs a single JSON-RPC call against this endpoint. No retries:
// the gateway's failover loop owns the retry decision.
func (e *endpoint) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      e.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		if rpcResp.Error.isRevert() {
			code := rpcResp.Error.Code
			if code == rpcCodeExecutionReverted {
				code = RevertCodeNone
			}
			return nil, &RevertError{Code: code, Reason: rpcResp.Error.Message}
		}
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}
