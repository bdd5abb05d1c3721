package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-pool-engine/internal/observability"
)

// WSConfig configures the WebSocket event source.
type WSConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultWSConfig returns the default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSEventSource implements EventSource over a gorilla/websocket
// connection to a ledger node's log subscription endpoint.
type WSEventSource struct {
	endpoint string
	config   WSConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	programIDs []string
	events     chan PoolEvent

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSEventSource connects to the endpoint and starts the read and ping
// loops.
func NewWSEventSource(ctx context.Context, endpoint string, config *WSConfig, logger *zap.Logger) (*WSEventSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &WSEventSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		events:   make(chan PoolEvent, 1024),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

func (s *WSEventSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Signature string   `json:"signature"`
				Logs      []string `json:"logs"`
			} `json:"value"`
			Context struct {
				Slot int64 `json:"slot"`
			} `json:"context"`
		} `json:"result"`
	} `json:"params"`
}

// SubscribePoolEvents subscribes to logs mentioning the program IDs.
// Only one subscription per source; a second call replaces the filter on
// the next reconnect but returns the same channel.
func (s *WSEventSource) SubscribePoolEvents(ctx context.Context, programIDs []string) (<-chan PoolEvent, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("event source closed")
	}

	s.programIDs = programIDs
	if err := s.sendSubscribe(programIDs); err != nil {
		return nil, err
	}
	return s.events, nil
}

func (s *WSEventSource) sendSubscribe(programIDs []string) error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": programIDs},
			map[string]string{"commitment": "confirmed"},
		},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close shuts the connection down and closes the event channel.
func (s *WSEventSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

func (s *WSEventSource) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}
			reconnectDelay *= 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

func (s *WSEventSource) handleMessage(message []byte) {
	var note wsNotification
	if err := json.Unmarshal(message, &note); err != nil || note.Method != "logsNotification" {
		return
	}

	event := PoolEvent{
		Signature: note.Params.Result.Value.Signature,
		Slot:      note.Params.Result.Context.Slot,
		Logs:      note.Params.Result.Value.Logs,
		PoolID:    extractPoolID(note.Params.Result.Value.Logs),
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("pool event dropped, subscriber too slow",
			zap.String("signature", event.Signature))
	}
}

// extractPoolID finds the pool identifier in program log lines of the
// form "Program log: pool=<base58> ...".
func extractPoolID(logs []string) string {
	for _, line := range logs {
		idx := strings.Index(line, "pool=")
		if idx < 0 {
			continue
		}
		rest := line[idx+len("pool="):]
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			rest = rest[:end]
		}
		if ValidateIdentifier(rest) == nil {
			return rest
		}
	}
	return ""
}

func (s *WSEventSource) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.logger.Warn("websocket reconnect failed", zap.Error(err))
		return
	}

	if len(s.programIDs) > 0 {
		if err := s.sendSubscribe(s.programIDs); err != nil {
			s.logger.Warn("resubscribe failed", zap.Error(err))
		}
	}
	observability.DefaultMetrics.WSReconnects.Inc()
	s.logger.Info("websocket reconnected", zap.String("endpoint", s.endpoint))
}

func (s *WSEventSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.logger.Debug("ping failed", zap.Error(err))
				}
			}
			s.connMu.Unlock()
		}
	}
}

var _ EventSource = (*WSEventSource)(nil)
