package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrStreamClosed is returned by Run after Close
var ErrStreamClosed = errors.New("stream closed")

// StreamConfig contains configuration for a websocket stream
type StreamConfig struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	// ReadLimit caps a single message; full blocks can be large
	ReadLimit int64
}

// Stream is one websocket connection lifetime. It is not reconnected: the
// caller dials a new Stream after Run returns.
type Stream struct {
	conn    *websocket.Conn
	cfg     StreamConfig
	logger  *logrus.Entry
	writeMu sync.Mutex
	nextID  int
	// notifications read while waiting for a subscription ack
	pending [][]byte
}

// WSMessage is a JSON-RPC request, response or notification
type WSMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *int              `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  json.RawMessage   `json:"params,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   *jsonrpc.RPCError `json:"error,omitempty"`
}

// Notification is the params object of a subscription notification
type Notification struct {
	Subscription int             `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// Dial connects to cfg.URL
func Dial(ctx context.Context, cfg StreamConfig, logger *logrus.Logger) (*Stream, error) {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReadLimit == 0 {
		cfg.ReadLimit = 16 << 20
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = cfg.HandshakeTimeout

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s (status %s): %w", cfg.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.URL, err)
	}
	conn.SetReadLimit(cfg.ReadLimit)

	return &Stream{
		conn:   conn,
		cfg:    cfg,
		logger: logger.WithField("url", cfg.URL),
		nextID: 1,
	}, nil
}

// Send writes v as a JSON text frame
func (s *Stream) Send(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Subscribe sends a JSON-RPC subscription and waits for its ack, returning
// the subscription id.
func (s *Stream) Subscribe(ctx context.Context, method string, params interface{}) (int, error) {
	id := s.nextID
	s.nextID++

	raw, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s params: %w", method, err)
	}

	stop := s.closeOnDone(ctx)
	defer stop()

	if err := s.Send(WSMessage{JSONRPC: "2.0", ID: &id, Method: method, Params: raw}); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("failed to send %s: %w", method, err)
	}

	deadline := time.Now().Add(s.cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, fmt.Errorf("failed waiting for %s ack: %w", method, err)
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.ID == nil || *msg.ID != id {
			s.pending = append(s.pending, data)
			continue
		}
		if msg.Error != nil {
			return 0, fmt.Errorf("%s rejected: %w", method, msg.Error)
		}

		var subID int
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			return 0, fmt.Errorf("unexpected %s result %s: %w", method, string(msg.Result), err)
		}
		s.logger.WithFields(logrus.Fields{
			"method":          method,
			"subscription_id": subID,
		}).Debug("📡 Subscription confirmed")
		return subID, nil
	}
}

// closeOnDone closes the connection if ctx ends before the returned stop
// func is called, unblocking any pending read.
func (s *Stream) closeOnDone(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// Run reads messages until ctx is done or the connection fails, passing each
// raw frame to handle. A handler error ends the stream. Pings are sent every
// PingInterval when it is set; a connection that delivers neither a frame
// nor a pong within PingInterval+HandshakeTimeout is treated as dead.
func (s *Stream) Run(ctx context.Context, handle func([]byte) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := s.closeOnDone(ctx)
	defer stop()

	var idle time.Duration
	if s.cfg.PingInterval > 0 {
		idle = s.cfg.PingInterval + s.cfg.HandshakeTimeout
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(idle))
		})
		go s.ping(ctx)
	}

	for _, data := range s.pending {
		if err := handle(data); err != nil {
			return err
		}
	}
	s.pending = nil

	for {
		if idle > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(idle))
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read failed: %w", err)
		}
		if err := handle(data); err != nil {
			return err
		}
	}
}

func (s *Stream) ping(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			s.writeMu.Unlock()
			if err != nil {
				s.logger.WithError(err).Debug("❌ Failed to send ping")
				return
			}
			s.logger.Debug("🏓 Sent ping")
		}
	}
}

// Close closes the underlying connection
func (s *Stream) Close() error {
	return s.conn.Close()
}

// ParseNotification extracts the method and params of a subscription
// notification. Responses and malformed frames return false.
func ParseNotification(data []byte) (string, Notification, bool) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Method == "" || len(msg.Params) == 0 {
		return "", Notification{}, false
	}
	var n Notification
	if err := json.Unmarshal(msg.Params, &n); err != nil {
		return "", Notification{}, false
	}
	return msg.Method, n, true
}
