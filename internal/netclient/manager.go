package netclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/registry"
)

// State is the connection manager's lifecycle state.
type State int

// Connection states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateExhausted
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// NextDelay returns the reconnect delay for the given zero-based attempt:
// base, 2*base, 4*base, 8*base, 16*base for attempts 0 through 4.
func NextDelay(base time.Duration, attempt int) time.Duration {
	return base << attempt
}

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager maintains the observer's connection to the broadcast channel.
//
// It dials the server, decodes snapshot frames, and reconnects with
// exponential backoff on unsolicited closes. After the configured number
// of failed attempts it enters the Exhausted state and stays there; a
// successful open resets the attempt counter.
//
// Only the latest snapshot is kept. Consumers react through the message
// callback; there is no queue, and a missed snapshot is recovered by the
// next one since every frame is complete.
type Manager struct {
	cfg    config.ClientConfig
	dialer *websocket.Dialer
	logger Logger

	mu      sync.Mutex
	state   State
	attempt int
	lastMsg *registry.SnapshotMessage
	conn    *websocket.Conn
	cancel  context.CancelFunc
	done    chan struct{}

	onMessage func(*registry.SnapshotMessage)
	onState   func(State)
	onError   func(error)
}

// NewManager creates a connection manager. It does not dial until Start
// is called.
func NewManager(cfg config.ClientConfig) *Manager {
	return &Manager{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: noopLogger{},
		state:  StateDisconnected,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// OnMessage sets the callback invoked for every decoded snapshot.
// Must be set before Start.
func (m *Manager) OnMessage(fn func(*registry.SnapshotMessage)) {
	m.onMessage = fn
}

// OnStateChange sets the callback invoked on every state transition.
// Must be set before Start.
func (m *Manager) OnStateChange(fn func(State)) {
	m.onState = fn
}

// OnError sets the callback invoked for channel errors. Malformed frames
// surface ErrMalformedMessage and are non-fatal; ErrRetriesExhausted is
// terminal. Must be set before Start.
func (m *Manager) OnError(fn func(error)) {
	m.onError = fn
}

// Start launches the connection loop in a background goroutine.
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(runCtx)
}

// Close stops the connection loop, cancelling any pending reconnect
// timer, and waits for it to exit.
func (m *Manager) Close() error {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	done := m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close() //nolint:errcheck // Unblocks the read loop
	}
	if done != nil {
		<-done
	}
	return nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastMessage returns the most recently received snapshot, or nil if
// none has arrived yet.
func (m *Manager) LastMessage() *registry.SnapshotMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMsg
}

// run is the connection loop: dial, read until close, back off, repeat.
func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	for {
		m.setState(StateConnecting)

		conn, resp, err := m.dialer.DialContext(ctx, m.cfg.ServerURL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close() //nolint:errcheck // Handshake response body
		}
		if err != nil {
			if ctx.Err() != nil {
				m.setState(StateDisconnected)
				return
			}
			m.logger.Warn("dial failed", "url", m.cfg.ServerURL, "error", err)
			if !m.backoff(ctx) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.conn = conn
		m.attempt = 0
		m.mu.Unlock()
		m.setState(StateConnected)
		m.logger.Info("connected to broadcast channel", "url", m.cfg.ServerURL)

		m.readLoop(conn)

		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		conn.Close() //nolint:errcheck // Already failed or closing

		if ctx.Err() != nil {
			m.setState(StateDisconnected)
			return
		}
		if !m.backoff(ctx) {
			return
		}
	}
}

// readLoop decodes snapshot frames until the connection fails.
// Malformed frames are reported and skipped; they do not close the
// connection.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.logger.Debug("read loop ended", "error", err)
			return
		}

		var msg registry.SnapshotMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.notifyError(fmt.Errorf("%w: %v", ErrMalformedMessage, err))
			continue
		}

		m.mu.Lock()
		m.lastMsg = &msg
		m.mu.Unlock()

		if m.onMessage != nil {
			m.onMessage(&msg)
		}
	}
}

// backoff waits for the next reconnect delay. It returns false when the
// retry budget is exhausted or the context is cancelled, in which case
// the loop must stop.
func (m *Manager) backoff(ctx context.Context) bool {
	m.mu.Lock()
	attempt := m.attempt
	maxAttempts := m.cfg.Reconnect.MaxAttempts
	if attempt >= maxAttempts {
		m.mu.Unlock()
		m.setState(StateExhausted)
		m.logger.Error("reconnect attempts exhausted", "attempts", maxAttempts)
		m.notifyError(ErrRetriesExhausted)
		return false
	}
	m.attempt++
	m.mu.Unlock()

	delay := NextDelay(m.cfg.Reconnect.GetBaseDelay(), attempt)
	m.logger.Warn("connection lost, retrying",
		"attempt", attempt+1,
		"max_attempts", maxAttempts,
		"delay", delay,
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		m.setState(StateDisconnected)
		return false
	case <-timer.C:
		return true
	}
}

// setState records a state transition and notifies the callback.
func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()

	if m.onState != nil {
		m.onState(s)
	}
}

// notifyError reports an error through the callback if one is set.
func (m *Manager) notifyError(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}
