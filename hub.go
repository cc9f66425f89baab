package amanahchat

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ============================================================================
// Connection Lifecycle Manager
// ============================================================================

// ErrNotConnected is returned for operations that need a live hub connection.
var ErrNotConnected = errors.New("not connected to hub")

// ConnectionState describes the push connection lifecycle.
type ConnectionState string

const (
	ConnDisconnected ConnectionState = "disconnected"
	ConnConnecting   ConnectionState = "connecting"
	ConnConnected    ConnectionState = "connected"
	ConnReconnecting ConnectionState = "reconnecting"
)

// Transport is the push-hub boundary. HubClient is the production
// implementation.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	JoinRoom(ctx context.Context, chatRoomID string) error
	LeaveRoom(ctx context.Context, chatRoomID string) error

	OnMessage(handler func(Message))
	OnTyping(handler func(TypingIndicator))
	OnPresence(handler func(UserPresence))
	OnStatus(handler func(ConnectionState))
}

// ConnectionManager wraps at most one transport handle and derives a boolean
// liveness stream from its state transitions. Reconnection itself is the
// transport's job; the manager re-runs the connected hooks after every
// successful (re)connect so rooms get re-joined.
type ConnectionManager struct {
	transport Transport
	log       *zap.Logger

	mu      sync.Mutex
	started bool
	state   ConnectionState

	hookMu    sync.Mutex
	connected []func()

	subMu  sync.Mutex
	subs   map[int]func(bool)
	nextID int
}

// NewConnectionManager wires the manager to a transport. A nil logger
// disables logging.
func NewConnectionManager(t Transport, log *zap.Logger) *ConnectionManager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &ConnectionManager{
		transport: t,
		log:       log,
		state:     ConnDisconnected,
		subs:      make(map[int]func(bool)),
	}
	t.OnStatus(m.handleStatus)
	return m
}

// OnConnected registers a hook run after every successful connect,
// including reconnects. Register hooks before StartConnection.
func (m *ConnectionManager) OnConnected(fn func()) {
	m.hookMu.Lock()
	m.connected = append(m.connected, fn)
	m.hookMu.Unlock()
}

// StartConnection establishes the hub connection. Calling it again while a
// connection exists or is being established is a no-op; once the transport
// has reported disconnected, a new call dials again.
func (m *ConnectionManager) StartConnection(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	if err := m.transport.Connect(ctx); err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		m.log.Error("hub connection failed", zap.Error(err))
		return err
	}
	return nil
}

// StopConnection tears the connection down intentionally.
func (m *ConnectionManager) StopConnection() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.mu.Unlock()

	return m.transport.Disconnect()
}

// State returns the current lifecycle state.
func (m *ConnectionManager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsLive reports whether pushes are flowing right now.
func (m *ConnectionManager) IsLive() bool {
	return m.State() == ConnConnected
}

// SubscribeStatus registers a liveness observer and returns its unsubscribe
// func. Observers receive the derived boolean on every state transition.
func (m *ConnectionManager) SubscribeStatus(fn func(bool)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *ConnectionManager) handleStatus(state ConnectionState) {
	m.mu.Lock()
	prev := m.state
	m.state = state
	if state == ConnDisconnected {
		// The transport is done, whether it gave up or was closed on
		// purpose. A later StartConnection must dial fresh.
		m.started = false
	}
	m.mu.Unlock()

	if prev == state {
		return
	}
	m.log.Debug("hub state changed",
		zap.String("from", string(prev)), zap.String("to", string(state)))

	live := state == ConnConnected
	m.subMu.Lock()
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(live)
	}

	if state == ConnConnected {
		m.hookMu.Lock()
		hooks := append([]func(){}, m.connected...)
		m.hookMu.Unlock()
		for _, h := range hooks {
			h()
		}
	}
}
