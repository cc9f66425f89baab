package amanahchat

import (
	"context"
	"errors"
	"testing"
)

// ============================================================================
// Connection Lifecycle
// ============================================================================

func TestConnectionManagerStartIdempotent(t *testing.T) {
	transport := newFakeTransport()
	m := NewConnectionManager(transport, nil)

	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if transport.connectCount() != 1 {
		t.Fatalf("expected a single dial, got %d", transport.connectCount())
	}
}

func TestConnectionManagerRestartAfterDisconnect(t *testing.T) {
	transport := newFakeTransport()
	m := NewConnectionManager(transport, nil)

	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// The transport gave up and reported the connection lost.
	transport.emitStatus(ConnDisconnected)
	if m.IsLive() {
		t.Fatal("expected manager down after transport disconnect")
	}

	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if transport.connectCount() != 2 {
		t.Fatalf("expected a fresh dial after disconnect, got %d dials",
			transport.connectCount())
	}
	if !m.IsLive() {
		t.Fatalf("expected connected after restart, state=%s", m.State())
	}
}

func TestConnectionManagerRetryAfterConnectError(t *testing.T) {
	transport := newFakeTransport()
	transport.connectErr = errors.New("dial refused")
	m := NewConnectionManager(transport, nil)

	if err := m.StartConnection(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}

	transport.connectErr = nil
	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !m.IsLive() {
		t.Fatal("expected connected after retry")
	}
}

func TestConnectionManagerStopConnection(t *testing.T) {
	transport := newFakeTransport()
	m := NewConnectionManager(transport, nil)

	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := m.StopConnection(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if m.IsLive() {
		t.Fatal("expected down after stop")
	}

	// A stopped manager can be started again.
	if err := m.StartConnection(context.Background()); err != nil {
		t.Fatalf("start after stop failed: %v", err)
	}
	if transport.connectCount() != 2 {
		t.Fatalf("expected a fresh dial after stop, got %d dials",
			transport.connectCount())
	}
}
