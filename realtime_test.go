package amanahchat

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// ============================================================================
// Reconnector
// ============================================================================

func TestReconnectorBackoff(t *testing.T) {
	cfg := &HubConfig{
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  10 * time.Second,
	}
	r := newReconnector(cfg)

	prev := time.Duration(0)
	for i := 0; i < 6; i++ {
		d := r.nextDelay()
		if d > cfg.ReconnectMaxDelay {
			t.Fatalf("attempt %d: delay %v exceeds max %v", i, d, cfg.ReconnectMaxDelay)
		}
		if d < prev && d != cfg.ReconnectMaxDelay {
			t.Fatalf("attempt %d: delay %v shrank below %v before hitting the cap", i, d, prev)
		}
		prev = d
	}
}

func TestReconnectorAttemptResetAfterStableConnection(t *testing.T) {
	r := newReconnector(&HubConfig{
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  30 * time.Second,
	})

	r.nextDelay()
	r.nextDelay()
	r.nextDelay()
	if r.attempt != 3 {
		t.Fatalf("expected 3 attempts, got %d", r.attempt)
	}

	// A connection that held for over a minute starts the ladder over.
	r.connectedAt = time.Now().Add(-2 * time.Minute)
	r.nextDelay()
	if r.attempt != 1 {
		t.Fatalf("expected attempt counter reset, got %d", r.attempt)
	}
}

func TestReconnectorShouldReconnect(t *testing.T) {
	t.Run("bounded attempts", func(t *testing.T) {
		r := newReconnector(&HubConfig{MaxReconnectAttempts: 2, ReconnectBaseDelay: time.Millisecond, ReconnectMaxDelay: time.Millisecond})
		if !r.shouldReconnect() {
			t.Fatal("expected reconnect allowed before any attempt")
		}
		r.nextDelay()
		r.nextDelay()
		if r.shouldReconnect() {
			t.Fatal("expected reconnect denied after max attempts")
		}
	})

	t.Run("unbounded", func(t *testing.T) {
		r := newReconnector(&HubConfig{ReconnectBaseDelay: time.Millisecond, ReconnectMaxDelay: time.Millisecond})
		r.maxAttempts = 0
		for i := 0; i < 50; i++ {
			r.nextDelay()
		}
		if !r.shouldReconnect() {
			t.Fatal("expected unbounded reconnect to stay allowed")
		}
	})
}

// ============================================================================
// Dispatcher
// ============================================================================

func mustEnvelope(t *testing.T, typ string, payload interface{}) HubEnvelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return HubEnvelope{Type: typ, Payload: raw}
}

func TestHubDispatcherReceiveMessage(t *testing.T) {
	d := &hubDispatcher{}

	var got []Message
	d.onMessage = append(d.onMessage, func(m Message) { got = append(got, m) })

	d.dispatch(mustEnvelope(t, eventReceiveMessage, Message{
		ID:           "m-1",
		ChatRoomID:   "room-1",
		RoomMemberID: "member-2",
		Body:         "hello",
	}))

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].ChatRoomID != "room-1" || got[0].Body != "hello" {
		t.Fatalf("unexpected message: %+v", got[0])
	}
}

func TestHubDispatcherPresence(t *testing.T) {
	d := &hubDispatcher{}

	var got []UserPresence
	d.onPresence = append(d.onPresence, func(p UserPresence) { got = append(got, p) })

	d.dispatch(mustEnvelope(t, eventUserJoined, UserPresence{ChatRoomID: "room-1", UserName: "Dana"}))
	d.dispatch(mustEnvelope(t, eventUserLeft, UserPresence{ChatRoomID: "room-1", UserName: "Dana"}))

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Action != PresenceJoined || got[1].Action != PresenceLeft {
		t.Fatalf("unexpected actions: %s, %s", got[0].Action, got[1].Action)
	}
}

func TestHubDispatcherTyping(t *testing.T) {
	d := &hubDispatcher{}

	var got []TypingIndicator
	d.onTyping = append(d.onTyping, func(ti TypingIndicator) { got = append(got, ti) })

	d.dispatch(mustEnvelope(t, eventTypingIndicator, TypingIndicator{
		ChatRoomID: "room-1",
		UserName:   "Dana",
		IsTyping:   true,
	}))

	if len(got) != 1 || !got[0].IsTyping {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
}

func TestHubDispatcherUnknownEventIgnored(t *testing.T) {
	d := &hubDispatcher{}

	delivered := false
	d.onMessage = append(d.onMessage, func(Message) { delivered = true })

	d.dispatch(mustEnvelope(t, "SomethingNew", map[string]string{"x": "y"}))
	if delivered {
		t.Fatal("unknown event type reached a typed handler")
	}
}

// ============================================================================
// HubClient
// ============================================================================

func TestHubClientInitialState(t *testing.T) {
	hc := NewHubClient("https://chat.example.com", HubConfig{Token: "tok"})
	if hc.State() != ConnDisconnected {
		t.Fatalf("expected disconnected, got %s", hc.State())
	}
}

func TestHubClientSendWhileDisconnected(t *testing.T) {
	hc := NewHubClient("https://chat.example.com", HubConfig{Token: "tok"})
	err := hc.JoinRoom(context.Background(), "room-1")
	if err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestHubConfigDefaults(t *testing.T) {
	cfg := HubConfig{}
	cfg.defaults()

	if cfg.ReconnectBaseDelay != 1*time.Second {
		t.Fatalf("base delay default: %v", cfg.ReconnectBaseDelay)
	}
	if cfg.ReconnectMaxDelay != 30*time.Second {
		t.Fatalf("max delay default: %v", cfg.ReconnectMaxDelay)
	}
	if cfg.MaxReconnectAttempts != 10 {
		t.Fatalf("max attempts default: %d", cfg.MaxReconnectAttempts)
	}
	if cfg.HTTPClient == nil || cfg.Logger == nil {
		t.Fatal("expected http client and logger defaults")
	}
}
