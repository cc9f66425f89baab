package amanahchat

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ============================================================================
// Wire Format
// ============================================================================

// Hub event names pushed by the server.
const (
	eventReceiveMessage  = "ReceiveMessage"
	eventTypingIndicator = "SendTypingIndicator"
	eventUserJoined      = "UserJoined"
	eventUserLeft        = "UserLeft"
)

// Hub commands sent by the client.
const (
	commandJoinRoom  = "JoinRoom"
	commandLeaveRoom = "LeaveRoom"
	commandTyping    = "SendTypingIndicator"
)

// HubEnvelope is the wire format for all hub traffic.
type HubEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HubCommand is a client-to-server command.
type HubCommand struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

// ============================================================================
// Configuration
// ============================================================================

// HubConfig configures the hub client.
type HubConfig struct {
	Token                string
	AutoReconnect        bool
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	HeartbeatInterval    time.Duration
	HTTPClient           *http.Client
	Logger               *zap.Logger
}

func (c *HubConfig) defaults() {
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = 1 * time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 10
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 25 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// ============================================================================
// Event Dispatcher
// ============================================================================

type hubDispatcher struct {
	mu         sync.RWMutex
	onMessage  []func(Message)
	onTyping   []func(TypingIndicator)
	onPresence []func(UserPresence)
	onStatus   []func(ConnectionState)
}

// dispatch runs handlers synchronously so events are delivered in the order
// the read loop saw them.
func (d *hubDispatcher) dispatch(env HubEnvelope) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch env.Type {
	case eventReceiveMessage:
		var p Message
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range d.onMessage {
				h(p)
			}
		}
	case eventTypingIndicator:
		var p TypingIndicator
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range d.onTyping {
				h(p)
			}
		}
	case eventUserJoined:
		var p UserPresence
		if json.Unmarshal(env.Payload, &p) == nil {
			p.Action = PresenceJoined
			for _, h := range d.onPresence {
				h(p)
			}
		}
	case eventUserLeft:
		var p UserPresence
		if json.Unmarshal(env.Payload, &p) == nil {
			p.Action = PresenceLeft
			for _, h := range d.onPresence {
				h(p)
			}
		}
	}
}

func (d *hubDispatcher) emitStatus(state ConnectionState) {
	d.mu.RLock()
	handlers := append([]func(ConnectionState){}, d.onStatus...)
	d.mu.RUnlock()
	for _, h := range handlers {
		h(state)
	}
}

// ============================================================================
// Reconnector
// ============================================================================

type reconnector struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	attempt     int
	connectedAt time.Time
}

func newReconnector(config *HubConfig) *reconnector {
	return &reconnector{
		baseDelay:   config.ReconnectBaseDelay,
		maxDelay:    config.ReconnectMaxDelay,
		maxAttempts: config.MaxReconnectAttempts,
	}
}

func (r *reconnector) shouldReconnect() bool {
	return r.maxAttempts == 0 || r.attempt < r.maxAttempts
}

func (r *reconnector) markConnected() {
	r.connectedAt = time.Now()
}

func (r *reconnector) nextDelay() time.Duration {
	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) > 60*time.Second {
		r.attempt = 0
	}
	jitter := time.Duration(rand.Float64() * float64(r.baseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(r.baseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(r.maxDelay),
	))
	r.attempt++
	return delay
}

func (r *reconnector) reset() {
	r.attempt = 0
	r.connectedAt = time.Time{}
}

// ============================================================================
// HubClient
// ============================================================================

// HubClient is the WebSocket Transport implementation, with automatic
// reconnect and heartbeat.
type HubClient struct {
	baseURL          string
	config           *HubConfig
	log              *zap.Logger
	conn             *websocket.Conn
	mu               sync.Mutex
	state            ConnectionState
	intentionalClose bool
	dispatcher       *hubDispatcher
	recon            *reconnector
	cancelFn         context.CancelFunc
}

// NewHubClient creates a hub client for the given base URL. The URL scheme
// is translated to ws/wss at dial time.
func NewHubClient(baseURL string, config HubConfig) *HubClient {
	config.defaults()
	return &HubClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		config:     &config,
		log:        config.Logger,
		state:      ConnDisconnected,
		dispatcher: &hubDispatcher{},
		recon:      newReconnector(&config),
	}
}

// OnMessage registers a handler for pushed chat messages.
func (hc *HubClient) OnMessage(h func(Message)) {
	hc.dispatcher.mu.Lock()
	hc.dispatcher.onMessage = append(hc.dispatcher.onMessage, h)
	hc.dispatcher.mu.Unlock()
}

// OnTyping registers a handler for typing indicators.
func (hc *HubClient) OnTyping(h func(TypingIndicator)) {
	hc.dispatcher.mu.Lock()
	hc.dispatcher.onTyping = append(hc.dispatcher.onTyping, h)
	hc.dispatcher.mu.Unlock()
}

// OnPresence registers a handler for participant joined/left events.
func (hc *HubClient) OnPresence(h func(UserPresence)) {
	hc.dispatcher.mu.Lock()
	hc.dispatcher.onPresence = append(hc.dispatcher.onPresence, h)
	hc.dispatcher.mu.Unlock()
}

// OnStatus registers a handler for connection state transitions.
func (hc *HubClient) OnStatus(h func(ConnectionState)) {
	hc.dispatcher.mu.Lock()
	hc.dispatcher.onStatus = append(hc.dispatcher.onStatus, h)
	hc.dispatcher.mu.Unlock()
}

// State returns the current connection state.
func (hc *HubClient) State() ConnectionState {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.state
}

// Connect establishes the WebSocket connection. Connecting while connected
// or already connecting is a no-op.
func (hc *HubClient) Connect(ctx context.Context) error {
	hc.mu.Lock()
	if hc.state == ConnConnected || hc.state == ConnConnecting {
		hc.mu.Unlock()
		return nil
	}
	reconnecting := hc.state == ConnReconnecting
	hc.state = ConnConnecting
	hc.intentionalClose = false
	hc.mu.Unlock()

	if !reconnecting {
		hc.dispatcher.emitStatus(ConnConnecting)
	}

	wsURL := strings.Replace(hc.baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL += "/chathub?access_token=" + hc.config.Token

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPClient: hc.config.HTTPClient,
	})
	if err != nil {
		hc.mu.Lock()
		hc.state = ConnDisconnected
		hc.mu.Unlock()
		hc.dispatcher.emitStatus(ConnDisconnected)
		return fmt.Errorf("hub dial: %w", err)
	}

	hc.mu.Lock()
	hc.conn = conn
	hc.state = ConnConnected
	hc.mu.Unlock()
	hc.recon.markConnected()

	hc.log.Debug("hub connected")
	hc.dispatcher.emitStatus(ConnConnected)

	connCtx, cancel := context.WithCancel(context.Background())
	hc.mu.Lock()
	hc.cancelFn = cancel
	hc.mu.Unlock()

	go hc.readLoop(connCtx, conn)
	go hc.heartbeatLoop(connCtx, conn)

	return nil
}

// Disconnect gracefully closes the connection and suppresses reconnection.
func (hc *HubClient) Disconnect() error {
	hc.mu.Lock()
	hc.intentionalClose = true
	if hc.cancelFn != nil {
		hc.cancelFn()
		hc.cancelFn = nil
	}
	conn := hc.conn
	hc.conn = nil
	hc.state = ConnDisconnected
	hc.mu.Unlock()

	hc.recon.reset()
	hc.dispatcher.emitStatus(ConnDisconnected)

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	return nil
}

// JoinRoom subscribes this connection to a room's pushes.
func (hc *HubClient) JoinRoom(ctx context.Context, chatRoomID string) error {
	return hc.send(ctx, &HubCommand{
		Type:    commandJoinRoom,
		Payload: roomPayload{RoomID: chatRoomID},
	})
}

// LeaveRoom unsubscribes this connection from a room's pushes.
func (hc *HubClient) LeaveRoom(ctx context.Context, chatRoomID string) error {
	return hc.send(ctx, &HubCommand{
		Type:    commandLeaveRoom,
		Payload: roomPayload{RoomID: chatRoomID},
	})
}

// SendTyping broadcasts the viewer's typing state to a room.
func (hc *HubClient) SendTyping(ctx context.Context, chatRoomID, userName string, isTyping bool) error {
	return hc.send(ctx, &HubCommand{
		Type: commandTyping,
		Payload: TypingIndicator{
			ChatRoomID: chatRoomID,
			UserName:   userName,
			IsTyping:   isTyping,
		},
	})
}

func (hc *HubClient) send(ctx context.Context, cmd *HubCommand) error {
	hc.mu.Lock()
	conn := hc.conn
	hc.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// readLoop delivers events one at a time, in arrival order.
func (hc *HubClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			hc.mu.Lock()
			intentional := hc.intentionalClose
			hc.mu.Unlock()
			if intentional {
				return
			}

			hc.mu.Lock()
			hc.state = ConnDisconnected
			hc.conn = nil
			hc.mu.Unlock()

			hc.log.Warn("hub connection lost", zap.Error(err))

			if hc.config.AutoReconnect && hc.recon.shouldReconnect() {
				hc.scheduleReconnect()
			} else {
				hc.dispatcher.emitStatus(ConnDisconnected)
			}
			return
		}

		var env HubEnvelope
		if json.Unmarshal(data, &env) != nil {
			continue
		}
		hc.dispatcher.dispatch(env)
	}
}

func (hc *HubClient) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(hc.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				// Force the read loop to notice and reconnect
				conn.Close(websocket.StatusGoingAway, "heartbeat timeout")
				return
			}
		}
	}
}

func (hc *HubClient) scheduleReconnect() {
	delay := hc.recon.nextDelay()
	hc.mu.Lock()
	hc.state = ConnReconnecting
	hc.mu.Unlock()

	hc.log.Info("hub reconnecting",
		zap.Int("attempt", hc.recon.attempt), zap.Duration("delay", delay))
	hc.dispatcher.emitStatus(ConnReconnecting)

	time.Sleep(delay)

	if err := hc.Connect(context.Background()); err != nil {
		if hc.config.AutoReconnect && hc.recon.shouldReconnect() {
			hc.scheduleReconnect()
		} else {
			hc.mu.Lock()
			hc.state = ConnDisconnected
			hc.mu.Unlock()
			hc.dispatcher.emitStatus(ConnDisconnected)
		}
	}
}
