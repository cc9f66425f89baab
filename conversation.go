package amanahchat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// Conversation Reconciler
// ============================================================================

type pendingState int

const (
	pendingInFlight pendingState = iota
	pendingConfirmed
	pendingFailed
)

type pendingSend struct {
	token    string
	body     string
	msgIndex int
	state    pendingState
}

// SendHandle correlates an optimistic local send with its eventual network
// outcome.
type SendHandle struct {
	token string
}

// Conversation owns the message sequence of at most one open chat room and
// merges three inbound streams: history loads, optimistic local sends, and
// remote push messages.
type Conversation struct {
	mu             sync.RWMutex
	chatRoomID     string
	viewerMemberID string
	messages       []Message
	pending        map[string]*pendingSend
	loadGen        int
	log            *zap.Logger
}

// NewConversation returns a reconciler with no open room. A nil logger
// disables logging.
func NewConversation(log *zap.Logger) *Conversation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conversation{
		pending: make(map[string]*pendingSend),
		log:     log,
	}
}

// Open resets the reconciler for a room and returns the load generation to
// pass to Replace. Any in-flight load for a previously open room becomes
// stale and will be discarded on arrival.
func (c *Conversation) Open(chatRoomID, viewerMemberID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatRoomID = chatRoomID
	c.viewerMemberID = viewerMemberID
	c.messages = nil
	c.pending = make(map[string]*pendingSend)
	c.loadGen++
	return c.loadGen
}

// Clear closes the open room and drops all messages.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatRoomID = ""
	c.viewerMemberID = ""
	c.messages = nil
	c.pending = make(map[string]*pendingSend)
	c.loadGen++
}

// ChatRoomID returns the id of the open room, or "" when none is open.
func (c *Conversation) ChatRoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chatRoomID
}

// ViewerMemberID returns the viewer's membership id for the open room.
func (c *Conversation) ViewerMemberID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewerMemberID
}

// Replace installs a loaded history wholesale. The gen value must come from
// the Open call that initiated the load; a stale generation is discarded and
// Replace reports false. Each record's origin flag and delivery status are
// normalized on the way in.
func (c *Conversation) Replace(gen int, msgs []Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.loadGen {
		c.log.Debug("stale history load discarded",
			zap.Int("loadGen", gen), zap.Int("current", c.loadGen))
		return false
	}

	out := make([]Message, len(msgs))
	for i, m := range msgs {
		m.FromCurrentUser = m.RoomMemberID == c.viewerMemberID
		if m.Status == "" {
			m.Status = StatusDelivered
		}
		out[i] = m
	}
	c.messages = out
	c.pending = make(map[string]*pendingSend)
	return true
}

// AppendLocalSend appends an optimistic message for the viewer's own send:
// no id yet, status sending, origin self. The returned handle reconciles the
// entry once the network send completes.
func (c *Conversation) AppendLocalSend(body string) (*SendHandle, Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := Message{
		ChatRoomID:      c.chatRoomID,
		RoomMemberID:    c.viewerMemberID,
		Body:            body,
		SenderName:      "You",
		Timestamp:       time.Now(),
		FromCurrentUser: true,
		Status:          StatusSending,
	}
	c.messages = append(c.messages, msg)

	token := uuid.NewString()
	c.pending[token] = &pendingSend{
		token:    token,
		body:     body,
		msgIndex: len(c.messages) - 1,
	}
	return &SendHandle{token: token}, msg
}

// ConfirmLocalSend patches the optimistic entry in place with the id the
// backend assigned and marks it sent. The message is never re-appended.
func (c *Conversation) ConfirmLocalSend(h *SendHandle, assignedID string) bool {
	if h == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[h.token]
	if !ok || p.state != pendingInFlight || p.msgIndex >= len(c.messages) {
		return false
	}
	c.messages[p.msgIndex].ID = assignedID
	c.messages[p.msgIndex].Status = StatusSent
	p.state = pendingConfirmed
	return true
}

// FailLocalSend marks the pending send failed. The optimistic entry stays
// visible with status sending; it is never removed or retried automatically.
func (c *Conversation) FailLocalSend(h *SendHandle) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[h.token]; ok {
		p.state = pendingFailed
	}
}

// ReceiveRemote appends a pushed message to the open sequence. A message for
// another room is ignored, and one carrying the viewer's own membership id
// is suppressed as an echo of a local send. Returns whether it was appended.
func (c *Conversation) ReceiveRemote(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chatRoomID == "" || msg.ChatRoomID != c.chatRoomID {
		return false
	}
	if msg.RoomMemberID == c.viewerMemberID {
		c.log.Debug("suppressed echo of local send", zap.String("chatRoomId", msg.ChatRoomID))
		return false
	}

	msg.FromCurrentUser = false
	if msg.Status == "" {
		msg.Status = StatusDelivered
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.messages = append(c.messages, msg)
	return true
}

// Messages returns a copy of the open sequence in arrival order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message(nil), c.messages...)
}
