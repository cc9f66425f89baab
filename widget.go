package amanahchat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Widget Orchestrator
// ============================================================================

// ErrNoOpenConversation is returned when a message is sent with no chat
// selected.
var ErrNoOpenConversation = errors.New("no open conversation")

const defaultHistoryPageSize = 50

// Backend is the REST boundary the widget depends on. Client is the
// production implementation.
type Backend interface {
	GetChatRooms(ctx context.Context) ([]ConversationSummary, error)
	GetMessages(ctx context.Context, chatRoomID string, page, pageSize int) ([]Message, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (string, error)
	GetUsersByWorkspace(ctx context.Context, workspaceID string) ([]WorkspaceUser, error)
	CreateChatRoom(ctx context.Context, req CreateRoomRequest) (string, error)
	CreateDirectChat(ctx context.Context, userID string) (string, error)
}

// WidgetConfig wires a Widget to its collaborators.
type WidgetConfig struct {
	Client          Backend
	Transport       Transport
	Identity        Identity
	Logger          *zap.Logger
	HistoryPageSize int
}

// Widget composes the navigation state machine, the chat list, the open
// conversation, and the connection lifecycle into one facade for embedders.
//
// Inbound hub events are processed one at a time under a single mutex, so
// each event sees the state left by the previous one.
type Widget struct {
	api       Backend
	transport Transport
	identity  Identity
	log       *zap.Logger
	pageSize  int

	nav   *Navigator
	list  *ChatList
	convo *Conversation
	conn  *ConnectionManager

	mu           sync.Mutex
	selected     ConversationSummary
	hasSelection bool
	joined       map[string]bool
	users        []WorkspaceUser

	obsMu      sync.Mutex
	onMessage  []func(Message)
	onTyping   []func(TypingIndicator)
	onPresence []func(UserPresence)
}

// NewWidget assembles a widget. Hub handlers are registered immediately so
// no event can arrive unobserved once the connection is started.
func NewWidget(cfg WidgetConfig) *Widget {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pageSize := cfg.HistoryPageSize
	if pageSize <= 0 {
		pageSize = defaultHistoryPageSize
	}

	w := &Widget{
		api:       cfg.Client,
		transport: cfg.Transport,
		identity:  cfg.Identity,
		log:       log,
		pageSize:  pageSize,
		nav:       NewNavigator(log),
		list:      NewChatList(log),
		convo:     NewConversation(log),
		joined:    make(map[string]bool),
	}
	w.conn = NewConnectionManager(cfg.Transport, log)

	cfg.Transport.OnMessage(w.handleHubMessage)
	cfg.Transport.OnTyping(w.handleTyping)
	cfg.Transport.OnPresence(w.handlePresence)
	w.conn.OnConnected(w.rejoinRooms)

	return w
}

// Navigator returns the navigation state machine.
func (w *Widget) Navigator() *Navigator { return w.nav }

// Chats returns the chat list.
func (w *Widget) Chats() *ChatList { return w.list }

// Conversation returns the reconciler for the open chat.
func (w *Widget) Conversation() *Conversation { return w.convo }

// Connection returns the connection lifecycle manager.
func (w *Widget) Connection() *ConnectionManager { return w.conn }

// Identity returns the viewer's session identity.
func (w *Widget) Identity() Identity { return w.identity }

// ============================================================================
// Lifecycle
// ============================================================================

// Start loads the chat list and establishes the hub connection. A failed
// initial list load is logged and leaves the list empty; a failed connect is
// returned so the embedder can retry.
func (w *Widget) Start(ctx context.Context) error {
	rooms, err := w.api.GetChatRooms(ctx)
	if err != nil {
		w.log.Error("failed to load chat rooms", zap.Error(err))
	} else {
		w.list.ReplaceAll(rooms)
	}

	return w.conn.StartConnection(ctx)
}

// Close tears down the hub connection.
func (w *Widget) Close() error {
	return w.conn.StopConnection()
}

// RefreshChatRooms reloads the chat list snapshot from the backend.
func (w *Widget) RefreshChatRooms(ctx context.Context) error {
	rooms, err := w.api.GetChatRooms(ctx)
	if err != nil {
		return err
	}
	w.list.ReplaceAll(rooms)
	if w.conn.IsLive() {
		w.rejoinRooms()
	}
	return nil
}

// rejoinRooms runs after every (re)connect and after a list refresh: the
// server side forgets subscriptions on disconnect, so each known room is
// joined again.
func (w *Widget) rejoinRooms() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	joined := w.list.JoinAllKnownRooms(ctx, w.transport)

	w.mu.Lock()
	w.joined = make(map[string]bool, len(joined))
	for _, id := range joined {
		w.joined[id] = true
	}
	w.mu.Unlock()
}

// ============================================================================
// Chat Selection & Sending
// ============================================================================

// SelectChat opens a conversation: selection is set, the reconciler is reset
// for the room, navigation moves to the conversation view, history is
// loaded, and the room is joined if it was not already. A history load
// failure is returned; the navigation still stands and the sequence stays
// empty. A join failure is only logged.
func (w *Widget) SelectChat(ctx context.Context, chat ConversationSummary) error {
	w.mu.Lock()
	w.selected = chat
	w.hasSelection = true
	gen := w.convo.Open(chat.ChatRoomID, chat.RoomMemberID)
	needJoin := !w.joined[chat.ChatRoomID]
	w.mu.Unlock()

	w.nav.OpenChat(chat.ChatRoomID)

	msgs, loadErr := w.api.GetMessages(ctx, chat.ChatRoomID, 1, w.pageSize)
	if loadErr != nil {
		w.log.Error("failed to load messages",
			zap.String("chatRoomId", chat.ChatRoomID), zap.Error(loadErr))
	} else {
		w.convo.Replace(gen, msgs)
	}

	if needJoin {
		if err := w.transport.JoinRoom(ctx, chat.ChatRoomID); err != nil {
			w.log.Warn("failed to join room",
				zap.String("chatRoomId", chat.ChatRoomID), zap.Error(err))
		} else {
			w.mu.Lock()
			w.joined[chat.ChatRoomID] = true
			w.mu.Unlock()
		}
	}

	return loadErr
}

// SelectedChat returns the current selection, if any.
func (w *Widget) SelectedChat() (ConversationSummary, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected, w.hasSelection
}

// BackToList navigates back from the conversation.
func (w *Widget) BackToList() {
	w.nav.GoBack()
}

// SendMessage performs an optimistic send: the message appears immediately
// with status sending, then is confirmed in place with the backend-assigned
// id. On failure the entry stays visible as sending and the error is
// returned.
func (w *Widget) SendMessage(ctx context.Context, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, errors.New("message body is empty")
	}

	w.mu.Lock()
	if !w.hasSelection || w.convo.ChatRoomID() == "" {
		w.mu.Unlock()
		return Message{}, ErrNoOpenConversation
	}
	chat := w.selected
	w.mu.Unlock()

	handle, msg := w.convo.AppendLocalSend(body)

	id, err := w.api.SendMessage(ctx, SendMessageRequest{
		ChatRoomID:   chat.ChatRoomID,
		RoomMemberID: chat.RoomMemberID,
		Body:         body,
	})
	if err != nil {
		w.convo.FailLocalSend(handle)
		w.log.Error("failed to send message",
			zap.String("chatRoomId", chat.ChatRoomID), zap.Error(err))
		return msg, err
	}

	w.convo.ConfirmLocalSend(handle, id)
	msg.ID = id
	msg.Status = StatusSent
	return msg, nil
}

// ============================================================================
// Groups & Directory
// ============================================================================

// OpenGroupCreation loads the workspace directory and navigates to the
// group creation screen. A failed directory load is logged; the screen
// still opens.
func (w *Widget) OpenGroupCreation(ctx context.Context, preselected []string) {
	w.loadWorkspaceUsers(ctx)
	w.nav.OpenGroupCreation(preselected)
}

// OpenCommunicationHub loads the workspace directory and navigates to the
// member list.
func (w *Widget) OpenCommunicationHub(ctx context.Context) {
	w.loadWorkspaceUsers(ctx)
	w.nav.GoToCommunicationHub()
}

func (w *Widget) loadWorkspaceUsers(ctx context.Context) {
	users, err := w.api.GetUsersByWorkspace(ctx, w.identity.WorkspaceID)
	if err != nil {
		w.log.Error("failed to load workspace users", zap.Error(err))
		return
	}
	w.mu.Lock()
	w.users = users
	w.mu.Unlock()
}

// WorkspaceUsers returns the last loaded workspace directory.
func (w *Widget) WorkspaceUsers() []WorkspaceUser {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]WorkspaceUser(nil), w.users...)
}

// CreateGroup creates a group room, refreshes the list, and opens the new
// conversation. Returns the new room id.
func (w *Widget) CreateGroup(ctx context.Context, req CreateRoomRequest) (string, error) {
	if req.WorkspaceID == "" {
		req.WorkspaceID = w.identity.WorkspaceID
	}

	id, err := w.api.CreateChatRoom(ctx, req)
	if err != nil {
		return "", err
	}

	if err := w.RefreshChatRooms(ctx); err != nil {
		w.log.Warn("failed to refresh chat rooms after group creation", zap.Error(err))
	}
	if chat, ok := w.list.Find(id); ok {
		if err := w.SelectChat(ctx, chat); err != nil {
			w.log.Warn("failed to open new group", zap.Error(err))
		}
	} else {
		w.nav.OpenChat(id)
	}
	return id, nil
}

// GroupUpdated returns to the previous screen after a group edit.
func (w *Widget) GroupUpdated() {
	w.nav.GoBack()
}

// StartDirectChat creates or reuses the one-to-one room with a user and
// opens it. Returns the room id.
func (w *Widget) StartDirectChat(ctx context.Context, userID string) (string, error) {
	id, err := w.api.CreateDirectChat(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := w.RefreshChatRooms(ctx); err != nil {
		w.log.Warn("failed to refresh chat rooms after direct chat", zap.Error(err))
	}
	if chat, ok := w.list.Find(id); ok {
		if err := w.SelectChat(ctx, chat); err != nil {
			w.log.Warn("failed to open direct chat", zap.Error(err))
		}
	} else {
		w.nav.OpenChat(id)
	}
	return id, nil
}

// ============================================================================
// Observers
// ============================================================================

// OnMessage registers an observer for every inbound hub message, called
// after the message has been applied to the list and conversation.
func (w *Widget) OnMessage(fn func(Message)) {
	w.obsMu.Lock()
	w.onMessage = append(w.onMessage, fn)
	w.obsMu.Unlock()
}

// OnTyping registers an observer for typing indicators.
func (w *Widget) OnTyping(fn func(TypingIndicator)) {
	w.obsMu.Lock()
	w.onTyping = append(w.onTyping, fn)
	w.obsMu.Unlock()
}

// OnPresence registers an observer for participant joined/left events.
func (w *Widget) OnPresence(fn func(UserPresence)) {
	w.obsMu.Lock()
	w.onPresence = append(w.onPresence, fn)
	w.obsMu.Unlock()
}

// ============================================================================
// Inbound Event Handling
// ============================================================================

// handleHubMessage applies one pushed message: the chat list entry moves to
// the head regardless of which room is open, and the conversation appends
// it only when the room is open and the sender is someone else. Activity
// for an unknown room is dropped by the list.
func (w *Widget) handleHubMessage(msg Message) {
	w.mu.Lock()
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	w.list.ApplyActivity(msg.ChatRoomID, ts, msg.Body)
	w.convo.ReceiveRemote(msg)
	w.mu.Unlock()

	w.obsMu.Lock()
	fns := append([]func(Message){}, w.onMessage...)
	w.obsMu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

func (w *Widget) handleTyping(t TypingIndicator) {
	w.obsMu.Lock()
	fns := append([]func(TypingIndicator){}, w.onTyping...)
	w.obsMu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
}

func (w *Widget) handlePresence(p UserPresence) {
	w.obsMu.Lock()
	fns := append([]func(UserPresence){}, w.onPresence...)
	w.obsMu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}
