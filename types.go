package amanahchat

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Shared Types
// ============================================================================

// APIError represents a backend error extracted from the response envelope.
type APIError struct {
	Code    int    `json:"errorCode"`
	Level   int    `json:"errorCodeLevel"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "api error"
}

// APIResult is the generic response envelope returned by every endpoint.
type APIResult struct {
	ErrorCode      int             `json:"errorCode"`
	ErrorCodeLevel int             `json:"errorCodeLevel"`
	Message        string          `json:"message"`
	Result         json.RawMessage `json:"result,omitempty"`
}

// Err returns the envelope error, or nil when the call succeeded.
func (r *APIResult) Err() error {
	if r.ErrorCode == 0 {
		return nil
	}
	return &APIError{Code: r.ErrorCode, Level: r.ErrorCodeLevel, Message: r.Message}
}

// Decode unmarshals the Result field into the provided type.
func (r *APIResult) Decode(v interface{}) error {
	if r.Result == nil {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}

// Identity is the viewer's resolved session identity. It is immutable for
// the lifetime of the widget.
type Identity struct {
	UserID      string
	WorkspaceID string
}

// ============================================================================
// Navigation Types
// ============================================================================

// ViewType identifies a widget screen.
type ViewType string

const (
	ViewChatList         ViewType = "chat-list"
	ViewConversation     ViewType = "conversation"
	ViewGroupManagement  ViewType = "group-management"
	ViewGroupCreation    ViewType = "group-creation"
	ViewCommunicationHub ViewType = "communication-hub"
)

// NavigationData is the payload attached to the current view.
type NavigationData struct {
	ChatID           string
	GroupID          string
	PreselectedUsers []string
}

// ViewHistoryItem is one back-navigable entry in the history stack.
type ViewHistoryItem struct {
	View      ViewType
	Data      NavigationData
	Timestamp time.Time
}

// WidgetState is the full navigation state, emitted as a snapshot on every
// change. Consumers must treat each emission as a replacement, not a delta.
type WidgetState struct {
	CurrentView       ViewType
	IsOpen            bool
	IsMinimized       bool
	CurrentData       NavigationData
	NavigationHistory []ViewHistoryItem
	CanGoBack         bool
}

// ============================================================================
// Chat Types
// ============================================================================

// ConversationSummary is one chat-list entry.
type ConversationSummary struct {
	ChatRoomID    string    `json:"chatRoomId"`
	RoomMemberID  string    `json:"roomMemberId"`
	Title         string    `json:"title"`
	LastMessage   string    `json:"lastMessage"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	LastActionAt  time.Time `json:"lastActionDate"`
	TotalMessages int       `json:"totalMessages,omitempty"`
	IsOnline      bool      `json:"isOnline,omitempty"`
}

// DeliveryStatus tracks a message through its send lifecycle.
type DeliveryStatus string

const (
	StatusSending   DeliveryStatus = "sending"
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// Message is a single chat message. ID is empty for an optimistic local
// send until the backend assigns one.
type Message struct {
	ID              string         `json:"id,omitempty"`
	ChatRoomID      string         `json:"chatRoomId"`
	RoomMemberID    string         `json:"roomMemberId"`
	Body            string         `json:"message"`
	SenderName      string         `json:"senderName,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	FromCurrentUser bool           `json:"isFromCurrentUser"`
	Status          DeliveryStatus `json:"status,omitempty"`
}

// TypingIndicator is pushed when a participant starts or stops typing.
type TypingIndicator struct {
	ChatRoomID string `json:"roomId"`
	UserName   string `json:"userName"`
	IsTyping   bool   `json:"isTyping"`
}

// PresenceAction distinguishes join from leave events.
type PresenceAction string

const (
	PresenceJoined PresenceAction = "joined"
	PresenceLeft   PresenceAction = "left"
)

// UserPresence is pushed when a participant joins or leaves a room.
type UserPresence struct {
	ChatRoomID string         `json:"roomId"`
	UserName   string         `json:"userName"`
	Action     PresenceAction `json:"action"`
}

// ============================================================================
// Request Types
// ============================================================================

// SendMessageRequest carries an outbound message, with an optional file
// attachment sent alongside it as multipart form data.
type SendMessageRequest struct {
	ChatRoomID   string
	RoomMemberID string
	Body         string
	FileName     string
	File         []byte
}

// AddRoomMemberRequest identifies one member to add to a room.
type AddRoomMemberRequest struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}

// CreateRoomRequest creates a new group chat room.
type CreateRoomRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	WorkspaceID string                 `json:"workspaceId"`
	RoomMembers []AddRoomMemberRequest `json:"roomMembers"`
}

// RoomMember is one participant of a chat room.
type RoomMember struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// WorkspaceUser is a member of the viewer's workspace, listed in the
// communication hub and group creation screens.
type WorkspaceUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"isAdmin"`
}
