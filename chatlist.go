package amanahchat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Chat List Synchronizer
// ============================================================================

// RoomJoiner joins a push-transport room. Satisfied by Transport.
type RoomJoiner interface {
	JoinRoom(ctx context.Context, chatRoomID string) error
}

// ChatList maintains the viewer's conversation summaries ordered by most
// recent activity, newest first. It reconciles the REST snapshot with
// incremental hub activity.
type ChatList struct {
	mu      sync.RWMutex
	entries []ConversationSummary
	log     *zap.Logger
}

// NewChatList returns an empty chat list. A nil logger disables logging.
func NewChatList(log *zap.Logger) *ChatList {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatList{log: log}
}

// ReplaceAll swaps in a fresh snapshot, sorted descending by last activity.
func (l *ChatList) ReplaceAll(summaries []ConversationSummary) {
	entries := append([]ConversationSummary(nil), summaries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastActionAt.After(entries[j].LastActionAt)
	})

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

// ApplyActivity records an inbound message for the touched room: the entry
// moves to the head of the list, its activity timestamp and message counter
// advance, and a non-empty preview replaces the last-message text. Message
// events only; typing and presence never reorder the list. Activity for a
// room not in the list is dropped. Returns whether the room was found.
func (l *ChatList) ApplyActivity(chatRoomID string, ts time.Time, preview string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.entries {
		if l.entries[i].ChatRoomID == chatRoomID {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.log.Debug("activity for unknown room dropped", zap.String("chatRoomId", chatRoomID))
		return false
	}

	entry := l.entries[idx]
	entry.LastActionAt = ts
	if preview != "" {
		entry.LastMessage = preview
	}
	entry.TotalMessages++

	l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	l.entries = append([]ConversationSummary{entry}, l.entries...)
	return true
}

// Entries returns a copy of the list in display order.
func (l *ChatList) Entries() []ConversationSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]ConversationSummary(nil), l.entries...)
}

// Find returns the summary for a room, if present.
func (l *ChatList) Find(chatRoomID string) (ConversationSummary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.entries {
		if l.entries[i].ChatRoomID == chatRoomID {
			return l.entries[i], true
		}
	}
	return ConversationSummary{}, false
}

// Len returns the number of conversations.
func (l *ChatList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// RoomIDs returns the ids of all known rooms in display order.
func (l *ChatList) RoomIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, len(l.entries))
	for i := range l.entries {
		ids[i] = l.entries[i].ChatRoomID
	}
	return ids
}

// Filter returns the entries whose title contains the query, case
// insensitively. The result is a derived copy; the master order is kept.
func (l *ChatList) Filter(query string) []ConversationSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	l.mu.RLock()
	defer l.mu.RUnlock()

	if query == "" {
		return append([]ConversationSummary(nil), l.entries...)
	}
	var out []ConversationSummary
	for i := range l.entries {
		if strings.Contains(strings.ToLower(l.entries[i].Title), query) {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// JoinAllKnownRooms joins every room currently in the list. A failed join is
// logged and does not block the remaining rooms. Returns the ids joined.
func (l *ChatList) JoinAllKnownRooms(ctx context.Context, joiner RoomJoiner) []string {
	ids := l.RoomIDs()
	joined := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := joiner.JoinRoom(ctx, id); err != nil {
			l.log.Warn("failed to join room", zap.String("chatRoomId", id), zap.Error(err))
			continue
		}
		joined = append(joined, id)
	}
	return joined
}
