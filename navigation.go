package amanahchat

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Navigation State Machine
// ============================================================================

// Navigator owns the widget's navigation state: the current view, the
// open/minimized flags, and a back-navigable history stack. Every mutation
// emits a full WidgetState snapshot to all subscribers.
type Navigator struct {
	mu    sync.RWMutex
	state WidgetState
	log   *zap.Logger

	subMu  sync.Mutex
	subs   map[int]func(WidgetState)
	nextID int
}

// NewNavigator returns a Navigator starting on the chat list, closed and
// minimized. A nil logger disables logging.
func NewNavigator(log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{
		state: initialWidgetState(),
		log:   log,
		subs:  make(map[int]func(WidgetState)),
	}
}

func initialWidgetState() WidgetState {
	return WidgetState{
		CurrentView: ViewChatList,
		IsOpen:      false,
		IsMinimized: true,
	}
}

// State returns a snapshot of the current navigation state. The history
// slice is copied so callers can never alias internal storage.
func (n *Navigator) State() WidgetState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return snapshotState(n.state)
}

func snapshotState(s WidgetState) WidgetState {
	out := s
	out.NavigationHistory = append([]ViewHistoryItem(nil), s.NavigationHistory...)
	return out
}

// Subscribe registers a state observer and returns its unsubscribe func.
// The observer is called synchronously with a snapshot on every change.
func (n *Navigator) Subscribe(fn func(WidgetState)) (unsubscribe func()) {
	n.subMu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.subMu.Unlock()

	return func() {
		n.subMu.Lock()
		delete(n.subs, id)
		n.subMu.Unlock()
	}
}

func (n *Navigator) emit(s WidgetState) {
	n.subMu.Lock()
	fns := make([]func(WidgetState), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshotState(s))
	}
}

// ============================================================================
// View Transitions
// ============================================================================

// NavigateTo performs a forward transition to the given view. Navigating to
// the view already shown is a no-op and pushes nothing. Otherwise the
// departing view is pushed onto the history stack and the widget is forced
// open and unminimized.
func (n *Navigator) NavigateTo(view ViewType, data NavigationData) {
	n.mu.Lock()
	if n.state.CurrentView == view {
		n.mu.Unlock()
		return
	}

	n.state.NavigationHistory = append(n.state.NavigationHistory, ViewHistoryItem{
		View:      n.state.CurrentView,
		Data:      n.state.CurrentData,
		Timestamp: time.Now(),
	})
	n.state.CurrentView = view
	n.state.CurrentData = data
	n.state.IsOpen = true
	n.state.IsMinimized = false
	n.state.CanGoBack = true
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// GoBack pops the most recent history entry and restores its view and data.
// With an empty history it warns and leaves the state untouched.
func (n *Navigator) GoBack() {
	n.mu.Lock()
	if len(n.state.NavigationHistory) == 0 {
		n.mu.Unlock()
		n.log.Warn("cannot go back, navigation history is empty")
		return
	}

	last := len(n.state.NavigationHistory) - 1
	prev := n.state.NavigationHistory[last]
	n.state.NavigationHistory = n.state.NavigationHistory[:last]
	n.state.CurrentView = prev.View
	n.state.CurrentData = prev.Data
	n.state.CanGoBack = len(n.state.NavigationHistory) > 0
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// GoToChatList navigates to the chat list.
func (n *Navigator) GoToChatList() {
	n.NavigateTo(ViewChatList, NavigationData{})
}

// OpenChat navigates to the conversation view for the given room.
func (n *Navigator) OpenChat(chatID string) {
	n.NavigateTo(ViewConversation, NavigationData{ChatID: chatID})
}

// OpenGroupManagement navigates to the management screen of a group.
func (n *Navigator) OpenGroupManagement(groupID string) {
	n.NavigateTo(ViewGroupManagement, NavigationData{GroupID: groupID})
}

// OpenGroupCreation navigates to the group creation screen, optionally
// pre-selecting users.
func (n *Navigator) OpenGroupCreation(preselected []string) {
	n.NavigateTo(ViewGroupCreation, NavigationData{PreselectedUsers: preselected})
}

// GoToCommunicationHub navigates to the workspace member directory.
func (n *Navigator) GoToCommunicationHub() {
	n.NavigateTo(ViewCommunicationHub, NavigationData{})
}

// ============================================================================
// Widget Visibility
// ============================================================================

// OpenWidget opens the widget on the chat list without touching history.
func (n *Navigator) OpenWidget() {
	n.mu.Lock()
	n.state.IsOpen = true
	n.state.IsMinimized = false
	n.state.CurrentView = ViewChatList
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// CloseWidget hard-resets the widget: closed, back on the chat list, with
// history and data cleared.
func (n *Navigator) CloseWidget() {
	n.mu.Lock()
	n.state = initialWidgetState()
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// ToggleWidget flips between minimized and the previously shown view.
// History is not modified.
func (n *Navigator) ToggleWidget() {
	n.mu.Lock()
	if n.state.IsMinimized {
		n.state.IsOpen = true
		n.state.IsMinimized = false
	} else {
		n.state.IsOpen = false
		n.state.IsMinimized = true
	}
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// Minimize collapses the widget, keeping the current view and history. A
// minimized widget is never open at the same time.
func (n *Navigator) Minimize() {
	n.mu.Lock()
	n.state.IsOpen = false
	n.state.IsMinimized = true
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// ============================================================================
// Helpers
// ============================================================================

// ClearHistory drops the back stack without changing the current view.
func (n *Navigator) ClearHistory() {
	n.mu.Lock()
	n.state.NavigationHistory = nil
	n.state.CanGoBack = false
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// Reset restores the initial state.
func (n *Navigator) Reset() {
	n.mu.Lock()
	n.state = initialWidgetState()
	s := n.state
	n.mu.Unlock()

	n.emit(s)
}

// IsCurrentView reports whether the given view is the one shown.
func (n *Navigator) IsCurrentView(view ViewType) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state.CurrentView == view
}

// CurrentData returns the payload attached to the current view.
func (n *Navigator) CurrentData() NavigationData {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state.CurrentData
}
