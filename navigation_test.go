package amanahchat

import (
	"testing"
)

// ============================================================================
// Forward / Back Navigation
// ============================================================================

func TestNavigatorForwardBack(t *testing.T) {
	nav := NewNavigator(nil)

	nav.OpenChat("room-1")
	nav.OpenGroupManagement("group-1")

	s := nav.State()
	if s.CurrentView != ViewGroupManagement {
		t.Fatalf("expected group management view, got %s", s.CurrentView)
	}
	if len(s.NavigationHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(s.NavigationHistory))
	}
	if !s.CanGoBack {
		t.Fatal("expected CanGoBack to be true")
	}

	nav.GoBack()
	s = nav.State()
	if s.CurrentView != ViewConversation {
		t.Fatalf("expected conversation view after back, got %s", s.CurrentView)
	}
	if s.CurrentData.ChatID != "room-1" {
		t.Fatalf("expected restored data chatId=room-1, got %q", s.CurrentData.ChatID)
	}

	nav.GoBack()
	s = nav.State()
	if s.CurrentView != ViewChatList {
		t.Fatalf("expected chat list after second back, got %s", s.CurrentView)
	}
	if s.CanGoBack {
		t.Fatal("expected CanGoBack to be false with empty history")
	}
}

func TestNavigatorGoBackEmptyHistory(t *testing.T) {
	nav := NewNavigator(nil)

	before := nav.State()
	nav.GoBack()
	after := nav.State()

	if after.CurrentView != before.CurrentView {
		t.Fatalf("state changed on back with empty history: %s -> %s",
			before.CurrentView, after.CurrentView)
	}
	if len(after.NavigationHistory) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(after.NavigationHistory))
	}
}

func TestNavigatorSameViewNoOp(t *testing.T) {
	nav := NewNavigator(nil)

	nav.OpenChat("room-1")
	depth := len(nav.State().NavigationHistory)

	nav.OpenChat("room-1")
	s := nav.State()
	if len(s.NavigationHistory) != depth {
		t.Fatalf("same-view navigation pushed history: %d -> %d",
			depth, len(s.NavigationHistory))
	}
}

func TestNavigatorForwardForcesOpen(t *testing.T) {
	nav := NewNavigator(nil)

	s := nav.State()
	if s.IsOpen || !s.IsMinimized {
		t.Fatal("expected initial state closed and minimized")
	}

	nav.OpenChat("room-1")
	s = nav.State()
	if !s.IsOpen || s.IsMinimized {
		t.Fatal("expected forward navigation to open and unminimize")
	}
}

// ============================================================================
// Widget Visibility
// ============================================================================

func TestNavigatorCloseWidget(t *testing.T) {
	nav := NewNavigator(nil)

	nav.OpenChat("room-1")
	nav.OpenGroupManagement("group-1")
	nav.CloseWidget()

	s := nav.State()
	if s.IsOpen {
		t.Fatal("expected widget closed")
	}
	if s.CurrentView != ViewChatList {
		t.Fatalf("expected reset to chat list, got %s", s.CurrentView)
	}
	if len(s.NavigationHistory) != 0 {
		t.Fatalf("expected cleared history, got %d entries", len(s.NavigationHistory))
	}
	if s.CanGoBack {
		t.Fatal("expected CanGoBack false after close")
	}
}

func TestNavigatorToggleWidget(t *testing.T) {
	nav := NewNavigator(nil)

	nav.OpenChat("room-1")
	nav.ToggleWidget()
	s := nav.State()
	if !s.IsMinimized {
		t.Fatal("expected minimized after toggle")
	}
	if s.IsOpen {
		t.Fatal("widget open and minimized at the same time")
	}
	if s.CurrentView != ViewConversation {
		t.Fatalf("toggle changed view to %s", s.CurrentView)
	}
	depth := len(s.NavigationHistory)

	nav.ToggleWidget()
	s = nav.State()
	if s.IsMinimized || !s.IsOpen {
		t.Fatal("expected open and unminimized after second toggle")
	}
	if s.CurrentView != ViewConversation {
		t.Fatalf("expected toggle to restore conversation view, got %s", s.CurrentView)
	}
	if len(s.NavigationHistory) != depth {
		t.Fatal("toggle modified history")
	}
}

func TestNavigatorMinimize(t *testing.T) {
	nav := NewNavigator(nil)

	nav.OpenChat("room-1")
	nav.Minimize()

	s := nav.State()
	if !s.IsMinimized {
		t.Fatal("expected minimized")
	}
	if s.IsOpen {
		t.Fatal("widget open and minimized at the same time")
	}
	if s.CurrentView != ViewConversation {
		t.Fatalf("minimize changed view to %s", s.CurrentView)
	}
	if len(s.NavigationHistory) != 1 {
		t.Fatalf("minimize modified history: %d entries", len(s.NavigationHistory))
	}

	nav.ToggleWidget()
	s = nav.State()
	if !s.IsOpen || s.IsMinimized {
		t.Fatal("expected toggle to reopen the minimized widget")
	}
	if s.CurrentView != ViewConversation {
		t.Fatalf("expected conversation view restored, got %s", s.CurrentView)
	}
}

// ============================================================================
// Broadcast
// ============================================================================

func TestNavigatorSubscribe(t *testing.T) {
	nav := NewNavigator(nil)

	var got []WidgetState
	unsub := nav.Subscribe(func(s WidgetState) {
		got = append(got, s)
	})

	nav.OpenChat("room-1")
	nav.GoToChatList()
	if len(got) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(got))
	}
	if got[0].CurrentView != ViewConversation || got[1].CurrentView != ViewChatList {
		t.Fatalf("unexpected emission order: %s, %s",
			got[0].CurrentView, got[1].CurrentView)
	}

	unsub()
	nav.OpenChat("room-2")
	if len(got) != 2 {
		t.Fatalf("received emission after unsubscribe: %d", len(got))
	}
}

func TestNavigatorSnapshotIsolation(t *testing.T) {
	nav := NewNavigator(nil)

	var captured WidgetState
	nav.Subscribe(func(s WidgetState) { captured = s })

	nav.OpenChat("room-1")
	nav.OpenGroupManagement("group-1")

	// Mutating a received snapshot must not affect the machine.
	captured.NavigationHistory[0].View = ViewCommunicationHub

	nav.GoBack()
	nav.GoBack()
	if nav.State().CurrentView != ViewChatList {
		t.Fatalf("snapshot mutation leaked into navigator: %s", nav.State().CurrentView)
	}
}

func TestNavigatorClearHistory(t *testing.T) {
	nav := NewNavigator(nil)

	nav.OpenChat("room-1")
	nav.ClearHistory()

	s := nav.State()
	if len(s.NavigationHistory) != 0 || s.CanGoBack {
		t.Fatal("expected empty history and CanGoBack false")
	}
	if s.CurrentView != ViewConversation {
		t.Fatalf("clear history changed view to %s", s.CurrentView)
	}
}
