package amanahchat

import (
	"context"
	"errors"
	"testing"
	"time"
)

func summaryAt(id, title string, ts time.Time) ConversationSummary {
	return ConversationSummary{
		ChatRoomID:   id,
		RoomMemberID: "member-" + id,
		Title:        title,
		LastActionAt: ts,
	}
}

// ============================================================================
// Ordering
// ============================================================================

func TestChatListReplaceAllSorts(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{
		summaryAt("a", "Alpha", base.Add(1*time.Minute)),
		summaryAt("c", "Gamma", base.Add(9*time.Minute)),
		summaryAt("b", "Beta", base.Add(5*time.Minute)),
	})

	entries := list.Entries()
	want := []string{"c", "b", "a"}
	for i, id := range want {
		if entries[i].ChatRoomID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, entries[i].ChatRoomID)
		}
	}
}

func TestChatListApplyActivityMovesToHead(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{
		summaryAt("a", "Alpha", base.Add(1*time.Minute)),
		summaryAt("b", "Beta", base.Add(5*time.Minute)),
	})

	if !list.ApplyActivity("a", base.Add(10*time.Minute), "hello") {
		t.Fatal("expected activity for known room to be applied")
	}

	entries := list.Entries()
	if entries[0].ChatRoomID != "a" || entries[1].ChatRoomID != "b" {
		t.Fatalf("expected order [a b], got [%s %s]",
			entries[0].ChatRoomID, entries[1].ChatRoomID)
	}
	if entries[0].LastMessage != "hello" {
		t.Fatalf("expected preview updated, got %q", entries[0].LastMessage)
	}
	if !entries[0].LastActionAt.Equal(base.Add(10 * time.Minute)) {
		t.Fatalf("expected timestamp updated, got %v", entries[0].LastActionAt)
	}
	if entries[0].TotalMessages != 1 {
		t.Fatalf("expected message counter advanced, got %d", entries[0].TotalMessages)
	}
}

func TestChatListApplyActivityEmptyPreview(t *testing.T) {
	base := time.Now()
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{
		{ChatRoomID: "a", LastMessage: "old", LastActionAt: base},
	})

	list.ApplyActivity("a", base.Add(time.Minute), "")
	if got := list.Entries()[0].LastMessage; got != "old" {
		t.Fatalf("empty preview overwrote last message: %q", got)
	}
}

func TestChatListUnknownRoomDropped(t *testing.T) {
	base := time.Now()
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{
		summaryAt("a", "Alpha", base),
	})

	if list.ApplyActivity("ghost", base.Add(time.Minute), "boo") {
		t.Fatal("expected activity for unknown room to be dropped")
	}
	if list.Len() != 1 {
		t.Fatalf("unknown room was added: len=%d", list.Len())
	}
}

// ============================================================================
// Derived Views
// ============================================================================

func TestChatListFilter(t *testing.T) {
	base := time.Now()
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{
		summaryAt("a", "Dispatch Team", base.Add(2*time.Minute)),
		summaryAt("b", "Drivers", base.Add(1*time.Minute)),
		summaryAt("c", "Support", base),
	})

	t.Run("case insensitive match", func(t *testing.T) {
		got := list.Filter("dRiV")
		if len(got) != 1 || got[0].ChatRoomID != "b" {
			t.Fatalf("unexpected filter result: %+v", got)
		}
	})

	t.Run("empty query returns all", func(t *testing.T) {
		if got := list.Filter("  "); len(got) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(got))
		}
	})

	t.Run("filter does not mutate master list", func(t *testing.T) {
		got := list.Filter("support")
		got[0].Title = "mutated"
		if entry, _ := list.Find("c"); entry.Title != "Support" {
			t.Fatalf("filter result aliases master list: %q", entry.Title)
		}
	})
}

func TestChatListEntriesCopy(t *testing.T) {
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{summaryAt("a", "Alpha", time.Now())})

	entries := list.Entries()
	entries[0].Title = "mutated"
	if entry, _ := list.Find("a"); entry.Title != "Alpha" {
		t.Fatalf("Entries aliases internal storage: %q", entry.Title)
	}
}

// ============================================================================
// Room Joins
// ============================================================================

type recordingJoiner struct {
	calls []string
	fail  map[string]error
}

func (j *recordingJoiner) JoinRoom(_ context.Context, chatRoomID string) error {
	j.calls = append(j.calls, chatRoomID)
	if err, ok := j.fail[chatRoomID]; ok {
		return err
	}
	return nil
}

func TestChatListJoinAllKnownRooms(t *testing.T) {
	base := time.Now()
	list := NewChatList(nil)
	list.ReplaceAll([]ConversationSummary{
		summaryAt("a", "Alpha", base.Add(3*time.Minute)),
		summaryAt("b", "Beta", base.Add(2*time.Minute)),
		summaryAt("c", "Gamma", base.Add(1*time.Minute)),
	})

	joiner := &recordingJoiner{fail: map[string]error{"b": errors.New("denied")}}
	joined := list.JoinAllKnownRooms(context.Background(), joiner)

	if len(joiner.calls) != 3 {
		t.Fatalf("expected every room attempted, got %d calls", len(joiner.calls))
	}
	if len(joined) != 2 {
		t.Fatalf("expected 2 successful joins, got %d", len(joined))
	}
	for _, id := range joined {
		if id == "b" {
			t.Fatal("failed room reported as joined")
		}
	}
}
