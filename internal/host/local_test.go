package host

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/starkeep/starkeep/internal/db"
	"github.com/starkeep/starkeep/internal/types"
	_ "modernc.org/sqlite"
)

func openTestHost(t *testing.T) (*Local, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	chat, err := db.CreateChat(conn, "main", types.EntityRef{Kind: types.EntityCharacter, ID: "a"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := db.SetActiveChat(conn, chat.GUID); err != nil {
		t.Fatalf("set active: %v", err)
	}

	h, err := NewLocal(conn, Config{SettleDelay: 5 * time.Millisecond, SaveDelay: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("new local host: %v", err)
	}
	t.Cleanup(h.Close)
	return h, conn
}

func TestLocalAppendAndRenderedCount(t *testing.T) {
	h, _ := openTestHost(t)

	err := h.AppendMessage(context.Background(), types.Message{
		Sender: "User", Role: types.RoleUser, Body: "hello",
	}, AppendOptions{ForcePosition: -1})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if h.RenderedCount() != 1 {
		t.Fatalf("rendered: got %d, expected 1", h.RenderedCount())
	}

	conv, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Body != "hello" {
		t.Fatalf("unexpected log: %+v", conv.Messages)
	}
}

func TestLocalSwitchPublishesChatChanged(t *testing.T) {
	h, conn := openTestHost(t)

	conv, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	other, err := db.CreateChat(conn, "other", conv.Entity)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	ch, cancel := h.Events().Subscribe(EventChatChanged)
	defer cancel()

	if err := h.SwitchConversation(conv.Entity, other.GUID); err != nil {
		t.Fatalf("switch: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.ChatGUID != other.GUID {
			t.Fatalf("chat-changed guid: got %s, expected %s", ev.ChatGUID, other.GUID)
		}
	case <-time.After(time.Second):
		t.Fatal("no chat-changed event")
	}

	after, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if after.GUID != other.GUID {
		t.Fatalf("active: got %s, expected %s", after.GUID, other.GUID)
	}
}

func TestLocalSwitchRejectsWrongEntity(t *testing.T) {
	h, conn := openTestHost(t)

	other, err := db.CreateChat(conn, "other", types.EntityRef{Kind: types.EntityGroup, ID: "g1"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	err = h.SwitchConversation(types.EntityRef{Kind: types.EntityCharacter, ID: "a"}, other.GUID)
	if err == nil {
		t.Fatal("expected entity mismatch error")
	}
}

func TestLocalClearSettlesRenderedToZero(t *testing.T) {
	h, _ := openTestHost(t)

	for i := 0; i < 3; i++ {
		if err := h.AppendMessage(context.Background(), types.Message{
			Sender: "User", Role: types.RoleUser, Body: "m",
		}, AppendOptions{ForcePosition: -1}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := h.ClearActiveConversation(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for h.RenderedCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("rendered never drained, still %d", h.RenderedCount())
		}
		time.Sleep(2 * time.Millisecond)
	}

	conv, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if len(conv.Messages) != 0 {
		t.Fatalf("log not cleared: %d messages", len(conv.Messages))
	}
}

func TestLocalCreateConversationChangesActive(t *testing.T) {
	h, _ := openTestHost(t)

	before, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}

	if err := h.CreateConversation(CreateOptions{Name: "preview"}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	after, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if after.GUID == before.GUID {
		t.Fatal("active chat did not change")
	}
	if after.Entity != before.Entity {
		t.Fatalf("entity changed: %+v vs %+v", after.Entity, before.Entity)
	}
	if h.RenderedCount() != 0 {
		t.Fatalf("new chat rendered: got %d, expected 0", h.RenderedCount())
	}
}

func TestLocalMetadataPersistsThroughDebounce(t *testing.T) {
	h, conn := openTestHost(t)

	meta, err := h.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	meta.Favorites = append(meta.Favorites, types.FavoriteRecord{ID: "fav-1", MessageRef: "0"})
	h.PersistMetadata()
	h.FlushMetadata()

	loaded, err := db.LoadMetadata(conn, meta.ChatGUID)
	if err != nil {
		t.Fatalf("load metadata: %v", err)
	}
	if len(loaded.Favorites) != 1 {
		t.Fatalf("got %d favorites, expected 1", len(loaded.Favorites))
	}
}

func TestLocalEditMessage(t *testing.T) {
	h, _ := openTestHost(t)

	if err := h.AppendMessage(context.Background(), types.Message{
		Sender: "User", Role: types.RoleUser, Body: "draft",
	}, AppendOptions{ForcePosition: -1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	ch, cancel := h.Events().Subscribe(EventMessageEdited)
	defer cancel()

	updated, err := h.EditMessage(0, "final")
	if err != nil || !updated {
		t.Fatalf("edit: updated=%v err=%v", updated, err)
	}
	if updated, err := h.EditMessage(5, "x"); err != nil || updated {
		t.Fatalf("edit out of range: updated=%v err=%v", updated, err)
	}

	select {
	case ev := <-ch:
		if ev.Index != 0 {
			t.Fatalf("edited index: got %d, expected 0", ev.Index)
		}
	case <-time.After(time.Second):
		t.Fatal("no message-edited event")
	}

	conv, err := h.ActiveConversation()
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if conv.Messages[0].Body != "final" {
		t.Fatalf("body: got %q, expected %q", conv.Messages[0].Body, "final")
	}
}

func TestLocalDeleteMessagePublishesIndex(t *testing.T) {
	h, _ := openTestHost(t)

	for i := 0; i < 2; i++ {
		if err := h.AppendMessage(context.Background(), types.Message{
			Sender: "User", Role: types.RoleUser, Body: "m",
		}, AppendOptions{ForcePosition: -1}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	ch, cancel := h.Events().Subscribe(EventMessageDeleted)
	defer cancel()

	removed, err := h.DeleteMessage(0)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}

	select {
	case ev := <-ch:
		if ev.Index != 0 {
			t.Fatalf("deleted index: got %d, expected 0", ev.Index)
		}
	case <-time.After(time.Second):
		t.Fatal("no message-deleted event")
	}
}
