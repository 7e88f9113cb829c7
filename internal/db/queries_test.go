package db

import (
	"testing"

	"github.com/starkeep/starkeep/internal/types"
)

func TestCreateAndGetChat(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	chat, err := CreateChat(conn, "main", types.EntityRef{Kind: types.EntityCharacter, ID: "seraphina"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	fetched, err := GetChat(conn, chat.GUID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected chat")
	}
	if fetched.Name != "main" {
		t.Fatalf("unexpected name: %s", fetched.Name)
	}
	if fetched.Entity.Kind != types.EntityCharacter || fetched.Entity.ID != "seraphina" {
		t.Fatalf("unexpected entity: %+v", fetched.Entity)
	}
}

func TestActiveChatPointer(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	active, err := GetActiveChat(conn)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active != "" {
		t.Fatalf("expected no active chat, got %s", active)
	}

	chat, err := CreateChat(conn, "main", types.EntityRef{Kind: types.EntityCharacter, ID: "a"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := SetActiveChat(conn, chat.GUID); err != nil {
		t.Fatalf("set active: %v", err)
	}
	active, err = GetActiveChat(conn)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active != chat.GUID {
		t.Fatalf("active chat: got %s, expected %s", active, chat.GUID)
	}
}

func TestAppendAndGetMessages(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	chat, err := CreateChat(conn, "main", types.EntityRef{Kind: types.EntityCharacter, ID: "a"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	for i, body := range []string{"one", "two", "three"} {
		pos, err := AppendMessage(conn, chat.GUID, types.Message{
			Sender: "user",
			Role:   types.RoleUser,
			Body:   body,
			TS:     int64(100 + i),
		})
		if err != nil {
			t.Fatalf("append %q: %v", body, err)
		}
		if pos != i {
			t.Fatalf("append %q: got position %d, expected %d", body, pos, i)
		}
	}

	msgs, err := GetMessages(conn, chat.GUID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, expected 3", len(msgs))
	}
	if msgs[1].Body != "two" || msgs[1].Position != 1 {
		t.Fatalf("unexpected message at 1: %+v", msgs[1])
	}
}

func TestInsertMessageAtForcedPosition(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	chat, err := CreateChat(conn, "preview", types.EntityRef{Kind: types.EntityCharacter, ID: "a"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	// Sparse inserts, simulating replay with forced original positions.
	for _, pos := range []int{7, 2, 4} {
		msg := types.Message{Sender: "char", Role: types.RoleCharacter, Body: "m", TS: 1}
		if err := InsertMessageAt(conn, chat.GUID, msg, pos); err != nil {
			t.Fatalf("insert at %d: %v", pos, err)
		}
	}

	msgs, err := GetMessages(conn, chat.GUID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, expected 3", len(msgs))
	}
	for i, want := range []int{2, 4, 7} {
		if msgs[i].Position != want {
			t.Fatalf("position[%d]: got %d, expected %d", i, msgs[i].Position, want)
		}
	}
}

func TestDeleteMessageAtReindexes(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	chat, err := CreateChat(conn, "main", types.EntityRef{Kind: types.EntityCharacter, ID: "a"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	for _, body := range []string{"a", "b", "c", "d"} {
		if _, err := AppendMessage(conn, chat.GUID, types.Message{Sender: "u", Role: types.RoleUser, Body: body}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	removed, err := DeleteMessageAt(conn, chat.GUID, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Fatal("expected delete to report removal")
	}

	msgs, err := GetMessages(conn, chat.GUID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, expected 3", len(msgs))
	}
	wantBodies := []string{"a", "c", "d"}
	for i, msg := range msgs {
		if msg.Position != i {
			t.Fatalf("position[%d]: got %d, expected %d", i, msg.Position, i)
		}
		if msg.Body != wantBodies[i] {
			t.Fatalf("body[%d]: got %s, expected %s", i, msg.Body, wantBodies[i])
		}
	}

	removed, err = DeleteMessageAt(conn, chat.GUID, 99)
	if err != nil {
		t.Fatalf("delete out of range: %v", err)
	}
	if removed {
		t.Fatal("expected no removal for out-of-range position")
	}
}

func TestClearMessages(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	chat, err := CreateChat(conn, "main", types.EntityRef{Kind: types.EntityCharacter, ID: "a"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if _, err := AppendMessage(conn, chat.GUID, types.Message{Sender: "u", Role: types.RoleUser, Body: "x"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := ClearMessages(conn, chat.GUID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, err := CountMessages(conn, chat.GUID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("got %d messages after clear, expected 0", count)
	}
}

func TestPreviewChatMapping(t *testing.T) {
	conn := openTestDB(t)
	requireSchema(t, conn)

	guid, err := GetPreviewChat(conn, "char_a")
	if err != nil {
		t.Fatalf("get mapping: %v", err)
	}
	if guid != "" {
		t.Fatalf("expected no mapping, got %s", guid)
	}

	if err := SetPreviewChat(conn, "char_a", "chat-11111111"); err != nil {
		t.Fatalf("set mapping: %v", err)
	}
	if err := SetPreviewChat(conn, "char_a", "chat-22222222"); err != nil {
		t.Fatalf("overwrite mapping: %v", err)
	}

	guid, err = GetPreviewChat(conn, "char_a")
	if err != nil {
		t.Fatalf("get mapping: %v", err)
	}
	if guid != "chat-22222222" {
		t.Fatalf("mapping: got %s, expected chat-22222222", guid)
	}
}
