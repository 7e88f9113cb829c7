package db

import (
	"database/sql"
	"time"

	"github.com/starkeep/starkeep/internal/core"
	"github.com/starkeep/starkeep/internal/types"
)

const activeChatKey = "active_chat"

// CreateChat inserts a new chat and returns it with an empty message log.
func CreateChat(conn *sql.DB, name string, entity types.EntityRef) (*types.Conversation, error) {
	guid, err := core.GenerateGUID("chat")
	if err != nil {
		return nil, err
	}
	_, err = conn.Exec(`
		INSERT INTO sk_chats (guid, name, entity_kind, entity_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, guid, name, string(entity.Kind), entity.ID, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	return &types.Conversation{GUID: guid, Name: name, Entity: entity}, nil
}

// GetChat returns a chat without its message log, or nil if not found.
func GetChat(conn *sql.DB, guid string) (*types.Conversation, error) {
	row := conn.QueryRow(`
		SELECT guid, name, entity_kind, entity_id FROM sk_chats WHERE guid = ?
	`, guid)
	var chat types.Conversation
	var kind string
	err := row.Scan(&chat.GUID, &chat.Name, &kind, &chat.Entity.ID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	chat.Entity.Kind = types.EntityKind(kind)
	return &chat, nil
}

// ListChats returns all chats, oldest first, without message logs.
func ListChats(conn *sql.DB) ([]types.Conversation, error) {
	rows, err := conn.Query(`
		SELECT guid, name, entity_kind, entity_id FROM sk_chats ORDER BY created_at, guid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []types.Conversation
	for rows.Next() {
		var chat types.Conversation
		var kind string
		if err := rows.Scan(&chat.GUID, &chat.Name, &kind, &chat.Entity.ID); err != nil {
			return nil, err
		}
		chat.Entity.Kind = types.EntityKind(kind)
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// SetActiveChat records the workspace's active chat pointer.
func SetActiveChat(conn *sql.DB, guid string) error {
	_, err := conn.Exec(`
		INSERT INTO sk_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, activeChatKey, guid)
	return err
}

// GetActiveChat returns the active chat guid, or empty string if none is set.
func GetActiveChat(conn *sql.DB) (string, error) {
	row := conn.QueryRow(`SELECT value FROM sk_state WHERE key = ?`, activeChatKey)
	var guid string
	err := row.Scan(&guid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return guid, nil
}
