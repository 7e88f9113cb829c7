package db

import (
	"database/sql"

	"github.com/starkeep/starkeep/internal/types"
)

// GetPreviewChat returns the designated preview chat for an entity key, or
// empty string if none has been assigned yet.
func GetPreviewChat(conn *sql.DB, entityKey string) (string, error) {
	row := conn.QueryRow(`
		SELECT chat_guid FROM sk_preview_chats WHERE entity_key = ?
	`, entityKey)
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

// SetPreviewChat records the preview chat for an entity key.
func SetPreviewChat(conn *sql.DB, entityKey, chatGUID string) error {
	_, err := conn.Exec(`
		INSERT INTO sk_preview_chats (entity_key, chat_guid) VALUES (?, ?)
		ON CONFLICT(entity_key) DO UPDATE SET chat_guid = excluded.chat_guid
	`, entityKey, chatGUID)
	return err
}

// ListPreviewChats returns every entity-to-preview-chat assignment.
func ListPreviewChats(conn *sql.DB) ([]types.PreviewMapping, error) {
	rows, err := conn.Query(`
		SELECT entity_key, chat_guid FROM sk_preview_chats ORDER BY entity_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []types.PreviewMapping
	for rows.Next() {
		var m types.PreviewMapping
		if err := rows.Scan(&m.EntityKey, &m.ChatGUID); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// PreviewMappings is the sqlite-backed mapping store the preview
// reconstructor persists destination assignments through.
type PreviewMappings struct {
	Conn *sql.DB
}

// Get implements preview.Mappings.
func (p PreviewMappings) Get(entityKey string) (string, error) {
	return GetPreviewChat(p.Conn, entityKey)
}

// Set implements preview.Mappings.
func (p PreviewMappings) Set(entityKey, chatGUID string) error {
	return SetPreviewChat(p.Conn, entityKey, chatGUID)
}
