package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starkeep/starkeep/internal/types"
)

// AppendMessage appends a message at the end of a chat's log and returns the
// position it was stored at.
func AppendMessage(conn *sql.DB, chatGUID string, msg types.Message) (int, error) {
	row := conn.QueryRow(`
		SELECT COALESCE(MAX(position) + 1, 0) FROM sk_messages WHERE chat_guid = ?
	`, chatGUID)
	var position int
	if err := row.Scan(&position); err != nil {
		return 0, err
	}
	if err := InsertMessageAt(conn, chatGUID, msg, position); err != nil {
		return 0, err
	}
	return position, nil
}

// InsertMessageAt writes a message at an explicit position, replacing any
// message already stored there. Used by preview replay to force original
// positional identifiers.
func InsertMessageAt(conn *sql.DB, chatGUID string, msg types.Message, position int) error {
	var extra any
	if len(msg.Extra) > 0 {
		raw, err := json.Marshal(msg.Extra)
		if err != nil {
			return fmt.Errorf("marshal extra: %w", err)
		}
		extra = string(raw)
	}
	_, err := conn.Exec(`
		INSERT OR REPLACE INTO sk_messages (chat_guid, position, sender, role, body, ts, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, chatGUID, position, msg.Sender, string(msg.Role), msg.Body, msg.TS, extra)
	return err
}

// GetMessages returns a chat's full log ordered by position.
func GetMessages(conn *sql.DB, chatGUID string) ([]types.Message, error) {
	rows, err := conn.Query(`
		SELECT position, sender, role, body, ts, extra
		FROM sk_messages WHERE chat_guid = ? ORDER BY position
	`, chatGUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		var msg types.Message
		var role string
		var extra sql.NullString
		if err := rows.Scan(&msg.Position, &msg.Sender, &role, &msg.Body, &msg.TS, &extra); err != nil {
			return nil, err
		}
		msg.Role = types.Role(role)
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &msg.Extra); err != nil {
				return nil, fmt.Errorf("unmarshal extra: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// CountMessages returns the number of messages in a chat.
func CountMessages(conn *sql.DB, chatGUID string) (int, error) {
	row := conn.QueryRow(`SELECT COUNT(*) FROM sk_messages WHERE chat_guid = ?`, chatGUID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteMessageAt removes the message at position and reindexes the tail so
// the log stays contiguous. Returns false if no message was at that position.
func DeleteMessageAt(conn *sql.DB, chatGUID string, position int) (bool, error) {
	tx, err := conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		DELETE FROM sk_messages WHERE chat_guid = ? AND position = ?
	`, chatGUID, position)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	// Reindex through negative positions so the composite primary key never
	// sees a transient duplicate.
	_, err = tx.Exec(`
		UPDATE sk_messages SET position = -position
		WHERE chat_guid = ? AND position > ?
	`, chatGUID, position)
	if err != nil {
		return false, err
	}
	_, err = tx.Exec(`
		UPDATE sk_messages SET position = -position - 1
		WHERE chat_guid = ? AND position < 0
	`, chatGUID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// UpdateMessageAt replaces the body of the message at position. Returns
// false if no message was at that position.
func UpdateMessageAt(conn *sql.DB, chatGUID string, position int, body string) (bool, error) {
	result, err := conn.Exec(`
		UPDATE sk_messages SET body = ? WHERE chat_guid = ? AND position = ?
	`, body, chatGUID, position)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ClearMessages deletes a chat's entire message log.
func ClearMessages(conn *sql.DB, chatGUID string) error {
	_, err := conn.Exec(`DELETE FROM sk_messages WHERE chat_guid = ?`, chatGUID)
	return err
}
