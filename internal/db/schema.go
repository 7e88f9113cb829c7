package db

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
-- Chats, one row per conversation
CREATE TABLE IF NOT EXISTS sk_chats (
  guid TEXT PRIMARY KEY,               -- e.g., "chat-a1b2c3d4"
  name TEXT NOT NULL,
  entity_kind TEXT NOT NULL,           -- "char" or "group"
  entity_id TEXT NOT NULL,
  created_at INTEGER NOT NULL          -- unix timestamp
);

-- Positional message log per chat. position is the log index and doubles as
-- the favorites reference scheme, so deletes reindex the tail.
CREATE TABLE IF NOT EXISTS sk_messages (
  chat_guid TEXT NOT NULL,
  position INTEGER NOT NULL,
  sender TEXT NOT NULL,
  role TEXT NOT NULL,                  -- "user" or "character"
  body TEXT NOT NULL,
  ts INTEGER NOT NULL,
  extra TEXT,                          -- JSON, nullable
  PRIMARY KEY (chat_guid, position),
  FOREIGN KEY (chat_guid) REFERENCES sk_chats(guid)
);

-- Per-chat metadata blob (favorites list lives in here)
CREATE TABLE IF NOT EXISTS sk_chat_metadata (
  chat_guid TEXT PRIMARY KEY,
  payload TEXT NOT NULL,               -- JSON ChatMetadata
  updated_at INTEGER NOT NULL,
  FOREIGN KEY (chat_guid) REFERENCES sk_chats(guid)
);

-- Preview chat assignments: entity key -> designated preview chat
CREATE TABLE IF NOT EXISTS sk_preview_chats (
  entity_key TEXT PRIMARY KEY,         -- "char_<id>" or "group_<id>"
  chat_guid TEXT NOT NULL
);

-- Workspace-level state (active chat pointer)
CREATE TABLE IF NOT EXISTS sk_state (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sk_messages_chat ON sk_messages(chat_guid, position);
`

// InitSchema creates all tables if they do not exist.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
