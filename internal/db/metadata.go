package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/logging"
	"github.com/starkeep/starkeep/internal/types"
)

// LoadMetadata returns the metadata container for a chat, creating an empty
// one on first access.
func LoadMetadata(conn *sql.DB, chatGUID string) (*types.ChatMetadata, error) {
	row := conn.QueryRow(`
		SELECT payload FROM sk_chat_metadata WHERE chat_guid = ?
	`, chatGUID)
	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return &types.ChatMetadata{ChatGUID: chatGUID}, nil
	}
	if err != nil {
		return nil, err
	}

	var meta types.ChatMetadata
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	meta.ChatGUID = chatGUID
	return &meta, nil
}

// SaveMetadata writes a chat's metadata container.
func SaveMetadata(conn *sql.DB, meta *types.ChatMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = conn.Exec(`
		INSERT INTO sk_chat_metadata (chat_guid, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_guid) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, meta.ChatGUID, string(payload), time.Now().UnixMilli())
	return err
}

// MetadataSaver debounces metadata writes. Callers schedule fire-and-forget
// saves after every mutation; the saver coalesces them and writes once the
// chat goes quiet. Reads must keep using the in-memory container, since the
// stored copy can lag behind by up to the debounce delay.
type MetadataSaver struct {
	mu      sync.Mutex
	conn    *sql.DB
	delay   time.Duration
	pending map[string]*types.ChatMetadata
	timer   *time.Timer
	log     zerolog.Logger
}

// NewMetadataSaver creates a saver with the given debounce delay.
func NewMetadataSaver(conn *sql.DB, delay time.Duration) *MetadataSaver {
	return &MetadataSaver{
		conn:    conn,
		delay:   delay,
		pending: make(map[string]*types.ChatMetadata),
		log:     logging.New("metadata"),
	}
}

// Schedule queues a metadata container for saving, resetting the debounce
// window. The same pointer may be scheduled repeatedly; the latest state at
// flush time wins.
func (s *MetadataSaver) Schedule(meta *types.ChatMetadata) {
	if meta == nil || meta.ChatGUID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[meta.ChatGUID] = meta
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.Flush)
}

// Flush writes all pending containers immediately. Safe to call at shutdown.
func (s *MetadataSaver) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]*types.ChatMetadata)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	for guid, meta := range pending {
		if err := SaveMetadata(s.conn, meta); err != nil {
			s.log.Warn().Err(err).Str("chat", guid).Msg("metadata save failed")
		}
	}
}
