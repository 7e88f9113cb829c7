package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/db"
	"github.com/starkeep/starkeep/internal/logging"
	"github.com/starkeep/starkeep/internal/types"
)

// ErrNoActiveChat is returned when an operation needs an active chat and the
// workspace has none selected.
var ErrNoActiveChat = errors.New("no active chat selected")

// Config tunes the local host.
type Config struct {
	// SettleDelay is how long asynchronous switch and clear effects take to
	// land, standing in for the render churn a real chat surface has.
	SettleDelay time.Duration
	// SaveDelay is the metadata save debounce window.
	SaveDelay time.Duration
}

// DefaultConfig returns the default local host configuration.
func DefaultConfig() Config {
	return Config{
		SettleDelay: 100 * time.Millisecond,
		SaveDelay:   500 * time.Millisecond,
	}
}

// Local is the sqlite-backed host implementation. Chat switching and view
// clearing complete asynchronously, so engine code coordinates with it the
// same way it would with a real chat surface.
type Local struct {
	mu       sync.Mutex
	conn     *sql.DB
	bus      *Bus
	saver    *db.MetadataSaver
	active   string
	rendered int
	meta     *types.ChatMetadata
	settle   time.Duration
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewLocal creates a local host over an open workspace database.
func NewLocal(conn *sql.DB, cfg Config) (*Local, error) {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultConfig().SettleDelay
	}
	if cfg.SaveDelay == 0 {
		cfg.SaveDelay = DefaultConfig().SaveDelay
	}

	active, err := db.GetActiveChat(conn)
	if err != nil {
		return nil, fmt.Errorf("read active chat: %w", err)
	}

	h := &Local{
		conn:   conn,
		bus:    NewBus(),
		saver:  db.NewMetadataSaver(conn, cfg.SaveDelay),
		active: active,
		settle: cfg.SettleDelay,
		log:    logging.New("host"),
	}
	if active != "" {
		count, err := db.CountMessages(conn, active)
		if err != nil {
			return nil, fmt.Errorf("count messages: %w", err)
		}
		h.rendered = count
	}
	return h, nil
}

// Close flushes pending metadata saves and waits for in-flight settling.
func (h *Local) Close() {
	h.wg.Wait()
	h.saver.Flush()
}

// Events returns the host's notification bus.
func (h *Local) Events() *Bus {
	return h.bus
}

// ActiveConversation returns the active chat with its full message log.
func (h *Local) ActiveConversation() (*types.Conversation, error) {
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == "" {
		return nil, ErrNoActiveChat
	}

	chat, err := db.GetChat(h.conn, active)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("active chat %s not found", active)
	}
	msgs, err := db.GetMessages(h.conn, active)
	if err != nil {
		return nil, err
	}
	chat.Messages = msgs
	return chat, nil
}

// CreateConversation creates a new chat for the active entity and makes it
// active immediately. The chat-changed notification still fires after the
// settle delay, as it does for a switch.
func (h *Local) CreateConversation(opts CreateOptions) error {
	current, err := h.ActiveConversation()
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = time.Now().Format("2006-01-02 15:04:05")
	}
	chat, err := db.CreateChat(h.conn, name, current.Entity)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	if opts.DeleteCurrent {
		if err := db.ClearMessages(h.conn, current.GUID); err != nil {
			h.log.Warn().Err(err).Str("chat", current.GUID).Msg("failed clearing replaced chat")
		}
	}

	if err := h.activate(chat.GUID); err != nil {
		return err
	}
	h.publishChatChangedAfterSettle(chat.GUID)
	return nil
}

// SwitchConversation requests a switch to the given chat. The switch lands
// after the settle delay and is confirmed through EventChatChanged.
func (h *Local) SwitchConversation(entity types.EntityRef, chatGUID string) error {
	chat, err := db.GetChat(h.conn, chatGUID)
	if err != nil {
		return err
	}
	if chat == nil {
		return fmt.Errorf("chat %s not found", chatGUID)
	}
	if chat.Entity != entity {
		return fmt.Errorf("chat %s belongs to %s, not %s", chatGUID, chat.Entity.PreviewKey(), entity.PreviewKey())
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		time.Sleep(h.settle)
		if err := h.activate(chatGUID); err != nil {
			h.log.Error().Err(err).Str("chat", chatGUID).Msg("switch failed")
			return
		}
		h.bus.Publish(Event{Kind: EventChatChanged, ChatGUID: chatGUID})
	}()
	return nil
}

// ClearActiveConversation removes all messages from the active chat. The
// stored log empties synchronously; the rendered view drains after the
// settle delay.
func (h *Local) ClearActiveConversation() error {
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == "" {
		return ErrNoActiveChat
	}

	if err := db.ClearMessages(h.conn, active); err != nil {
		return err
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		time.Sleep(h.settle)
		h.mu.Lock()
		if h.active == active {
			h.rendered = 0
		}
		h.mu.Unlock()
	}()
	return nil
}

// AppendMessage adds a message to the active chat.
func (h *Local) AppendMessage(ctx context.Context, msg types.Message, opts AppendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == "" {
		return ErrNoActiveChat
	}

	position := opts.ForcePosition
	if position >= 0 {
		if err := db.InsertMessageAt(h.conn, active, msg, position); err != nil {
			return err
		}
	} else {
		appended, err := db.AppendMessage(h.conn, active, msg)
		if err != nil {
			return err
		}
		position = appended
	}

	h.mu.Lock()
	h.rendered++
	h.mu.Unlock()
	h.bus.Publish(Event{Kind: EventMessageAdded, ChatGUID: active, Index: position})
	return nil
}

// DeleteMessage removes the message at position from the active chat,
// reindexing the tail, and notifies subscribers with the deleted index.
func (h *Local) DeleteMessage(position int) (bool, error) {
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == "" {
		return false, ErrNoActiveChat
	}

	removed, err := db.DeleteMessageAt(h.conn, active, position)
	if err != nil || !removed {
		return removed, err
	}

	h.mu.Lock()
	if h.rendered > 0 {
		h.rendered--
	}
	h.mu.Unlock()
	h.bus.Publish(Event{Kind: EventMessageDeleted, ChatGUID: active, Index: position})
	return true, nil
}

// EditMessage replaces the body of the message at position in the active chat.
func (h *Local) EditMessage(position int, body string) (bool, error) {
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == "" {
		return false, ErrNoActiveChat
	}

	updated, err := db.UpdateMessageAt(h.conn, active, position, body)
	if err != nil || !updated {
		return updated, err
	}
	h.bus.Publish(Event{Kind: EventMessageEdited, ChatGUID: active, Index: position})
	return true, nil
}

// NotifyHistoryLoaded reports that the full transcript was just rendered,
// the local stand-in for a bulk "load more history" completing.
func (h *Local) NotifyHistoryLoaded() {
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == "" {
		return
	}
	h.bus.Publish(Event{Kind: EventMoreLoaded, ChatGUID: active})
}

// RenderedCount reports how many messages the view currently shows.
func (h *Local) RenderedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rendered
}

// Metadata returns the active chat's metadata container, creating it on
// first access. The same pointer is returned until the active chat changes.
func (h *Local) Metadata() (*types.ChatMetadata, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == "" {
		return nil, ErrNoActiveChat
	}
	if h.meta != nil && h.meta.ChatGUID == h.active {
		return h.meta, nil
	}

	meta, err := db.LoadMetadata(h.conn, h.active)
	if err != nil {
		return nil, err
	}
	h.meta = meta
	return meta, nil
}

// PersistMetadata schedules a debounced save of the active chat's metadata.
func (h *Local) PersistMetadata() {
	h.mu.Lock()
	meta := h.meta
	h.mu.Unlock()
	h.saver.Schedule(meta)
}

// FlushMetadata forces any pending metadata saves to disk.
func (h *Local) FlushMetadata() {
	h.saver.Flush()
}

func (h *Local) activate(chatGUID string) error {
	if err := db.SetActiveChat(h.conn, chatGUID); err != nil {
		return fmt.Errorf("set active chat: %w", err)
	}
	count, err := db.CountMessages(h.conn, chatGUID)
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	meta, err := db.LoadMetadata(h.conn, chatGUID)
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	h.mu.Lock()
	h.active = chatGUID
	h.rendered = count
	h.meta = meta
	h.mu.Unlock()
	return nil
}

func (h *Local) publishChatChangedAfterSettle(chatGUID string) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		time.Sleep(h.settle)
		h.bus.Publish(Event{Kind: EventChatChanged, ChatGUID: chatGUID})
	}()
}
