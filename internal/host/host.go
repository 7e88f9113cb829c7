package host

import (
	"context"

	"github.com/starkeep/starkeep/internal/types"
)

// CreateOptions controls CreateConversation.
type CreateOptions struct {
	// Name for the new chat; the host picks one when empty.
	Name string
	// DeleteCurrent removes the chat that was active before the call.
	DeleteCurrent bool
}

// AppendOptions controls AppendMessage.
type AppendOptions struct {
	// ForcePosition stores the message under an explicit positional
	// identifier instead of appending. Negative means append.
	ForcePosition int
}

// Host is the narrow boundary to the chat environment. The favorites engine
// only ever talks to the environment through this interface; everything else
// (rendering, storage layout, chat lifecycle) belongs to the host.
type Host interface {
	// ActiveConversation returns the active chat with its full message log.
	// The log is the host's in-memory copy; callers that need a stable view
	// across suspension points must snapshot it themselves.
	ActiveConversation() (*types.Conversation, error)

	// CreateConversation creates a new chat for the active entity and makes
	// it active. The caller must re-query ActiveConversation to learn the
	// new chat's identifier.
	CreateConversation(opts CreateOptions) error

	// SwitchConversation requests a switch to the given chat. Completion is
	// signaled asynchronously through an EventChatChanged carrying the
	// destination guid; the call itself returns once the request is accepted.
	SwitchConversation(entity types.EntityRef, chatGUID string) error

	// ClearActiveConversation removes all messages from the active chat.
	// The rendered view drains asynchronously; poll RenderedCount.
	ClearActiveConversation() error

	// AppendMessage adds a message to the active chat.
	AppendMessage(ctx context.Context, msg types.Message, opts AppendOptions) error

	// RenderedCount reports how many messages the view currently shows.
	RenderedCount() int

	// Metadata returns the active chat's metadata container, creating it on
	// first access. The returned pointer is the live in-memory authority.
	Metadata() (*types.ChatMetadata, error)

	// PersistMetadata schedules a debounced, fire-and-forget save of the
	// active chat's metadata. There is no completion signal.
	PersistMetadata()

	// Events returns the host's notification bus.
	Events() *Bus
}
