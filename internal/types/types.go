package types

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleCharacter Role = "character"
)

// EntityKind distinguishes single-character chats from group chats.
type EntityKind string

const (
	EntityCharacter EntityKind = "char"
	EntityGroup     EntityKind = "group"
)

// EntityRef identifies the character or group a chat belongs to.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// PreviewKey returns the mapping key under which this entity's preview chat
// is recorded, e.g. "char_seraphina" or "group_g42".
func (e EntityRef) PreviewKey() string {
	return string(e.Kind) + "_" + e.ID
}

// Message is one entry in a chat's positional message log.
type Message struct {
	Position int               `json:"position"`
	Sender   string            `json:"sender"`
	Role     Role              `json:"role"`
	Body     string            `json:"body"`
	TS       int64             `json:"ts"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Extra != nil {
		out.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// CloneMessages deep-copies a message log.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// Conversation is a chat together with its in-memory message log.
type Conversation struct {
	GUID     string
	Name     string
	Entity   EntityRef
	Messages []Message
}

// FavoriteRecord marks one message as favorited.
//
// MessageRef is the string-encoded index of the message in its chat's log at
// favoriting time. It is positional, not a stable identity: deleting or
// reindexing messages can leave it dangling, and callers must treat an
// unresolvable ref as pointing at a deleted message.
type FavoriteRecord struct {
	ID         string `json:"id"`
	MessageRef string `json:"message_ref"`
	Sender     string `json:"sender"`
	Role       Role   `json:"role"`
	Note       string `json:"note"`
}

// ChatMetadata is the per-chat container the host persists on our behalf.
// Favorites keeps insertion order; presentation order is always re-derived.
type ChatMetadata struct {
	ChatGUID  string           `json:"chat_guid"`
	Favorites []FavoriteRecord `json:"favorites"`
}

// PreviewMapping records the designated preview chat for a source entity.
type PreviewMapping struct {
	EntityKey string `json:"entity_key"`
	ChatGUID  string `json:"chat_guid"`
}
