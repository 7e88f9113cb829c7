package iconsync

import (
	"sync"

	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/types"
)

// MemoryRow is a Row backed by plain fields.
type MemoryRow struct {
	mu      sync.Mutex
	ref     string
	sender  string
	role    types.Role
	hasStar bool
	starred bool
}

// NewMemoryRow creates a row for the given message.
func NewMemoryRow(msg types.Message) *MemoryRow {
	return &MemoryRow{
		ref:    favorites.FormatRef(msg.Position),
		sender: msg.Sender,
		role:   msg.Role,
	}
}

func (r *MemoryRow) Ref() string { r.mu.Lock(); defer r.mu.Unlock(); return r.ref }

func (r *MemoryRow) HasStar() bool { r.mu.Lock(); defer r.mu.Unlock(); return r.hasStar }

func (r *MemoryRow) AttachStar() { r.mu.Lock(); defer r.mu.Unlock(); r.hasStar = true }

func (r *MemoryRow) Starred() bool { r.mu.Lock(); defer r.mu.Unlock(); return r.starred }

func (r *MemoryRow) SetStarred(on bool) { r.mu.Lock(); defer r.mu.Unlock(); r.starred = on }

func (r *MemoryRow) Sender() string { r.mu.Lock(); defer r.mu.Unlock(); return r.sender }

func (r *MemoryRow) Role() types.Role { r.mu.Lock(); defer r.mu.Unlock(); return r.role }

// MemoryView is a View built from a message log. Commands that act on the
// current transcript load one, run the engine over it, and throw it away.
type MemoryView struct {
	mu   sync.Mutex
	rows []Row
}

// NewMemoryView creates a view with one row per message.
func NewMemoryView(msgs []types.Message) *MemoryView {
	v := &MemoryView{}
	v.Reset(msgs)
	return v
}

// Reset replaces the view's rows with one per message.
func (v *MemoryView) Reset(msgs []types.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = make([]Row, len(msgs))
	for i, msg := range msgs {
		v.rows[i] = NewMemoryRow(msg)
	}
}

// Rows returns the current rows.
func (v *MemoryView) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Row, len(v.rows))
	copy(out, v.rows)
	return out
}
