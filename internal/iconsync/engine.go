package iconsync

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/logging"
	"github.com/starkeep/starkeep/internal/types"
)

// Row is one rendered message the engine can decorate. A row may not have a
// star affordance yet; AttachStar adds one.
type Row interface {
	// Ref returns the row's positional message ref.
	Ref() string
	// HasStar reports whether the star affordance is attached.
	HasStar() bool
	// AttachStar adds the affordance, initially unlit.
	AttachStar()
	// Starred reports whether the affordance is lit.
	Starred() bool
	// SetStarred lights or unlights the affordance.
	SetStarred(on bool)
	// Sender returns the display name of the message author.
	Sender() string
	// Role returns the message author's role.
	Role() types.Role
}

// View is the set of currently rendered rows.
type View interface {
	Rows() []Row
}

// Engine keeps the star affordances on a view in sync with the favorites
// store. It is the single writer of star state; everything else asks it to
// refresh.
type Engine struct {
	mu    sync.Mutex
	view  View
	store *favorites.Store
	log   zerolog.Logger
}

// NewEngine creates an engine over a view and store.
func NewEngine(view View, store *favorites.Store) *Engine {
	return &Engine{
		view:  view,
		store: store,
		log:   logging.New("iconsync"),
	}
}

// EnsureAffordances attaches a star to every rendered row that lacks one.
// Rows that already have one are left alone, so the pass is idempotent.
func (e *Engine) EnsureAffordances() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, row := range e.view.Rows() {
		if !row.HasStar() {
			row.AttachStar()
		}
	}
}

// RefreshStates recomputes every attached star from the store. Rows without
// an affordance are skipped.
func (e *Engine) RefreshStates() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, row := range e.view.Rows() {
		if !row.HasStar() {
			continue
		}
		row.SetStarred(e.store.IsFavorited(row.Ref()))
	}
}

// Sync attaches missing affordances and refreshes all states in one pass.
func (e *Engine) Sync() {
	e.EnsureAffordances()
	e.RefreshStates()
}

// Toggle flips the star on the given row and records the change in the store.
// The visual flip happens first; the store write follows and is not rolled
// back on failure, because the periodic refresh reconverges the view anyway.
// Returns the new starred state.
func (e *Engine) Toggle(row Row) bool {
	if !row.HasStar() {
		row.AttachStar()
	}
	next := !row.Starred()
	row.SetStarred(next)

	if next {
		if e.store.Add(row.Ref(), row.Sender(), row.Role()) == nil {
			e.log.Warn().Str("ref", row.Ref()).Msg("favorite not recorded")
		}
	} else {
		e.store.RemoveByRef(row.Ref())
	}
	return next
}

// ToggleRef toggles the row with the given ref. Returns false when no such
// row is rendered.
func (e *Engine) ToggleRef(ref string) (bool, bool) {
	e.mu.Lock()
	var target Row
	for _, row := range e.view.Rows() {
		if row.Ref() == ref {
			target = row
			break
		}
	}
	e.mu.Unlock()
	if target == nil {
		return false, false
	}
	return e.Toggle(target), true
}

// HandleDeleted reacts to a message deletion at the given position: the first
// favorite recorded for that ref is removed, then the whole view is
// refreshed, since the log reindexed underneath every later ref.
func (e *Engine) HandleDeleted(position int) {
	ref := favorites.FormatRef(position)
	if e.store.RemoveByRef(ref) {
		e.log.Debug().Str("ref", ref).Msg("favorite removed with its message")
	}
	e.Sync()
}
