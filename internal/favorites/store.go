package favorites

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/logging"
	"github.com/starkeep/starkeep/internal/types"
)

// Store manages the favorite records of the active chat. The records
// themselves live in the chat metadata the host owns; the store reads and
// mutates that container in place and asks the host to persist after every
// change. Lookups are by favorite id or by message ref; presentation order is
// always derived fresh from the refs.
type Store struct {
	mu      sync.Mutex
	meta    func() *types.ChatMetadata
	persist func()
	log     zerolog.Logger
}

// NewStore creates a store over the host's metadata accessors. meta returns
// the active chat's metadata container (nil when no chat is active); persist
// schedules a save of that container.
func NewStore(meta func() *types.ChatMetadata, persist func()) *Store {
	return &Store{
		meta:    meta,
		persist: persist,
		log:     logging.New("favorites"),
	}
}

// Add records a favorite for the message at ref. Adding a ref that is already
// favorited returns the existing record unchanged. Returns nil when no chat
// metadata is available.
func (s *Store) Add(ref string, sender string, role types.Role) *types.FavoriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		s.log.Warn().Str("ref", ref).Msg("cannot favorite, no chat metadata")
		return nil
	}
	for i := range meta.Favorites {
		if meta.Favorites[i].MessageRef == ref {
			return &meta.Favorites[i]
		}
	}

	meta.Favorites = append(meta.Favorites, types.FavoriteRecord{
		ID:         uuid.NewString(),
		MessageRef: ref,
		Sender:     sender,
		Role:       role,
	})
	s.persist()
	s.log.Debug().Str("ref", ref).Msg("favorite added")
	return &meta.Favorites[len(meta.Favorites)-1]
}

// RemoveByID removes the favorite with the given id. Returns false when no
// such favorite exists.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return false
	}
	for i := range meta.Favorites {
		if meta.Favorites[i].ID == id {
			meta.Favorites = append(meta.Favorites[:i], meta.Favorites[i+1:]...)
			s.persist()
			return true
		}
	}
	s.log.Warn().Str("id", id).Msg("favorite not found for removal")
	return false
}

// RemoveByRef removes the first favorite recorded for ref. Returns false when
// the ref is not favorited.
func (s *Store) RemoveByRef(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return false
	}
	for i := range meta.Favorites {
		if meta.Favorites[i].MessageRef == ref {
			meta.Favorites = append(meta.Favorites[:i], meta.Favorites[i+1:]...)
			s.persist()
			s.log.Debug().Str("ref", ref).Msg("favorite removed")
			return true
		}
	}
	return false
}

// IsFavorited reports whether the message at ref has a favorite record.
func (s *Store) IsFavorited(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return false
	}
	for i := range meta.Favorites {
		if meta.Favorites[i].MessageRef == ref {
			return true
		}
	}
	return false
}

// Find returns the favorite with the given id, or nil.
func (s *Store) Find(id string) *types.FavoriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return nil
	}
	for i := range meta.Favorites {
		if meta.Favorites[i].ID == id {
			return &meta.Favorites[i]
		}
	}
	return nil
}

// UpdateNote replaces the note on the favorite with the given id.
func (s *Store) UpdateNote(id, note string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return false
	}
	for i := range meta.Favorites {
		if meta.Favorites[i].ID == id {
			meta.Favorites[i].Note = note
			s.persist()
			return true
		}
	}
	s.log.Warn().Str("id", id).Msg("favorite not found for note update")
	return false
}

// Records returns a snapshot of the favorites in insertion order.
func (s *Store) Records() []types.FavoriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return nil
	}
	out := make([]types.FavoriteRecord, len(meta.Favorites))
	copy(out, meta.Favorites)
	return out
}

// List returns a snapshot of the favorites sorted by numeric message ref,
// ascending. Records whose ref does not parse sort after all numeric refs, in
// insertion order.
func (s *Store) List() []types.FavoriteRecord {
	out := s.Records()
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := ParseRef(out[i].MessageRef)
		b, bok := ParseRef(out[j].MessageRef)
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		return a < b
	})
	return out
}

// Count returns the number of favorites.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return 0
	}
	return len(meta.Favorites)
}

// ClearInvalid removes every favorite for which invalid returns true and
// reports how many were removed.
func (s *Store) ClearInvalid(invalid func(rec types.FavoriteRecord) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.meta()
	if meta == nil {
		return 0
	}

	kept := meta.Favorites[:0]
	removed := 0
	for _, rec := range meta.Favorites {
		if invalid(rec) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		return 0
	}
	meta.Favorites = kept
	s.persist()
	s.log.Info().Int("removed", removed).Msg("cleared invalid favorites")
	return removed
}
