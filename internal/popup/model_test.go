package popup

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/types"
)

func testDeps(msgCount int, faveRefs []string) (Deps, *favorites.Store) {
	meta := &types.ChatMetadata{ChatGUID: "chat-a"}
	store := favorites.NewStore(
		func() *types.ChatMetadata { return meta },
		func() {},
	)
	msgs := make([]types.Message, msgCount)
	for i := range msgs {
		msgs[i] = types.Message{Position: i, Sender: "Seraphina", Role: types.RoleCharacter, Body: "hello there"}
	}
	for _, ref := range faveRefs {
		store.Add(ref, "Seraphina", types.RoleCharacter)
	}
	return Deps{
		Store:        store,
		Messages:     func() []types.Message { return msgs },
		ChatName:     "main",
		ItemsPerPage: 5,
	}, store
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.Msg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestViewListsSortedFavorites(t *testing.T) {
	deps, _ := testDeps(10, []string{"7", "2", "4"})
	m := NewModel(deps)

	view := m.View()
	for _, want := range []string{"#2", "#4", "#7", "Favorites — main (3)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "#2") > strings.Index(view, "#7") {
		t.Fatal("favorites not sorted by ref")
	}
}

func TestViewRendersUnavailableMessage(t *testing.T) {
	deps, _ := testDeps(3, []string{"1", "9"})
	m := NewModel(deps)

	view := m.View()
	if !strings.Contains(view, "[message unavailable]") {
		t.Fatalf("dangling favorite not flagged:\n%s", view)
	}
}

func TestPaginationShowsFivePerPage(t *testing.T) {
	refs := []string{"0", "1", "2", "3", "4", "5", "6"}
	deps, _ := testDeps(10, refs)
	m := NewModel(deps)

	view := m.View()
	if strings.Contains(view, "#5") {
		t.Fatal("second page leaked onto the first")
	}

	next := press(m, "l")
	view = next.View()
	if !strings.Contains(view, "#5") || !strings.Contains(view, "#6") {
		t.Fatalf("second page missing entries:\n%s", view)
	}
	if strings.Contains(view, "#0") {
		t.Fatal("first page leaked onto the second")
	}
}

func TestDeleteFlowRemovesFavorite(t *testing.T) {
	deps, store := testDeps(5, []string{"1", "3"})
	m := NewModel(deps)

	final := press(m, "d", "y")
	if store.Count() != 1 {
		t.Fatalf("count after delete: got %d, expected 1", store.Count())
	}
	if store.IsFavorited("1") {
		t.Fatal("cursor was on ref 1; it should be gone")
	}
	if !strings.Contains(final.View(), "favorite removed") {
		t.Fatal("missing removal status")
	}
}

func TestDeleteFlowCancel(t *testing.T) {
	deps, store := testDeps(5, []string{"1"})
	m := NewModel(deps)

	press(m, "d", "n")
	if store.Count() != 1 {
		t.Fatal("cancel must not remove anything")
	}
}

func TestNoteFlowSavesNote(t *testing.T) {
	deps, store := testDeps(5, []string{"2"})
	m := NewModel(deps)

	final := press(m, "n", "k", "e", "y", "enter")
	rec := store.List()[0]
	if rec.Note != "key" {
		t.Fatalf("note: got %q, expected %q", rec.Note, "key")
	}
	if !strings.Contains(final.View(), "(key)") {
		t.Fatal("note not rendered")
	}
}

func TestCleanFlowRemovesOnlyDangling(t *testing.T) {
	deps, store := testDeps(3, []string{"1", "8", "9"})
	m := NewModel(deps)

	press(m, "c", "y")
	if store.Count() != 1 {
		t.Fatalf("count after clean: got %d, expected 1", store.Count())
	}
	if !store.IsFavorited("1") {
		t.Fatal("valid favorite must survive the clean")
	}
}

func TestPreviewKeyInvokesCallback(t *testing.T) {
	deps, _ := testDeps(5, []string{"0"})
	called := 0
	deps.OnPreview = func() { called++ }
	m := NewModel(deps)

	press(m, "p")
	if called != 1 {
		t.Fatalf("preview callback ran %d times, expected 1", called)
	}
}

func TestPreviewKeyIgnoredWithoutFavorites(t *testing.T) {
	deps, _ := testDeps(5, nil)
	called := 0
	deps.OnPreview = func() { called++ }
	m := NewModel(deps)

	press(m, "p")
	if called != 0 {
		t.Fatal("preview must not run with no favorites")
	}
}
