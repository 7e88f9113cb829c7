package iconsync

import (
	"testing"
	"time"

	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/host"
	"github.com/starkeep/starkeep/internal/types"
)

func testMessages(n int) []types.Message {
	msgs := make([]types.Message, n)
	for i := range msgs {
		msgs[i] = types.Message{Position: i, Sender: "User", Role: types.RoleUser, Body: "m"}
	}
	return msgs
}

func newTestEngine(n int) (*Engine, *MemoryView, *favorites.Store) {
	meta := &types.ChatMetadata{ChatGUID: "chat-a"}
	store := favorites.NewStore(
		func() *types.ChatMetadata { return meta },
		func() {},
	)
	view := NewMemoryView(testMessages(n))
	return NewEngine(view, store), view, store
}

func TestEnsureAffordancesIsIdempotent(t *testing.T) {
	engine, view, _ := newTestEngine(3)

	engine.EnsureAffordances()
	for _, row := range view.Rows() {
		if !row.HasStar() {
			t.Fatalf("row %s missing star", row.Ref())
		}
	}

	// A second pass must not disturb lit stars.
	view.Rows()[1].SetStarred(true)
	engine.EnsureAffordances()
	if !view.Rows()[1].Starred() {
		t.Fatal("second pass reset a lit star")
	}
}

func TestRefreshStatesMatchesStore(t *testing.T) {
	engine, view, store := newTestEngine(4)
	engine.EnsureAffordances()

	store.Add("1", "User", types.RoleUser)
	store.Add("3", "User", types.RoleUser)
	engine.RefreshStates()

	want := map[string]bool{"0": false, "1": true, "2": false, "3": true}
	for _, row := range view.Rows() {
		if row.Starred() != want[row.Ref()] {
			t.Fatalf("row %s: starred=%v, expected %v", row.Ref(), row.Starred(), want[row.Ref()])
		}
	}
}

func TestToggleFlipsVisualAndStore(t *testing.T) {
	engine, view, store := newTestEngine(2)
	engine.Sync()

	row := view.Rows()[0]
	if on := engine.Toggle(row); !on {
		t.Fatal("first toggle should star")
	}
	if !row.Starred() || !store.IsFavorited("0") {
		t.Fatal("toggle on did not land in view and store")
	}

	if on := engine.Toggle(row); on {
		t.Fatal("second toggle should unstar")
	}
	if row.Starred() || store.IsFavorited("0") {
		t.Fatal("toggle off did not land in view and store")
	}
}

func TestToggleRef(t *testing.T) {
	engine, _, store := newTestEngine(2)
	engine.Sync()

	on, ok := engine.ToggleRef("1")
	if !ok || !on {
		t.Fatalf("ToggleRef(1) = (%v, %v)", on, ok)
	}
	if !store.IsFavorited("1") {
		t.Fatal("store missed the toggle")
	}
	if _, ok := engine.ToggleRef("9"); ok {
		t.Fatal("unknown ref should not toggle")
	}
}

func TestHandleDeletedRemovesFirstMatchOnly(t *testing.T) {
	engine, view, store := newTestEngine(3)
	engine.Sync()

	store.Add("1", "User", types.RoleUser)
	store.Add("2", "User", types.RoleUser)

	engine.HandleDeleted(1)
	if store.IsFavorited("1") {
		t.Fatal("favorite for deleted message should be gone")
	}
	if !store.IsFavorited("2") {
		t.Fatal("other favorites must survive")
	}
	// Refresh after removal: the ref-2 star stays lit, ref 1 is dark.
	for _, row := range view.Rows() {
		want := row.Ref() == "2"
		if row.Starred() != want {
			t.Fatalf("row %s: starred=%v, expected %v", row.Ref(), row.Starred(), want)
		}
	}
}

func TestBindingSyncsOnChatChanged(t *testing.T) {
	engine, view, store := newTestEngine(2)
	store.Add("0", "User", types.RoleUser)

	bus := host.NewBus()
	binding := Bind(engine, bus, 5*time.Millisecond)
	defer binding.Stop()

	bus.Publish(host.Event{Kind: host.EventChatChanged, ChatGUID: "chat-a"})

	deadline := time.Now().Add(time.Second)
	for {
		rows := view.Rows()
		if rows[0].HasStar() && rows[0].Starred() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("binding never synced the view")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestBindingHandlesDeletion(t *testing.T) {
	engine, _, store := newTestEngine(3)
	engine.Sync()
	store.Add("2", "User", types.RoleUser)

	bus := host.NewBus()
	binding := Bind(engine, bus, time.Millisecond)
	defer binding.Stop()

	bus.Publish(host.Event{Kind: host.EventMessageDeleted, ChatGUID: "chat-a", Index: 2})

	deadline := time.Now().Add(time.Second)
	for store.IsFavorited("2") {
		if time.Now().After(deadline) {
			t.Fatal("deletion never removed the favorite")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
