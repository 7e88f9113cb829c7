package host

import (
	"testing"
	"time"
)

func TestBusFiltersByKind(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(EventChatChanged)
	defer cancel()

	bus.Publish(Event{Kind: EventMessageAdded, ChatGUID: "chat-a", Index: 3})
	bus.Publish(Event{Kind: EventChatChanged, ChatGUID: "chat-b"})

	select {
	case ev := <-ch:
		if ev.Kind != EventChatChanged || ev.ChatGUID != "chat-b" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected chat-changed event")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestBusSubscribeAllKinds(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Kind: EventMessageDeleted, ChatGUID: "chat-a", Index: 1})

	select {
	case ev := <-ch:
		if ev.Kind != EventMessageDeleted || ev.Index != 1 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(EventChatChanged)

	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(Event{Kind: EventChatChanged, ChatGUID: "chat-a"})
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(EventMessageAdded)
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Kind: EventMessageAdded, Index: i})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
		default:
			if drained != subscriberBuffer {
				t.Fatalf("drained %d events, expected %d", drained, subscriberBuffer)
			}
			return
		}
	}
}
