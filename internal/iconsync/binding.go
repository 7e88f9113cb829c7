package iconsync

import (
	"sync"
	"time"

	"github.com/starkeep/starkeep/internal/host"
)

// Binding drives an engine from host events. Chat switches and bulk history
// loads trigger a delayed full sync, letting the view finish rendering first;
// message additions and edits refresh immediately; deletions go through
// HandleDeleted so the favorite tied to the removed message is dropped.
type Binding struct {
	engine *Engine
	delay  time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel func()
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Bind subscribes the engine to the bus. refreshDelay is how long to wait
// after a chat switch before syncing.
func Bind(engine *Engine, bus *host.Bus, refreshDelay time.Duration) *Binding {
	ch, cancel := bus.Subscribe(
		host.EventChatChanged,
		host.EventMessageAdded,
		host.EventMessageDeleted,
		host.EventMessageEdited,
		host.EventMoreLoaded,
	)

	b := &Binding{
		engine: engine,
		delay:  refreshDelay,
		cancel: cancel,
		stopCh: make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop(ch)
	return b
}

// Stop unsubscribes and waits for the event loop to exit.
func (b *Binding) Stop() {
	close(b.stopCh)
	b.cancel()
	b.wg.Wait()

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()
}

func (b *Binding) loop(ch <-chan host.Event) {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			b.handle(ev)
		}
	}
}

func (b *Binding) handle(ev host.Event) {
	switch ev.Kind {
	case host.EventChatChanged, host.EventMoreLoaded:
		b.scheduleSync()
	case host.EventMessageDeleted:
		b.engine.HandleDeleted(ev.Index)
	case host.EventMessageAdded, host.EventMessageEdited:
		b.engine.Sync()
	}
}

func (b *Binding) scheduleSync() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, func() {
		select {
		case <-b.stopCh:
			return
		default:
		}
		b.engine.Sync()
	})
}
