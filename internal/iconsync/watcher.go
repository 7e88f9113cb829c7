package iconsync

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/logging"
)

// Watcher re-syncs the engine when the workspace database changes on disk and
// on a periodic sweep, catching writes made by other processes that never
// surface as host events.
type Watcher struct {
	engine   *Engine
	fsw      *fsnotify.Watcher
	sweep    time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher watches dir (the workspace state directory) and sweeps every
// sweep interval.
func NewWatcher(engine *Engine, dir string, sweep time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		engine: engine,
		fsw:    fsw,
		sweep:  sweep,
		log:    logging.New("iconsync.watcher"),
		stopCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Stop shuts down the watcher and waits for its loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.engine.Sync()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.scheduleSync()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Debug().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) scheduleSync() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(500*time.Millisecond, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		w.engine.Sync()
	})
}
