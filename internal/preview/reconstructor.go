package preview

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/host"
	"github.com/starkeep/starkeep/internal/logging"
	"github.com/starkeep/starkeep/internal/types"
)

// State names the reconstructor's current phase.
type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateResolvingDestination State = "resolving_destination"
	StateAwaitingSwitch       State = "awaiting_switch"
	StateClearing             State = "clearing"
	StateAwaitingClear        State = "awaiting_clear"
	StateFilling              State = "filling"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

var (
	// ErrNoFavorites means the source chat has nothing to preview.
	ErrNoFavorites = errors.New("no favorites to preview")
	// ErrSwitchTimeout means the host never confirmed the switch to the
	// preview chat.
	ErrSwitchTimeout = errors.New("timed out waiting for chat switch")
	// ErrDestinationDrift means the active chat changed under the
	// reconstructor between the switch and the fill.
	ErrDestinationDrift = errors.New("active chat changed before fill")
)

// Mappings persists which chat serves as the preview destination for each
// source entity.
type Mappings interface {
	Get(entityKey string) (string, error)
	Set(entityKey, chatGUID string) error
}

// Config tunes a preview run.
type Config struct {
	// SwitchTimeout bounds the wait for the host to confirm a chat switch.
	SwitchTimeout time.Duration
	// ClearBudget bounds the wait for the cleared view to drain. Running
	// out is not fatal; the fill proceeds over whatever is left.
	ClearBudget time.Duration
	// ClearInterval is the drain poll interval.
	ClearInterval time.Duration
	// BatchSize is how many messages go in per fill batch.
	BatchSize int
	// BatchYield is the pause between batches, giving the host room to
	// render. Zero yields the scheduler without sleeping.
	BatchYield time.Duration
}

// DefaultConfig returns the default preview tuning.
func DefaultConfig() Config {
	return Config{
		SwitchTimeout: 5 * time.Second,
		ClearBudget:   2 * time.Second,
		ClearInterval: 50 * time.Millisecond,
		BatchSize:     20,
		BatchYield:    16 * time.Millisecond,
	}
}

// Result reports what a preview run did.
type Result struct {
	// ChatGUID is the preview chat that was filled.
	ChatGUID string
	// Prepared is how many favorites resolved against the source snapshot.
	Prepared int
	// Inserted is how many of those landed in the preview chat.
	Inserted int
	// Skipped is how many favorites pointed at deleted messages.
	Skipped int
}

// NoneApplied reports the degenerate outcome where messages were prepared
// but not one made it into the preview chat.
func (r Result) NoneApplied() bool {
	return r.Prepared > 0 && r.Inserted == 0
}

// Reconstructor rebuilds a chat's favorited messages inside a dedicated
// preview chat. One run: snapshot the source log, find or create the
// destination for the source entity, switch to it, empty it, then re-insert
// every still-resolvable favorite under its original position.
type Reconstructor struct {
	host     host.Host
	store    *favorites.Store
	mappings Mappings
	cfg      Config
	state    State
	log      zerolog.Logger
}

// New creates a reconstructor. Zero config fields fall back to defaults.
func New(h host.Host, store *favorites.Store, mappings Mappings, cfg Config) *Reconstructor {
	def := DefaultConfig()
	if cfg.SwitchTimeout == 0 {
		cfg.SwitchTimeout = def.SwitchTimeout
	}
	if cfg.ClearBudget == 0 {
		cfg.ClearBudget = def.ClearBudget
	}
	if cfg.ClearInterval == 0 {
		cfg.ClearInterval = def.ClearInterval
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	return &Reconstructor{
		host:     h,
		store:    store,
		mappings: mappings,
		cfg:      cfg,
		state:    StateIdle,
		log:      logging.New("preview"),
	}
}

// State returns the phase the last (or current) run reached.
func (r *Reconstructor) State() State {
	return r.state
}

// Run executes one preview. The source is whatever chat is active when Run is
// called; favorites and the message log are snapshotted up front, so nothing
// that happens during the run can corrupt the source.
func (r *Reconstructor) Run(ctx context.Context) (Result, error) {
	res, err := r.run(ctx)
	if err != nil {
		r.state = StateFailed
		return res, err
	}
	r.state = StateDone
	return res, nil
}

func (r *Reconstructor) run(ctx context.Context) (Result, error) {
	r.state = StateValidating

	source, err := r.host.ActiveConversation()
	if err != nil {
		return Result{}, fmt.Errorf("read source chat: %w", err)
	}
	records := r.store.Records()
	if len(records) == 0 {
		return Result{}, ErrNoFavorites
	}
	// Snapshot before any chat switching: the host's log is live and the
	// refs only mean anything against the source as it is right now.
	snapshot := types.CloneMessages(source.Messages)

	r.state = StateResolvingDestination
	dest, err := r.resolveDestination(ctx, source.Entity)
	if err != nil {
		return Result{}, err
	}

	r.state = StateClearing
	r.clearDestination(ctx)

	r.state = StateFilling
	prepared, skipped := r.prepare(records, snapshot)
	if len(prepared) == 0 {
		return Result{ChatGUID: dest, Skipped: skipped}, ErrNoFavorites
	}

	// The fill writes into whatever chat is active. Re-check that it is
	// still the destination before inserting anything.
	active, err := r.host.ActiveConversation()
	if err != nil {
		return Result{ChatGUID: dest}, fmt.Errorf("re-check active chat: %w", err)
	}
	if active.GUID != dest {
		return Result{ChatGUID: dest}, ErrDestinationDrift
	}

	inserted, err := r.fill(ctx, prepared)
	res := Result{ChatGUID: dest, Prepared: len(prepared), Inserted: inserted, Skipped: skipped}
	if err != nil {
		return res, err
	}
	if res.NoneApplied() {
		r.log.Warn().Int("prepared", res.Prepared).Msg("preview prepared messages but none were applied")
	}
	return res, nil
}

// resolveDestination returns the guid of the preview chat for entity, active
// and confirmed. An existing mapping is switched to; otherwise a fresh chat
// is created and recorded.
func (r *Reconstructor) resolveDestination(ctx context.Context, entity types.EntityRef) (string, error) {
	key := entity.PreviewKey()
	dest, err := r.mappings.Get(key)
	if err != nil {
		return "", fmt.Errorf("look up preview chat: %w", err)
	}

	if dest != "" {
		r.log.Debug().Str("entity", key).Str("chat", dest).Msg("reusing preview chat")
		if err := r.switchTo(ctx, entity, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	if err := r.host.CreateConversation(host.CreateOptions{Name: "preview"}); err != nil {
		return "", fmt.Errorf("create preview chat: %w", err)
	}
	created, err := r.host.ActiveConversation()
	if err != nil {
		return "", fmt.Errorf("read created preview chat: %w", err)
	}
	if err := r.mappings.Set(key, created.GUID); err != nil {
		return "", fmt.Errorf("record preview chat: %w", err)
	}
	r.log.Debug().Str("entity", key).Str("chat", created.GUID).Msg("created preview chat")
	return created.GUID, nil
}

// switchTo requests the switch and waits for the host to confirm it. The
// subscription opens before the request so the confirmation cannot slip by.
func (r *Reconstructor) switchTo(ctx context.Context, entity types.EntityRef, chatGUID string) error {
	r.state = StateAwaitingSwitch

	events, cancel := r.host.Events().Subscribe(host.EventChatChanged)
	defer cancel()

	if err := r.host.SwitchConversation(entity, chatGUID); err != nil {
		return fmt.Errorf("switch to preview chat: %w", err)
	}

	deadline := time.NewTimer(r.cfg.SwitchTimeout)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrSwitchTimeout
		case ev, ok := <-events:
			if !ok {
				return ErrSwitchTimeout
			}
			// Switches to other chats can land in between; only the
			// destination counts.
			if ev.ChatGUID == chatGUID {
				return nil
			}
		}
	}
}

// clearDestination empties the active chat and polls until the rendered view
// drains or the budget runs out. A slow drain is logged, not fatal.
func (r *Reconstructor) clearDestination(ctx context.Context) {
	if err := r.host.ClearActiveConversation(); err != nil {
		r.log.Warn().Err(err).Msg("clear preview chat failed")
		return
	}

	r.state = StateAwaitingClear
	deadline := time.Now().Add(r.cfg.ClearBudget)
	for r.host.RenderedCount() > 0 {
		if ctx.Err() != nil || time.Now().After(deadline) {
			r.log.Warn().Int("rendered", r.host.RenderedCount()).Msg("preview chat did not fully drain")
			return
		}
		time.Sleep(r.cfg.ClearInterval)
	}
}

// prepare resolves the stored favorites against the source snapshot and
// orders the survivors by position. Unresolvable refs are skipped with a
// warning; they mean the message was deleted after favoriting.
func (r *Reconstructor) prepare(records []types.FavoriteRecord, snapshot []types.Message) ([]types.Message, int) {
	prepared := make([]types.Message, 0, len(records))
	skipped := 0
	for _, rec := range records {
		msg, ok := favorites.Resolve(rec.MessageRef, snapshot)
		if !ok {
			r.log.Warn().Str("ref", rec.MessageRef).Str("id", rec.ID).Msg("favorite no longer resolves, skipping")
			skipped++
			continue
		}
		prepared = append(prepared, msg)
	}
	sort.Slice(prepared, func(i, j int) bool {
		return prepared[i].Position < prepared[j].Position
	})
	return prepared, skipped
}

// fill inserts the prepared messages into the active chat in batches, each
// message forced to its original position so the preview reads like the
// source with the gaps left visible.
func (r *Reconstructor) fill(ctx context.Context, prepared []types.Message) (int, error) {
	inserted := 0
	for start := 0; start < len(prepared); start += r.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		end := start + r.cfg.BatchSize
		if end > len(prepared) {
			end = len(prepared)
		}
		for _, msg := range prepared[start:end] {
			err := r.host.AppendMessage(ctx, msg, host.AppendOptions{ForcePosition: msg.Position})
			if err != nil {
				r.log.Warn().Err(err).Int("position", msg.Position).Msg("failed inserting preview message")
				continue
			}
			inserted++
		}
		if end < len(prepared) {
			r.yield()
		}
	}
	return inserted, nil
}

func (r *Reconstructor) yield() {
	if r.cfg.BatchYield > 0 {
		time.Sleep(r.cfg.BatchYield)
		return
	}
	runtime.Gosched()
}
