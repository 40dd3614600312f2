package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"kyconboard/internal/kyc/form"
	"kyconboard/internal/kyc/models"
)

// DefaultDebounce is the quiescence window after the last mutation before a
// snapshot is written.
const DefaultDebounce = 2 * time.Second

// AutoSaver observes form mutations and persists debounced draft snapshots.
// Notify is cheap and safe to call on every field change; the snapshot write
// fires only after the debounce window passes with no further mutations, and
// every new mutation restarts the window.
type AutoSaver struct {
	store    Store
	mirror   Mirror
	logger   *slog.Logger
	form     *form.Form
	userID   string
	debounce time.Duration
	now      func() time.Time
	onSave   func()

	mu        sync.Mutex
	timer     *time.Timer
	lastSaved time.Time
	closed    bool
	// gen increments on every Clear. A flush scheduled before a Clear
	// carries the old value and must not write; see flush.
	gen uint64
}

// AutoSaverOption customises an AutoSaver.
type AutoSaverOption func(*AutoSaver)

// WithMirror attaches a remote draft copy, written best-effort after each
// local save, consulted when no local draft exists, and deleted
// fire-and-forget on Clear.
func WithMirror(m Mirror) AutoSaverOption {
	return func(a *AutoSaver) { a.mirror = m }
}

// WithDebounce overrides the quiescence window. Tests shrink it.
func WithDebounce(d time.Duration) AutoSaverOption {
	return func(a *AutoSaver) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// WithSaverClock overrides the snapshot timestamp source.
func WithSaverClock(now func() time.Time) AutoSaverOption {
	return func(a *AutoSaver) { a.now = now }
}

// WithSaveHook registers a callback invoked after each successful snapshot
// write. The session layer hooks metrics in here.
func WithSaveHook(fn func()) AutoSaverOption {
	return func(a *AutoSaver) { a.onSave = fn }
}

// NewAutoSaver builds the pipeline for one user's form session. Callers wire
// it up with form.OnChange(saver.Notify).
func NewAutoSaver(store Store, f *form.Form, userID string, logger *slog.Logger, opts ...AutoSaverOption) *AutoSaver {
	a := &AutoSaver{
		store:    store,
		logger:   logger,
		form:     f,
		userID:   userID,
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Notify schedules a save after the debounce window, restarting the window
// if one is already pending.
func (a *AutoSaver) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	var t *time.Timer
	t = time.AfterFunc(a.debounce, func() {
		a.mu.Lock()
		// A newer mutation may have replaced the timer already.
		if a.timer == t {
			a.timer = nil
		}
		a.mu.Unlock()
		a.save(gen)
	})
	a.timer = t
}

// save runs on the timer goroutine after quiescence.
func (a *AutoSaver) save(gen uint64) {
	if err := a.flush(context.Background(), gen); err != nil {
		a.logger.Warn("auto-save failed", "user_id", a.userID, "error", err)
	}
}

// Flush writes a snapshot immediately, bypassing the debounce window.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	gen := a.gen
	a.mu.Unlock()
	return a.flush(ctx, gen)
}

// flush writes the snapshot unless a Clear has run since gen was captured.
// The generation is re-checked after the store write because a Clear can
// land while the write is in flight; a stale write is undone so a cleared
// draft never resurfaces.
func (a *AutoSaver) flush(ctx context.Context, gen uint64) error {
	a.mu.Lock()
	stale := a.gen != gen
	a.mu.Unlock()
	if stale {
		return nil
	}

	now := a.now()
	snapshot := a.form.Snapshot(now)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, Key(a.userID), data); err != nil {
		return err
	}

	a.mu.Lock()
	stale = a.gen != gen
	if !stale {
		a.lastSaved = now
	}
	a.mu.Unlock()
	if stale {
		return a.store.Remove(ctx, Key(a.userID))
	}

	if a.mirror != nil {
		if err := a.mirror.Save(ctx, a.userID, data); err != nil {
			a.logger.Warn("draft mirror save failed", "user_id", a.userID, "error", err)
		}
	}
	if a.onSave != nil {
		a.onSave()
	}
	return nil
}

// FlushPending writes a snapshot only when a debounced save is still
// waiting to fire, cancelling the timer. Shutdown uses this so the tail
// mutation persists without resurrecting drafts that were already cleared.
func (a *AutoSaver) FlushPending(ctx context.Context) error {
	a.mu.Lock()
	pending := a.timer != nil
	gen := a.gen
	if pending {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	if !pending {
		return nil
	}
	return a.flush(ctx, gen)
}

// Restore loads the stored draft, if any, and overlays it onto the form,
// reporting whether a draft was applied. When the local store has no draft
// (or an unreadable one) the mirror is consulted, so a session started on
// another device picks up where it left off. A missing draft is not an
// error; an unreadable one is logged and skipped so the form proceeds empty
// rather than failing the session.
func (a *AutoSaver) Restore(ctx context.Context) (bool, error) {
	data, err := a.store.Get(ctx, Key(a.userID))
	if errors.Is(err, ErrNotFound) {
		return a.restoreFromMirror(ctx)
	}
	if err != nil {
		return false, err
	}
	var snapshot models.DraftSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		a.logger.Warn("discarding unreadable draft", "user_id", a.userID, "error", err)
		return a.restoreFromMirror(ctx)
	}
	a.apply(snapshot)
	return true, nil
}

// restoreFromMirror is the fallback path when no usable local draft exists.
// Mirror trouble is logged, never fatal; a recovered draft is cached back
// into the local store.
func (a *AutoSaver) restoreFromMirror(ctx context.Context) (bool, error) {
	if a.mirror == nil {
		return false, nil
	}
	data, err := a.mirror.Load(ctx, a.userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		a.logger.Warn("draft mirror load failed", "user_id", a.userID, "error", err)
		return false, nil
	}
	var snapshot models.DraftSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		a.logger.Warn("discarding unreadable mirrored draft", "user_id", a.userID, "error", err)
		return false, nil
	}
	if err := a.store.Set(ctx, Key(a.userID), data); err != nil {
		a.logger.Warn("caching mirrored draft failed", "user_id", a.userID, "error", err)
	}
	a.apply(snapshot)
	return true, nil
}

func (a *AutoSaver) apply(snapshot models.DraftSnapshot) {
	a.form.Restore(snapshot)
	if snapshot.LastUpdated != nil {
		a.mu.Lock()
		a.lastSaved = *snapshot.LastUpdated
		a.mu.Unlock()
	}
}

// Clear removes the local draft synchronously and the remote copy
// fire-and-forget, then resets the last-saved marker. A pending debounced
// save is cancelled, and an already-fired one is invalidated by the
// generation bump so it cannot resurrect the draft.
func (a *AutoSaver) Clear(ctx context.Context) error {
	a.mu.Lock()
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.lastSaved = time.Time{}
	a.mu.Unlock()

	if err := a.store.Remove(ctx, Key(a.userID)); err != nil {
		return err
	}
	if a.mirror != nil {
		go func() {
			if err := a.mirror.Delete(context.Background(), a.userID); err != nil {
				a.logger.Warn("draft mirror delete failed", "user_id", a.userID, "error", err)
			}
		}()
	}
	return nil
}

// LastSaved returns the time of the most recent snapshot write. The second
// return is false when nothing has been saved this session.
func (a *AutoSaver) LastSaved() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSaved, !a.lastSaved.IsZero()
}

// Close stops the pipeline. Pending saves are dropped; callers that need
// the tail mutation persisted should Flush first.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
