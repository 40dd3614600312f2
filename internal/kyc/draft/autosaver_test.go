package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kyconboard/internal/kyc/form"
	"kyconboard/internal/kyc/models"
)

// testDebounce is short enough to keep the suite fast but long enough to
// coalesce a burst of mutations reliably.
const testDebounce = 50 * time.Millisecond

type fakeMirror struct {
	mu      sync.Mutex
	saves   int
	deletes int
	failing bool
	stored  []byte
}

func (m *fakeMirror) Save(_ context.Context, _ string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("mirror down")
	}
	m.saves++
	m.stored = append([]byte(nil), value...)
	return nil
}

func (m *fakeMirror) Load(_ context.Context, _ string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errors.New("mirror down")
	}
	if m.stored == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.stored...), nil
}

func (m *fakeMirror) Delete(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("mirror down")
	}
	m.deletes++
	m.stored = nil
	return nil
}

// gateStore blocks inside Set so tests can hold a draft write in flight.
type gateStore struct {
	*InMemoryStore
	entered chan struct{}
	release chan struct{}
}

func newGateStore(inner *InMemoryStore) *gateStore {
	return &gateStore{
		InMemoryStore: inner,
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
}

func (g *gateStore) Set(ctx context.Context, key string, value []byte) error {
	g.entered <- struct{}{}
	<-g.release
	return g.InMemoryStore.Set(ctx, key, value)
}

func (m *fakeMirror) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves, m.deletes
}

type AutoSaverSuite struct {
	suite.Suite
	ctx    context.Context
	store  *InMemoryStore
	form   *form.Form
	logger *slog.Logger
}

func TestAutoSaverSuite(t *testing.T) {
	suite.Run(t, new(AutoSaverSuite))
}

func (s *AutoSaverSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.form = form.New()
	s.logger = slog.New(slog.DiscardHandler)
}

func (s *AutoSaverSuite) newSaver(opts ...AutoSaverOption) *AutoSaver {
	opts = append([]AutoSaverOption{WithDebounce(testDebounce)}, opts...)
	return NewAutoSaver(s.store, s.form, "user-1", s.logger, opts...)
}

func (s *AutoSaverSuite) draftExists() bool {
	_, err := s.store.Get(s.ctx, Key("user-1"))
	return err == nil
}

func (s *AutoSaverSuite) TestKey() {
	s.Equal("kycDraft_user-1", Key("user-1"))
}

func (s *AutoSaverSuite) TestDebounceCoalescesBursts() {
	var saves int
	var mu sync.Mutex
	saver := s.newSaver(WithSaveHook(func() {
		mu.Lock()
		saves++
		mu.Unlock()
	}))
	defer saver.Close()
	s.form.OnChange(saver.Notify)

	// A burst of mutations inside the debounce window.
	for i := 0; i < 10; i++ {
		p := s.form.Member()
		p.Name.First = "Jane"
		s.form.SetMember(p)
	}

	// Nothing is written until the window passes quiescent.
	s.False(s.draftExists())

	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return saves == 1
	}, 20*testDebounce, testDebounce/5)
	s.True(s.draftExists())

	// No further writes happen without new mutations.
	time.Sleep(3 * testDebounce)
	mu.Lock()
	s.Equal(1, saves)
	mu.Unlock()

	_, ok := saver.LastSaved()
	s.True(ok)
}

func (s *AutoSaverSuite) TestNewMutationRestartsWindow() {
	saver := s.newSaver()
	defer saver.Close()
	s.form.OnChange(saver.Notify)

	s.form.SetMember(models.Person{Name: models.Name{First: "A"}})
	time.Sleep(testDebounce / 2)
	s.form.SetMember(models.Person{Name: models.Name{First: "B"}})
	time.Sleep(testDebounce / 2)

	// The first timer would have fired by now had the second mutation not
	// restarted it.
	s.False(s.draftExists())

	s.Require().Eventually(s.draftExists, 20*testDebounce, testDebounce/5)

	data, err := s.store.Get(s.ctx, Key("user-1"))
	s.Require().NoError(err)
	var snap models.DraftSnapshot
	s.Require().NoError(json.Unmarshal(data, &snap))
	s.Require().NotNil(snap.Member)
	s.Equal("B", snap.Member.Name.First)
}

func (s *AutoSaverSuite) TestRestore() {
	s.Run("missing draft is not an error", func() {
		saver := s.newSaver()
		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.False(restored)
	})

	s.Run("stored draft overlays the form", func() {
		updated := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		snap := models.DraftSnapshot{
			Member:      &models.Person{Name: models.Name{First: "Jane"}},
			LastUpdated: &updated,
		}
		data, err := json.Marshal(snap)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), data))

		saver := s.newSaver()
		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.True(restored)
		s.Equal("Jane", s.form.Member().Name.First)

		saved, ok := saver.LastSaved()
		s.True(ok)
		s.Equal(updated, saved)
	})

	s.Run("corrupt draft logs and proceeds empty", func() {
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte("{not json")))
		f := form.New()
		saver := NewAutoSaver(s.store, f, "user-1", s.logger, WithDebounce(testDebounce))
		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.False(restored)
		s.Equal("", f.Member().Name.First)
	})
}

func (s *AutoSaverSuite) TestClear() {
	s.Run("removes the local draft and resets last-saved", func() {
		saver := s.newSaver()
		s.Require().NoError(saver.Flush(s.ctx))
		s.True(s.draftExists())

		s.Require().NoError(saver.Clear(s.ctx))
		s.False(s.draftExists())
		_, ok := saver.LastSaved()
		s.False(ok)
	})

	s.Run("cancels a pending debounced save", func() {
		saver := s.newSaver()
		defer saver.Close()
		s.form.OnChange(saver.Notify)

		s.form.SetMember(models.Person{Name: models.Name{First: "A"}})
		s.Require().NoError(saver.Clear(s.ctx))

		time.Sleep(3 * testDebounce)
		s.False(s.draftExists())
	})
}

// TestClearDuringInFlightSave holds a debounced write open inside the store
// while Clear runs. The draft must stay gone once the write completes.
func (s *AutoSaverSuite) TestClearDuringInFlightSave() {
	gate := newGateStore(s.store)
	saver := NewAutoSaver(gate, s.form, "user-1", s.logger, WithDebounce(testDebounce))
	defer saver.Close()
	s.form.OnChange(saver.Notify)

	s.form.SetMember(models.Person{Name: models.Name{First: "A"}})

	select {
	case <-gate.entered:
	case <-time.After(20 * testDebounce):
		s.FailNow("debounced save never reached the store")
	}

	s.Require().NoError(saver.Clear(s.ctx))
	close(gate.release)

	s.Require().Eventually(func() bool {
		_, err := s.store.Get(s.ctx, Key("user-1"))
		return errors.Is(err, ErrNotFound)
	}, time.Second, 5*time.Millisecond)

	_, ok := saver.LastSaved()
	s.False(ok)
}

// TestSavesResumeAfterClear verifies Clear only invalidates saves scheduled
// before it; later mutations persist normally.
func (s *AutoSaverSuite) TestSavesResumeAfterClear() {
	saver := s.newSaver()
	defer saver.Close()
	s.form.OnChange(saver.Notify)

	s.form.SetMember(models.Person{Name: models.Name{First: "A"}})
	s.Require().Eventually(s.draftExists, 20*testDebounce, testDebounce/5)

	s.Require().NoError(saver.Clear(s.ctx))
	s.False(s.draftExists())

	s.form.SetMember(models.Person{Name: models.Name{First: "B"}})
	s.Require().Eventually(s.draftExists, 20*testDebounce, testDebounce/5)
}

func (s *AutoSaverSuite) TestMirror() {
	s.Run("saves propagate to the mirror", func() {
		mirror := &fakeMirror{}
		saver := s.newSaver(WithMirror(mirror))
		s.Require().NoError(saver.Flush(s.ctx))
		saves, _ := mirror.counts()
		s.Equal(1, saves)
	})

	s.Run("mirror failure does not fail the local save", func() {
		mirror := &fakeMirror{failing: true}
		saver := s.newSaver(WithMirror(mirror))
		s.NoError(saver.Flush(s.ctx))
		s.True(s.draftExists())
	})

	s.Run("clear deletes the mirror copy asynchronously", func() {
		mirror := &fakeMirror{}
		saver := s.newSaver(WithMirror(mirror))
		s.Require().NoError(saver.Flush(s.ctx))
		s.Require().NoError(saver.Clear(s.ctx))

		s.Require().Eventually(func() bool {
			_, deletes := mirror.counts()
			return deletes == 1
		}, time.Second, 5*time.Millisecond)
	})
}

// TestRestoreFromMirror covers the fallback to the remote copy when the
// local store has nothing usable.
func (s *AutoSaverSuite) TestRestoreFromMirror() {
	snapshotBytes := func(first string) []byte {
		updated := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		data, err := json.Marshal(models.DraftSnapshot{
			Member:      &models.Person{Name: models.Name{First: first}},
			LastUpdated: &updated,
		})
		s.Require().NoError(err)
		return data
	}

	s.Run("missing local draft falls back to the mirror", func() {
		mirror := &fakeMirror{stored: snapshotBytes("Jane")}
		saver := s.newSaver(WithMirror(mirror))

		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.True(restored)
		s.Equal("Jane", s.form.Member().Name.First)

		// The recovered draft is cached locally for the next session.
		s.True(s.draftExists())
	})

	s.Run("unreadable local draft falls back to the mirror", func() {
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte("{not json")))
		mirror := &fakeMirror{stored: snapshotBytes("Janet")}
		f := form.New()
		saver := NewAutoSaver(s.store, f, "user-1", s.logger, WithDebounce(testDebounce), WithMirror(mirror))

		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.True(restored)
		s.Equal("Janet", f.Member().Name.First)
	})

	s.Run("empty mirror leaves the form empty", func() {
		s.Require().NoError(s.store.Remove(s.ctx, Key("user-1")))
		f := form.New()
		saver := NewAutoSaver(s.store, f, "user-1", s.logger, WithDebounce(testDebounce), WithMirror(&fakeMirror{}))

		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.False(restored)
	})

	s.Run("mirror failure is not fatal", func() {
		f := form.New()
		saver := NewAutoSaver(s.store, f, "user-1", s.logger, WithDebounce(testDebounce), WithMirror(&fakeMirror{failing: true}))

		restored, err := saver.Restore(s.ctx)
		s.NoError(err)
		s.False(restored)
		s.Equal("", f.Member().Name.First)
	})
}

func (s *AutoSaverSuite) TestFlushPending() {
	s.Run("writes only when a save is waiting", func() {
		saver := s.newSaver()
		s.NoError(saver.FlushPending(s.ctx))
		s.False(s.draftExists())

		saver.Notify()
		s.NoError(saver.FlushPending(s.ctx))
		s.True(s.draftExists())
	})

	s.Run("a save that already fired is not pending", func() {
		var mu sync.Mutex
		var saves int
		saver := s.newSaver(WithSaveHook(func() {
			mu.Lock()
			saves++
			mu.Unlock()
		}))
		defer saver.Close()

		saver.Notify()
		s.Require().Eventually(func() bool {
			mu.Lock()
			defer mu.Unlock()
			return saves == 1
		}, 20*testDebounce, testDebounce/5)

		s.NoError(saver.FlushPending(s.ctx))
		mu.Lock()
		s.Equal(1, saves)
		mu.Unlock()
	})
}

func (s *AutoSaverSuite) TestCloseStopsPipeline() {
	saver := s.newSaver()
	s.form.OnChange(saver.Notify)

	s.form.SetMember(models.Person{Name: models.Name{First: "A"}})
	saver.Close()

	time.Sleep(3 * testDebounce)
	s.False(s.draftExists())

	// Notifications after close are ignored.
	saver.Notify()
	time.Sleep(3 * testDebounce)
	s.False(s.draftExists())
}
