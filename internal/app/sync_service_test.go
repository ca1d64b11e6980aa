package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"wellness/internal/adapter/memory"
	"wellness/internal/app"
	"wellness/internal/domain"
	"wellness/internal/logger"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeScheduler records timers so tests decide when they fire.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) app.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every live timer with duration d and reports how many ran.
func (s *fakeScheduler) fire(d time.Duration) int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && t.d == d {
			t.stopped = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

func (s *fakeScheduler) live(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && t.d == d {
			n++
		}
	}
	return n
}

const (
	debounce   = 500 * time.Millisecond
	retryDelay = 5 * time.Second
)

type syncFixture struct {
	store  *memory.DB
	remote *memory.Outbox
	sched  *fakeScheduler
	now    time.Time
	mgr    *app.SyncManager
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	prev := logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(prev) })

	f := &syncFixture{
		store:  memory.New(),
		remote: memory.NewOutbox(),
		sched:  &fakeScheduler{},
		now:    time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	f.mgr = app.NewSyncManager(f.store, f.remote, app.SyncOptions{
		Debounce:    debounce,
		RetryDelay:  retryDelay,
		MaxAttempts: 3,
		MaxAge:      24 * time.Hour,
		Clock:       func() time.Time { return f.now },
		Scheduler:   f.sched,
	})
	return f
}

func TestQueueWrite_SavesLocallyBeforeDebounce(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	if err := f.mgr.QueueWrite(ctx, "meal", json.RawMessage(`{"kcal":300}`)); err != nil {
		t.Fatalf("QueueWrite: %v", err)
	}
	d, _ := f.store.GetDraft(ctx, "meal")
	if d == nil || string(d.Payload) != `{"kcal":300}` {
		t.Fatalf("expected an immediate local snapshot, got %v", d)
	}
	if f.remote.Calls() != 0 {
		t.Error("remote write must wait for the debounce")
	}
	if got := f.mgr.DraftState("meal"); got != domain.DraftDebounced {
		t.Errorf("state = %s; want debounced", got)
	}
}

func TestQueueWrite_DebounceIsPerKey(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_ = f.mgr.QueueWrite(ctx, "a", json.RawMessage(`1`))
	_ = f.mgr.QueueWrite(ctx, "a", json.RawMessage(`2`))
	_ = f.mgr.QueueWrite(ctx, "b", json.RawMessage(`3`))

	if n := f.sched.live(debounce); n != 2 {
		t.Fatalf("expected one live timer per key, got %d", n)
	}
	f.sched.fire(debounce)

	if got, _ := f.remote.Get("a"); string(got) != "2" {
		t.Errorf("expected only the latest payload for a, got %s", got)
	}
	if _, ok := f.remote.Get("b"); !ok {
		t.Error("expected b to be written")
	}
	if f.remote.Calls() != 2 {
		t.Errorf("expected 2 remote writes, got %d", f.remote.Calls())
	}
}

func TestFlush_SuccessRemovesItemAndDraft(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_ = f.mgr.QueueWrite(ctx, "meal", json.RawMessage(`{}`))
	f.sched.fire(debounce)

	if q := f.mgr.Queue(); len(q) != 0 {
		t.Errorf("expected empty queue, got %v", q)
	}
	if d, _ := f.store.GetDraft(ctx, "meal"); d != nil {
		t.Error("expected local draft to be deleted")
	}
	if got := f.mgr.DraftState("meal"); got != domain.DraftSynced {
		t.Errorf("state = %s; want synced", got)
	}
}

func TestFlush_FailsAfterThreeAttempts(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.remote.SetError(errors.New("offline"))

	_ = f.mgr.QueueWrite(ctx, "meal", json.RawMessage(`{}`))
	f.sched.fire(debounce)

	q := f.mgr.Queue()
	if len(q) != 1 || q[0].AttemptCount != 1 || q[0].Status != domain.SyncPending {
		t.Fatalf("after 1 failure: %+v", q)
	}
	if f.sched.live(retryDelay) != 1 {
		t.Fatal("expected a rescheduled drain")
	}

	f.sched.fire(retryDelay)
	f.sched.fire(retryDelay)

	q = f.mgr.Queue()
	if q[0].Status != domain.SyncFailed || q[0].AttemptCount != 3 || q[0].LastError != "offline" {
		t.Fatalf("expected failed after 3 attempts, got %+v", q[0])
	}
	if f.sched.live(retryDelay) != 0 {
		t.Error("failed items must not be rescheduled")
	}
	calls := f.remote.Calls()
	f.mgr.Flush(ctx)
	if f.remote.Calls() != calls {
		t.Error("failed items must not be retried by a drain")
	}
	if d, _ := f.store.GetDraft(ctx, "meal"); d == nil {
		t.Error("the local draft must survive a failed sync")
	}
	if got := f.mgr.DraftState("meal"); got != domain.DraftFailed {
		t.Errorf("state = %s; want failed", got)
	}
}

func TestRetry_RearmsFailedItem(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.remote.SetError(errors.New("offline"))

	_ = f.mgr.QueueWrite(ctx, "meal", json.RawMessage(`{}`))
	f.sched.fire(debounce)
	f.sched.fire(retryDelay)
	f.sched.fire(retryDelay)
	id := f.mgr.Queue()[0].ID

	f.remote.SetError(nil)
	if err := f.mgr.Retry(ctx, id); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if q := f.mgr.Queue(); len(q) != 0 {
		t.Errorf("expected queue to drain, got %v", q)
	}
	if d, _ := f.store.GetDraft(ctx, "meal"); d != nil {
		t.Error("expected local draft to be deleted")
	}

	if err := f.mgr.Retry(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRetry_RejectsPendingItem(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.remote.SetError(errors.New("offline"))

	_ = f.mgr.QueueWrite(ctx, "meal", json.RawMessage(`{}`))
	f.sched.fire(debounce)
	if err := f.mgr.Retry(ctx, f.mgr.Queue()[0].ID); err == nil {
		t.Error("expected error retrying a pending item")
	}
}

// blockingWriter parks the first write until released.
type blockingWriter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	calls   int
}

func (w *blockingWriter) WriteDraft(ctx context.Context, key string, payload json.RawMessage) error {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	w.once.Do(func() {
		close(w.started)
		<-w.release
	})
	return nil
}

func TestFlush_SingleDrainAtATime(t *testing.T) {
	prev := logger.SetOutput(io.Discard)
	defer logger.SetOutput(prev)

	store := memory.New()
	w := &blockingWriter{started: make(chan struct{}), release: make(chan struct{})}
	sched := &fakeScheduler{}
	mgr := app.NewSyncManager(store, w, app.SyncOptions{Scheduler: sched})
	ctx := context.Background()

	_ = mgr.QueueWrite(ctx, "a", json.RawMessage(`1`))
	done := make(chan struct{})
	go func() {
		sched.fire(500 * time.Millisecond)
		close(done)
	}()
	<-w.started

	if n := mgr.Flush(ctx); n != 0 {
		t.Errorf("concurrent drain should return immediately, synced %d", n)
	}
	close(w.release)
	<-done

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.calls != 1 {
		t.Errorf("expected exactly one write, got %d", w.calls)
	}
}

func TestFlush_KeepsNewerLocalDraft(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_ = f.mgr.QueueWrite(ctx, "meal", json.RawMessage(`1`))
	// A newer snapshot lands while the first one is debounced and then synced.
	f.now = f.now.Add(time.Second)
	_ = f.store.PutDraft(ctx, domain.Draft{Key: "meal", Payload: json.RawMessage(`2`), SavedAt: f.now})
	f.sched.fire(debounce)

	d, _ := f.store.GetDraft(ctx, "meal")
	if d == nil || string(d.Payload) != "2" {
		t.Errorf("newer draft must survive, got %v", d)
	}
}

func TestQueueWrite_Validation(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	if err := f.mgr.QueueWrite(ctx, "", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for empty key")
	}
	if err := f.mgr.QueueWrite(ctx, "k", json.RawMessage(`{`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestRecoverUnsaved(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_ = f.store.PutDraft(ctx, domain.Draft{Key: "stale", Payload: json.RawMessage(`1`), SavedAt: f.now.Add(-25 * time.Hour)})
	_ = f.store.PutDraft(ctx, domain.Draft{Key: "fresh-2", Payload: json.RawMessage(`2`), SavedAt: f.now.Add(-time.Hour)})
	_ = f.store.PutDraft(ctx, domain.Draft{Key: "fresh-1", Payload: json.RawMessage(`3`), SavedAt: f.now.Add(-2 * time.Hour)})

	drafts, err := f.mgr.RecoverUnsaved(ctx)
	if err != nil {
		t.Fatalf("RecoverUnsaved: %v", err)
	}
	if len(drafts) != 2 || drafts[0].Key != "fresh-1" || drafts[1].Key != "fresh-2" {
		t.Errorf("expected fresh drafts oldest first, got %v", drafts)
	}
	if d, _ := f.store.GetDraft(ctx, "stale"); d != nil {
		t.Error("expected stale draft to be deleted")
	}
}

func TestStop_CancelsTimers(t *testing.T) {
	f := newSyncFixture(t)
	_ = f.mgr.QueueWrite(context.Background(), "a", json.RawMessage(`1`))
	f.mgr.Stop()
	if n := f.sched.live(debounce); n != 0 {
		t.Errorf("expected no live timers, got %d", n)
	}
}

func TestFlush_ItemQueuedDuringDrainSyncsInSamePass(t *testing.T) {
	prev := logger.SetOutput(io.Discard)
	defer logger.SetOutput(prev)

	store := memory.New()
	w := &blockingWriter{started: make(chan struct{}), release: make(chan struct{})}
	sched := &fakeScheduler{}
	mgr := app.NewSyncManager(store, w, app.SyncOptions{Scheduler: sched})
	ctx := context.Background()

	_ = mgr.QueueWrite(ctx, "a", json.RawMessage(`1`))
	done := make(chan struct{})
	go func() {
		sched.fire(debounce)
		close(done)
	}()
	<-w.started

	// b's debounce fires while a is still being written.
	_ = mgr.QueueWrite(ctx, "b", json.RawMessage(`2`))
	if n := sched.fire(debounce); n != 1 {
		t.Fatalf("expected b's debounce timer to fire, got %d", n)
	}
	close(w.release)
	<-done

	w.mu.Lock()
	calls := w.calls
	w.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected both items written in one drain, got %d writes", calls)
	}
	if got := mgr.DraftState("b"); got != domain.DraftSynced {
		t.Errorf("b state = %s; want synced", got)
	}
	if n := sched.live(retryDelay); n != 0 {
		t.Errorf("nothing failed, expected no retry timer, got %d", n)
	}
	if q := mgr.Queue(); len(q) != 0 {
		t.Errorf("expected empty queue, got %+v", q)
	}
}

func TestQueueWrite_AfterStopLeavesDraftIdle(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.mgr.Stop()

	if err := f.mgr.QueueWrite(ctx, "late", json.RawMessage(`{"kcal":120}`)); err != nil {
		t.Fatalf("QueueWrite: %v", err)
	}
	if got := f.mgr.DraftState("late"); got != domain.DraftIdle {
		t.Errorf("state = %s; want idle", got)
	}
	if d, _ := f.store.GetDraft(ctx, "late"); d == nil {
		t.Error("draft should still be saved locally")
	}
	if n := f.sched.live(debounce); n != 0 {
		t.Errorf("no timer should start after Stop, got %d", n)
	}
}

func TestResubmit(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	if err := f.mgr.Resubmit(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = f.store.PutDraft(ctx, domain.Draft{Key: "meal", Payload: json.RawMessage(`{"kcal":410}`), SavedAt: f.now.Add(-time.Hour)})
	drafts, err := f.mgr.RecoverUnsaved(ctx)
	if err != nil || len(drafts) != 1 {
		t.Fatalf("RecoverUnsaved = %v, %v", drafts, err)
	}
	if err := f.mgr.Resubmit(ctx, drafts[0].Key); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if got := f.mgr.DraftState("meal"); got != domain.DraftDebounced {
		t.Errorf("state = %s; want debounced", got)
	}
	f.sched.fire(debounce)
	if got, ok := f.remote.Get("meal"); !ok || string(got) != `{"kcal":410}` {
		t.Errorf("expected the recovered draft to reach the remote store, got %s", got)
	}
}
