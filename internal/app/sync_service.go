package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wellness/internal/domain"
	"wellness/internal/logger"
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SyncOptions tunes a SyncManager. Zero values take the defaults.
type SyncOptions struct {
	Debounce    time.Duration
	RetryDelay  time.Duration
	MaxAttempts int
	MaxAge      time.Duration
	Clock       func() time.Time
	Scheduler   Scheduler
}

// SyncManager saves drafts locally right away and pushes them to the remote
// store after a per-key debounce, retrying failed writes a bounded number of
// times.
type SyncManager struct {
	store  domain.DraftStore
	remote domain.RemoteWriter

	debounce    time.Duration
	retryDelay  time.Duration
	maxAttempts int
	maxAge      time.Duration
	now         func() time.Time
	sched       Scheduler

	mu         sync.Mutex
	timers     map[string]Timer
	states     map[string]domain.DraftState
	queue      []*domain.SyncQueueItem
	flying     map[string]bool
	syncing    bool
	rerun      bool
	drainTimer Timer
	stopped    bool
}

// NewSyncManager creates a SyncManager over the local draft store and the
// remote writer.
func NewSyncManager(store domain.DraftStore, remote domain.RemoteWriter, opts SyncOptions) *SyncManager {
	m := &SyncManager{
		store:       store,
		remote:      remote,
		debounce:    opts.Debounce,
		retryDelay:  opts.RetryDelay,
		maxAttempts: opts.MaxAttempts,
		maxAge:      opts.MaxAge,
		now:         opts.Clock,
		sched:       opts.Scheduler,
		timers:      map[string]Timer{},
		states:      map[string]domain.DraftState{},
		flying:      map[string]bool{},
	}
	if m.debounce <= 0 {
		m.debounce = 500 * time.Millisecond
	}
	if m.retryDelay <= 0 {
		m.retryDelay = 5 * time.Second
	}
	if m.maxAttempts <= 0 {
		m.maxAttempts = 3
	}
	if m.maxAge <= 0 {
		m.maxAge = 24 * time.Hour
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sched == nil {
		m.sched = timeScheduler{}
	}
	return m
}

// QueueWrite stores payload under key locally, then (re)starts the key's
// debounce timer. When the timer fires the draft is queued and the queue
// drained.
func (m *SyncManager) QueueWrite(ctx context.Context, key string, payload json.RawMessage) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage key is required")
	}
	if !json.Valid(payload) {
		return errors.New("payload must be valid JSON")
	}
	payload = slices.Clone(payload)

	m.setState(key, domain.DraftSaving)
	savedAt := m.now()
	if err := m.store.PutDraft(ctx, domain.Draft{Key: key, Payload: payload, SavedAt: savedAt}); err != nil {
		m.setState(key, domain.DraftFailed)
		return fmt.Errorf("save draft %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		m.states[key] = domain.DraftIdle
		return nil
	}
	if t, ok := m.timers[key]; ok {
		t.Stop()
	}
	m.timers[key] = m.sched.AfterFunc(m.debounce, func() {
		m.enqueue(key, payload, savedAt)
		m.Flush(context.Background())
	})
	m.states[key] = domain.DraftDebounced
	return nil
}

func (m *SyncManager) enqueue(key string, payload json.RawMessage, savedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, key)

	for _, it := range m.queue {
		if it.StorageKey == key && !m.flying[it.ID] {
			it.Payload = payload
			it.Timestamp = savedAt
			it.AttemptCount = 0
			it.Status = domain.SyncPending
			it.LastError = ""
			m.states[key] = domain.DraftQueued
			return
		}
	}
	m.queue = append(m.queue, &domain.SyncQueueItem{
		ID:         uuid.NewString(),
		Payload:    payload,
		StorageKey: key,
		Timestamp:  savedAt,
		Status:     domain.SyncPending,
	})
	m.states[key] = domain.DraftQueued
}

// Flush attempts every pending item once and returns how many were synced.
// Only one drain runs at a time. A call made while a drain is running returns
// 0 and makes that drain take one more pass for newly queued items.
func (m *SyncManager) Flush(ctx context.Context) int {
	m.mu.Lock()
	if m.syncing {
		m.rerun = true
		m.mu.Unlock()
		return 0
	}
	m.syncing = true
	if m.drainTimer != nil {
		m.drainTimer.Stop()
		m.drainTimer = nil
	}
	m.mu.Unlock()

	tried := make(map[string]bool)
	synced := 0
	for {
		for _, it := range m.takePending(tried) {
			err := m.remote.WriteDraft(ctx, it.StorageKey, it.Payload)
			if err == nil {
				m.complete(it)
				m.dropDraft(ctx, it)
				synced++
				continue
			}
			m.fail(it, err)
		}
		m.mu.Lock()
		if !m.rerun {
			break
		}
		m.rerun = false
		m.mu.Unlock()
	}

	defer m.mu.Unlock()
	m.syncing = false
	pending := 0
	for _, it := range m.queue {
		if it.Status == domain.SyncPending {
			pending++
		}
	}
	if pending > 0 && !m.stopped {
		logger.Info("sync: %d item(s) still pending, retrying in %s", pending, m.retryDelay)
		m.drainTimer = m.sched.AfterFunc(m.retryDelay, func() { m.Flush(context.Background()) })
	}
	return synced
}

// takePending marks pending items not yet tried in this drain as in flight.
// Items that failed earlier in the same drain wait for the retry delay.
func (m *SyncManager) takePending(tried map[string]bool) []domain.SyncQueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var batch []domain.SyncQueueItem
	for _, it := range m.queue {
		if it.Status == domain.SyncPending && !tried[it.ID] {
			tried[it.ID] = true
			m.flying[it.ID] = true
			m.states[it.StorageKey] = domain.DraftInFlight
			batch = append(batch, *it)
		}
	}
	return batch
}

func (m *SyncManager) complete(it domain.SyncQueueItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flying, it.ID)
	m.queue = slices.DeleteFunc(m.queue, func(q *domain.SyncQueueItem) bool { return q.ID == it.ID })
	if m.keyBusy(it.StorageKey) {
		m.states[it.StorageKey] = domain.DraftQueued
		return
	}
	if _, debouncing := m.timers[it.StorageKey]; !debouncing {
		m.states[it.StorageKey] = domain.DraftSynced
	}
}

func (m *SyncManager) fail(it domain.SyncQueueItem, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flying, it.ID)
	q := m.find(it.ID)
	if q == nil {
		return
	}
	q.AttemptCount++
	q.LastError = err.Error()
	if q.AttemptCount >= m.maxAttempts {
		q.Status = domain.SyncFailed
		m.states[q.StorageKey] = domain.DraftFailed
		logger.Error("sync: %s failed after %d attempts: %v", q.StorageKey, q.AttemptCount, err)
		return
	}
	m.states[q.StorageKey] = domain.DraftQueued
	logger.Warning("sync: write %s failed (attempt %d/%d): %v", q.StorageKey, q.AttemptCount, m.maxAttempts, err)
}

// dropDraft deletes the local snapshot unless a newer one was saved while the
// write was in flight.
func (m *SyncManager) dropDraft(ctx context.Context, it domain.SyncQueueItem) {
	d, err := m.store.GetDraft(ctx, it.StorageKey)
	if err != nil {
		logger.Warning("sync: read draft %s: %v", it.StorageKey, err)
		return
	}
	if d == nil || d.SavedAt.After(it.Timestamp) {
		return
	}
	if err := m.store.DeleteDraft(ctx, it.StorageKey); err != nil {
		logger.Warning("sync: delete draft %s: %v", it.StorageKey, err)
	}
}

func (m *SyncManager) keyBusy(key string) bool {
	for _, q := range m.queue {
		if q.StorageKey == key && q.Status == domain.SyncPending {
			return true
		}
	}
	return false
}

func (m *SyncManager) find(id string) *domain.SyncQueueItem {
	for _, q := range m.queue {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// Retry re-arms a failed item and drains the queue.
func (m *SyncManager) Retry(ctx context.Context, id string) error {
	m.mu.Lock()
	q := m.find(id)
	if q == nil {
		m.mu.Unlock()
		return fmt.Errorf("sync item %s: %w", id, domain.ErrNotFound)
	}
	if q.Status != domain.SyncFailed {
		m.mu.Unlock()
		return fmt.Errorf("sync item %s is %s, not failed", id, q.Status)
	}
	q.Status = domain.SyncPending
	q.AttemptCount = 0
	q.LastError = ""
	m.states[q.StorageKey] = domain.DraftQueued
	m.mu.Unlock()

	m.Flush(ctx)
	return nil
}

// Queue returns a snapshot of the queue, oldest first.
func (m *SyncManager) Queue() []domain.SyncQueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SyncQueueItem, len(m.queue))
	for i, q := range m.queue {
		out[i] = *q
	}
	slices.SortStableFunc(out, func(a, b domain.SyncQueueItem) int { return a.Timestamp.Compare(b.Timestamp) })
	return out
}

// DraftState reports where key is in the auto-save lifecycle.
func (m *SyncManager) DraftState(key string) domain.DraftState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[key]; ok {
		return s
	}
	return domain.DraftIdle
}

func (m *SyncManager) setState(key string, s domain.DraftState) {
	m.mu.Lock()
	m.states[key] = s
	m.mu.Unlock()
}

// RecoverUnsaved deletes drafts older than the maximum age and returns the
// rest, oldest first.
func (m *SyncManager) RecoverUnsaved(ctx context.Context) ([]domain.Draft, error) {
	drafts, err := m.store.ListDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	now := m.now()
	out := make([]domain.Draft, 0, len(drafts))
	for _, d := range drafts {
		if now.Sub(d.SavedAt) > m.maxAge {
			if err := m.store.DeleteDraft(ctx, d.Key); err != nil {
				return nil, fmt.Errorf("delete stale draft %s: %w", d.Key, err)
			}
			logger.Info("sync: discarded stale draft %s saved %s", d.Key, d.SavedAt.Format(time.RFC3339))
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Draft) int {
		if c := a.SavedAt.Compare(b.SavedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}

// Resubmit re-queues the locally saved draft under key, typically one
// returned by RecoverUnsaved.
func (m *SyncManager) Resubmit(ctx context.Context, key string) error {
	d, err := m.store.GetDraft(ctx, key)
	if err != nil {
		return fmt.Errorf("load draft %s: %w", key, err)
	}
	if d == nil {
		return fmt.Errorf("draft %s: %w", key, domain.ErrNotFound)
	}
	return m.QueueWrite(ctx, key, d.Payload)
}

// Stop cancels every pending timer. Queued items stay in memory.
func (m *SyncManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for k, t := range m.timers {
		t.Stop()
		delete(m.timers, k)
	}
	if m.drainTimer != nil {
		m.drainTimer.Stop()
		m.drainTimer = nil
	}
}
