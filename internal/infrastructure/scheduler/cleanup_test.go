package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type deletedKey struct {
	chatID    int64
	messageID int64
}

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []deletedKey
	err     error
}

func (d *fakeDeleter) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, deletedKey{chatID: chatID, messageID: messageID})
	return nil
}

func (d *fakeDeleter) snapshot() []deletedKey {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]deletedKey, len(d.deleted))
	copy(out, d.deleted)
	return out
}

type fakeQueue struct {
	mu      sync.Mutex
	items   map[deletedKey]time.Time
	pending []QueueItem
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{items: make(map[deletedKey]time.Time)}
}

func (q *fakeQueue) Enqueue(_ context.Context, item QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[deletedKey{chatID: item.ChatID, messageID: item.MessageID}] = item.DueAt
	return nil
}

func (q *fakeQueue) Pending(context.Context) ([]QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending, nil
}

func (q *fakeQueue) Remove(_ context.Context, chatID, messageID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.items, deletedKey{chatID: chatID, messageID: messageID})
	return nil
}

func (q *fakeQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not reached in time")
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestCleanupScheduler_FiresDueDeletes(t *testing.T) {
	deleter := &fakeDeleter{}
	s := NewCleanupScheduler(deleter, WithTick(10*time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	s.ScheduleDelete(-100500, 1, 20*time.Millisecond)

	waitFor(t, func() bool { return len(deleter.snapshot()) == 1 })
	assert.Equal(t, deletedKey{chatID: -100500, messageID: 1}, deleter.snapshot()[0])
}

func TestCleanupScheduler_DoesNotFireEarly(t *testing.T) {
	deleter := &fakeDeleter{}
	s := NewCleanupScheduler(deleter, WithTick(10*time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	s.ScheduleDelete(-100500, 1, time.Hour)

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, deleter.snapshot())
}

func TestCleanupScheduler_PersistsAndDequeues(t *testing.T) {
	deleter := &fakeDeleter{}
	queue := newFakeQueue()
	s := NewCleanupScheduler(deleter, WithTick(10*time.Millisecond), WithQueue(queue))
	s.Start(context.Background())
	defer s.Stop()

	s.ScheduleDelete(-100500, 1, 20*time.Millisecond)
	assert.Equal(t, 1, queue.size())

	// Once fired, the entry leaves the durable queue.
	waitFor(t, func() bool { return len(deleter.snapshot()) == 1 })
	waitFor(t, func() bool { return queue.size() == 0 })
}

func TestCleanupScheduler_ReloadsPersistedEntries(t *testing.T) {
	deleter := &fakeDeleter{}
	queue := newFakeQueue()

	// An overdue entry left over from a previous run fires on startup.
	queue.pending = []QueueItem{
		{ChatID: -100500, MessageID: 9, DueAt: time.Now().Add(-time.Minute)},
	}

	s := NewCleanupScheduler(deleter, WithTick(10*time.Millisecond), WithQueue(queue))
	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return len(deleter.snapshot()) == 1 })
	assert.Equal(t, deletedKey{chatID: -100500, messageID: 9}, deleter.snapshot()[0])
}

func TestCleanupScheduler_DeleteFailureIsNonFatal(t *testing.T) {
	deleter := &fakeDeleter{err: assert.AnError}
	queue := newFakeQueue()
	s := NewCleanupScheduler(deleter, WithTick(10*time.Millisecond), WithQueue(queue))
	s.Start(context.Background())
	defer s.Stop()

	s.ScheduleDelete(-100500, 1, 10*time.Millisecond)

	// The entry is dequeued even though the delete failed, and the worker
	// keeps running.
	waitFor(t, func() bool { return queue.size() == 0 })

	deleter.mu.Lock()
	deleter.err = nil
	deleter.mu.Unlock()

	s.ScheduleDelete(-100500, 2, 10*time.Millisecond)
	waitFor(t, func() bool { return len(deleter.snapshot()) == 1 })
}

func TestCleanupScheduler_StopIsIdempotent(t *testing.T) {
	s := NewCleanupScheduler(&fakeDeleter{}, WithTick(10*time.Millisecond))
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
