// Package scheduler contains background workers for the onboarding bot.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Deleter removes a message from a chat. Satisfied by the Telegram client.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int64) error
}

// QueueItem is one scheduled deletion as held by a durable queue.
type QueueItem struct {
	ChatID    int64     `json:"chat_id"`
	MessageID int64     `json:"message_id"`
	DueAt     time.Time `json:"-"`
}

// Queue persists scheduled deletions across restarts. Optional: with a nil
// queue the scheduler degrades to in-memory and pending deletions are lost on
// restart, which is acceptable for cosmetic cleanup.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Pending(ctx context.Context) ([]QueueItem, error)
	Remove(ctx context.Context, chatID, messageID int64) error
}

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// pendingDelete is an in-memory scheduled deletion.
type pendingDelete struct {
	chatID    int64
	messageID int64
	dueAt     time.Time
}

// CleanupScheduler deletes transient messages after a delay. It implements
// moderation.Cleaner.
//
// Deletion failures are logged and dropped: a message that outlives its
// schedule is clutter, not a correctness problem.
type CleanupScheduler struct {
	deleter Deleter
	queue   Queue // may be nil
	logger  *slog.Logger

	mu      sync.Mutex
	pending []pendingDelete
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// tick controls the polling resolution; tests shorten it.
	tick time.Duration
}

// Option configures the CleanupScheduler.
type Option func(*CleanupScheduler)

// WithQueue attaches a durable backing queue.
func WithQueue(q Queue) Option {
	return func(s *CleanupScheduler) {
		s.queue = q
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *CleanupScheduler) {
		s.logger = logger
	}
}

// WithTick sets the polling resolution.
func WithTick(d time.Duration) Option {
	return func(s *CleanupScheduler) {
		s.tick = d
	}
}

// NewCleanupScheduler creates a scheduler.
func NewCleanupScheduler(deleter Deleter, opts ...Option) *CleanupScheduler {
	s := &CleanupScheduler{
		deleter: deleter,
		logger:  slog.Default(),
		stopCh:  make(chan struct{}),
		tick:    time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "cleanup_scheduler")
	return s
}

// Start loads persisted deletions and launches the worker loop. Overdue
// entries fire on the first tick.
func (s *CleanupScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if s.queue != nil {
		s.reload(ctx)
	}

	s.wg.Add(1)
	go s.run(ctx, stopCh)

	s.logger.Info("cleanup scheduler started")
}

// Stop terminates the worker loop. Pending deletions stay in the durable
// queue, if any, and are reloaded on the next Start.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info("cleanup scheduler stopped")
}

// ScheduleDelete queues a message for deletion after the given delay.
func (s *CleanupScheduler) ScheduleDelete(chatID, messageID int64, after time.Duration) {
	dueAt := time.Now().Add(after)

	s.mu.Lock()
	s.insertLocked(pendingDelete{
		chatID:    chatID,
		messageID: messageID,
		dueAt:     dueAt,
	})
	s.mu.Unlock()

	if s.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.queue.Enqueue(ctx, QueueItem{
			ChatID:    chatID,
			MessageID: messageID,
			DueAt:     dueAt,
		})
		if err != nil {
			s.logger.Warn("failed to persist scheduled delete",
				"chat_id", chatID,
				"message_id", messageID,
				"error", err)
		}
	}
}

// insertLocked adds an entry keeping the slice sorted by due time.
// Caller holds s.mu.
func (s *CleanupScheduler) insertLocked(d pendingDelete) {
	s.pending = append(s.pending, d)
	sort.Slice(s.pending, func(i, j int) bool {
		return s.pending[i].dueAt.Before(s.pending[j].dueAt)
	})
}

// reload pulls persisted deletions into the in-memory schedule.
func (s *CleanupScheduler) reload(ctx context.Context) {
	items, err := s.queue.Pending(ctx)
	if err != nil {
		s.logger.Warn("failed to reload cleanup queue", "error", err)
		return
	}

	s.mu.Lock()
	for _, item := range items {
		s.insertLocked(pendingDelete{
			chatID:    item.ChatID,
			messageID: item.MessageID,
			dueAt:     item.DueAt,
		})
	}
	count := len(s.pending)
	s.mu.Unlock()

	if count > 0 {
		s.logger.Info("reloaded pending cleanups", "count", count)
	}
}

// run is the worker loop.
func (s *CleanupScheduler) run(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.fireDue(ctx, now)
		}
	}
}

// fireDue deletes every message whose due time has passed.
func (s *CleanupScheduler) fireDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []pendingDelete
	for len(s.pending) > 0 && !s.pending[0].dueAt.After(now) {
		due = append(due, s.pending[0])
		s.pending = s.pending[1:]
	}
	s.mu.Unlock()

	for _, d := range due {
		delCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := s.deleter.DeleteMessage(delCtx, d.chatID, d.messageID)
		cancel()
		if err != nil {
			s.logger.Warn("scheduled delete failed",
				"chat_id", d.chatID,
				"message_id", d.messageID,
				"error", err)
		}

		if s.queue != nil {
			rmCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := s.queue.Remove(rmCtx, d.chatID, d.messageID); err != nil {
				s.logger.Warn("failed to dequeue scheduled delete",
					"chat_id", d.chatID,
					"message_id", d.messageID,
					"error", err)
			}
			cancel()
		}
	}
}
