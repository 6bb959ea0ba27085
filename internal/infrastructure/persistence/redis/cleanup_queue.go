// Package redis implements the durable delayed-cleanup queue backing the
// transient-message scheduler. Pending deletions survive a bot restart: the
// scheduler reloads them on startup and fires the overdue ones immediately.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/superteam-my/onboarding-bot/internal/infrastructure/scheduler"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrQueueConnection is returned when the Redis connection fails.
	ErrQueueConnection = errors.New("cleanup_queue: connection failed")

	// ErrQueueSerialization is returned when encoding a queue entry fails.
	ErrQueueSerialization = errors.New("cleanup_queue: serialization failed")
)

// cleanupKey is the sorted set holding pending deletions. Scores are due
// times as unix seconds; members are JSON-encoded chat/message ID pairs.
const cleanupKey = "cleanup:pending"

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// CleanupQueue persists scheduled message deletions in a Redis sorted set.
// It implements scheduler.Queue.
type CleanupQueue struct {
	client *redis.Client
}

// NewCleanupQueue creates a queue from a Redis URL
// (e.g. redis://:password@localhost:6379/0).
func NewCleanupQueue(ctx context.Context, redisURL string) (*CleanupQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cleanup_queue: failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQueueConnection, err)
	}

	return &CleanupQueue{client: client}, nil
}

// Close closes the underlying Redis client.
func (q *CleanupQueue) Close() error {
	return q.client.Close()
}

// Enqueue schedules a message for deletion at item.DueAt.
func (q *CleanupQueue) Enqueue(ctx context.Context, item scheduler.QueueItem) error {
	payload, err := encodeEntry(item.ChatID, item.MessageID)
	if err != nil {
		return err
	}

	err = q.client.ZAdd(ctx, cleanupKey, redis.Z{
		Score:  float64(item.DueAt.Unix()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("cleanup_queue: failed to enqueue delete: %w", err)
	}

	return nil
}

// Pending returns every queued deletion, ordered soonest first.
func (q *CleanupQueue) Pending(ctx context.Context) ([]scheduler.QueueItem, error) {
	entries, err := q.client.ZRangeWithScores(ctx, cleanupKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cleanup_queue: failed to read pending deletes: %w", err)
	}

	items := make([]scheduler.QueueItem, 0, len(entries))
	for _, z := range entries {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}

		var item scheduler.QueueItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			// Malformed entry; drop it so it cannot wedge the queue.
			_ = q.client.ZRem(ctx, cleanupKey, raw).Err()
			continue
		}

		item.DueAt = time.Unix(int64(z.Score), 0)
		items = append(items, item)
	}

	return items, nil
}

// Remove drops a deletion from the queue once it has fired.
func (q *CleanupQueue) Remove(ctx context.Context, chatID, messageID int64) error {
	payload, err := encodeEntry(chatID, messageID)
	if err != nil {
		return err
	}

	if err := q.client.ZRem(ctx, cleanupKey, payload).Err(); err != nil {
		return fmt.Errorf("cleanup_queue: failed to remove entry: %w", err)
	}

	return nil
}

// encodeEntry produces the canonical member encoding. Field order is fixed so
// Enqueue and Remove always agree on the sorted-set member.
func encodeEntry(chatID, messageID int64) (string, error) {
	payload, err := json.Marshal(scheduler.QueueItem{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrQueueSerialization, err)
	}
	return string(payload), nil
}
