package api

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const headerIdempotencyKey = "Idempotency-Key"

var (
	dedupeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Subsystem: "api",
		Name:      "idempotency_checks_total",
		Help:      "Idempotency key checks by result (new, duplicate, error).",
	}, []string{"result"})

	taskMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Subsystem: "api",
		Name:      "task_moves_total",
		Help:      "Task move requests by outcome (applied, replayed, failed).",
	}, []string{"outcome"})
)

// RedisDeduper stores processed idempotency keys in Redis so all instances
// can avoid reprocessing the same request.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (r *RedisDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	added, err := r.client.SetNX(ctx, r.key(userID, key), 1, r.ttl).Result()
	switch {
	case err != nil:
		dedupeResults.WithLabelValues("error").Inc()
	case added:
		dedupeResults.WithLabelValues("new").Inc()
	default:
		dedupeResults.WithLabelValues("duplicate").Inc()
	}
	return added, err
}

// Remove deletes a previously recorded key so the caller may retry.
func (r *RedisDeduper) Remove(ctx context.Context, userID, key string) error {
	return r.client.Del(ctx, r.key(userID, key)).Err()
}
