// Package cache holds the Redis-backed pieces of the service: the check-in
// event queue and a session slot.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/jason-s-yu/courtside/internal/session"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for check-in events.
const DefaultQueueName = "courtside_checkins"

// DefaultSlotKey is the key the session user is stored under.
const DefaultSlotKey = "tennis_user"

// ConnectRedis opens a client for addr/db and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// CheckInPublisher pushes check-in events onto a Redis list for the historian.
type CheckInPublisher struct {
	rdb   *redis.Client
	queue string
}

// NewCheckInPublisher returns a publisher writing to queue, or to
// DefaultQueueName when queue is empty.
func NewCheckInPublisher(rdb *redis.Client, queue string) *CheckInPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &CheckInPublisher{rdb: rdb, queue: queue}
}

// PublishCheckIn serializes ev to JSON, then pushes it to the Redis queue.
func (p *CheckInPublisher) PublishCheckIn(ctx context.Context, ev models.CheckInEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal CheckInEvent: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// RedisSlot is a session.Slot stored under a single Redis key.
type RedisSlot struct {
	rdb *redis.Client
	key string
}

// NewRedisSlot returns a slot at key, or DefaultSlotKey when key is empty.
func NewRedisSlot(rdb *redis.Client, key string) *RedisSlot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &RedisSlot{rdb: rdb, key: key}
}

func (s *RedisSlot) Get(ctx context.Context) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrEmptySlot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return data, nil
}

func (s *RedisSlot) Set(ctx context.Context, data []byte) error {
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}
