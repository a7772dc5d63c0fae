// Package feed publishes spectator snapshots of running matches to redis so
// that out-of-process consumers can follow a match.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher receives a snapshot after every match mutation. Publish must not
// block the caller.
type Publisher interface {
	Publish(matchID string, snapshot any)
	Close() error
}

// Nop discards snapshots.
type Nop struct{}

func (Nop) Publish(string, any) {}
func (Nop) Close() error        { return nil }

type message struct {
	matchID  string
	snapshot any
}

// Redis publishes each snapshot on <prefix>:<match-id>:updates and keeps the
// latest one under <prefix>:<match-id>:latest.
type Redis struct {
	client  *redis.Client
	prefix  string
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

// NewRedis connects to redisURL (redis://host:port/db) and starts the
// publishing worker.
func NewRedis(ctx context.Context, redisURL, prefix string, queueSize int, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedis(client, prefix, queueSize, logger), nil
}

func newRedis(client *redis.Client, prefix string, queueSize int, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	r := &Redis{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		timeout: 2 * time.Second,
		queue:   make(chan message, queueSize),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// Channel returns the pub/sub channel of a match.
func (r *Redis) Channel(matchID string) string {
	return fmt.Sprintf("%s:%s:updates", r.prefix, matchID)
}

// LatestKey returns the key holding the most recent snapshot of a match.
func (r *Redis) LatestKey(matchID string) string {
	return fmt.Sprintf("%s:%s:latest", r.prefix, matchID)
}

func (r *Redis) Publish(matchID string, snapshot any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}
	select {
	case r.queue <- message{matchID: matchID, snapshot: snapshot}:
	default:
		r.logger.Warn("feed queue full, dropping snapshot", zap.String("match_id", matchID))
	}
}

func (r *Redis) loop() {
	defer close(r.done)
	for msg := range r.queue {
		if err := r.send(msg); err != nil {
			r.logger.Warn("failed to publish snapshot",
				zap.String("match_id", msg.matchID),
				zap.Error(err),
			)
		}
	}
}

func (r *Redis) send(msg message) error {
	payload, err := json.Marshal(msg.snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Publish(ctx, r.Channel(msg.matchID), payload)
	pipe.Set(ctx, r.LatestKey(msg.matchID), payload, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// Close drains the queue and closes the redis client.
func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	return r.client.Close()
}
