package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Async forwards recorder calls to a Store from a single worker goroutine.
// Jobs are executed in submission order; when the queue is full new jobs are
// dropped.
type Async struct {
	store   Store
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}

	// sessions is only touched by the worker.
	sessions map[uuid.UUID]int64
}

// NewAsync starts the worker.
func NewAsync(store Store, logger *zap.Logger, queueSize int, timeout time.Duration) *Async {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	a := &Async{
		store:    store,
		logger:   logger,
		timeout:  timeout,
		jobs:     make(chan job, queueSize),
		done:     make(chan struct{}),
		sessions: make(map[uuid.UUID]int64),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for j := range a.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := j.run(ctx); err != nil {
			a.logger.Warn("recorder job failed",
				zap.String("job", j.name),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (a *Async) enqueue(name string, fn func(ctx context.Context) error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.logger.Debug("recorder closed, dropping job", zap.String("job", name))
		return
	}
	select {
	case a.jobs <- job{name: name, run: fn}:
	default:
		a.logger.Warn("recorder queue full, dropping job", zap.String("job", name))
	}
}

// BeginSession allocates a session id immediately and creates the stored
// session in the background.
func (a *Async) BeginSession(start time.Time, player1, player2 string) uuid.UUID {
	id := uuid.New()
	a.enqueue("begin_session", func(ctx context.Context) error {
		dbID, err := a.store.CreateSession(ctx, start, player1, player2)
		if err != nil {
			return err
		}
		a.sessions[id] = dbID
		a.logger.Info("recorded session start",
			zap.String("session_id", id.String()),
			zap.Int64("store_id", dbID),
		)
		return nil
	})
	return id
}

func (a *Async) EndSession(session uuid.UUID, summary Summary) {
	a.enqueue("end_session", func(ctx context.Context) error {
		dbID, ok := a.sessions[session]
		if !ok {
			a.logger.Debug("unknown session, skipping end", zap.String("session_id", session.String()))
			return nil
		}
		delete(a.sessions, session)
		return a.store.FinishSession(ctx, dbID, summary)
	})
}

func (a *Async) LogAction(session uuid.UUID, action Action) {
	a.enqueue("log_action", func(ctx context.Context) error {
		dbID, ok := a.sessions[session]
		if !ok {
			a.logger.Debug("unknown session, skipping action",
				zap.String("session_id", session.String()),
				zap.String("action", string(action.Type)),
			)
			return nil
		}
		return a.store.InsertAction(ctx, dbID, action)
	})
}

func (a *Async) UpdateCardStatistics(usage CardUsage) {
	a.enqueue("update_card_statistics", func(ctx context.Context) error {
		return a.store.UpdateCardStatistics(ctx, usage)
	})
}

// Close stops accepting jobs and waits for the queue to drain.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.jobs)
	a.mu.Unlock()

	<-a.done
}
