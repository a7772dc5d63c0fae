package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	failBegin bool
	block     chan struct{}
	sessions  map[int64]Summary
	actions   map[int64][]Action
	usages    []CardUsage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   41,
		sessions: make(map[int64]Summary),
		actions:  make(map[int64][]Action),
	}
}

func (s *fakeStore) CreateSession(_ context.Context, _ time.Time, _, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBegin {
		return 0, errors.New("db down")
	}
	s.nextID++
	s.sessions[s.nextID] = Summary{}
	return s.nextID, nil
}

func (s *fakeStore) FinishSession(_ context.Context, id int64, summary Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = summary
	return nil
}

func (s *fakeStore) InsertAction(_ context.Context, session int64, action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[session] = append(s.actions[session], action)
	return nil
}

func (s *fakeStore) UpdateCardStatistics(_ context.Context, usage CardUsage) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = append(s.usages, usage)
	return nil
}

func (s *fakeStore) TopCards(context.Context, StatsOrder, int) ([]CardStats, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

func TestAccumulate(t *testing.T) {
	first := Accumulate(nil, CardUsage{Name: "Witcher", Power: 10, AbilityUsed: false, Won: true})
	assert.Equal(t, CardStats{Name: "Witcher", TimesUsed: 1, AvgPower: 10, WinRate: 1}, first)

	second := Accumulate(&first, CardUsage{Name: "Witcher", Power: 6, AbilityUsed: true, Won: false})
	assert.Equal(t, 2, second.TimesUsed)
	assert.InDelta(t, 8.0, second.AvgPower, 1e-9)
	assert.Equal(t, 1, second.AbilityActivations)
	assert.InDelta(t, 0.5, second.WinRate, 1e-9)

	third := Accumulate(&second, CardUsage{Name: "Witcher", Power: 2, Won: true})
	assert.Equal(t, 3, third.TimesUsed)
	assert.InDelta(t, 6.0, third.AvgPower, 1e-9)
	assert.InDelta(t, 2.0/3.0, third.WinRate, 1e-9)
}

func TestAsyncMapsSessionsInOrder(t *testing.T) {
	store := newFakeStore()
	rec := NewAsync(store, zaptest.NewLogger(t), 16, time.Second)

	id := rec.BeginSession(time.Now(), "Player 1", "Player 2")
	rec.LogAction(id, Action{Player: "p1", Type: ActionPlaceCard, CardName: "Witcher", CardPower: 10, ZoneKey: "p1_front", Round: 1})
	rec.LogAction(id, Action{Player: "p2", Type: ActionPassTurn, Round: 1})
	rec.UpdateCardStatistics(CardUsage{Name: "Witcher", Power: 10})
	rec.EndSession(id, Summary{Winner: "Player 1", Rounds: 2, Duration: 90 * time.Second})
	rec.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.actions[42], 2)
	assert.Equal(t, ActionPlaceCard, store.actions[42][0].Type)
	assert.True(t, store.actions[42][0].HasCard())
	assert.False(t, store.actions[42][1].HasCard())
	assert.Equal(t, "Player 1", store.sessions[42].Winner)
	assert.Len(t, store.usages, 1)
}

func TestAsyncSkipsActionsOfFailedSession(t *testing.T) {
	store := newFakeStore()
	store.failBegin = true
	rec := NewAsync(store, zaptest.NewLogger(t), 16, time.Second)

	id := rec.BeginSession(time.Now(), "a", "b")
	rec.LogAction(id, Action{Player: "p1", Type: ActionPassTurn})
	rec.EndSession(id, Summary{Winner: "a"})
	rec.UpdateCardStatistics(CardUsage{Name: "Gnome", Power: 1})
	rec.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.actions)
	assert.Len(t, store.usages, 1)
}

func TestAsyncDropsWhenQueueFull(t *testing.T) {
	store := newFakeStore()
	store.block = make(chan struct{})
	rec := NewAsync(store, zaptest.NewLogger(t), 1, time.Second)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			rec.UpdateCardStatistics(CardUsage{Name: "Gnome", Power: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(store.block)
	rec.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotEmpty(t, store.usages)
	assert.LessOrEqual(t, len(store.usages), 2)
}

func TestAsyncIgnoresCallsAfterClose(t *testing.T) {
	store := newFakeStore()
	rec := NewAsync(store, zaptest.NewLogger(t), 4, time.Second)
	rec.Close()
	rec.Close()

	rec.UpdateCardStatistics(CardUsage{Name: "Gnome"})

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.usages)
}
