// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/hydration-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps goals sorted by calendar day and intakes sorted by timestamp.
type Memory struct {
	mu      sync.RWMutex
	goals   []engine.GoalRecord
	intakes []engine.IntakeEvent
	ids     map[string]bool
}

var _ engine.MutableStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{ids: make(map[string]bool)}
}

// dayKey is the calendar day in t's own location; it sorts like the day.
func dayKey(t time.Time) string {
	return t.Format(engine.DateLayout)
}

// =============================================================================
// WRITES
// =============================================================================

// SaveGoal upserts the goal for its calendar day.
func (m *Memory) SaveGoal(_ context.Context, goal engine.GoalRecord) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	goal.Date = engine.StartOfDay(goal.Date)
	k := dayKey(goal.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.goals), func(i int) bool {
		return dayKey(m.goals[i].Date) >= k
	})
	if i < len(m.goals) && dayKey(m.goals[i].Date) == k {
		m.goals[i] = goal
		return nil
	}
	m.goals = append(m.goals, engine.GoalRecord{})
	copy(m.goals[i+1:], m.goals[i:])
	m.goals[i] = goal
	return nil
}

func (m *Memory) AddIntake(_ context.Context, event engine.IntakeEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ids[event.ID] {
		return engine.ErrDuplicateID
	}

	// Binary search for insertion point; equal timestamps keep insertion order.
	i := sort.Search(len(m.intakes), func(i int) bool {
		return m.intakes[i].Timestamp.After(event.Timestamp)
	})
	m.intakes = append(m.intakes, engine.IntakeEvent{})
	copy(m.intakes[i+1:], m.intakes[i:])
	m.intakes[i] = event
	m.ids[event.ID] = true
	return nil
}

func (m *Memory) DeleteIntake(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ids[id] {
		return engine.ErrNotFound
	}
	for i, ev := range m.intakes {
		if ev.ID == id {
			m.intakes = append(m.intakes[:i], m.intakes[i+1:]...)
			break
		}
	}
	delete(m.ids, id)
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (m *Memory) GoalRecords(_ context.Context, from, to time.Time) ([]engine.GoalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := dayKey(from), dayKey(to)
	start := sort.Search(len(m.goals), func(i int) bool { return dayKey(m.goals[i].Date) >= lo })
	end := sort.Search(len(m.goals), func(i int) bool { return dayKey(m.goals[i].Date) >= hi })
	if end < start {
		end = start
	}
	result := make([]engine.GoalRecord, end-start)
	copy(result, m.goals[start:end])
	return result, nil
}

func (m *Memory) NearestGoalBefore(_ context.Context, day time.Time) (*engine.GoalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := dayKey(day)
	i := sort.Search(len(m.goals), func(i int) bool { return dayKey(m.goals[i].Date) >= k })
	if i == 0 {
		return nil, nil
	}
	g := m.goals[i-1]
	return &g, nil
}

func (m *Memory) NearestGoalAtOrAfter(_ context.Context, day time.Time) (*engine.GoalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := dayKey(day)
	i := sort.Search(len(m.goals), func(i int) bool { return dayKey(m.goals[i].Date) >= k })
	if i == len(m.goals) {
		return nil, nil
	}
	g := m.goals[i]
	return &g, nil
}

func (m *Memory) IntakeEvents(_ context.Context, from, to time.Time) ([]engine.IntakeEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := sort.Search(len(m.intakes), func(i int) bool { return !m.intakes[i].Timestamp.Before(from) })
	end := sort.Search(len(m.intakes), func(i int) bool { return !m.intakes[i].Timestamp.Before(to) })
	if end < start {
		end = start
	}
	result := make([]engine.IntakeEvent, end-start)
	copy(result, m.intakes[start:end])
	return result, nil
}
