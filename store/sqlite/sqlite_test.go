package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hydration-engine/engine"
	"github.com/warp/hydration-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:", sqlite.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func intake(id string, at time.Time, amount float64) engine.IntakeEvent {
	return engine.IntakeEvent{ID: id, Timestamp: at, Amount: amount, HydrationFactor: 1, Drink: "water"}
}

// =============================================================================
// GOAL RECORDS
// =============================================================================

func TestStore_GoalRoundTripAndUpsert(t *testing.T) {
	// GIVEN: A goal saved twice for Jan 5
	// WHEN: Reading January back
	// THEN: One record with the second values

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(time.January, 5), BaseAmount: 1000}))
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{
		Date: day(time.January, 5), BaseAmount: 1800, HotDayFraction: 0.5,
	}))

	goals, err := store.GoalRecords(ctx, day(time.January, 1), day(time.February, 1))

	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, day(time.January, 5), goals[0].Date)
	assert.Equal(t, 1800.0, goals[0].BaseAmount)
	assert.Equal(t, 0.5, goals[0].HotDayFraction)
}

func TestStore_GoalRangeIsHalfOpenAndOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, d := range []int{9, 1, 5, 3} {
		require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(time.January, d), BaseAmount: float64(d)}))
	}

	goals, err := store.GoalRecords(ctx, day(time.January, 3), day(time.January, 9))

	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, day(time.January, 3), goals[0].Date)
	assert.Equal(t, day(time.January, 5), goals[1].Date)
}

func TestStore_NearestGoals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(time.January, 2), BaseAmount: 1000}))
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(time.January, 8), BaseAmount: 4000}))

	before, err := store.NearestGoalBefore(ctx, day(time.January, 8))
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, 1000.0, before.BaseAmount)

	atOrAfter, err := store.NearestGoalAtOrAfter(ctx, day(time.January, 8))
	require.NoError(t, err)
	require.NotNil(t, atOrAfter)
	assert.Equal(t, 4000.0, atOrAfter.BaseAmount)

	none, err := store.NearestGoalAtOrAfter(ctx, day(time.January, 9))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_RejectsInvalidGoal(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveGoal(context.Background(), engine.GoalRecord{Date: day(time.January, 2), BaseAmount: -5})

	assert.ErrorIs(t, err, engine.ErrInvalidRecord)
}

// =============================================================================
// INTAKE EVENTS
// =============================================================================

func TestStore_IntakeRangeIsHalfOpenAndOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	noon := day(time.January, 2).Add(12 * time.Hour)
	require.NoError(t, store.AddIntake(ctx, intake("late", noon.Add(time.Hour), 200)))
	require.NoError(t, store.AddIntake(ctx, intake("early", noon, 100)))
	require.NoError(t, store.AddIntake(ctx, intake("next-day", day(time.January, 3), 300)))

	events, err := store.IntakeEvents(ctx, day(time.January, 2), day(time.January, 3))

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "early", events[0].ID)
	assert.Equal(t, "late", events[1].ID)
	assert.True(t, events[0].Timestamp.Equal(noon))
	assert.Equal(t, "water", events[0].Drink)
}

func TestStore_DuplicateIntake(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddIntake(ctx, intake("a", day(time.January, 2), 100)))

	err := store.AddIntake(ctx, intake("a", day(time.January, 3), 100))

	assert.ErrorIs(t, err, engine.ErrDuplicateID)
}

func TestStore_DeleteIntake(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddIntake(ctx, intake("a", day(time.January, 2), 100)))

	require.NoError(t, store.DeleteIntake(ctx, "a"))
	assert.ErrorIs(t, store.DeleteIntake(ctx, "a"), engine.ErrNotFound)

	events, err := store.IntakeEvents(ctx, day(time.January, 1), day(time.January, 3))
	require.NoError(t, err)
	assert.Empty(t, events)
}

// =============================================================================
// ENGINE OVER SQLITE
// =============================================================================

func TestStore_WithEngine(t *testing.T) {
	// GIVEN: Goals and intakes persisted in SQLite
	// WHEN: Querying through the engine
	// THEN: Results match the in-memory behaviour

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(time.January, 2), BaseAmount: 1000}))
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{
		Date: day(time.January, 8), BaseAmount: 4000, HighActivityFraction: 0.2,
	}))
	require.NoError(t, store.AddIntake(ctx, intake("a", day(time.January, 2), 1000)))
	require.NoError(t, store.AddIntake(ctx, intake("b", day(time.January, 2).Add(17*time.Hour), 1200)))

	eng := engine.New(store)

	goals, err := eng.GoalAmounts(ctx, day(time.January, 1), day(time.January, 9))
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000, 1000, 1000, 4800}, goals)

	parts, err := eng.IntakeAggregate(ctx, engine.IntakeQuery{
		Begin:       day(time.January, 2),
		End:         day(time.January, 4),
		Granularity: engine.GranularityDay,
		Func:        engine.Sum,
	})
	require.NoError(t, err)
	assert.Equal(t, []engine.IntakeParts{{Hydration: 2200}, {}}, parts)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(time.January, 2), BaseAmount: 1000}))

	require.NoError(t, store.Reset(ctx))

	goal, err := store.NearestGoalAtOrAfter(ctx, day(time.January, 1))
	require.NoError(t, err)
	assert.Nil(t, goal)
}
