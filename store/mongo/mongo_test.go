package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hydration-engine/engine"
	"github.com/warp/hydration-engine/store/mongo"
)

// newTestStore connects to HYDRATION_TEST_MONGO_URI with a throwaway database.
func newTestStore(t *testing.T) *mongo.Store {
	uri := os.Getenv("HYDRATION_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HYDRATION_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := mongo.New(ctx, uri, "hydration_test_"+uuid.NewString()[:8], time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		store.Drop(ctx)
		store.Close(ctx)
	})
	return store
}

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_Goals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(2), BaseAmount: 900}))
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(2), BaseAmount: 1000}))
	require.NoError(t, store.SaveGoal(ctx, engine.GoalRecord{Date: day(8), BaseAmount: 4000, HighActivityFraction: 0.2}))

	goals, err := store.GoalRecords(ctx, day(1), day(9))
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, 1000.0, goals[0].BaseAmount)
	assert.Equal(t, day(8), goals[1].Date)

	before, err := store.NearestGoalBefore(ctx, day(8))
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, day(2), before.Date)

	after, err := store.NearestGoalAtOrAfter(ctx, day(9))
	require.NoError(t, err)
	assert.Nil(t, after)

	series, err := engine.New(store).GoalAmounts(ctx, day(1), day(9))
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000, 1000, 1000, 4800}, series)
}

func TestStore_Intakes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := day(2).Add(16*time.Hour + 59*time.Minute + 123*time.Microsecond)
	event := engine.IntakeEvent{ID: "a", Timestamp: at, Amount: 250, HydrationFactor: 1, Drink: "water"}
	require.NoError(t, store.AddIntake(ctx, event))
	assert.ErrorIs(t, store.AddIntake(ctx, event), engine.ErrDuplicateID)

	events, err := store.IntakeEvents(ctx, day(2), day(3))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp.Equal(at), "nanosecond precision survives")

	require.NoError(t, store.DeleteIntake(ctx, "a"))
	assert.ErrorIs(t, store.DeleteIntake(ctx, "a"), engine.ErrNotFound)
}

func TestStore_SaveDailyReport(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveDailyReport(context.Background(), engine.DaySummary{Day: day(2), Goal: 2000, Hydration: 1500})

	assert.NoError(t, err)
}
