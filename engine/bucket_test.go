package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hydration-engine/engine"
)

func assertCovers(t *testing.T, buckets []engine.Bucket, begin, end time.Time) {
	t.Helper()
	require.NotEmpty(t, buckets)
	assert.True(t, buckets[0].Start.Equal(begin), "first bucket starts at %s", begin)
	assert.True(t, buckets[len(buckets)-1].End.Equal(end), "last bucket ends at %s", end)
	for i, b := range buckets {
		assert.True(t, b.Start.Before(b.End), "bucket %d is empty", i)
		if i > 0 {
			assert.True(t, buckets[i-1].End.Equal(b.Start), "gap or overlap before bucket %d", i)
		}
	}
}

// =============================================================================
// PLANNING
// =============================================================================

func TestPlanBuckets_Days(t *testing.T) {
	buckets, err := engine.PlanBuckets(jan(1), jan(8), engine.GranularityDay, 0)

	require.NoError(t, err)
	require.Len(t, buckets, 7)
	assertCovers(t, buckets, jan(1), jan(8))
	for i, b := range buckets {
		assert.Equal(t, jan(1+i), b.Start)
		assert.Equal(t, 1, b.Days)
	}
}

func TestPlanBuckets_DayOffsetShiftsBoundaries(t *testing.T) {
	// GIVEN: A logical day starting at 04:00
	// WHEN: Planning Jan 1 to Jan 3
	// THEN: Buckets run 04:00 to 04:00

	buckets, err := engine.PlanBuckets(jan(1), jan(3), engine.GranularityDay, 4)

	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assertCovers(t, buckets, jan(1).Add(4*time.Hour), jan(3).Add(4*time.Hour))
	assert.True(t, buckets[0].Contains(jan(2).Add(90*time.Minute)), "01:30 belongs to the previous day")
	assert.False(t, buckets[1].Contains(jan(2).Add(90*time.Minute)))
}

func TestPlanBuckets_MonthsClippedToRange(t *testing.T) {
	// GIVEN: A range from mid-January to mid-March
	// THEN: Three buckets clipped to the range, each labelled with its full month length

	buckets, err := engine.PlanBuckets(jan(15), date(time.March, 10), engine.GranularityMonth, 0)

	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assertCovers(t, buckets, jan(15), date(time.March, 10))

	assert.Equal(t, date(time.February, 1), buckets[0].End)
	assert.Equal(t, date(time.March, 1), buckets[1].End)
	assert.Equal(t, []int{31, 28, 31}, []int{buckets[0].Days, buckets[1].Days, buckets[2].Days})
}

func TestPlanBuckets_Years(t *testing.T) {
	begin := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	buckets, err := engine.PlanBuckets(begin, end, engine.GranularityYear, 0)

	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assertCovers(t, buckets, begin, end)
	assert.Equal(t, []int{365, 366, 365}, []int{buckets[0].Days, buckets[1].Days, buckets[2].Days})
}

func TestPlanBuckets_EqualBoundsIsEmpty(t *testing.T) {
	buckets, err := engine.PlanBuckets(jan(4), jan(4), engine.GranularityMonth, 0)

	require.NoError(t, err)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestPlanBuckets_EndBeforeBegin(t *testing.T) {
	_, err := engine.PlanBuckets(jan(4), jan(2), engine.GranularityDay, 0)

	require.Error(t, err)
	var rangeErr *engine.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestPlanBuckets_EndBeforeBeginSameDay(t *testing.T) {
	// GIVEN: An end earlier than begin on the same calendar day
	// THEN: The range is rejected, not truncated into an empty plan

	_, err := engine.PlanBuckets(jan(1).Add(10*time.Hour), jan(1).Add(8*time.Hour), engine.GranularityDay, 0)

	assert.ErrorIs(t, err, engine.ErrInvalidRange)
	assert.True(t, engine.IsClientError(err))
}

func TestPlanBuckets_BadDayOffset(t *testing.T) {
	for _, offset := range []int{-1, 24, 100} {
		_, err := engine.PlanBuckets(jan(1), jan(2), engine.GranularityDay, offset)
		assert.ErrorIs(t, err, engine.ErrInvalidRange, "offset %d", offset)
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]engine.Granularity{
		"day": engine.GranularityDay, "Month": engine.GranularityMonth, "yearly": engine.GranularityYear,
	} {
		got, err := engine.ParseGranularity(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}

	_, err := engine.ParseGranularity("week")
	assert.Error(t, err)
}

// =============================================================================
// DISTRIBUTION
// =============================================================================

type stamp time.Time

func (s stamp) At() time.Time { return time.Time(s) }

func TestDistribute_SingleCursor(t *testing.T) {
	buckets, err := engine.PlanBuckets(jan(1), jan(4), engine.GranularityDay, 0)
	require.NoError(t, err)

	records := []stamp{
		stamp(jan(1)),
		stamp(jan(1).Add(23 * time.Hour)),
		stamp(jan(3).Add(time.Hour)),
	}
	groups, err := engine.Distribute(buckets, records)

	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Empty(t, groups[1])
	assert.Len(t, groups[2], 1)
}

func TestDistribute_OutOfOrder(t *testing.T) {
	buckets, err := engine.PlanBuckets(jan(1), jan(4), engine.GranularityDay, 0)
	require.NoError(t, err)

	_, err = engine.Distribute(buckets, []stamp{stamp(jan(2)), stamp(jan(1))})

	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestDistribute_PastLastBucket(t *testing.T) {
	buckets, err := engine.PlanBuckets(jan(1), jan(4), engine.GranularityDay, 0)
	require.NoError(t, err)

	_, err = engine.Distribute(buckets, []stamp{stamp(jan(5))})

	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestDistribute_EmptyPlan(t *testing.T) {
	// GIVEN: No buckets at all
	// THEN: No records is fine, any record is outside the plan

	groups, err := engine.Distribute(nil, []stamp{})
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = engine.Distribute(nil, []stamp{stamp(jan(1))})
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
	assert.ErrorIs(t, err, engine.ErrStoreContract)
}

func TestDistribute_ViolationIsNotClientError(t *testing.T) {
	buckets, err := engine.PlanBuckets(jan(1), jan(4), engine.GranularityDay, 0)
	require.NoError(t, err)

	_, err = engine.Distribute(buckets, []stamp{stamp(jan(2)), stamp(jan(1))})

	assert.ErrorIs(t, err, engine.ErrStoreContract)
	assert.False(t, engine.IsClientError(err))
}
