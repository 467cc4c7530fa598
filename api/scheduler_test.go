package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hydration-engine/engine"
	"github.com/warp/hydration-engine/engine/store"
)

type recordingSink struct {
	saved []engine.DaySummary
	err   error
}

func (s *recordingSink) SaveDailyReport(_ context.Context, summary engine.DaySummary) error {
	s.saved = append(s.saved, summary)
	return s.err
}

func newSchedulerFixture(t *testing.T, sink ReportSink) (*store.Memory, *ReportScheduler) {
	t.Helper()
	mem := store.NewMemory()
	s := NewReportScheduler(engine.New(mem), "5 0 * * *", 0, time.UTC, sink, nil)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC) }
	return mem, s
}

func TestReportScheduler_RunOnceSummarizesYesterday(t *testing.T) {
	// GIVEN: A goal and two drinks on Jan 1
	sink := &recordingSink{}
	mem, s := newSchedulerFixture(t, sink)
	ctx := context.Background()
	require.NoError(t, mem.SaveGoal(ctx, engine.GoalRecord{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), BaseAmount: 2000}))
	require.NoError(t, mem.AddIntake(ctx, water("a", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), 1500)))
	require.NoError(t, mem.AddIntake(ctx, water("b", time.Date(2025, 1, 2, 0, 1, 0, 0, time.UTC), 300)))

	// WHEN: The job runs just after midnight on Jan 2
	summary, err := s.RunOnce(ctx)

	// THEN: Jan 1 is summarized, handed to the sink and kept as latest
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", summary.Day.Format(engine.DateLayout))
	assert.Equal(t, 1500.0, summary.Hydration)
	assert.Equal(t, 75.0, summary.PercentOfGoal)
	require.Len(t, sink.saved, 1)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, summary, latest)
}

func TestReportScheduler_DayOffsetWaitsForLogicalDayEnd(t *testing.T) {
	// GIVEN: Days starting at 04:00 and a drink at 02:00 on Jan 2,
	// which still belongs to Jan 1
	mem, s := newSchedulerFixture(t, nil)
	s.DayOffset = 4
	ctx := context.Background()
	require.NoError(t, mem.SaveGoal(ctx, engine.GoalRecord{Date: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), BaseAmount: 2000}))
	require.NoError(t, mem.AddIntake(ctx, water("late", time.Date(2025, 1, 2, 2, 0, 0, 0, time.UTC), 500)))

	// WHEN: The job runs at 00:05 on Jan 2, while Jan 1 is still open
	early, err := s.RunOnce(ctx)
	require.NoError(t, err)

	// THEN: Dec 31 is reported, the open day is not
	assert.Equal(t, "2024-12-31", early.Day.Format(engine.DateLayout))

	// WHEN: The job runs after 04:00
	s.now = func() time.Time { return time.Date(2025, 1, 2, 4, 5, 0, 0, time.UTC) }
	closed, err := s.RunOnce(ctx)
	require.NoError(t, err)

	// THEN: Jan 1 is reported with the 02:00 drink counted
	assert.Equal(t, "2025-01-01", closed.Day.Format(engine.DateLayout))
	assert.Equal(t, 500.0, closed.Hydration)
}

func TestLastCompletedDay(t *testing.T) {
	at := func(day, hour int) time.Time { return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC) }

	tests := []struct {
		now    time.Time
		offset int
		want   string
	}{
		{at(2, 0), 0, "2025-01-01"},
		{at(2, 3), 4, "2024-12-31"},
		{at(2, 4), 4, "2025-01-01"},
		{at(2, 23), 23, "2025-01-01"},
		{at(2, 22), 23, "2024-12-31"},
	}
	for _, tt := range tests {
		got := lastCompletedDay(tt.now, tt.offset)
		assert.Equal(t, tt.want, got.Format(engine.DateLayout), "now %s offset %d", tt.now, tt.offset)
	}
}

func TestReportScheduler_NoGoal(t *testing.T) {
	_, s := newSchedulerFixture(t, nil)

	_, err := s.RunOnce(context.Background())

	assert.ErrorIs(t, err, engine.ErrNoGoalData)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestReportScheduler_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	mem, s := newSchedulerFixture(t, sink)
	require.NoError(t, mem.SaveGoal(context.Background(), engine.GoalRecord{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), BaseAmount: 2000}))

	_, err := s.RunOnce(context.Background())

	assert.Error(t, err)
	_, ok := s.Latest()
	assert.True(t, ok, "the report is kept even when the sink fails")
}

func TestReportScheduler_StartRejectsBadSchedule(t *testing.T) {
	_, s := newSchedulerFixture(t, nil)
	s.Schedule = "every day"

	assert.Error(t, s.Start())
}

func TestReportScheduler_StartStop(t *testing.T) {
	_, s := newSchedulerFixture(t, nil)

	require.NoError(t, s.Start())
	s.Stop()
}

func TestLatestReport_AfterRun(t *testing.T) {
	// GIVEN: A handler wired to a scheduler that has run once
	srv := newTestServer(t)
	srv.putGoal(t, "2025-01-01", 2000, 0)
	reports := NewReportScheduler(srv.handler.Engine, "5 0 * * *", 0, time.UTC, nil, nil)
	reports.now = srv.handler.now
	srv.handler.Reports = reports
	_, err := reports.RunOnce(context.Background())
	require.NoError(t, err)

	// WHEN: Fetching the latest report
	rec := srv.do(t, http.MethodGet, "/api/reports/latest", nil)

	// THEN: Yesterday's summary is returned
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-01-01", decode[DaySummaryDTO](t, rec).Date)
}

func water(id string, at time.Time, amount float64) engine.IntakeEvent {
	return engine.IntakeEvent{ID: id, Timestamp: at, Amount: amount, HydrationFactor: 1, Drink: "water"}
}
