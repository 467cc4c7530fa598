/*
scheduler.go - Daily report scheduler

PURPOSE:
  On a cron schedule, summarizes the last completed logical day (goal,
  hydration, dehydration, balance), logs it, optionally hands it to a
  ReportSink and keeps it for GET /api/reports/latest.

DESIGN:
  - robfig/cron drives the schedule in the configured time zone
  - A day with no goal history is skipped with a warning, not an error
  - RunOnce is the job body, exposed so tests and the CLI can call it

CONFIGURATION:
  - Schedule: standard 5-field cron expression (default "5 0 * * *")
  - DayOffset: the logical day start hour. With offset 4 a run at 00:05 on
    Jan 2 reports Dec 31, since Jan 1 lasts until Jan 2 04:00.

USAGE:
  scheduler := NewReportScheduler(eng, "5 0 * * *", 0, loc, nil, logger)
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - engine/engine.go: DaySummary
  - store/mongo/mongo.go: A ReportSink
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/warp/hydration-engine/engine"
)

// ReportSink persists generated reports.
type ReportSink interface {
	SaveDailyReport(ctx context.Context, summary engine.DaySummary) error
}

// ReportScheduler produces the daily report.
type ReportScheduler struct {
	Engine    *engine.Engine
	Schedule  string
	DayOffset int
	Location  *time.Location
	Sink      ReportSink

	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	latest *engine.DaySummary
}

// NewReportScheduler creates a new scheduler. sink may be nil.
func NewReportScheduler(eng *engine.Engine, schedule string, dayOffset int, loc *time.Location, sink ReportSink, logger *zap.Logger) *ReportScheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportScheduler{
		Engine:    eng,
		Schedule:  schedule,
		DayOffset: dayOffset,
		Location:  loc,
		Sink:      sink,
		cron:      cron.New(cron.WithLocation(loc)),
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the job and starts the cron runner.
func (s *ReportScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.Schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule daily report %q: %w", s.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("report scheduler started", zap.String("schedule", s.Schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *ReportScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("report scheduler stopped")
}

func (s *ReportScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, engine.ErrNoGoalData) {
			s.logger.Warn("daily report skipped: no goal set yet")
			return
		}
		s.logger.Error("failed to generate daily report", zap.Error(err))
	}
}

// RunOnce summarizes the last completed logical day and records the result
// as the latest report.
func (s *ReportScheduler) RunOnce(ctx context.Context) (engine.DaySummary, error) {
	day := lastCompletedDay(s.now().In(s.Location), s.DayOffset)

	summary, err := s.Engine.DaySummary(ctx, day, s.DayOffset)
	if err != nil {
		return engine.DaySummary{}, err
	}

	s.mu.Lock()
	s.latest = &summary
	s.mu.Unlock()

	s.logger.Info("daily report",
		zap.String("date", summary.Day.Format(engine.DateLayout)),
		zap.Float64("goal", summary.Goal),
		zap.Float64("hydration", summary.Hydration),
		zap.Float64("dehydration", summary.Dehydration),
		zap.Float64("percent_of_goal", summary.PercentOfGoal))

	if s.Sink != nil {
		if err := s.Sink.SaveDailyReport(ctx, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// lastCompletedDay is the logical day before the one now falls in. A logical
// day starts dayOffset hours after midnight, so before that hour now still
// belongs to the previous calendar day.
func lastCompletedDay(now time.Time, dayOffset int) time.Time {
	current := engine.StartOfDay(now)
	if now.Before(engine.AtHour(current, dayOffset)) {
		current = current.AddDate(0, 0, -1)
	}
	return current.AddDate(0, 0, -1)
}

// Latest returns the last report produced, if any.
func (s *ReportScheduler) Latest() (engine.DaySummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return engine.DaySummary{}, false
	}
	return *s.latest, true
}
