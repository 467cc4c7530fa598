/*
goal.go - Goal Resolver

PURPOSE:
  Answers goal questions over sparse goal records using carry-forward:
  the goal set on day X holds for every later day until superseded, while
  the record's hot-day and high-activity fractions count on day X only.

KEY OPERATIONS:
  ResolveForDate:        One day
  ResolveRange:          One value per day in [begin, end), single merge pass
  ResolveGroupedByMonth: Average daily goal per calendar month

EDGE FILLING:
  Days before the first record use the first record's base amount. With no
  record anywhere the result is NoGoalDataError.

SEE ALSO:
  - carry.go: The generic carry-forward walker
  - engine.go: Facade exposing these as float64 series
*/
package engine

import (
	"context"
	"time"
)

type GoalResolver struct {
	Store GoalSource
}

func NewGoalResolver(store GoalSource) *GoalResolver {
	return &GoalResolver{Store: store}
}

func (r *GoalResolver) source() carrySource[GoalRecord] {
	return carrySource[GoalRecord]{
		inRange:   r.Store.GoalRecords,
		before:    r.Store.NearestGoalBefore,
		atOrAfter: r.Store.NearestGoalAtOrAfter,
	}
}

// ResolveForDate returns the effective goal on date's calendar day.
func (r *GoalResolver) ResolveForDate(ctx context.Context, date time.Time) (Amount, error) {
	return r.source().valueAt(ctx, date)
}

// RecordForDate returns the record stored for date's calendar day itself,
// or nil when that day has none. Nothing is carried.
func (r *GoalResolver) RecordForDate(ctx context.Context, date time.Time) (*GoalRecord, error) {
	day := StartOfDay(date)
	next, err := r.Store.NearestGoalAtOrAfter(ctx, day)
	if err != nil || next == nil || !SameDay(next.Date, day) {
		return nil, err
	}
	return next, nil
}

// ResolveRange returns one goal per day in [begin, end), ascending.
func (r *GoalResolver) ResolveRange(ctx context.Context, begin, end time.Time) ([]DailyGoal, error) {
	return r.source().series(ctx, begin, end)
}

// MonthlyGoal is the average daily goal of one calendar month.
type MonthlyGoal struct {
	Month   time.Time
	Average Amount
}

// ResolveGroupedByMonth returns the average daily goal of every calendar
// month touched by [begin, end). Each month is resolved in full, so partial
// months at the edges are still averaged over their whole length.
func (r *GoalResolver) ResolveGroupedByMonth(ctx context.Context, begin, end time.Time) ([]MonthlyGoal, error) {
	if end.Before(begin) {
		return nil, &RangeError{Begin: begin, End: end, Reason: "end precedes begin"}
	}
	begin, end = StartOfDay(begin), StartOfDay(end)
	if end.Equal(begin) {
		return []MonthlyGoal{}, nil
	}

	from := StartOfMonth(begin)
	to := StartOfMonth(end)
	if to.Before(end) {
		to = to.AddDate(0, 1, 0)
	}

	daily, err := r.ResolveRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	buckets, err := PlanBuckets(from, to, GranularityMonth, 0)
	if err != nil {
		return nil, err
	}
	groups, err := Distribute(buckets, daily)
	if err != nil {
		return nil, err
	}

	out := make([]MonthlyGoal, len(buckets))
	for i, b := range buckets {
		out[i] = MonthlyGoal{
			Month:   b.Start,
			Average: Aggregate[Amount](groups[i], Average, b.Days),
		}
	}
	return out, nil
}
