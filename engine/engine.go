/*
engine.go - Facade over the resolver, planner and aggregator

PURPOSE:
  The one entry point surrounding code calls. Each method is a stateless
  query: plan buckets, read the store once for the whole range, merge,
  aggregate, convert to float64.

KEY OPERATIONS:
  GoalForDate / GoalAmounts / GoalAmountsByMonth: Goal series
  GoalRecordForDate: The record stored on exactly one day
  IntakeAggregate: Bucketed hydration/dehydration
  IntakeBuckets:   Same, with each bucket's edges
  IntakeByDrink:   Per-drink totals for one logical day
  DaySummary:      Goal vs. intake for one logical day

CONCURRENCY:
  Engine holds no mutable state. Concurrent calls are safe as long as the
  Store is.
*/
package engine

import (
	"context"
	"time"
)

type Engine struct {
	store Store
	goals *GoalResolver
}

func New(store Store) *Engine {
	return &Engine{store: store, goals: NewGoalResolver(store)}
}

// =============================================================================
// GOALS
// =============================================================================

func (e *Engine) GoalForDate(ctx context.Context, date time.Time) (float64, error) {
	amount, err := e.goals.ResolveForDate(ctx, date)
	if err != nil {
		return 0, err
	}
	return amount.Float64(), nil
}

// GoalRecordForDate returns the goal record set on that exact day, or nil.
func (e *Engine) GoalRecordForDate(ctx context.Context, date time.Time) (*GoalRecord, error) {
	return e.goals.RecordForDate(ctx, date)
}

// GoalAmounts returns one goal per day in [begin, end).
func (e *Engine) GoalAmounts(ctx context.Context, begin, end time.Time) ([]float64, error) {
	daily, err := e.goals.ResolveRange(ctx, begin, end)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(daily))
	for i, d := range daily {
		out[i] = d.Amount.Float64()
	}
	return out, nil
}

// GoalAmountsByMonth returns the average daily goal of each month in range.
func (e *Engine) GoalAmountsByMonth(ctx context.Context, begin, end time.Time) ([]float64, error) {
	months, err := e.goals.ResolveGroupedByMonth(ctx, begin, end)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(months))
	for i, m := range months {
		out[i] = m.Average.Float64()
	}
	return out, nil
}

// =============================================================================
// INTAKE
// =============================================================================

// IntakeQuery describes a bucketed intake aggregation. DayOffset is the hour
// a logical day starts at.
type IntakeQuery struct {
	Begin       time.Time
	End         time.Time
	DayOffset   int
	Granularity Granularity
	Func        AggregateFunc
}

// BucketTotals is one aggregated bucket together with its edges.
type BucketTotals struct {
	Bucket
	IntakeParts
}

// IntakeAggregate returns one IntakeParts per planned bucket. Buckets with
// no events are zero, never skipped.
func (e *Engine) IntakeAggregate(ctx context.Context, q IntakeQuery) ([]IntakeParts, error) {
	totals, err := e.IntakeBuckets(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]IntakeParts, len(totals))
	for i, t := range totals {
		out[i] = t.IntakeParts
	}
	return out, nil
}

// IntakeBuckets is IntakeAggregate with the planned bucket edges attached.
func (e *Engine) IntakeBuckets(ctx context.Context, q IntakeQuery) ([]BucketTotals, error) {
	buckets, err := PlanBuckets(q.Begin, q.End, q.Granularity, q.DayOffset)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return []BucketTotals{}, nil
	}

	events, err := e.store.IntakeEvents(ctx, buckets[0].Start, buckets[len(buckets)-1].End)
	if err != nil {
		return nil, err
	}
	groups, err := Distribute(buckets, events)
	if err != nil {
		return nil, err
	}

	out := make([]BucketTotals, len(buckets))
	for i, b := range buckets {
		out[i] = BucketTotals{Bucket: b, IntakeParts: AggregateIntake(groups[i], q.Func, b.Days)}
	}
	return out, nil
}

// CustomDrink keys events logged without a catalogue drink.
const CustomDrink = "custom"

// logicalDay returns the [start, end) of the logical day containing day.
func logicalDay(day time.Time, dayOffset int) (Bucket, error) {
	buckets, err := PlanBuckets(day, NextDay(StartOfDay(day)), GranularityDay, dayOffset)
	if err != nil {
		return Bucket{}, err
	}
	return buckets[0], nil
}

// IntakeByDrink sums one logical day's intake per drink name.
func (e *Engine) IntakeByDrink(ctx context.Context, day time.Time, dayOffset int) (map[string]IntakeParts, error) {
	b, err := logicalDay(day, dayOffset)
	if err != nil {
		return nil, err
	}
	events, err := e.store.IntakeEvents(ctx, b.Start, b.End)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]IntakeTotals)
	for _, ev := range events {
		name := ev.Drink
		if name == "" {
			name = CustomDrink
		}
		totals[name] = totals[name].Add(ev.Measure())
	}

	out := make(map[string]IntakeParts, len(totals))
	for name, t := range totals {
		out[name] = t.Parts()
	}
	return out, nil
}

// =============================================================================
// DAY SUMMARY
// =============================================================================

// DaySummary compares one logical day's intake with its goal.
type DaySummary struct {
	Day           time.Time `json:"day"`
	Goal          float64   `json:"goal"`
	Hydration     float64   `json:"hydration"`
	Dehydration   float64   `json:"dehydration"`
	Balance       float64   `json:"balance"`
	PercentOfGoal float64   `json:"percent_of_goal"`
}

func (e *Engine) DaySummary(ctx context.Context, day time.Time, dayOffset int) (DaySummary, error) {
	b, err := logicalDay(day, dayOffset)
	if err != nil {
		return DaySummary{}, err
	}
	goal, err := e.goals.ResolveForDate(ctx, day)
	if err != nil {
		return DaySummary{}, err
	}
	events, err := e.store.IntakeEvents(ctx, b.Start, b.End)
	if err != nil {
		return DaySummary{}, err
	}
	totals := Aggregate[IntakeTotals](events, Sum, 1)
	balance := totals.Hydration.Sub(totals.Dehydration)

	summary := DaySummary{
		Day:         StartOfDay(day),
		Goal:        goal.Float64(),
		Hydration:   totals.Hydration.Float64(),
		Dehydration: totals.Dehydration.Float64(),
		Balance:     balance.Float64(),
	}
	if !goal.IsZero() {
		summary.PercentOfGoal = balance.Div(goal.Value).Float64() * 100
	}
	return summary, nil
}
