/*
Package engine provides the goal/intake time-series engine.

PURPOSE:
  Answers "what is the effective hydration goal on day D" and "how much was
  drunk per day/month/year between two dates" over two sparse record stores:
  daily goal settings and timestamped intake events.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity backed by decimal.Decimal
  - GoalRecord: The goal set for one calendar day (carries forward)
  - IntakeEvent: One logged drink with its hydration/dehydration factors
  - IntakeParts: Hydration and dehydration totals for one bucket

DESIGN PRINCIPLES:
  1. Carry-forward: A goal set on day X applies to every later day until
     a newer record supersedes it. Extra fractions apply only on day X.
  2. Precision: Sums and averages run on decimal.Decimal, so a bucket total
     does not depend on the order events were added in.
  3. No I/O: Records arrive through the Store interface, the engine only
     merges, buckets and aggregates them.

USAGE:
  eng := engine.New(store)
  goals, err := eng.GoalAmounts(ctx, begin, end)
  parts, err := eng.IntakeAggregate(ctx, engine.IntakeQuery{
      Begin:       begin,
      End:         end,
      Granularity: engine.GranularityMonth,
      Func:        engine.Average,
  })

SEE ALSO:
  - goal.go: Goal Resolver
  - aggregate.go: Event Aggregator
  - bucket.go: Bucket Planner
  - engine.go: Facade
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity (unit conversion lives outside the engine)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s)} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }

// =============================================================================
// GOAL RECORD - Daily goal setting
// =============================================================================

// GoalRecord is the goal configured for one calendar day.
// At most one record exists per day; saving again for the same day replaces it.
type GoalRecord struct {
	Date                 time.Time
	BaseAmount           float64
	HotDayFraction       float64
	HighActivityFraction float64
}

// Base is the amount carried forward to later days.
func (g GoalRecord) Base() Amount {
	return NewAmount(g.BaseAmount)
}

// Effective applies the hot-day and high-activity fractions to the base amount.
// Only the record's own day sees this value.
func (g GoalRecord) Effective() Amount {
	factor := decimal.NewFromInt(1).
		Add(decimal.NewFromFloat(g.HotDayFraction)).
		Add(decimal.NewFromFloat(g.HighActivityFraction))
	return g.Base().Mul(factor)
}

// Validate checks the record before it is written.
func (g GoalRecord) Validate() error {
	switch {
	case g.Date.IsZero():
		return &ValidationError{Field: "date", Message: "required"}
	case g.BaseAmount < 0:
		return &ValidationError{Field: "base_amount", Message: "must not be negative"}
	case g.HotDayFraction < 0:
		return &ValidationError{Field: "hot_day_fraction", Message: "must not be negative"}
	case g.HighActivityFraction < 0:
		return &ValidationError{Field: "high_activity_fraction", Message: "must not be negative"}
	}
	return nil
}

func (g GoalRecord) Day() time.Time            { return g.Date }
func (g GoalRecord) OwnDayValue() Amount       { return g.Effective() }
func (g GoalRecord) CarryForwardValue() Amount { return g.Base() }

// DailyGoal is one point of a resolved goal series.
type DailyGoal struct {
	Day    time.Time
	Amount Amount
}

func (d DailyGoal) At() time.Time    { return d.Day }
func (d DailyGoal) Measure() Amount { return d.Amount }

// =============================================================================
// INTAKE EVENT - One logged drink
// =============================================================================

type IntakeEvent struct {
	ID                string
	Timestamp         time.Time
	Amount            float64
	HydrationFactor   float64
	DehydrationFactor float64
	Drink             string // catalogue name, empty for custom factors
}

func (e IntakeEvent) At() time.Time { return e.Timestamp }

func (e IntakeEvent) Validate() error {
	switch {
	case e.ID == "":
		return &ValidationError{Field: "id", Message: "required"}
	case e.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp", Message: "required"}
	case e.Amount <= 0:
		return &ValidationError{Field: "amount", Message: "must be positive"}
	case e.HydrationFactor < 0:
		return &ValidationError{Field: "hydration_factor", Message: "must not be negative"}
	case e.DehydrationFactor < 0:
		return &ValidationError{Field: "dehydration_factor", Message: "must not be negative"}
	}
	return nil
}

// Hydration is the part of the drink that counts toward fluid balance.
func (e IntakeEvent) Hydration() Amount {
	return NewAmount(e.Amount).Mul(decimal.NewFromFloat(e.HydrationFactor))
}

// Dehydration is the fluid loss the drink causes (alcohol, mostly).
func (e IntakeEvent) Dehydration() Amount {
	return NewAmount(e.Amount).Mul(decimal.NewFromFloat(e.DehydrationFactor))
}

func (e IntakeEvent) NetBalance() Amount { return e.Hydration().Sub(e.Dehydration()) }

func (e IntakeEvent) Measure() IntakeTotals {
	return IntakeTotals{Hydration: e.Hydration(), Dehydration: e.Dehydration()}
}

// =============================================================================
// INTAKE TOTALS - Aggregated hydration/dehydration
// =============================================================================

// IntakeTotals is the exact (decimal) form used while aggregating.
type IntakeTotals struct {
	Hydration   Amount
	Dehydration Amount
}

func (t IntakeTotals) Add(o IntakeTotals) IntakeTotals {
	return IntakeTotals{
		Hydration:   t.Hydration.Add(o.Hydration),
		Dehydration: t.Dehydration.Add(o.Dehydration),
	}
}

func (t IntakeTotals) Div(s decimal.Decimal) IntakeTotals {
	return IntakeTotals{
		Hydration:   t.Hydration.Div(s),
		Dehydration: t.Dehydration.Div(s),
	}
}

func (t IntakeTotals) Parts() IntakeParts {
	return IntakeParts{
		Hydration:   t.Hydration.Float64(),
		Dehydration: t.Dehydration.Float64(),
	}
}

// IntakeParts is what the Facade hands back for one bucket.
type IntakeParts struct {
	Hydration   float64 `json:"hydration"`
	Dehydration float64 `json:"dehydration"`
}

// Balance is the net effect on fluid balance.
func (p IntakeParts) Balance() float64 {
	return p.Hydration - p.Dehydration
}
