/*
aggregate.go - Event Aggregator

PURPOSE:
  Reduces the records of one bucket to a single value. Sum adds the
  measures, Average divides that sum by the number of calendar days in the
  bucket (not by the number of records), so a month with ten logged drinks
  and a month with none both average over their real length.

RULES:
  - An empty bucket aggregates to zero and never fails.
  - Arithmetic is decimal; the result does not depend on record order.

SEE ALSO:
  - bucket.go: Produces the buckets and their day counts
  - engine.go: Wires planner, store and aggregator together
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATE FUNCTION
// =============================================================================

type AggregateFunc int

const (
	Sum AggregateFunc = iota
	Average
)

func (f AggregateFunc) String() string {
	switch f {
	case Sum:
		return "sum"
	case Average:
		return "average"
	default:
		return fmt.Sprintf("aggregate(%d)", int(f))
	}
}

func ParseAggregateFunc(s string) (AggregateFunc, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "":
		return Sum, nil
	case "average", "avg", "mean":
		return Average, nil
	default:
		return 0, fmt.Errorf("unknown aggregate function %q (expected sum or average)", s)
	}
}

// =============================================================================
// MEASURES
// =============================================================================

// Summable is a measure that can be added up and divided by a day count.
type Summable[T any] interface {
	Add(T) T
	Div(decimal.Decimal) T
}

// Measured is a timed record carrying a summable measure.
type Measured[T any] interface {
	Timed
	Measure() T
}

// Aggregate reduces one bucket's records. bucketDays is only read for
// Average and must be positive then.
func Aggregate[T Summable[T], R Measured[T]](records []R, fn AggregateFunc, bucketDays int) T {
	var total T
	for _, r := range records {
		total = total.Add(r.Measure())
	}
	if fn == Average && bucketDays > 0 {
		total = total.Div(decimal.NewFromInt(int64(bucketDays)))
	}
	return total
}

// AggregateIntake is Aggregate for intake events, converted to IntakeParts.
func AggregateIntake(events []IntakeEvent, fn AggregateFunc, bucketDays int) IntakeParts {
	return Aggregate[IntakeTotals](events, fn, bucketDays).Parts()
}
