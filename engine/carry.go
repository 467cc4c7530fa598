package engine

import (
	"context"
	"time"
)

// =============================================================================
// CARRY-FORWARD WALKER
// =============================================================================
// A day-keyed setting applies to its own day with OwnDayValue and to every
// later day with CarryForwardValue, until the next setting. Days before the
// first setting borrow the first setting's carried value.
//
// The walker is generic so the same merge serves any day-keyed record kind;
// GoalRecord is the one the engine ships with.

// DaySetting is a record keyed by calendar day.
type DaySetting interface {
	Day() time.Time
	OwnDayValue() Amount
	CarryForwardValue() Amount
}

// carrySource is the subset of a store the walker reads.
type carrySource[S DaySetting] struct {
	inRange   func(ctx context.Context, from, to time.Time) ([]S, error)
	before    func(ctx context.Context, day time.Time) (*S, error)
	atOrAfter func(ctx context.Context, day time.Time) (*S, error)
}

// valueAt resolves a single day.
func (c carrySource[S]) valueAt(ctx context.Context, day time.Time) (Amount, error) {
	day = StartOfDay(day)

	next, err := c.atOrAfter(ctx, day)
	if err != nil {
		return Amount{}, err
	}
	if next != nil && SameDay((*next).Day(), day) {
		return (*next).OwnDayValue(), nil
	}

	prev, err := c.before(ctx, day)
	if err != nil {
		return Amount{}, err
	}
	if prev != nil {
		return (*prev).CarryForwardValue(), nil
	}
	if next != nil {
		return (*next).CarryForwardValue(), nil
	}
	return Amount{}, &NoGoalDataError{Date: day}
}

// series resolves every day in [begin, end) with one range read and at most
// two neighbour lookups. The successor is only fetched when some day comes
// before every known record.
func (c carrySource[S]) series(ctx context.Context, begin, end time.Time) ([]DailyGoal, error) {
	if end.Before(begin) {
		return nil, &RangeError{Begin: begin, End: end, Reason: "end precedes begin"}
	}
	begin, end = StartOfDay(begin), StartOfDay(end)

	records, err := c.inRange(ctx, begin, end)
	if err != nil {
		return nil, err
	}
	prev, err := c.before(ctx, begin)
	if err != nil {
		return nil, err
	}

	var carried *Amount
	if prev != nil {
		v := (*prev).CarryForwardValue()
		carried = &v
	}

	out := make([]DailyGoal, 0, DaysBetween(begin, end))
	cursor := 0
	for day := begin; day.Before(end); day = NextDay(day) {
		if cursor < len(records) {
			cmp := compareDays(records[cursor].Day(), day)
			if cmp < 0 {
				return nil, &RangeError{
					Begin:     begin,
					End:       end,
					Reason:    "record for " + records[cursor].Day().Format(DateLayout) + " is out of order",
					FromStore: true,
				}
			}
			if cmp == 0 {
				r := records[cursor]
				v := r.CarryForwardValue()
				carried = &v
				cursor++
				out = append(out, DailyGoal{Day: day, Amount: r.OwnDayValue()})
				continue
			}
		}

		if carried == nil {
			// Before the first record ever: borrow the first one's value.
			if cursor < len(records) {
				v := records[cursor].CarryForwardValue()
				carried = &v
			} else {
				next, err := c.atOrAfter(ctx, end)
				if err != nil {
					return nil, err
				}
				if next == nil {
					return nil, &NoGoalDataError{Date: day}
				}
				v := (*next).CarryForwardValue()
				carried = &v
			}
		}
		out = append(out, DailyGoal{Day: day, Amount: *carried})
	}

	if cursor < len(records) {
		return nil, &RangeError{
			Begin:     begin,
			End:       end,
			Reason:    "record for " + records[cursor].Day().Format(DateLayout) + " is outside the requested range",
			FromStore: true,
		}
	}
	return out, nil
}
