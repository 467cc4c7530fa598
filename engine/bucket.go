package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// GRANULARITY
// =============================================================================

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMonth
	GranularityYear
)

func (g Granularity) String() string {
	switch g {
	case GranularityDay:
		return "day"
	case GranularityMonth:
		return "month"
	case GranularityYear:
		return "year"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily", "":
		return GranularityDay, nil
	case "month", "monthly":
		return GranularityMonth, nil
	case "year", "yearly":
		return GranularityYear, nil
	default:
		return 0, fmt.Errorf("unknown granularity %q (expected day, month or year)", s)
	}
}

// unitStart returns the start of the calendar unit containing t, at hour.
func (g Granularity) unitStart(t time.Time, hour int) time.Time {
	switch g {
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, hour, 0, 0, 0, t.Location())
	case GranularityYear:
		return time.Date(t.Year(), time.January, 1, hour, 0, 0, 0, t.Location())
	default:
		return AtHour(t, hour)
	}
}

// next steps a unit start forward by one unit, keeping the hour.
func (g Granularity) next(start time.Time, hour int) time.Time {
	switch g {
	case GranularityMonth:
		return time.Date(start.Year(), start.Month()+1, 1, hour, 0, 0, 0, start.Location())
	case GranularityYear:
		return time.Date(start.Year()+1, time.January, 1, hour, 0, 0, 0, start.Location())
	default:
		return time.Date(start.Year(), start.Month(), start.Day()+1, hour, 0, 0, 0, start.Location())
	}
}

// days is the full length of the unit starting at start, in days.
func (g Granularity) days(start time.Time) int {
	switch g {
	case GranularityMonth:
		return DaysInMonth(start.Year(), start.Month())
	case GranularityYear:
		return DaysInYear(start.Year())
	default:
		return 1
	}
}

// =============================================================================
// BUCKET - Half-open aggregation interval
// =============================================================================

// Bucket is one [Start, End) interval of a plan.
// Days is the length of the whole calendar unit, even when the bucket was
// clipped at the edges of the requested range: a month bucket averages over
// the full month.
type Bucket struct {
	Start time.Time
	End   time.Time
	Days  int
}

func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

func (b Bucket) String() string {
	return "[" + b.Start.Format(time.RFC3339) + ", " + b.End.Format(time.RFC3339) + ")"
}

// =============================================================================
// BUCKET PLANNER
// =============================================================================

// PlanBuckets splits [begin, end) into calendar buckets.
//
// begin and end are moved to dayOffset hours past their local midnight first,
// so with dayOffset 4 a logical day runs from 04:00 to 04:00 and a drink at
// 01:30 counts toward the previous day. Buckets are contiguous, do not
// overlap and together cover exactly the shifted range.
func PlanBuckets(begin, end time.Time, g Granularity, dayOffset int) ([]Bucket, error) {
	if dayOffset < 0 || dayOffset > 23 {
		return nil, &RangeError{Reason: fmt.Sprintf("day offset %d outside [0, 24)", dayOffset)}
	}
	if g < GranularityDay || g > GranularityYear {
		return nil, &RangeError{Reason: "unsupported granularity " + g.String()}
	}

	if end.Before(begin) {
		return nil, &RangeError{Begin: begin, End: end, Reason: "end precedes begin"}
	}
	start := AtHour(begin, dayOffset)
	stop := AtHour(end, dayOffset)
	if stop.Before(start) {
		return nil, &RangeError{Begin: start, End: stop, Reason: "end precedes begin"}
	}

	buckets := make([]Bucket, 0, estimateBuckets(start, stop, g))
	for current := start; current.Before(stop); {
		unit := g.unitStart(current, dayOffset)
		next := g.next(unit, dayOffset)
		if next.After(stop) {
			next = stop
		}
		buckets = append(buckets, Bucket{Start: current, End: next, Days: g.days(unit)})
		current = next
	}
	return buckets, nil
}

func estimateBuckets(start, stop time.Time, g Granularity) int {
	switch g {
	case GranularityMonth:
		return (stop.Year()-start.Year())*12 + int(stop.Month()-start.Month()) + 1
	case GranularityYear:
		return stop.Year() - start.Year() + 1
	default:
		return DaysBetween(start, stop) + 1
	}
}

// =============================================================================
// DISTRIBUTION - Assign ordered records to ordered buckets
// =============================================================================

// Timed is anything placed on the timeline.
type Timed interface {
	At() time.Time
}

// Distribute splits time-ordered records into the buckets they fall in.
// Records and buckets are both ascending, so one cursor pass is enough:
// O(records + buckets). The returned groups share records' backing array.
//
// A record that lands before the bucket the cursor is on, or past the last
// bucket, means the source broke its ordering or range contract.
func Distribute[R Timed](buckets []Bucket, records []R) ([][]R, error) {
	if len(buckets) == 0 {
		if len(records) > 0 {
			return nil, &RangeError{Reason: "records outside an empty plan", FromStore: true}
		}
		return [][]R{}, nil
	}
	groups := make([][]R, len(buckets))
	i := 0
	for k, b := range buckets {
		first := i
		for i < len(records) && records[i].At().Before(b.End) {
			if records[i].At().Before(b.Start) {
				return nil, &RangeError{
					Begin:     b.Start,
					End:       b.End,
					Reason:    "record at " + records[i].At().Format(time.RFC3339) + " is out of order",
					FromStore: true,
				}
			}
			i++
		}
		groups[k] = records[first:i]
	}
	if i < len(records) {
		last := buckets[len(buckets)-1]
		return nil, &RangeError{
			Begin:     buckets[0].Start,
			End:       last.End,
			Reason:    "record at " + records[i].At().Format(time.RFC3339) + " is outside the planned range",
			FromStore: true,
		}
	}
	return groups, nil
}
