/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  engine's types so field names can evolve independently.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FORMATS:
  Dates are "YYYY-MM-DD" in the server's configured time zone.
  Timestamps are RFC 3339. Amounts are millilitres (the engine is unit-free).

VALIDATION:
  Validation is done in handlers and record Validate methods, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/hydration-engine/engine"
)

// =============================================================================
// GOALS
// =============================================================================

// GoalDTO is the effective goal for one day.
type GoalDTO struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// SaveGoalRequest is the body of PUT /api/goals/{date}.
type SaveGoalRequest struct {
	BaseAmount           float64 `json:"base_amount"`
	HotDayFraction       float64 `json:"hot_day_fraction"`
	HighActivityFraction float64 `json:"high_activity_fraction"`
}

// GoalRecordDTO echoes a stored goal record.
type GoalRecordDTO struct {
	Date                 string  `json:"date"`
	BaseAmount           float64 `json:"base_amount"`
	HotDayFraction       float64 `json:"hot_day_fraction"`
	HighActivityFraction float64 `json:"high_activity_fraction"`
	EffectiveAmount      float64 `json:"effective_amount"`
}

func toGoalRecordDTO(g engine.GoalRecord) GoalRecordDTO {
	return GoalRecordDTO{
		Date:                 g.Date.Format(engine.DateLayout),
		BaseAmount:           g.BaseAmount,
		HotDayFraction:       g.HotDayFraction,
		HighActivityFraction: g.HighActivityFraction,
		EffectiveAmount:      g.Effective().Float64(),
	}
}

// SeriesPointDTO is one labelled value of a series.
// Label is a date ("2025-01-02") for daily series, a month ("2025-01") otherwise.
type SeriesPointDTO struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type GoalSeriesResponse struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Group  string           `json:"group"`
	Points []SeriesPointDTO `json:"points"`
}

// RecommendRequest is the body of POST /api/goals/recommend.
// When ApplyOn is set the recommendation is also saved as that day's goal.
type RecommendRequest struct {
	Age      int     `json:"age"`
	Gender   string  `json:"gender"`
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
	Activity string  `json:"activity"`
	Country  string  `json:"country,omitempty"`
	ApplyOn  string  `json:"apply_on,omitempty"`
}

type RecommendResponse struct {
	DailyWaterIntake float64        `json:"daily_water_intake"`
	LostWater        float64        `json:"lost_water"`
	SupplyWater      float64        `json:"supply_water"`
	Saved            *GoalRecordDTO `json:"saved,omitempty"`
}

// =============================================================================
// INTAKES
// =============================================================================

// CreateIntakeRequest is the body of POST /api/intakes.
// Either Drink names a catalogue drink, or HydrationFactor is given.
type CreateIntakeRequest struct {
	ID                string   `json:"id,omitempty"`
	Timestamp         string   `json:"timestamp,omitempty"`
	Amount            float64  `json:"amount"`
	Drink             string   `json:"drink,omitempty"`
	HydrationFactor   *float64 `json:"hydration_factor,omitempty"`
	DehydrationFactor *float64 `json:"dehydration_factor,omitempty"`
}

type IntakeDTO struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Amount            float64   `json:"amount"`
	Drink             string    `json:"drink,omitempty"`
	HydrationFactor   float64   `json:"hydration_factor"`
	DehydrationFactor float64   `json:"dehydration_factor"`
	Hydration         float64   `json:"hydration"`
	Dehydration       float64   `json:"dehydration"`
}

func toIntakeDTO(e engine.IntakeEvent) IntakeDTO {
	return IntakeDTO{
		ID:                e.ID,
		Timestamp:         e.Timestamp,
		Amount:            e.Amount,
		Drink:             e.Drink,
		HydrationFactor:   e.HydrationFactor,
		DehydrationFactor: e.DehydrationFactor,
		Hydration:         e.Hydration().Float64(),
		Dehydration:       e.Dehydration().Float64(),
	}
}

// BucketDTO is one aggregated bucket.
type BucketDTO struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Hydration   float64   `json:"hydration"`
	Dehydration float64   `json:"dehydration"`
	Balance     float64   `json:"balance"`
}

type AggregateResponse struct {
	Granularity string      `json:"granularity"`
	Func        string      `json:"func"`
	DayOffset   int         `json:"day_offset"`
	Buckets     []BucketDTO `json:"buckets"`
}

type ByDrinkResponse struct {
	Date   string                        `json:"date"`
	Drinks map[string]engine.IntakeParts `json:"drinks"`
}

// =============================================================================
// REPORTS
// =============================================================================

type DaySummaryDTO struct {
	Date          string  `json:"date"`
	Goal          float64 `json:"goal"`
	Hydration     float64 `json:"hydration"`
	Dehydration   float64 `json:"dehydration"`
	Balance       float64 `json:"balance"`
	PercentOfGoal float64 `json:"percent_of_goal"`
}

func toDaySummaryDTO(s engine.DaySummary) DaySummaryDTO {
	return DaySummaryDTO{
		Date:          s.Day.Format(engine.DateLayout),
		Goal:          s.Goal,
		Hydration:     s.Hydration,
		Dehydration:   s.Dehydration,
		Balance:       s.Balance,
		PercentOfGoal: s.PercentOfGoal,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
