/*
handlers.go - HTTP API handlers for the hydration engine

PURPOSE:
  Exposes the engine's queries and the store's writes via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  engine.Engine for every read.

ENDPOINTS:
  Goals:
    GET    /api/goals/{date}            Effective goal for one day
    GET    /api/goals/{date}/record     Record set on exactly that day
    PUT    /api/goals/{date}            Set the goal for one day
    GET    /api/goals?from=&to=&group=  Daily or monthly goal series
    POST   /api/goals/recommend         Recommended goal from a profile

  Intakes:
    POST   /api/intakes                 Log a drink
    DELETE /api/intakes/{id}            Remove a logged drink
    GET    /api/intakes/aggregate       Bucketed sums/averages
    GET    /api/intakes/by-drink        One day's totals per drink

  Reports:
    GET    /api/reports/daily           Goal vs. intake for one day
    GET    /api/reports/latest          Last scheduled report

  Catalogue:
    GET    /api/drinks                  Drink types and factors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid range, invalid record
  - 404: No goal history, unknown intake
  - 409: Duplicate intake id
  - 500: Store failures, including results that break the store's ordering contract

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/hydration-engine/drink"
	"github.com/warp/hydration-engine/engine"
	"github.com/warp/hydration-engine/goalcalc"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  engine.MutableStore
	Engine *engine.Engine

	// Location interprets "YYYY-MM-DD" parameters.
	Location *time.Location
	// DayOffset applies when a request has no day_offset parameter.
	DayOffset int
	// Reports is optional; without it /api/reports/latest is always 404.
	Reports *ReportScheduler

	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(store engine.MutableStore, loc *time.Location, dayOffset int, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Engine:    engine.New(store),
		Location:  loc,
		DayOffset: dayOffset,
		logger:    logger,
		now:       time.Now,
	}
}

// =============================================================================
// GOAL HANDLERS
// =============================================================================

// GetGoal returns the effective goal for one day.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	day, err := engine.ParseDate(chi.URLParam(r, "date"), h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	amount, err := h.Engine.GoalForDate(r.Context(), day)
	if err != nil {
		h.writeEngineError(w, r, "Failed to resolve goal", err)
		return
	}

	writeJSON(w, http.StatusOK, GoalDTO{Date: day.Format(engine.DateLayout), Amount: amount})
}

// GetGoalRecord returns the record set on exactly that day, without carry-forward.
func (h *Handler) GetGoalRecord(w http.ResponseWriter, r *http.Request) {
	day, err := engine.ParseDate(chi.URLParam(r, "date"), h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	record, err := h.Engine.GoalRecordForDate(r.Context(), day)
	if err != nil {
		h.writeEngineError(w, r, "Failed to read goal record", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "No goal record on this day", nil)
		return
	}

	writeJSON(w, http.StatusOK, toGoalRecordDTO(*record))
}

// SaveGoal stores the goal for one day, replacing any existing one.
func (h *Handler) SaveGoal(w http.ResponseWriter, r *http.Request) {
	day, err := engine.ParseDate(chi.URLParam(r, "date"), h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var req SaveGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	goal := engine.GoalRecord{
		Date:                 day,
		BaseAmount:           req.BaseAmount,
		HotDayFraction:       req.HotDayFraction,
		HighActivityFraction: req.HighActivityFraction,
	}
	if err := h.Store.SaveGoal(r.Context(), goal); err != nil {
		h.writeEngineError(w, r, "Failed to save goal", err)
		return
	}

	h.logger.Info("goal saved",
		zap.String("date", day.Format(engine.DateLayout)),
		zap.Float64("base_amount", goal.BaseAmount))
	writeJSON(w, http.StatusOK, toGoalRecordDTO(goal))
}

// ListGoals returns a daily series, or monthly averages with group=month.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	group := r.URL.Query().Get("group")
	if group == "" {
		group = "day"
	}

	resp := GoalSeriesResponse{
		From:   from.Format(engine.DateLayout),
		To:     to.Format(engine.DateLayout),
		Group:  group,
		Points: []SeriesPointDTO{},
	}

	switch group {
	case "day":
		values, err := h.Engine.GoalAmounts(r.Context(), from, to)
		if err != nil {
			h.writeEngineError(w, r, "Failed to resolve goals", err)
			return
		}
		day := from
		for _, v := range values {
			resp.Points = append(resp.Points, SeriesPointDTO{Label: day.Format(engine.DateLayout), Value: v})
			day = day.AddDate(0, 0, 1)
		}
	case "month":
		values, err := h.Engine.GoalAmountsByMonth(r.Context(), from, to)
		if err != nil {
			h.writeEngineError(w, r, "Failed to resolve goals", err)
			return
		}
		month := engine.StartOfMonth(from)
		for _, v := range values {
			resp.Points = append(resp.Points, SeriesPointDTO{Label: month.Format("2006-01"), Value: v})
			month = month.AddDate(0, 1, 0)
		}
	default:
		writeError(w, http.StatusBadRequest, "Invalid group", fmt.Errorf("unknown group %q (expected day or month)", group))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// RecommendGoal runs the goal calculator and optionally saves the result.
func (h *Handler) RecommendGoal(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, err := profileFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile", err)
		return
	}

	resp := RecommendResponse{
		DailyWaterIntake: goalcalc.DailyWaterIntake(profile),
		LostWater:        goalcalc.LostWater(profile),
		SupplyWater:      goalcalc.SupplyWater(profile),
	}

	if req.ApplyOn != "" {
		day, err := engine.ParseDate(req.ApplyOn, h.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid apply_on date", err)
			return
		}
		goal := engine.GoalRecord{Date: day, BaseAmount: resp.DailyWaterIntake}
		if err := h.Store.SaveGoal(r.Context(), goal); err != nil {
			h.writeEngineError(w, r, "Failed to save goal", err)
			return
		}
		saved := toGoalRecordDTO(goal)
		resp.Saved = &saved
	}

	writeJSON(w, http.StatusOK, resp)
}

func profileFromRequest(req RecommendRequest) (goalcalc.Profile, error) {
	activity, err := goalcalc.ParseActivity(req.Activity)
	if err != nil {
		return goalcalc.Profile{}, err
	}
	gender, err := goalcalc.ParseGender(req.Gender)
	if err != nil {
		return goalcalc.Profile{}, err
	}
	country, err := goalcalc.ParseCountry(req.Country)
	if err != nil {
		return goalcalc.Profile{}, err
	}
	p := goalcalc.Profile{
		Activity: activity,
		Gender:   gender,
		Age:      req.Age,
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
		Country:  country,
	}
	return p, p.Validate()
}

// =============================================================================
// INTAKE HANDLERS
// =============================================================================

// CreateIntake logs a drink. Catalogue drinks bring their own factors.
func (h *Handler) CreateIntake(w http.ResponseWriter, r *http.Request) {
	var req CreateIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, err := h.intakeFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid intake", err)
		return
	}

	if err := h.Store.AddIntake(r.Context(), event); err != nil {
		h.writeEngineError(w, r, "Failed to log intake", err)
		return
	}

	h.logger.Debug("intake logged",
		zap.String("id", event.ID),
		zap.String("drink", event.Drink),
		zap.Float64("amount", event.Amount))
	writeJSON(w, http.StatusCreated, toIntakeDTO(event))
}

func (h *Handler) intakeFromRequest(req CreateIntakeRequest) (engine.IntakeEvent, error) {
	at := h.now().In(h.Location)
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return engine.IntakeEvent{}, fmt.Errorf("timestamp must be RFC 3339: %w", err)
		}
		at = t.In(h.Location)
	}

	var event engine.IntakeEvent
	switch {
	case req.Drink != "":
		d, ok := drink.Lookup(req.Drink)
		if !ok {
			return engine.IntakeEvent{}, fmt.Errorf("unknown drink %q", req.Drink)
		}
		event = d.Event(at, req.Amount)
	case req.HydrationFactor != nil:
		event = engine.IntakeEvent{
			ID:              uuid.NewString(),
			Timestamp:       at,
			Amount:          req.Amount,
			HydrationFactor: *req.HydrationFactor,
		}
		if req.DehydrationFactor != nil {
			event.DehydrationFactor = *req.DehydrationFactor
		}
	default:
		return engine.IntakeEvent{}, errors.New("either drink or hydration_factor is required")
	}

	if req.ID != "" {
		event.ID = req.ID
	}
	return event, nil
}

// DeleteIntake removes a logged drink.
func (h *Handler) DeleteIntake(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteIntake(r.Context(), id); err != nil {
		h.writeEngineError(w, r, "Failed to delete intake", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AggregateIntakes returns one bucket per day, month or year.
func (h *Handler) AggregateIntakes(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	granularity, err := engine.ParseGranularity(q.Get("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid granularity", err)
		return
	}
	fn, err := engine.ParseAggregateFunc(q.Get("func"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid func", err)
		return
	}
	offset, ok := h.parseDayOffset(w, r)
	if !ok {
		return
	}

	query := engine.IntakeQuery{Begin: from, End: to, DayOffset: offset, Granularity: granularity, Func: fn}
	totals, err := h.Engine.IntakeBuckets(r.Context(), query)
	if err != nil {
		h.writeEngineError(w, r, "Failed to aggregate intakes", err)
		return
	}

	resp := AggregateResponse{
		Granularity: granularity.String(),
		Func:        fn.String(),
		DayOffset:   offset,
		Buckets:     make([]BucketDTO, len(totals)),
	}
	for i, t := range totals {
		resp.Buckets[i] = BucketDTO{
			Start:       t.Start,
			End:         t.End,
			Hydration:   t.Hydration,
			Dehydration: t.Dehydration,
			Balance:     t.Balance(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// IntakesByDrink returns one logical day's totals per drink.
func (h *Handler) IntakesByDrink(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDay(w, r)
	if !ok {
		return
	}
	offset, ok := h.parseDayOffset(w, r)
	if !ok {
		return
	}

	drinks, err := h.Engine.IntakeByDrink(r.Context(), day, offset)
	if err != nil {
		h.writeEngineError(w, r, "Failed to group intakes", err)
		return
	}
	writeJSON(w, http.StatusOK, ByDrinkResponse{Date: day.Format(engine.DateLayout), Drinks: drinks})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport compares one logical day's intake with its goal.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDay(w, r)
	if !ok {
		return
	}
	offset, ok := h.parseDayOffset(w, r)
	if !ok {
		return
	}

	summary, err := h.Engine.DaySummary(r.Context(), day, offset)
	if err != nil {
		h.writeEngineError(w, r, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toDaySummaryDTO(summary))
}

// LatestReport returns the last report the scheduler produced.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	if h.Reports == nil {
		writeError(w, http.StatusNotFound, "Reports are disabled", nil)
		return
	}
	summary, ok := h.Reports.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No report generated yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, toDaySummaryDTO(summary))
}

// ListDrinks returns the drink catalogue.
func (h *Handler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, drink.All())
}

// =============================================================================
// PARAMETER PARSING
// =============================================================================

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	from, err := engine.ParseDate(q.Get("from"), h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date", err)
		return time.Time{}, time.Time{}, false
	}
	to, err = engine.ParseDate(q.Get("to"), h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'to' date", err)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// parseDay reads ?date=, defaulting to today.
func (h *Handler) parseDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return engine.StartOfDay(h.now().In(h.Location)), true
	}
	day, err := engine.ParseDate(s, h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return time.Time{}, false
	}
	return day, true
}

func (h *Handler) parseDayOffset(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("day_offset")
	if s == "" {
		return h.DayOffset, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day_offset", err)
		return 0, false
	}
	return n, true
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine and store errors to a status code.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
