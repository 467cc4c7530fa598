// Package mongo provides a MongoDB-backed implementation of engine.MutableStore.
//
// Goals live in the "goal_records" collection keyed by their 'YYYY-MM-DD'
// day, so string order is day order. Intakes live in "intake_events" with
// the timestamp stored as Unix nanoseconds (BSON dates stop at milliseconds).
// Daily reports produced by the scheduler are appended to "daily_reports".
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warp/hydration-engine/engine"
)

const (
	goalsCollection   = "goal_records"
	intakesCollection = "intake_events"
	reportsCollection = "daily_reports"
)

type goalDocument struct {
	Day                  string    `bson:"_id"`
	BaseAmount           float64   `bson:"base_amount"`
	HotDayFraction       float64   `bson:"hot_day_fraction"`
	HighActivityFraction float64   `bson:"high_activity_fraction"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

type intakeDocument struct {
	ID                string  `bson:"_id"`
	OccurredAt        int64   `bson:"occurred_at"`
	Amount            float64 `bson:"amount"`
	HydrationFactor   float64 `bson:"hydration_factor"`
	DehydrationFactor float64 `bson:"dehydration_factor"`
	Drink             string  `bson:"drink"`
}

type reportDocument struct {
	Day         string    `bson:"day"`
	Summary     bson.M    `bson:"summary"`
	GeneratedAt time.Time `bson:"generated_at"`
}

// Store implements engine.MutableStore for MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	loc    *time.Location
}

var _ engine.MutableStore = (*Store)(nil)

// New connects, pings and makes sure the intake index exists.
// A nil loc means time.Local.
func New(ctx context.Context, uri, dbName string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), loc: loc}
	_, err = s.db.Collection(intakesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "occurred_at", Value: 1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create intake index: %w", err)
	}
	return s, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes every collection this store writes (for tests).
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// =============================================================================
// GOAL RECORDS
// =============================================================================

func (s *Store) SaveGoal(ctx context.Context, goal engine.GoalRecord) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	doc := goalDocument{
		Day:                  goal.Date.Format(engine.DateLayout),
		BaseAmount:           goal.BaseAmount,
		HotDayFraction:       goal.HotDayFraction,
		HighActivityFraction: goal.HighActivityFraction,
		UpdatedAt:            time.Now().UTC(),
	}
	_, err := s.db.Collection(goalsCollection).ReplaceOne(ctx,
		bson.M{"_id": doc.Day}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

func (s *Store) GoalRecords(ctx context.Context, from, to time.Time) ([]engine.GoalRecord, error) {
	filter := bson.M{"_id": bson.M{
		"$gte": from.Format(engine.DateLayout),
		"$lt":  to.Format(engine.DateLayout),
	}}
	cur, err := s.db.Collection(goalsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}

	var docs []goalDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}

	goals := make([]engine.GoalRecord, 0, len(docs))
	for _, d := range docs {
		g, err := s.goalFromDocument(d)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (s *Store) NearestGoalBefore(ctx context.Context, day time.Time) (*engine.GoalRecord, error) {
	return s.findGoal(ctx, bson.M{"_id": bson.M{"$lt": day.Format(engine.DateLayout)}}, -1)
}

func (s *Store) NearestGoalAtOrAfter(ctx context.Context, day time.Time) (*engine.GoalRecord, error) {
	return s.findGoal(ctx, bson.M{"_id": bson.M{"$gte": day.Format(engine.DateLayout)}}, 1)
}

func (s *Store) findGoal(ctx context.Context, filter bson.M, order int) (*engine.GoalRecord, error) {
	var doc goalDocument
	err := s.db.Collection(goalsCollection).FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: order}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	g, err := s.goalFromDocument(doc)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) goalFromDocument(d goalDocument) (engine.GoalRecord, error) {
	day, err := engine.ParseDate(d.Day, s.loc)
	if err != nil {
		return engine.GoalRecord{}, fmt.Errorf("failed to parse goal day %q: %w", d.Day, err)
	}
	return engine.GoalRecord{
		Date:                 day,
		BaseAmount:           d.BaseAmount,
		HotDayFraction:       d.HotDayFraction,
		HighActivityFraction: d.HighActivityFraction,
	}, nil
}

// =============================================================================
// INTAKE EVENTS
// =============================================================================

func (s *Store) AddIntake(ctx context.Context, event engine.IntakeEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	_, err := s.db.Collection(intakesCollection).InsertOne(ctx, intakeDocument{
		ID:                event.ID,
		OccurredAt:        event.Timestamp.UnixNano(),
		Amount:            event.Amount,
		HydrationFactor:   event.HydrationFactor,
		DehydrationFactor: event.DehydrationFactor,
		Drink:             event.Drink,
	})
	if mongo.IsDuplicateKeyError(err) {
		return engine.ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("failed to add intake: %w", err)
	}
	return nil
}

func (s *Store) DeleteIntake(ctx context.Context, id string) error {
	res, err := s.db.Collection(intakesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete intake: %w", err)
	}
	if res.DeletedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Store) IntakeEvents(ctx context.Context, from, to time.Time) ([]engine.IntakeEvent, error) {
	filter := bson.M{"occurred_at": bson.M{"$gte": from.UnixNano(), "$lt": to.UnixNano()}}
	cur, err := s.db.Collection(intakesCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query intakes: %w", err)
	}

	var docs []intakeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode intakes: %w", err)
	}

	events := make([]engine.IntakeEvent, len(docs))
	for i, d := range docs {
		events[i] = engine.IntakeEvent{
			ID:                d.ID,
			Timestamp:         time.Unix(0, d.OccurredAt).In(s.loc),
			Amount:            d.Amount,
			HydrationFactor:   d.HydrationFactor,
			DehydrationFactor: d.DehydrationFactor,
			Drink:             d.Drink,
		}
	}
	return events, nil
}

// =============================================================================
// DAILY REPORTS
// =============================================================================

// SaveDailyReport appends a generated day summary.
func (s *Store) SaveDailyReport(ctx context.Context, summary engine.DaySummary) error {
	doc := reportDocument{
		Day: summary.Day.Format(engine.DateLayout),
		Summary: bson.M{
			"goal":            summary.Goal,
			"hydration":       summary.Hydration,
			"dehydration":     summary.Dehydration,
			"balance":         summary.Balance,
			"percent_of_goal": summary.PercentOfGoal,
		},
		GeneratedAt: time.Now().UTC(),
	}
	if _, err := s.db.Collection(reportsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert daily report: %w", err)
	}
	return nil
}
