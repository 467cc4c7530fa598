/*
store.go - Persistence interface for goal records and intake events

PURPOSE:
  Defines the boundary between the engine and whatever holds the records.
  The engine only reads; writes belong to the surrounding application.

KEY INTERFACES:
  GoalSource:   Ordered goal reads plus nearest-neighbour lookups
  IntakeSource: Ordered intake reads
  Store:        Both of the above (what the engine needs)
  MutableStore: Store plus the writes the application performs

RANGE CONTRACT:
  Every range is half-open [from, to) and results come back ascending.
  Goal ranges compare calendar days, intake ranges compare instants.
  The engine trusts one call's result as a consistent snapshot.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory for tests and the "memory" driver
  - store/sqlite/sqlite.go: SQLite
  - store/mongo/mongo.go: MongoDB
*/
package engine

import (
	"context"
	"time"
)

// GoalSource reads goal records.
type GoalSource interface {
	// GoalRecords returns records whose day lies in [from, to), ordered by day.
	GoalRecords(ctx context.Context, from, to time.Time) ([]GoalRecord, error)

	// NearestGoalBefore returns the latest record with day < day, or nil.
	NearestGoalBefore(ctx context.Context, day time.Time) (*GoalRecord, error)

	// NearestGoalAtOrAfter returns the earliest record with day >= day, or nil.
	NearestGoalAtOrAfter(ctx context.Context, day time.Time) (*GoalRecord, error)
}

// IntakeSource reads intake events.
type IntakeSource interface {
	// IntakeEvents returns events with timestamp in [from, to), ordered by timestamp.
	IntakeEvents(ctx context.Context, from, to time.Time) ([]IntakeEvent, error)
}

// Store is everything the engine reads.
type Store interface {
	GoalSource
	IntakeSource
}

// MutableStore adds the writes performed outside the engine.
type MutableStore interface {
	Store

	// SaveGoal stores a goal for the record's calendar day, replacing any
	// existing record for that day.
	SaveGoal(ctx context.Context, goal GoalRecord) error

	// AddIntake stores an event. IDs must be unique.
	AddIntake(ctx context.Context, event IntakeEvent) error

	// DeleteIntake removes an event. Returns ErrNotFound if the ID is unknown.
	DeleteIntake(ctx context.Context, id string) error
}
