/*
Package sqlite provides a SQLite-backed implementation of engine.MutableStore.

PURPOSE:
  Persists goal records and intake events so the engine can query them
  by range. Every read comes back ordered, as the engine expects.

KEY TABLES:
  goal_records:   One row per calendar day ('YYYY-MM-DD' primary key)
  intake_events:  One row per logged drink, timestamp in Unix nanoseconds

INDEXES:
  - goal_records primary key: range reads and nearest-neighbour lookups
  - idx_intake_events_occurred_at: range reads (hot path)

DAYS AND ZONES:
  Goal days are stored as civil dates and read back as midnight in the
  store's location (time.Local unless WithLocation says otherwise).
  Intake timestamps are instants and compare the same in any zone.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/hydration.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(store)

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/hydration-engine/engine"
)

// Store implements engine.MutableStore using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	loc *time.Location
}

var _ engine.MutableStore = (*Store)(nil)

type Option func(*Store)

// WithLocation sets the zone goal days are returned in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would get its own empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, loc: time.Local}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS goal_records (
		day TEXT PRIMARY KEY,
		base_amount REAL NOT NULL,
		hot_day_fraction REAL NOT NULL DEFAULT 0,
		high_activity_fraction REAL NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS intake_events (
		id TEXT PRIMARY KEY,
		occurred_at INTEGER NOT NULL,
		amount REAL NOT NULL,
		hydration_factor REAL NOT NULL,
		dehydration_factor REAL NOT NULL,
		drink TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_intake_events_occurred_at
		ON intake_events(occurred_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GOAL RECORDS
// =============================================================================

// SaveGoal upserts the goal for its calendar day.
func (s *Store) SaveGoal(ctx context.Context, goal engine.GoalRecord) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO goal_records (day, base_amount, hot_day_fraction, high_activity_fraction, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			base_amount = excluded.base_amount,
			hot_day_fraction = excluded.hot_day_fraction,
			high_activity_fraction = excluded.high_activity_fraction,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		goal.Date.Format(engine.DateLayout),
		goal.BaseAmount,
		goal.HotDayFraction,
		goal.HighActivityFraction,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

const goalColumns = `day, base_amount, hot_day_fraction, high_activity_fraction`

func (s *Store) GoalRecords(ctx context.Context, from, to time.Time) ([]engine.GoalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + goalColumns + ` FROM goal_records
		WHERE day >= ? AND day < ?
		ORDER BY day ASC`
	return s.queryGoals(ctx, query, from.Format(engine.DateLayout), to.Format(engine.DateLayout))
}

func (s *Store) NearestGoalBefore(ctx context.Context, day time.Time) (*engine.GoalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + goalColumns + ` FROM goal_records
		WHERE day < ?
		ORDER BY day DESC LIMIT 1`
	return s.queryGoal(ctx, query, day.Format(engine.DateLayout))
}

func (s *Store) NearestGoalAtOrAfter(ctx context.Context, day time.Time) (*engine.GoalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + goalColumns + ` FROM goal_records
		WHERE day >= ?
		ORDER BY day ASC LIMIT 1`
	return s.queryGoal(ctx, query, day.Format(engine.DateLayout))
}

func (s *Store) queryGoal(ctx context.Context, query string, args ...any) (*engine.GoalRecord, error) {
	goals, err := s.queryGoals(ctx, query, args...)
	if err != nil || len(goals) == 0 {
		return nil, err
	}
	return &goals[0], nil
}

func (s *Store) queryGoals(ctx context.Context, query string, args ...any) ([]engine.GoalRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []engine.GoalRecord
	for rows.Next() {
		var (
			g   engine.GoalRecord
			day string
		)
		if err := rows.Scan(&day, &g.BaseAmount, &g.HotDayFraction, &g.HighActivityFraction); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.Date, err = engine.ParseDate(day, s.loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse goal day %q: %w", day, err)
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

// =============================================================================
// INTAKE EVENTS
// =============================================================================

func (s *Store) AddIntake(ctx context.Context, event engine.IntakeEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO intake_events
		(id, occurred_at, amount, hydration_factor, dehydration_factor, drink, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp.UnixNano(),
		event.Amount,
		event.HydrationFactor,
		event.DehydrationFactor,
		event.Drink,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return engine.ErrDuplicateID
		}
		return fmt.Errorf("failed to add intake: %w", err)
	}
	return nil
}

func (s *Store) DeleteIntake(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM intake_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete intake: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete intake: %w", err)
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Store) IntakeEvents(ctx context.Context, from, to time.Time) ([]engine.IntakeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, occurred_at, amount, hydration_factor, dehydration_factor, drink
		FROM intake_events
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query intakes: %w", err)
	}
	defer rows.Close()

	var events []engine.IntakeEvent
	for rows.Next() {
		var (
			ev engine.IntakeEvent
			at int64
		)
		if err := rows.Scan(&ev.ID, &at, &ev.Amount, &ev.HydrationFactor, &ev.DehydrationFactor, &ev.Drink); err != nil {
			return nil, fmt.Errorf("failed to scan intake: %w", err)
		}
		ev.Timestamp = time.Unix(0, at).In(s.loc)
		events = append(events, ev)
	}

	return events, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"intake_events", "goal_records"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
