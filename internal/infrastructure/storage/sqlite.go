package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mealsignal/backend/internal/domain"
)

// SQLiteStore implements domain.Store on a single SQLite database
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
// Use "file::memory:" for a throwaway in-process database.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: in-memory databases are per connection and SQLite has a single writer
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, logger: logger.Named("storage"), now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.logger.Info("sqlite store ready", zap.String("path", path))
	return store, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
    PRAGMA foreign_keys = ON;

    CREATE TABLE IF NOT EXISTS meals (
        user_id TEXT NOT NULL,
        id TEXT NOT NULL,
        ts INTEGER NOT NULL,
        estimate TEXT NOT NULL,
        correction TEXT NOT NULL DEFAULT '',
        thumbnail TEXT NOT NULL DEFAULT '',
        PRIMARY KEY (user_id, id)
    );

    CREATE TABLE IF NOT EXISTS workouts (
        user_id TEXT NOT NULL,
        id TEXT NOT NULL,
        start_ts INTEGER NOT NULL,
        end_ts INTEGER,
        duration_min INTEGER,
        workout_types TEXT NOT NULL DEFAULT '[]',
        intensity TEXT NOT NULL DEFAULT '',
        PRIMARY KEY (user_id, id)
    );

    CREATE TABLE IF NOT EXISTS profiles (
        user_id TEXT PRIMARY KEY,
        data TEXT NOT NULL,
        updated_at INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS nudges (
        user_id TEXT NOT NULL,
        id TEXT NOT NULL,
        type TEXT NOT NULL DEFAULT '',
        message TEXT NOT NULL,
        priority INTEGER NOT NULL,
        created_at INTEGER NOT NULL,
        PRIMARY KEY (user_id, id)
    );

    CREATE INDEX IF NOT EXISTS idx_meals_user_ts ON meals(user_id, ts);
    CREATE INDEX IF NOT EXISTS idx_workouts_user_start ON workouts(user_id, start_ts);
    CREATE INDEX IF NOT EXISTS idx_nudges_user_created ON nudges(user_id, created_at);
    `

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ExportUser returns everything stored for userID
func (s *SQLiteStore) ExportUser(ctx context.Context, userID string) (*domain.UserExport, error) {
	export := &domain.UserExport{
		UserID:     userID,
		ExportedAt: s.now().UTC(),
	}

	profile, err := s.GetProfile(ctx, userID)
	switch {
	case err == nil:
		export.Profile = profile
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if export.Meals, err = s.ListMeals(ctx, userID, 0); err != nil {
		return nil, err
	}
	if export.Workouts, err = s.ListWorkouts(ctx, userID, 0); err != nil {
		return nil, err
	}
	if export.Nudges, err = s.ListNudges(ctx, userID, 0); err != nil {
		return nil, err
	}
	return export, nil
}

// ClearUser deletes every row belonging to userID in one transaction
func (s *SQLiteStore) ClearUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"meals", "workouts", "profiles", "nudges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// sqlLimit maps a non-positive limit to SQLite's "no limit"
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// deleted maps a zero-row delete to ErrNotFound
func deleted(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
