package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mealsignal/backend/internal/domain"
)

const workoutColumns = "id, user_id, start_ts, end_ts, duration_min, workout_types, intensity"

// SaveWorkout inserts the session or rewrites the whole stored record
func (s *SQLiteStore) SaveWorkout(ctx context.Context, w *domain.WorkoutSession) error {
	types := w.WorkoutTypes
	if types == nil {
		types = []string{}
	}
	typesJSON, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("failed to encode workout types: %w", err)
	}

	var endTs, duration sql.NullInt64
	if w.EndTs != nil {
		endTs = sql.NullInt64{Int64: toUnix(*w.EndTs), Valid: true}
	}
	if w.DurationMin != nil {
		duration = sql.NullInt64{Int64: int64(*w.DurationMin), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO workouts (`+workoutColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, toUnix(w.StartTs), endTs, duration, string(typesJSON), string(w.Intensity))
	if err != nil {
		return fmt.Errorf("failed to save workout: %w", err)
	}
	return nil
}

// ListWorkouts returns up to limit sessions, newest start first. limit <= 0 returns all.
func (s *SQLiteStore) ListWorkouts(ctx context.Context, userID string, limit int) ([]domain.WorkoutSession, error) {
	return s.queryWorkouts(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE user_id = ? ORDER BY start_ts DESC LIMIT ?",
		userID, sqlLimit(limit))
}

// ActiveWorkouts returns the sessions that have not been ended
func (s *SQLiteStore) ActiveWorkouts(ctx context.Context, userID string) ([]domain.WorkoutSession, error) {
	return s.queryWorkouts(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE user_id = ? AND end_ts IS NULL ORDER BY start_ts DESC",
		userID)
}

// DeleteWorkout removes one session or returns domain.ErrNotFound
func (s *SQLiteStore) DeleteWorkout(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM workouts WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	return deleted(res)
}

func (s *SQLiteStore) queryWorkouts(ctx context.Context, query string, args ...any) ([]domain.WorkoutSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	workouts := []domain.WorkoutSession{}
	for rows.Next() {
		var (
			w        domain.WorkoutSession
			startTs  int64
			endTs    sql.NullInt64
			duration sql.NullInt64
			types    string
			level    string
		)
		if err := rows.Scan(&w.ID, &w.UserID, &startTs, &endTs, &duration, &types, &level); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		w.StartTs = fromUnix(startTs)
		if endTs.Valid {
			end := fromUnix(endTs.Int64)
			w.EndTs = &end
		}
		if duration.Valid {
			d := int(duration.Int64)
			w.DurationMin = &d
		}
		if err := json.Unmarshal([]byte(types), &w.WorkoutTypes); err != nil {
			return nil, fmt.Errorf("failed to decode workout types: %w", err)
		}
		if len(w.WorkoutTypes) == 0 {
			w.WorkoutTypes = nil
		}
		w.Intensity = domain.Intensity(level)
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}
