package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mealsignal/backend/internal/domain"
)

const mealColumns = "id, user_id, ts, estimate, correction, thumbnail"

// SaveMeal inserts the meal or rewrites the whole stored record
func (s *SQLiteStore) SaveMeal(ctx context.Context, meal *domain.MealLogEntry) error {
	estimate, err := json.Marshal(meal.Estimate)
	if err != nil {
		return fmt.Errorf("failed to encode estimate: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO meals (`+mealColumns+`)
        VALUES (?, ?, ?, ?, ?, ?)`,
		meal.ID, meal.UserID, toUnix(meal.Timestamp), string(estimate),
		meal.UserCorrectionLabel, meal.Thumbnail)
	if err != nil {
		return fmt.Errorf("failed to save meal: %w", err)
	}
	return nil
}

// GetMeal returns one meal or domain.ErrNotFound
func (s *SQLiteStore) GetMeal(ctx context.Context, userID, id string) (*domain.MealLogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+mealColumns+" FROM meals WHERE user_id = ? AND id = ?", userID, id)

	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return meal, nil
}

// ListMeals returns up to limit meals, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ListMeals(ctx context.Context, userID string, limit int) ([]domain.MealLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+mealColumns+" FROM meals WHERE user_id = ? ORDER BY ts DESC LIMIT ?",
		userID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	meals := []domain.MealLogEntry{}
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *meal)
	}
	return meals, rows.Err()
}

// DeleteMeal removes one meal or returns domain.ErrNotFound
func (s *SQLiteStore) DeleteMeal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meals WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return deleted(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*domain.MealLogEntry, error) {
	var (
		meal     domain.MealLogEntry
		ts       int64
		estimate string
	)
	if err := row.Scan(&meal.ID, &meal.UserID, &ts, &estimate, &meal.UserCorrectionLabel, &meal.Thumbnail); err != nil {
		return nil, err
	}
	meal.Timestamp = fromUnix(ts)
	if err := json.Unmarshal([]byte(estimate), &meal.Estimate); err != nil {
		return nil, fmt.Errorf("failed to decode estimate: %w", err)
	}
	return &meal, nil
}
