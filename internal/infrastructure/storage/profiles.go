package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mealsignal/backend/internal/domain"
)

// GetProfile returns the stored profile or domain.ErrNotFound
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM profiles WHERE user_id = ?", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	profile.UserID = userID
	return &profile, nil
}

// SaveProfile upserts the profile
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO profiles (user_id, data, updated_at) VALUES (?, ?, ?)",
		p.UserID, string(data), toUnix(s.now()))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveNudge records an emitted nudge
func (s *SQLiteStore) SaveNudge(ctx context.Context, n *domain.Nudge) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO nudges (user_id, id, type, message, priority, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.ID, n.Type, n.Message, n.Priority, toUnix(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save nudge: %w", err)
	}
	return nil
}

// ListNudges returns up to limit nudges, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ListNudges(ctx context.Context, userID string, limit int) ([]domain.Nudge, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id, id, type, message, priority, created_at
        FROM nudges WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query nudges: %w", err)
	}
	defer rows.Close()

	nudges := []domain.Nudge{}
	for rows.Next() {
		var (
			n         domain.Nudge
			createdAt int64
		)
		if err := rows.Scan(&n.UserID, &n.ID, &n.Type, &n.Message, &n.Priority, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan nudge: %w", err)
		}
		n.CreatedAt = fromUnix(createdAt)
		nudges = append(nudges, n)
	}
	return nudges, rows.Err()
}
