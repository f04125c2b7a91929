package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mealsignal/backend/internal/domain"
)

// memStore is an in-memory domain.Store for service tests
type memStore struct {
	mu       sync.Mutex
	meals    map[string]domain.MealLogEntry
	workouts map[string]domain.WorkoutSession
	profiles map[string]domain.UserProfile
	nudges   []domain.Nudge
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{
		meals:    make(map[string]domain.MealLogEntry),
		workouts: make(map[string]domain.WorkoutSession),
		profiles: make(map[string]domain.UserProfile),
	}
}

func (m *memStore) SaveMeal(ctx context.Context, meal *domain.MealLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.meals[meal.ID] = *meal
	return nil
}

func (m *memStore) GetMeal(ctx context.Context, userID, id string) (*domain.MealLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &meal, nil
}

func (m *memStore) ListMeals(ctx context.Context, userID string, limit int) ([]domain.MealLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MealLogEntry
	for _, meal := range m.meals {
		if meal.UserID == userID {
			out = append(out, meal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeleteMeal(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.meals, id)
	return nil
}

func (m *memStore) SaveWorkout(ctx context.Context, w *domain.WorkoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.workouts[w.ID] = *w
	return nil
}

func (m *memStore) ListWorkouts(ctx context.Context, userID string, limit int) ([]domain.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WorkoutSession
	for _, w := range m.workouts {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTs.After(out[j].StartTs) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ActiveWorkouts(ctx context.Context, userID string) ([]domain.WorkoutSession, error) {
	all, _ := m.ListWorkouts(ctx, userID, 0)
	var out []domain.WorkoutSession
	for _, w := range all {
		if w.Active() {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStore) DeleteWorkout(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.workouts, id)
	return nil
}

func (m *memStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = *p
	return nil
}

func (m *memStore) SaveNudge(ctx context.Context, n *domain.Nudge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nudges = append(m.nudges, *n)
	return nil
}

func (m *memStore) ListNudges(ctx context.Context, userID string, limit int) ([]domain.Nudge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Nudge
	for i := len(m.nudges) - 1; i >= 0; i-- {
		if m.nudges[i].UserID == userID {
			out = append(out, m.nudges[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ExportUser(ctx context.Context, userID string) (*domain.UserExport, error) {
	meals, _ := m.ListMeals(ctx, userID, 0)
	workouts, _ := m.ListWorkouts(ctx, userID, 0)
	nudges, _ := m.ListNudges(ctx, userID, 0)
	export := &domain.UserExport{UserID: userID, Meals: meals, Workouts: workouts, Nudges: nudges}
	if p, err := m.GetProfile(ctx, userID); err == nil {
		export.Profile = p
	}
	return export, nil
}

func (m *memStore) ClearUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, meal := range m.meals {
		if meal.UserID == userID {
			delete(m.meals, id)
		}
	}
	for id, w := range m.workouts {
		if w.UserID == userID {
			delete(m.workouts, id)
		}
	}
	delete(m.profiles, userID)
	var kept []domain.Nudge
	for _, n := range m.nudges {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	m.nudges = kept
	return nil
}

// testNow is a Wednesday at noon UTC
var testNow = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

func mealAt(ts time.Time, calMin, calMax, protMin, protMax float64) domain.MealLogEntry {
	est := FallbackEstimate()
	est.Ranges.Calories = domain.Range{Min: calMin, Max: calMax}
	est.Ranges.Protein = domain.Range{Min: protMin, Max: protMax}
	return domain.MealLogEntry{ID: ts.Format(time.RFC3339Nano), UserID: "u1", Timestamp: ts, Estimate: est}
}

// mealsOverDays logs perDay meals on each of the last days days, ending today
func mealsOverDays(now time.Time, days, perDay int) []domain.MealLogEntry {
	var meals []domain.MealLogEntry
	for d := 0; d < days; d++ {
		for i := 0; i < perDay; i++ {
			ts := now.AddDate(0, 0, -d).Add(-time.Duration(i) * time.Hour)
			meals = append(meals, mealAt(ts, 400, 600, 20, 40))
		}
	}
	return meals
}

func withLowSignals(meals []domain.MealLogEntry, nutrient string, count int) []domain.MealLogEntry {
	out := append([]domain.MealLogEntry(nil), meals...)
	for i := 0; i < count && i < len(out); i++ {
		est := out[i].Estimate.Clone()
		est.MicronutrientSignals = append(est.MicronutrientSignals, domain.MicronutrientSignal{
			Nutrient: nutrient, Signal: domain.SignalLow, Rationale: "few sources",
		})
		out[i].Estimate = est
	}
	return out
}

func workoutAt(end time.Time, minutes int, intensity domain.Intensity) domain.WorkoutSession {
	start := end.Add(-time.Duration(minutes) * time.Minute)
	return domain.WorkoutSession{
		ID:          start.Format(time.RFC3339Nano),
		UserID:      "u1",
		StartTs:     start,
		EndTs:       &end,
		DurationMin: &minutes,
		Intensity:   intensity,
	}
}
