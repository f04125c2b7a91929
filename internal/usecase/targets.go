package usecase

import (
	"math"
	"time"

	"github.com/mealsignal/backend/internal/domain"
)

// Minimum history before personalized targets are offered
const (
	MinTargetDays    = 5
	MinTargetEntries = 10
)

const (
	goalCalorieNudge    = 0.05
	proteinApproachRate = 0.1
	workoutWindow       = 7 * 24 * time.Hour
	minRecentWorkouts   = 3
	heavyTrainingScore  = 4
	heavyTrainingBump   = 0.08
	lightTrainingBump   = 0.04
	proteinBumpFraction = 0.6
)

// Targets is a gentle daily calorie and protein guideline
type Targets struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
}

// ProteinFactor is grams of protein per kilogram of body weight for a goal
func ProteinFactor(goal domain.GoalDirection) float64 {
	switch goal {
	case domain.GoalGain:
		return 2.2
	case domain.GoalLose:
		return 1.6
	}
	return 1.8
}

// HasEnoughHistory reports whether meals span enough days and entries for targets
func HasEnoughHistory(days, entries int) bool {
	return days >= MinTargetDays && entries >= MinTargetEntries
}

// GentleTargets derives workout-adjusted targets from h, or nil when the
// history is too thin to personalize
func GentleTargets(h History) *Targets {
	s := summarize(h)
	base := baseTargets(s, h.Profile)
	if base == nil {
		return nil
	}
	adjusted := AdjustForWorkouts(*base, h.Workouts, h.Now)
	return &adjusted
}

// baseTargets computes targets from the weekly averages without training load
func baseTargets(s snapshot, profile *domain.UserProfile) *Targets {
	if !HasEnoughHistory(s.days, s.meals) {
		return nil
	}
	// nothing logged in the trailing week
	if s.averages.Calories == 0 && s.averages.Protein == 0 {
		return nil
	}
	var p domain.UserProfile
	if profile != nil {
		p = *profile
	}

	nudge := 0.0
	switch p.GoalDirection {
	case domain.GoalGain:
		nudge = goalCalorieNudge
	case domain.GoalLose:
		nudge = -goalCalorieNudge
	}
	calories := math.Max(0, roundHalfUp(s.averages.Calories*(1+nudge)))

	protein := s.averages.Protein
	if w := p.WeightKg(); w > 0 {
		target := w * ProteinFactor(p.GoalDirection)
		protein = s.averages.Protein + roundHalfUp((target-s.averages.Protein)*proteinApproachRate)
	}

	return &Targets{Calories: calories, Protein: protein}
}

// AdjustForWorkouts bumps targets when at least three sessions landed in the
// trailing week and their combined intensity is non-zero
func AdjustForWorkouts(t Targets, workouts []domain.WorkoutSession, now time.Time) Targets {
	recent := recentWorkouts(workouts, now)
	if len(recent) < minRecentWorkouts {
		return t
	}
	score := 0
	for _, w := range recent {
		score += w.Intensity.Score()
	}
	if score <= 0 {
		return t
	}
	bump := lightTrainingBump
	if score >= heavyTrainingScore {
		bump = heavyTrainingBump
	}
	return Targets{
		Calories: roundHalfUp(t.Calories * (1 + bump)),
		Protein:  roundHalfUp(t.Protein * (1 + bump*proteinBumpFraction)),
	}
}

// recentWorkouts keeps sessions whose end (or start, if active) is within the last week
func recentWorkouts(workouts []domain.WorkoutSession, now time.Time) []domain.WorkoutSession {
	cutoff := now.Add(-workoutWindow)
	var recent []domain.WorkoutSession
	for _, w := range workouts {
		if !w.ReferenceTime().Before(cutoff) {
			recent = append(recent, w)
		}
	}
	return recent
}
