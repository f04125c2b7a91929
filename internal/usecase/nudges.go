package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mealsignal/backend/internal/domain"
)

const (
	minNudgeMeals      = 5
	maxNudges          = 2
	signalWindow       = 30 * 24 * time.Hour
	minLowSignalCount  = 3
	todayLowFactor     = 0.85
	todayHighFactor    = 1.15
	weekLowFactor      = 0.9
	weekHighFactor     = 1.1
	trainingFuelFactor = 0.9
)

// Nudge types
const (
	NudgeEnergy        = "energy"
	NudgeProtein       = "protein"
	NudgeMicronutrient = "micronutrient"
	NudgeTraining      = "training"
)

// proteinTier is a shortfall band for the weekly protein average
type proteinTier struct {
	below    float64
	priority int
	message  string
}

var proteinTiers = []proteinTier{
	{0.7, 3, "Noticed protein below your goal range. Consider a small add."},
	{0.85, 2, "Noticed protein slightly below your goal range. Consider a small add."},
	{0.95, 1, "Noticed protein near the lower edge of your goal range. A small add may help."},
}

// ScoredNudge is a candidate message with its priority
type ScoredNudge struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// ComputeNudges returns at most two distinct messages, highest priority first
func ComputeNudges(h History) []ScoredNudge {
	if len(h.Meals) < minNudgeMeals {
		return []ScoredNudge{}
	}

	s := summarize(h)
	var candidates []ScoredNudge

	focus := ""
	var targets *Targets
	if h.Profile != nil {
		focus = h.Profile.Focus()
		targets = baseTargets(s, h.Profile)
	}

	if n, ok := energyNudge(s, targets, focus); ok {
		candidates = append(candidates, n)
	}
	if n, ok := proteinNudge(s, h.Profile, focus); ok {
		candidates = append(candidates, n)
	}
	candidates = append(candidates, micronutrientNudges(h, focus)...)

	if targets != nil && targets.Calories > 0 &&
		len(recentWorkouts(h.Workouts, h.Now)) >= minRecentWorkouts &&
		s.averages.Calories < targets.Calories*trainingFuelFactor {
		candidates = append(candidates, ScoredNudge{
			Type:     NudgeTraining,
			Message:  "Noticed solid training volume. Fueling may be slightly lighter than usual.",
			Priority: 2,
		})
	}

	return selectNudges(candidates)
}

// Nudges is ComputeNudges reduced to its messages
func Nudges(h History) []string {
	scored := ComputeNudges(h)
	out := make([]string, 0, len(scored))
	for _, n := range scored {
		out = append(out, n.Message)
	}
	return out
}

func energyNudge(s snapshot, targets *Targets, focus string) (ScoredNudge, bool) {
	if targets == nil || targets.Calories <= 0 || s.averages.Calories == 0 {
		return ScoredNudge{}, false
	}
	priority := 2 + bias(focus, "energy")
	todayMid := s.today.CaloriesMidpoint()
	target := targets.Calories

	switch {
	case todayMid > 0 && todayMid < target*todayLowFactor && s.averages.Calories < target*weekLowFactor:
		return ScoredNudge{NudgeEnergy, "Energy intake is trending lighter than your recent range.", priority}, true
	case todayMid > target*todayHighFactor && s.averages.Calories > target*weekHighFactor:
		return ScoredNudge{NudgeEnergy, "Energy intake is trending fuller than your recent range.", priority}, true
	}
	return ScoredNudge{}, false
}

func proteinNudge(s snapshot, profile *domain.UserProfile, focus string) (ScoredNudge, bool) {
	if profile == nil || s.averages.Protein == 0 {
		return ScoredNudge{}, false
	}
	target := profile.WeightKg() * ProteinFactor(profile.GoalDirection)
	if target <= 0 {
		return ScoredNudge{}, false
	}
	boost := bias(focus, "strength", "performance")
	for _, tier := range proteinTiers {
		if s.averages.Protein < target*tier.below {
			return ScoredNudge{NudgeProtein, tier.message, tier.priority + boost}, true
		}
	}
	return ScoredNudge{}, false
}

// micronutrientNudges emits one nudge per nutrient flagged low three or more
// times in the trailing 30 days, in first-seen order
func micronutrientNudges(h History, focus string) []ScoredNudge {
	counts, order := lowSignalCounts(h.Meals, h.Now)
	priority := 1 + bias(focus, "longevity")
	var out []ScoredNudge
	for _, nutrient := range order {
		if counts[nutrient] >= minLowSignalCount {
			out = append(out, ScoredNudge{
				Type:     NudgeMicronutrient,
				Message:  fmt.Sprintf("Noticed fewer %s-rich foods. Consider a small add.", nutrient),
				Priority: priority,
			})
		}
	}
	return out
}

// lowSignalCounts tallies low-appearance signals per lowercased nutrient
func lowSignalCounts(meals []domain.MealLogEntry, now time.Time) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, m := range meals {
		if now.Sub(m.Timestamp) > signalWindow {
			continue
		}
		for _, sig := range m.Estimate.MicronutrientSignals {
			if sig.Signal != domain.SignalLow {
				continue
			}
			key := strings.ToLower(sig.Nutrient)
			if key == "" {
				continue
			}
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}
	}
	return counts, order
}

func bias(focus string, keywords ...string) int {
	for _, k := range keywords {
		if strings.Contains(focus, k) {
			return 1
		}
	}
	return 0
}

// selectNudges sorts by priority, drops repeated messages and keeps the top two
func selectNudges(candidates []ScoredNudge) []ScoredNudge {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	seen := make(map[string]bool, len(candidates))
	out := make([]ScoredNudge, 0, maxNudges)
	for _, c := range candidates {
		if seen[c.Message] {
			continue
		}
		seen[c.Message] = true
		out = append(out, c)
		if len(out) == maxNudges {
			break
		}
	}
	return out
}
