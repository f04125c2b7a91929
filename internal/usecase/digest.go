package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mealsignal/backend/internal/domain"
)

const (
	maxSuggestions   = 5
	maxNutrientNotes = 2
	maxTrends        = 4
	fuelingLowRatio  = 0.85
	fuelingHighRatio = 1.15
	gainProteinRatio = 0.8
)

// Fueling states relative to the gentle calorie target
const (
	FuelingUnder    = "under"
	FuelingAdequate = "adequate"
	FuelingOver     = "over"
)

// FeedItem is one entry of the merged meal and workout feed
type FeedItem struct {
	Type      string                 `json:"type" yaml:"type"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Meal      *domain.MealLogEntry   `json:"meal,omitempty" yaml:"meal,omitempty"`
	Workout   *domain.WorkoutSession `json:"workout,omitempty" yaml:"workout,omitempty"`
}

// HomeMarkers is everything the home screen shows
type HomeMarkers struct {
	TodayTotals     RangeTotals `json:"today_totals" yaml:"today_totals"`
	Week            []DayTotals `json:"week" yaml:"week"`
	DayCount        int         `json:"day_count" yaml:"day_count"`
	MealCount       int         `json:"meal_count" yaml:"meal_count"`
	GentleTargets   *Targets    `json:"gentle_targets" yaml:"gentle_targets"`
	AvgWeekCalories float64     `json:"avg_week_calories" yaml:"avg_week_calories"`
	AvgWeekProtein  float64     `json:"avg_week_protein" yaml:"avg_week_protein"`
	Recent          []FeedItem  `json:"recent" yaml:"recent"`
}

// WorkoutSummary counts sessions started this calendar week (from Sunday)
type WorkoutSummary struct {
	Count        int `json:"count" yaml:"count"`
	TotalMinutes int `json:"total_minutes" yaml:"total_minutes"`
}

// SummaryMarkers is everything the weekly summary screen shows
type SummaryMarkers struct {
	TodayTotals     RangeTotals    `json:"today_totals" yaml:"today_totals"`
	Week            []DayTotals    `json:"week" yaml:"week"`
	Workouts        WorkoutSummary `json:"workout_summary" yaml:"workout_summary"`
	DayCount        int            `json:"day_count" yaml:"day_count"`
	MealCount       int            `json:"meal_count" yaml:"meal_count"`
	AvgWeekCalories float64        `json:"avg_week_calories" yaml:"avg_week_calories"`
	AvgWeekProtein  float64        `json:"avg_week_protein" yaml:"avg_week_protein"`
	GentleTargets   *Targets       `json:"gentle_targets" yaml:"gentle_targets"`
	NutrientTrends  []string       `json:"nutrient_trends" yaml:"nutrient_trends"`
	Suggestions     []string       `json:"suggestions" yaml:"suggestions"`
	NutrientNotes   []string       `json:"nutrient_notes" yaml:"nutrient_notes"`
	FuelingState    string         `json:"fueling_state" yaml:"fueling_state"`
}

// NutrientPattern is how often a micronutrient showed up in recent meals
type NutrientPattern struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// Insights is the pattern view over the rolling week
type Insights struct {
	HasEnoughData  bool              `json:"has_enough_data" yaml:"has_enough_data"`
	GentleTargets  Targets           `json:"gentle_targets" yaml:"gentle_targets"`
	AvgCalories    float64           `json:"avg_calories" yaml:"avg_calories"`
	AvgProtein     float64           `json:"avg_protein_g" yaml:"avg_protein_g"`
	AvgFat         float64           `json:"avg_fat_g" yaml:"avg_fat_g"`
	EnergyPattern  string            `json:"energy_pattern" yaml:"energy_pattern"`
	ProteinPattern string            `json:"protein_pattern" yaml:"protein_pattern"`
	FatPattern     string            `json:"fat_pattern" yaml:"fat_pattern"`
	Micronutrients []NutrientPattern `json:"micronutrients" yaml:"micronutrients"`
}

// insightNutrients are the micronutrients the insights view always lists
var insightNutrients = []string{
	"Iron", "Magnesium", "Vitamin D", "Fiber", "B12", "Calcium", "Potassium", "Omega-3", "Vitamin C",
	"Folate", "Niacin", "Riboflavin", "Thiamin", "Zinc", "Selenium", "Vitamin A", "Vitamin K", "Sodium",
}

// Placeholders shown until the history is rich enough to personalize
var (
	placeholderTargets  = Targets{Calories: 2300, Protein: 125}
	placeholderAverages = WeeklyAverages{Calories: 2100, Protein: 120, Fat: 65}
)

// Meal name buckets used to spread suggestions across kinds of food
var (
	liquidHints = []string{"smoothie", "shake", "latte", "milk", "juice", "broth"}
	sweetHints  = []string{"yogurt", "fruit", "berries", "granola", "pancake", "cereal", "smoothie", "ice", "dessert"}
	snackHints  = []string{"nuts", "bar", "chips", "cracker", "cookie", "toast"}
	savoryHints = []string{"chicken", "beef", "rice", "pasta", "salad", "bowl", "sandwich", "egg", "soup", "fish"}

	suggestionPickOrder = []string{"meal", "savory", "snack", "sweet", "liquid"}
)

// ComputeHomeMarkers builds the home screen markers from h
func ComputeHomeMarkers(h History) HomeMarkers {
	s := summarize(h)
	return HomeMarkers{
		TodayTotals:     s.today,
		Week:            s.week,
		DayCount:        s.days,
		MealCount:       s.meals,
		GentleTargets:   GentleTargets(h),
		AvgWeekCalories: s.averages.Calories,
		AvgWeekProtein:  s.averages.Protein,
		Recent:          RecentFeed(h.Meals, h.Workouts),
	}
}

// ComputeSummaryMarkers builds the weekly summary markers from h
func ComputeSummaryMarkers(h History) SummaryMarkers {
	s := summarize(h)
	targets := GentleTargets(h)

	return SummaryMarkers{
		TodayTotals:     s.today,
		Week:            s.week,
		Workouts:        SummarizeWorkoutsWeek(h.Workouts, h.Now),
		DayCount:        s.days,
		MealCount:       s.meals,
		AvgWeekCalories: s.averages.Calories,
		AvgWeekProtein:  s.averages.Protein,
		GentleTargets:   targets,
		NutrientTrends:  nutrientTrends(h, s),
		Suggestions:     BuildSuggestions(h.Meals),
		NutrientNotes:   BuildNutrientNotes(h.Meals),
		FuelingState:    fuelingState(s.today, targets),
	}
}

// ComputeInsights builds the insights view, using placeholders while the history is thin
func ComputeInsights(h History) Insights {
	s := summarize(h)
	enough := HasEnoughHistory(s.days, s.meals)

	out := Insights{HasEnoughData: enough, GentleTargets: placeholderTargets}
	if !enough {
		out.AvgCalories = placeholderAverages.Calories
		out.AvgProtein = placeholderAverages.Protein
		out.AvgFat = placeholderAverages.Fat
		out.EnergyPattern = "Moderate intake pattern"
		out.ProteinPattern = "Moderate protein pattern"
		out.FatPattern = "Moderate fat pattern"
		for _, n := range insightNutrients {
			out.Micronutrients = append(out.Micronutrients, NutrientPattern{Name: n, Label: "Emerging pattern"})
		}
		return out
	}

	if t := GentleTargets(h); t != nil {
		out.GentleTargets = *t
	}
	out.AvgCalories = s.averages.Calories
	out.AvgProtein = s.averages.Protein
	out.AvgFat = s.averages.Fat
	out.EnergyPattern = energyPattern(s.averages.Calories)
	out.ProteinPattern = proteinPattern(s.averages.Protein, h.Profile)
	out.FatPattern = fatPattern(s.averages.Fat)
	out.Micronutrients = micronutrientPatterns(h)
	return out
}

// RecentFeed merges meals and workouts newest first; workouts sort by end time when ended
func RecentFeed(meals []domain.MealLogEntry, workouts []domain.WorkoutSession) []FeedItem {
	feed := make([]FeedItem, 0, len(meals)+len(workouts))
	for i := range meals {
		feed = append(feed, FeedItem{Type: "meal", Timestamp: meals[i].Timestamp, Meal: &meals[i]})
	}
	for i := range workouts {
		feed = append(feed, FeedItem{Type: "workout", Timestamp: workouts[i].ReferenceTime(), Workout: &workouts[i]})
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	return feed
}

// SummarizeWorkoutsWeek counts sessions started since local midnight on Sunday
func SummarizeWorkoutsWeek(workouts []domain.WorkoutSession, now time.Time) WorkoutSummary {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := midnight.AddDate(0, 0, -int(midnight.Weekday()))

	var summary WorkoutSummary
	for _, w := range workouts {
		if w.StartTs.Before(startOfWeek) {
			continue
		}
		summary.Count++
		if w.DurationMin != nil {
			summary.TotalMinutes += *w.DurationMin
		}
	}
	return summary
}

// BuildSuggestions ranks meal names by recency-weighted frequency and spreads
// the top picks across food kinds
func BuildSuggestions(meals []domain.MealLogEntry) []string {
	scores := make(map[string]float64)
	var order []string
	for index, m := range meals {
		boost := float64(max(1, 8-index)) * 0.25
		names := make([]string, 0, len(m.Estimate.DetectedItems)+1)
		if m.UserCorrectionLabel != "" {
			names = append(names, m.UserCorrectionLabel)
		}
		for _, item := range m.Estimate.DetectedItems {
			names = append(names, item.Name)
		}
		for _, name := range names {
			if _, seen := scores[name]; !seen {
				order = append(order, name)
			}
			scores[name] += 1 + boost
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	buckets := make(map[string][]string)
	for _, name := range order {
		kind := mealKind(name)
		buckets[kind] = append(buckets[kind], name)
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, kind := range suggestionPickOrder {
		for _, name := range buckets[kind] {
			if len(suggestions) == maxSuggestions {
				return suggestions
			}
			suggestions = append(suggestions, name)
		}
	}
	return suggestions
}

func mealKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, liquidHints):
		return "liquid"
	case containsAny(lower, sweetHints):
		return "sweet"
	case containsAny(lower, snackHints):
		return "snack"
	case containsAny(lower, savoryHints):
		return "savory"
	}
	return "meal"
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// BuildNutrientNotes phrases the first two low-appearance signals as gentle notes
func BuildNutrientNotes(meals []domain.MealLogEntry) []string {
	notes := []string{}
	for _, m := range meals {
		for _, sig := range m.Estimate.MicronutrientSignals {
			if sig.Signal != domain.SignalLow {
				continue
			}
			notes = append(notes, fmt.Sprintf("Noticed fewer %s-rich foods. Consider a small add.", strings.ToLower(sig.Nutrient)))
			if len(notes) == maxNutrientNotes {
				return notes
			}
		}
	}
	return notes
}

func nutrientTrends(h History, s snapshot) []string {
	trends := []string{}
	if !HasEnoughHistory(s.days, s.meals) {
		return trends
	}
	counts, _ := lowSignalCounts(h.Meals, h.Now)
	low := func(name string) bool { return counts[name] > 0 }

	if low("iron") {
		trends = append(trends, "Likely low iron.")
	}
	if low("fiber") {
		trends = append(trends, "Low fiber trend.")
	}
	if p := h.Profile; p != nil && p.GoalDirection == domain.GoalGain {
		target := p.WeightKg() * ProteinFactor(p.GoalDirection)
		if target > 0 && s.averages.Protein < target*gainProteinRatio {
			trends = append(trends, "Protein below weight-gain target.")
		}
	}
	if low("b12") || low("vitamin b12") {
		trends = append(trends, "Low B12 if vegetarian.")
	}
	if len(trends) > maxTrends {
		trends = trends[:maxTrends]
	}
	return trends
}

func fuelingState(today RangeTotals, targets *Targets) string {
	if targets == nil || targets.Calories <= 0 {
		return FuelingAdequate
	}
	mid := today.CaloriesMidpoint()
	switch {
	case mid > 0 && mid < targets.Calories*fuelingLowRatio:
		return FuelingUnder
	case mid > targets.Calories*fuelingHighRatio:
		return FuelingOver
	}
	return FuelingAdequate
}

func energyPattern(avg float64) string {
	switch {
	case avg < 1600:
		return "Light intake pattern"
	case avg < 2400:
		return "Moderate intake pattern"
	}
	return "High intake pattern"
}

func fatPattern(avg float64) string {
	switch {
	case avg < 45:
		return "Lower fat appearance"
	case avg < 80:
		return "Moderate fat pattern"
	}
	return "Higher fat appearance"
}

func proteinPattern(avg float64, profile *domain.UserProfile) string {
	low, strong := 60.0, 100.0
	if profile != nil && profile.WeightKg() > 0 {
		target := profile.WeightKg() * ProteinFactor(profile.GoalDirection)
		low, strong = target*0.6, target*0.9
	}
	switch {
	case avg < low:
		return "Low protein appearance"
	case avg < strong:
		return "Moderate protein pattern"
	}
	return "Strong protein pattern"
}

// micronutrientPatterns bands how often each listed nutrient was signalled in
// the trailing 30 days relative to the total meal count
func micronutrientPatterns(h History) []NutrientPattern {
	counts := make(map[string]int)
	for _, m := range h.Meals {
		if h.Now.Sub(m.Timestamp) > signalWindow {
			continue
		}
		for _, sig := range m.Estimate.MicronutrientSignals {
			counts[strings.ToLower(sig.Nutrient)]++
		}
	}

	out := make([]NutrientPattern, 0, len(insightNutrients))
	for _, n := range insightNutrients {
		ratio := 0.0
		if len(h.Meals) > 0 {
			ratio = float64(counts[strings.ToLower(n)]) / float64(len(h.Meals))
		}
		label := "Low appearance"
		switch {
		case ratio >= 0.3:
			label = "Strong pattern"
		case ratio >= 0.1:
			label = "Emerging pattern"
		}
		out = append(out, NutrientPattern{Name: n, Label: label})
	}
	return out
}
