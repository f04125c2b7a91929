package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsignal/backend/internal/domain"
)

func TestComputeNudges(t *testing.T) {
	heavyProfile := &domain.UserProfile{Weight: 100, GoalDirection: domain.GoalMaintain}

	t.Run("fewer than five meals", func(t *testing.T) {
		got := ComputeNudges(History{Meals: mealsOverDays(testNow, 2, 2), Profile: heavyProfile, Now: testNow})
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("capped at two with protein and three micronutrients", func(t *testing.T) {
		meals := mealsOverDays(testNow, 5, 2)
		meals = withLowSignals(meals, "Iron", 3)
		meals = withLowSignals(meals, "Fiber", 3)
		meals = withLowSignals(meals, "Zinc", 3)

		got := ComputeNudges(History{Meals: meals, Profile: heavyProfile, Now: testNow})
		require.Len(t, got, 2)
		assert.Equal(t, NudgeProtein, got[0].Type)
		assert.Equal(t, 3, got[0].Priority)
		assert.Equal(t, "Noticed fewer iron-rich foods. Consider a small add.", got[1].Message)
	})

	t.Run("micronutrient needs three low signals", func(t *testing.T) {
		meals := withLowSignals(mealsOverDays(testNow, 5, 2), "Iron", 2)
		got := ComputeNudges(History{Meals: meals, Now: testNow})
		assert.Empty(t, got)
	})

	t.Run("training and energy stay quiet when targets track the weekly average", func(t *testing.T) {
		gain := &domain.UserProfile{Weight: 70, GoalDirection: domain.GoalGain}
		h := History{
			Meals:   mealsOverDays(testNow, 5, 2),
			Profile: gain,
			Workouts: []domain.WorkoutSession{
				workoutAt(testNow.Add(-2*time.Hour), 60, domain.IntensityHigh),
				workoutAt(testNow.AddDate(0, 0, -1), 45, domain.IntensityHigh),
				workoutAt(testNow.AddDate(0, 0, -3), 50, domain.IntensityMedium),
			},
			Now: testNow,
		}
		require.Len(t, recentWorkouts(h.Workouts, h.Now), 3)
		targets := baseTargets(summarize(h), gain)
		require.NotNil(t, targets)
		require.Greater(t, targets.Calories, 0.0)

		got := ComputeNudges(h)
		require.NotEmpty(t, got)
		for _, n := range got {
			assert.NotEqual(t, NudgeTraining, n.Type)
			assert.NotEqual(t, NudgeEnergy, n.Type)
		}
		assert.Equal(t, NudgeProtein, got[0].Type)
	})

	t.Run("no profile still surfaces micronutrients", func(t *testing.T) {
		meals := withLowSignals(mealsOverDays(testNow, 5, 2), "Magnesium", 3)
		got := Nudges(History{Meals: meals, Now: testNow})
		assert.Equal(t, []string{"Noticed fewer magnesium-rich foods. Consider a small add."}, got)
	})
}

func TestProteinNudge(t *testing.T) {
	profile := &domain.UserProfile{Weight: 100, GoalDirection: domain.GoalMaintain}

	testCases := []struct {
		name         string
		avgProtein   float64
		focus        string
		wantOK       bool
		wantPriority int
	}{
		{"far below", 100, "", true, 3},
		{"slightly below", 140, "", true, 2},
		{"near the edge", 160, "", true, 1},
		{"on target", 175, "", false, 0},
		{"strength focus boosts", 140, "strength", true, 3},
		{"no protein logged", 0, "", false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := snapshot{averages: WeeklyAverages{Protein: tc.avgProtein}}
			got, ok := proteinNudge(s, profile, tc.focus)
			if ok != tc.wantOK {
				t.Fatalf("proteinNudge() ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got.Priority != tc.wantPriority {
				t.Errorf("priority = %d, want %d", got.Priority, tc.wantPriority)
			}
		})
	}

	t.Run("nil profile", func(t *testing.T) {
		_, ok := proteinNudge(snapshot{averages: WeeklyAverages{Protein: 50}}, nil, "")
		assert.False(t, ok)
	})
}

func TestEnergyNudge(t *testing.T) {
	targets := &Targets{Calories: 2000, Protein: 120}

	t.Run("lighter", func(t *testing.T) {
		s := snapshot{
			today:    RangeTotals{CaloriesMin: 500, CaloriesMax: 700},
			averages: WeeklyAverages{Calories: 1500},
		}
		got, ok := energyNudge(s, targets, "more energy")
		require.True(t, ok)
		assert.Equal(t, "Energy intake is trending lighter than your recent range.", got.Message)
		assert.Equal(t, 3, got.Priority)
	})

	t.Run("fuller", func(t *testing.T) {
		s := snapshot{
			today:    RangeTotals{CaloriesMin: 2400, CaloriesMax: 2800},
			averages: WeeklyAverages{Calories: 2300},
		}
		got, ok := energyNudge(s, targets, "")
		require.True(t, ok)
		assert.Equal(t, "Energy intake is trending fuller than your recent range.", got.Message)
		assert.Equal(t, 2, got.Priority)
	})

	t.Run("nothing eaten today", func(t *testing.T) {
		s := snapshot{averages: WeeklyAverages{Calories: 1500}}
		_, ok := energyNudge(s, targets, "")
		assert.False(t, ok)
	})

	t.Run("no targets", func(t *testing.T) {
		_, ok := energyNudge(snapshot{averages: WeeklyAverages{Calories: 1500}}, nil, "")
		assert.False(t, ok)
	})
}

func TestSelectNudges(t *testing.T) {
	got := selectNudges([]ScoredNudge{
		{Type: "a", Message: "a", Priority: 1},
		{Type: "b", Message: "b", Priority: 3},
		{Type: "a", Message: "a", Priority: 2},
		{Type: "c", Message: "c", Priority: 2},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Message)
	assert.Equal(t, "a", got[1].Message)
	assert.Equal(t, 2, got[1].Priority)
}

func TestLowSignalCounts(t *testing.T) {
	meals := []domain.MealLogEntry{
		mealAt(testNow.AddDate(0, 0, -1), 400, 600, 20, 40),
		mealAt(testNow.AddDate(0, 0, -2), 400, 600, 20, 40),
		mealAt(testNow.AddDate(0, 0, -40), 400, 600, 20, 40),
	}
	meals[0].Estimate.MicronutrientSignals = []domain.MicronutrientSignal{
		{Nutrient: "Iron", Signal: domain.SignalLow},
		{Nutrient: "", Signal: domain.SignalLow},
		{Nutrient: "Calcium", Signal: domain.SignalAdequate},
	}
	meals[1].Estimate.MicronutrientSignals = []domain.MicronutrientSignal{
		{Nutrient: "Fiber", Signal: domain.SignalLow},
		{Nutrient: "iron", Signal: domain.SignalLow},
	}
	meals[2].Estimate.MicronutrientSignals = []domain.MicronutrientSignal{
		{Nutrient: "Iron", Signal: domain.SignalLow},
	}

	counts, order := lowSignalCounts(meals, testNow)
	assert.Equal(t, map[string]int{"iron": 2, "fiber": 1}, counts)
	assert.Equal(t, []string{"iron", "fiber"}, order)
}
