package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mealsignal/backend/internal/domain"
)

func estimateWith(confidence float64, r domain.Ranges) domain.NutritionEstimate {
	est := FallbackEstimate()
	est.OverallConfidence = confidence
	est.Ranges = r
	return est
}

func TestWidenIfLowConfidence(t *testing.T) {
	base := domain.Ranges{
		Calories: domain.Range{Min: 400, Max: 600},
		Protein:  domain.Range{Min: 10, Max: 30},
		Carbs:    domain.Range{Min: 30, Max: 80},
		Fat:      domain.Range{Min: 10, Max: 30},
	}

	t.Run("confident estimate unchanged", func(t *testing.T) {
		est := estimateWith(0.55, base)
		assert.Equal(t, est, WidenIfLowConfidence(est))
	})

	t.Run("exact calorie reading unchanged", func(t *testing.T) {
		exact := base
		exact.Calories = domain.Range{Min: 210, Max: 210}
		est := estimateWith(0.3, exact)
		assert.Equal(t, est, WidenIfLowConfidence(est))
	})

	t.Run("uncertain estimate widened by a fifth of the span", func(t *testing.T) {
		got := WidenIfLowConfidence(estimateWith(0.4, base))
		assert.Equal(t, domain.Range{Min: 360, Max: 640}, got.Ranges.Calories)
		assert.Equal(t, domain.Range{Min: 6, Max: 34}, got.Ranges.Protein)
		assert.Equal(t, domain.Range{Min: 20, Max: 90}, got.Ranges.Carbs)
		assert.Equal(t, domain.Range{Min: 6, Max: 34}, got.Ranges.Fat)
		assert.Equal(t, 0.4, got.OverallConfidence)
	})

	t.Run("input not modified", func(t *testing.T) {
		est := estimateWith(0.4, base)
		_ = WidenIfLowConfidence(est)
		assert.Equal(t, base, est.Ranges)
	})
}

func TestWiden(t *testing.T) {
	testCases := []struct {
		name  string
		in    domain.Range
		limit float64
		want  domain.Range
	}{
		{"capped", domain.Range{Min: 0, Max: 2000}, caloriesWidenCap, domain.Range{Min: 0, Max: 2120}},
		{"narrow span uses minimum", domain.Range{Min: 5, Max: 5}, proteinWidenCap, domain.Range{Min: 3, Max: 7}},
		{"floor at zero", domain.Range{Min: 1, Max: 40}, fatWidenCap, domain.Range{Min: 0, Max: 48}},
		{"carbs cap", domain.Range{Min: 100, Max: 300}, carbsWidenCap, domain.Range{Min: 75, Max: 325}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := widen(tc.in, tc.limit)
			if got != tc.want {
				t.Errorf("widen(%+v, %v) = %+v, want %+v", tc.in, tc.limit, got, tc.want)
			}
			if got.Span() < tc.in.Span() {
				t.Errorf("span shrank from %v to %v", tc.in.Span(), got.Span())
			}
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	testCases := []struct {
		in   float64
		want float64
	}{
		{2.5, 3},
		{-2.5, -2},
		{2.4, 2},
		{7.2, 7},
		{8.8, 9},
		{0, 0},
	}

	for _, tc := range testCases {
		if got := roundHalfUp(tc.in); got != tc.want {
			t.Errorf("roundHalfUp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
