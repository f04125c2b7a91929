package usecase

import (
	"math"

	"github.com/mealsignal/backend/internal/domain"
)

// Widening caps per macro, in the macro's own unit
const (
	caloriesWidenCap = 120.0
	proteinWidenCap  = 8.0
	carbsWidenCap    = 25.0
	fatWidenCap      = 10.0

	widenFraction = 0.2
	minWidenSpan  = 10.0
)

// WidenIfLowConfidence pushes every macro range outward when the estimate is
// uncertain. Confident estimates and exact readings (calories min == max) are returned as is.
func WidenIfLowConfidence(est domain.NutritionEstimate) domain.NutritionEstimate {
	if est.OverallConfidence >= LowConfidenceThreshold || est.Ranges.Calories.Degenerate() {
		return est
	}
	return est.WithRanges(domain.Ranges{
		Calories: widen(est.Ranges.Calories, caloriesWidenCap),
		Protein:  widen(est.Ranges.Protein, proteinWidenCap),
		Carbs:    widen(est.Ranges.Carbs, carbsWidenCap),
		Fat:      widen(est.Ranges.Fat, fatWidenCap),
	})
}

func widen(r domain.Range, limit float64) domain.Range {
	span := math.Max(minWidenSpan, r.Max-r.Min)
	delta := math.Min(span*widenFraction, limit)
	return domain.Range{
		Min: math.Max(0, roundHalfUp(r.Min-delta)),
		Max: roundHalfUp(r.Max + delta),
	}
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
