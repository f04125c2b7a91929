package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsignal/backend/internal/domain"
)

func acmeBar() domain.ExternalProductRecord {
	return domain.ExternalProductRecord{
		Brands:      "Acme Foods",
		ProductName: "Acme Chocolate Protein Bar",
		ServingSize: "60 g",
		Nutriments: map[string]any{
			"energy-kcal_serving":   210.0,
			"proteins_serving":      20.0,
			"carbohydrates_serving": 22.0,
			"fat_serving":           8.0,
		},
	}
}

func acmeEstimate() domain.NutritionEstimate {
	est := FallbackEstimate()
	est.DetectedBrand = "Acme"
	est.DetectedProduct = "Protein Bar Chocolate"
	est.OverallConfidence = 0.7
	return est
}

func TestNewMatchingService(t *testing.T) {
	testCases := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"zero uses default", 0, 0.85},
		{"custom threshold", 0.9, 0.9},
		{"above one uses default", 1.5, 0.85},
		{"negative uses default", -0.2, 0.85},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMatchingService(MatchConfig{OverrideConfidence: tc.threshold}, nil)
			if got := s.OverrideThreshold(); got != tc.want {
				t.Errorf("OverrideThreshold() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	s := NewMatchingService(MatchConfig{}, nil)

	t.Run("qualifying candidate", func(t *testing.T) {
		got := s.Match([]domain.ExternalProductRecord{acmeBar()}, "Acme", "Protein Bar Chocolate")
		require.NotNil(t, got)
		assert.Equal(t, "Acme Chocolate Protein Bar", got.ProductName)
	})

	t.Run("brand mismatch", func(t *testing.T) {
		other := acmeBar()
		other.Brands = "Globex"
		got := s.Match([]domain.ExternalProductRecord{other}, "Acme", "Protein Bar Chocolate")
		assert.Nil(t, got)
	})

	t.Run("no usable tokens", func(t *testing.T) {
		got := s.Match([]domain.ExternalProductRecord{acmeBar()}, "Acme", "ab cd")
		assert.Nil(t, got)
	})

	t.Run("too little overlap", func(t *testing.T) {
		got := s.Match([]domain.ExternalProductRecord{acmeBar()}, "Acme", "Vanilla Granola Clusters Crunch")
		assert.Nil(t, got)
	})

	t.Run("single token at full ratio", func(t *testing.T) {
		got := s.Match([]domain.ExternalProductRecord{acmeBar()}, "Acme", "Bar")
		require.NotNil(t, got)
	})

	t.Run("first qualifying candidate wins", func(t *testing.T) {
		first := acmeBar()
		first.ProductName = "Acme Protein Bar Chocolate Mint"
		second := acmeBar()
		got := s.Match([]domain.ExternalProductRecord{first, second}, "Acme", "Protein Bar Chocolate")
		require.NotNil(t, got)
		assert.Equal(t, "Acme Protein Bar Chocolate Mint", got.ProductName)
	})

	t.Run("empty candidates", func(t *testing.T) {
		assert.Nil(t, s.Match(nil, "Acme", "Protein Bar"))
	})
}

func TestMatchConfidence(t *testing.T) {
	noServing := acmeBar()
	noServing.Nutriments = map[string]any{"proteins_100g": 33.0}

	otherBrand := acmeBar()
	otherBrand.Brands = "Globex"
	otherBrand.ProductName = "Protein Cookie"

	testCases := []struct {
		name      string
		candidate domain.ExternalProductRecord
		want      float64
	}{
		{"brand, full overlap and serving data", acmeBar(), 1.0},
		{"no serving data", noServing, 0.8},
		{"other brand with partial overlap", otherBrand, 0.4*(1.0/3.0) + 0.2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchConfidence(tc.candidate, "Acme", "Protein Bar Chocolate")
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestOverrideRangesFromProduct(t *testing.T) {
	t.Run("per-serving values tighten every range", func(t *testing.T) {
		got, result := OverrideRangesFromProduct(acmeEstimate(), acmeBar())
		require.Equal(t, OverrideApplied, result)

		assert.Equal(t, domain.Range{Min: 189, Max: 231}, got.Ranges.Calories)
		assert.Equal(t, domain.Range{Min: 18, Max: 22}, got.Ranges.Protein)
		assert.Equal(t, domain.Range{Min: 20, Max: 24}, got.Ranges.Carbs)
		assert.Equal(t, domain.Range{Min: 7, Max: 9}, got.Ranges.Fat)
		assert.Equal(t, 0.9, got.OverallConfidence)
		assert.Empty(t, got.QuickConfirmOptions)
	})

	t.Run("per-100g values scaled by serving grams", func(t *testing.T) {
		product := domain.ExternalProductRecord{
			Brands:      "Acme",
			ProductName: "Acme Granola",
			ServingSize: "50 g (1/2 cup)",
			Nutriments: map[string]any{
				"energy-kcal_100g":   400.0,
				"proteins_100g":      20.0,
				"carbohydrates_100g": 60.0,
				"fat_100g":           10.0,
			},
		}
		got, result := OverrideRangesFromProduct(acmeEstimate(), product)
		require.Equal(t, OverrideApplied, result)
		assert.Equal(t, domain.Range{Min: 180, Max: 220}, got.Ranges.Calories)
		assert.Equal(t, domain.Range{Min: 9, Max: 11}, got.Ranges.Protein)
	})

	t.Run("beverage without a plausible serving is refused", func(t *testing.T) {
		drink := acmeBar()
		drink.Categories = "Beverages, Protein shakes"
		drink.ServingSize = "330 ml"
		est := acmeEstimate()
		got, result := OverrideRangesFromProduct(est, drink)
		assert.Equal(t, OverrideBeverageServing, result)
		assert.Equal(t, est.Ranges, got.Ranges)
	})

	t.Run("beverage with a plausible serving is applied", func(t *testing.T) {
		drink := acmeBar()
		drink.CategoriesTags = []string{"en:drinks"}
		drink.ServingSize = "250 g"
		_, result := OverrideRangesFromProduct(acmeEstimate(), drink)
		assert.Equal(t, OverrideApplied, result)
	})

	t.Run("no serving values and no serving size", func(t *testing.T) {
		product := domain.ExternalProductRecord{
			Brands:     "Acme",
			Nutriments: map[string]any{"proteins_100g": 20.0},
		}
		_, result := OverrideRangesFromProduct(acmeEstimate(), product)
		assert.Equal(t, OverrideMissingServingSize, result)
	})

	t.Run("unparsable nutriment is non-finite", func(t *testing.T) {
		product := acmeBar()
		product.Nutriments["fat_serving"] = "eight"
		est := acmeEstimate()
		got, result := OverrideRangesFromProduct(est, product)
		assert.Equal(t, OverrideNonFinite, result)
		assert.Equal(t, est.Ranges, got.Ranges)
	})

	t.Run("missing per-100g field is non-finite", func(t *testing.T) {
		product := domain.ExternalProductRecord{
			Brands:      "Acme",
			ServingSize: "40 g",
			Nutriments:  map[string]any{"energy-kcal_100g": 400.0, "proteins_100g": 20.0},
		}
		_, result := OverrideRangesFromProduct(acmeEstimate(), product)
		assert.Equal(t, OverrideNonFinite, result)
	})
}

func TestReconcile(t *testing.T) {
	s := NewMatchingService(MatchConfig{}, nil)

	t.Run("no product hint", func(t *testing.T) {
		est := FallbackEstimate()
		got, outcome := s.Reconcile(est, []domain.ExternalProductRecord{acmeBar()})
		assert.Equal(t, MatchNone, outcome)
		assert.Equal(t, est, got)
	})

	t.Run("confident match overrides ranges", func(t *testing.T) {
		got, outcome := s.Reconcile(acmeEstimate(), []domain.ExternalProductRecord{acmeBar()})
		assert.Equal(t, MatchOverride, outcome)
		require.NotNil(t, got.DatabaseMatchConfidence)
		assert.GreaterOrEqual(t, *got.DatabaseMatchConfidence, 0.85)
		assert.Equal(t, domain.Range{Min: 18, Max: 22}, got.Ranges.Protein)
	})

	t.Run("weak match offers precision mode", func(t *testing.T) {
		weak := acmeBar()
		weak.Nutriments = nil
		est := acmeEstimate()
		est.PrecisionModeAvailable = false
		got, outcome := s.Reconcile(est, []domain.ExternalProductRecord{weak})
		assert.Equal(t, MatchLowConfidence, outcome)
		assert.True(t, got.PrecisionModeAvailable)
		require.NotNil(t, got.DatabaseMatchConfidence)
		assert.InDelta(t, 0.8, *got.DatabaseMatchConfidence, 1e-9)
		assert.Equal(t, est.Ranges, got.Ranges)
	})

	t.Run("refused override keeps ranges", func(t *testing.T) {
		drink := acmeBar()
		drink.Categories = "Beverages"
		drink.ServingSize = "1 bottle"
		est := acmeEstimate()
		got, outcome := s.Reconcile(est, []domain.ExternalProductRecord{drink})
		assert.Equal(t, MatchOverrideRefused, outcome)
		assert.Equal(t, est.Ranges, got.Ranges)
	})

	t.Run("no qualifying candidate", func(t *testing.T) {
		_, outcome := s.Reconcile(acmeEstimate(), nil)
		assert.Equal(t, MatchNone, outcome)
	})
}
