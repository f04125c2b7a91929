package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
)

// Package-level compiled regex pattern for serving sizes like "30 g" or "2.5g"
var servingGramsRegex = regexp.MustCompile(`(?i)([\d.]+)\s*g`)

// Confidence weights for a product match
const (
	brandMatchWeight    = 0.4
	tokenOverlapWeight  = 0.4
	servingDataWeight   = 0.2
	minTokenLength      = 3
	minTokenHits        = 2
	minTokenRatio       = 0.6
	matchedConfidence   = 0.9
	tightenLowerFactor  = 0.9
	tightenUpperFactor  = 1.1
	minLiquidServingG   = 200.0
	maxLiquidServingG   = 500.0
	defaultOverrideConf = 0.85
)

// beverageTerms mark categories whose serving sizes are too variable to trust
var beverageTerms = []string{"beverages", "drinks", "meal-replacement", "shakes", "liquid"}

// Nutriment keys in lookup order
var (
	kcalServingKeys    = []string{"energy-kcal_serving", "energy_kcal_serving"}
	proteinServingKeys = []string{"proteins_serving"}
	carbsServingKeys   = []string{"carbohydrates_serving"}
	fatServingKeys     = []string{"fat_serving"}

	kcal100gKeys    = []string{"energy-kcal_100g", "energy-kcal", "energy_kcal_100g", "energy_kcal"}
	protein100gKeys = []string{"proteins_100g", "proteins"}
	carbs100gKeys   = []string{"carbohydrates_100g", "carbohydrates"}
	fat100gKeys     = []string{"fat_100g", "fat"}
)

// MatchOutcome describes what product reconciliation did to an estimate
type MatchOutcome string

const (
	MatchNone            MatchOutcome = "none"
	MatchLowConfidence   MatchOutcome = "low_confidence"
	MatchOverride        MatchOutcome = "override"
	MatchOverrideRefused MatchOutcome = "override_refused"
	MatchSearchFailed    MatchOutcome = "search_failed"
)

// OverrideResult explains whether product nutrition replaced the estimate's ranges
type OverrideResult string

const (
	OverrideApplied            OverrideResult = "applied"
	OverrideBeverageServing    OverrideResult = "beverage_serving"
	OverrideMissingServingSize OverrideResult = "missing_serving_size"
	OverrideNonFinite          OverrideResult = "non_finite"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	OverrideConfidence float64
	EnableDebugLogging bool
}

// MatchingService reconciles estimates against food database products
type MatchingService struct {
	overrideConfidence float64
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	threshold := config.OverrideConfidence
	if threshold <= 0 || threshold > 1 {
		threshold = defaultOverrideConf
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchingService{
		overrideConfidence: threshold,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger.Named("match"),
	}
}

// OverrideThreshold is the confidence at which product data replaces the estimate
func (s *MatchingService) OverrideThreshold() float64 {
	return s.overrideConfidence
}

// Match returns the first candidate whose brand contains the detected brand and
// whose name shares enough product tokens. Nil when nothing qualifies.
func (s *MatchingService) Match(candidates []domain.ExternalProductRecord, brand, product string) *domain.ExternalProductRecord {
	if len(candidates) == 0 {
		return nil
	}
	tokens := productTokens(product)
	if len(tokens) == 0 {
		return nil
	}
	brandLower := strings.ToLower(brand)

	for i := range candidates {
		c := candidates[i]
		if !strings.Contains(strings.ToLower(c.Brands), brandLower) {
			continue
		}
		hits := tokenHits(tokens, c.ProductName)
		if hits >= minTokenHits || float64(hits)/float64(len(tokens)) >= minTokenRatio {
			if s.enableDebugLogging {
				s.logger.Debug("candidate qualified",
					zap.String("brands", c.Brands),
					zap.String("product_name", c.ProductName),
					zap.Int("token_hits", hits))
			}
			return &c
		}
	}
	return nil
}

// MatchConfidence scores a candidate in [0,1] from brand agreement, token overlap
// and whether it carries complete per-serving nutrition
func MatchConfidence(candidate domain.ExternalProductRecord, brand, product string) float64 {
	brandMatch := 0.0
	if strings.Contains(strings.ToLower(candidate.Brands), strings.ToLower(brand)) {
		brandMatch = 1
	}

	ratio := 0.0
	if tokens := productTokens(product); len(tokens) > 0 {
		ratio = float64(tokenHits(tokens, candidate.ProductName)) / float64(len(tokens))
	}

	serving := 0.0
	if _, ok := servingValues(candidate); ok {
		serving = 1
	}

	score := brandMatch*brandMatchWeight + ratio*tokenOverlapWeight + serving*servingDataWeight
	return clamp(score, 0, 1)
}

// OverrideRangesFromProduct tightens the estimate around the product's per-serving
// nutrition. The estimate is returned unchanged unless the result is OverrideApplied.
func OverrideRangesFromProduct(est domain.NutritionEstimate, product domain.ExternalProductRecord) (domain.NutritionEstimate, OverrideResult) {
	grams, hasGrams := servingGrams(product.ServingSize)

	if isBeverage(product) && (!hasGrams || grams < minLiquidServingG || grams > maxLiquidServingG) {
		return est, OverrideBeverageServing
	}

	values, hasServing := servingValues(product)
	if !hasServing && !hasGrams {
		return est, OverrideMissingServingSize
	}

	if !hasServing {
		var ok bool
		values, ok = scaledValues(product, grams)
		if !ok {
			return est, OverrideNonFinite
		}
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return est, OverrideNonFinite
		}
	}

	ranges := domain.Ranges{
		Calories: tighten(values[0]),
		Protein:  tighten(values[1]),
		Carbs:    tighten(values[2]),
		Fat:      tighten(values[3]),
	}
	return est.WithAuthoritativeRanges(ranges, matchedConfidence), OverrideApplied
}

// Reconcile picks a product for the estimate's brand hint and applies it.
// Estimates without both brand and product are returned untouched.
func (s *MatchingService) Reconcile(est domain.NutritionEstimate, candidates []domain.ExternalProductRecord) (domain.NutritionEstimate, MatchOutcome) {
	if !est.HasProductHint() {
		return est, MatchNone
	}

	best := s.Match(candidates, est.DetectedBrand, est.DetectedProduct)
	if best == nil {
		return est, MatchNone
	}

	confidence := MatchConfidence(*best, est.DetectedBrand, est.DetectedProduct)
	est = est.WithDatabaseMatch(confidence)

	if confidence < s.overrideConfidence {
		s.logger.Info("product match below override threshold",
			zap.String("brand", est.DetectedBrand),
			zap.String("product", est.DetectedProduct),
			zap.Float64("confidence", confidence))
		return est.WithPrecisionMode(true), MatchLowConfidence
	}

	updated, result := OverrideRangesFromProduct(est, *best)
	if s.enableDebugLogging {
		grams, hasGrams := servingGrams(best.ServingSize)
		_, usedServing := servingValues(*best)
		s.logger.Debug("product override",
			zap.String("brand", est.DetectedBrand),
			zap.String("product", est.DetectedProduct),
			zap.Bool("used_serving_values", usedServing),
			zap.Bool("has_serving_grams", hasGrams),
			zap.Float64("serving_grams", grams),
			zap.String("result", string(result)))
	}
	if result != OverrideApplied {
		return updated, MatchOverrideRefused
	}
	return updated, MatchOverride
}

// productTokens lowercases and splits a product name, keeping words of 3+ characters
func productTokens(product string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(product)) {
		if utf8.RuneCountInString(word) >= minTokenLength {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// tokenHits counts tokens appearing as substrings of the candidate name
func tokenHits(tokens []string, name string) int {
	nameLower := strings.ToLower(name)
	hits := 0
	for _, t := range tokens {
		if strings.Contains(nameLower, t) {
			hits++
		}
	}
	return hits
}

// servingValues returns kcal, protein, carbs, fat per serving when all four are present
func servingValues(p domain.ExternalProductRecord) ([4]float64, bool) {
	var out [4]float64
	for i, keys := range [][]string{kcalServingKeys, proteinServingKeys, carbsServingKeys, fatServingKeys} {
		v, ok := p.Nutriment(keys...)
		if !ok {
			return out, false
		}
		out[i] = v
	}
	return out, true
}

// scaledValues derives per-serving values from per-100g values
func scaledValues(p domain.ExternalProductRecord, grams float64) ([4]float64, bool) {
	var out [4]float64
	for i, keys := range [][]string{kcal100gKeys, protein100gKeys, carbs100gKeys, fat100gKeys} {
		v, ok := p.Nutriment(keys...)
		if !ok {
			return out, false
		}
		out[i] = v * grams / 100
	}
	return out, true
}

// servingGrams parses the gram amount from free text; a matched but unparsable
// number yields NaN so the override refuses on non-finite values
func servingGrams(servingSize string) (float64, bool) {
	m := servingGramsRegex.FindStringSubmatch(servingSize)
	if m == nil {
		return 0, false
	}
	g, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.NaN(), true
	}
	return g, true
}

func isBeverage(p domain.ExternalProductRecord) bool {
	text := p.CategoryText()
	for _, term := range beverageTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// tighten narrows a range to ±10% around a trusted value
func tighten(v float64) domain.Range {
	lo := math.Max(0, roundHalfUp(v*tightenLowerFactor))
	hi := math.Max(lo, roundHalfUp(v*tightenUpperFactor))
	return domain.Range{Min: lo, Max: hi}
}
