package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mealsignal/backend/internal/domain"
)

// LowConfidenceThreshold is the overall confidence below which an estimate is
// widened and quick-confirm options are surfaced
const LowConfidenceThreshold = 0.55

// precisionConfidenceThreshold is the confidence below which a precision scan is offered
const precisionConfidenceThreshold = 0.65

const maxMicronutrientSignals = 4
const maxQuickConfirmOptions = 4

// macroBounds holds the default and ceiling of one side of a macro range
type macroBounds struct {
	key      string
	fallback float64
	ceiling  float64
}

var (
	caloriesMinBounds = macroBounds{"calories_min", 350, 5000}
	caloriesMaxBounds = macroBounds{"calories_max", 700, 6000}
	proteinMinBounds  = macroBounds{"protein_g_min", 10, 300}
	proteinMaxBounds  = macroBounds{"protein_g_max", 30, 350}
	carbsMinBounds    = macroBounds{"carbs_g_min", 30, 500}
	carbsMaxBounds    = macroBounds{"carbs_g_max", 80, 600}
	fatMinBounds      = macroBounds{"fat_g_min", 10, 200}
	fatMaxBounds      = macroBounds{"fat_g_max", 30, 250}
)

// FallbackEstimate is the safe estimate used when analysis is absent or unusable
func FallbackEstimate() domain.NutritionEstimate {
	return domain.NutritionEstimate{
		DetectedItems: []domain.DetectedItem{
			{Name: "Meal", Confidence: 0.25, Notes: "Not analyzed yet."},
		},
		Ranges: domain.Ranges{
			Calories: domain.Range{Min: 350, Max: 700},
			Protein:  domain.Range{Min: 10, Max: 30},
			Carbs:    domain.Range{Min: 30, Max: 80},
			Fat:      domain.Range{Min: 10, Max: 30},
		},
		MicronutrientSignals: []domain.MicronutrientSignal{
			{Nutrient: "General variety", Signal: domain.SignalUncertain, Rationale: "Limited visual signal from the photo."},
		},
		OverallConfidence:      0.25,
		PrecisionModeAvailable: true,
		QuickConfirmOptions:    []string{"Mixed plate", "Sandwich", "Bowl", "Other"},
	}
}

// Normalize repairs an arbitrary decoded payload into a valid estimate.
// It never fails: anything that is not an object yields FallbackEstimate.
func Normalize(raw any) (est domain.NutritionEstimate) {
	defer func() {
		if r := recover(); r != nil {
			est = FallbackEstimate()
		}
	}()

	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return FallbackEstimate()
	}

	est.DetectedItems = ResolveNames(normalizeItems(obj["detected_items"]))
	if len(est.DetectedItems) == 0 {
		est.DetectedItems = []domain.DetectedItem{{Name: "Meal", Confidence: 0.3}}
	}

	rangesObj, _ := obj["estimated_ranges"].(map[string]any)
	est.Ranges = domain.Ranges{
		Calories: normalizeRange(rangesObj, caloriesMinBounds, caloriesMaxBounds),
		Protein:  normalizeRange(rangesObj, proteinMinBounds, proteinMaxBounds),
		Carbs:    normalizeRange(rangesObj, carbsMinBounds, carbsMaxBounds),
		Fat:      normalizeRange(rangesObj, fatMinBounds, fatMaxBounds),
	}

	est.MicronutrientSignals = normalizeSignals(obj["micronutrient_signals"])
	est.OverallConfidence = clamp(coerceNumber(obj["confidence_overall_0_1"], 0.4), 0, 1)
	est.DetectedBrand = coerceText(obj["detected_brand"])
	est.DetectedProduct = coerceText(obj["detected_product"])

	if v, present := obj["database_match_confidence_0_1"]; present && v != nil {
		if f, ok := numberValue(v); ok {
			c := clamp(f, 0, 1)
			est.DatabaseMatchConfidence = &c
		}
	}

	est.PrecisionModeAvailable = precisionModeFor(est)

	if est.OverallConfidence < LowConfidenceThreshold {
		if opts, ok := obj["optional_quick_confirm_options"].([]any); ok {
			est.QuickConfirmOptions = make([]string, 0, maxQuickConfirmOptions)
			for _, o := range opts {
				if len(est.QuickConfirmOptions) == maxQuickConfirmOptions {
					break
				}
				est.QuickConfirmOptions = append(est.QuickConfirmOptions, stringify(o))
			}
		}
	}

	return est
}

// NormalizeJSON decodes data and normalizes it; undecodable input yields the fallback
func NormalizeJSON(data []byte) domain.NutritionEstimate {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return FallbackEstimate()
	}
	return Normalize(raw)
}

// ToRawMap renders an estimate as the generic decoded shape Normalize accepts
func ToRawMap(est domain.NutritionEstimate) map[string]any {
	data, err := json.Marshal(est.ToRaw())
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func precisionModeFor(est domain.NutritionEstimate) bool {
	if est.DetectedBrand != "" || est.OverallConfidence < precisionConfidenceThreshold {
		return true
	}
	cal := est.Ranges.Calories
	if cal.Max > 0 && (cal.Max-cal.Min)/cal.Max > 0.3 {
		return true
	}
	return false
}

func normalizeItems(v any) []domain.DetectedItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]domain.DetectedItem, 0, len(list))
	for _, entry := range list {
		obj, _ := entry.(map[string]any)
		item := domain.DetectedItem{
			Name:       "Meal",
			Confidence: clamp(coerceNumber(obj["confidence_0_1"], 0.3), 0, 1),
		}
		if name, present := obj["name"]; present && name != nil {
			item.Name = stringify(name)
		}
		if w, present := obj["estimated_weight_g"]; present && w != nil {
			if f, ok := numberValue(w); ok && f >= 0 {
				item.EstimatedWeightGrams = &f
			}
		}
		item.Notes = coerceText(obj["notes"])
		items = append(items, item)
	}
	return items
}

func normalizeRange(obj map[string]any, lo, hi macroBounds) domain.Range {
	r := domain.Range{
		Min: clamp(coerceNumber(obj[lo.key], lo.fallback), 0, lo.ceiling),
		Max: clamp(coerceNumber(obj[hi.key], hi.fallback), 0, hi.ceiling),
	}
	if r.Min > r.Max {
		r.Max = r.Min
	}
	return r
}

func normalizeSignals(v any) []domain.MicronutrientSignal {
	list, ok := v.([]any)
	if !ok {
		return []domain.MicronutrientSignal{}
	}
	if len(list) > maxMicronutrientSignals {
		list = list[:maxMicronutrientSignals]
	}
	signals := make([]domain.MicronutrientSignal, 0, len(list))
	for _, entry := range list {
		obj, _ := entry.(map[string]any)
		s := domain.MicronutrientSignal{
			Nutrient:  "General",
			Signal:    domain.SignalUncertain,
			Rationale: "Signal unclear",
		}
		if n, present := obj["nutrient"]; present && n != nil {
			s.Nutrient = stringify(n)
		}
		if level, ok := obj["signal"].(string); ok && domain.SignalLevel(level).Valid() {
			s.Signal = domain.SignalLevel(level)
		}
		if r, present := obj["rationale_short"]; present && r != nil {
			s.Rationale = stringify(r)
		}
		signals = append(signals, s)
	}
	return signals
}

// coerceNumber reads v as a number, returning fallback when it is absent or not numeric
func coerceNumber(v any, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	f, ok := numberValue(v)
	if !ok {
		return fallback
	}
	return f
}

func numberValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// coerceText stringifies optional text; nil and empty both mean absent
func coerceText(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
