package domain

import "encoding/json"

// SignalLevel is how strongly a micronutrient appears in a meal photo
type SignalLevel string

const (
	SignalLow       SignalLevel = "low_appearance"
	SignalAdequate  SignalLevel = "adequate_appearance"
	SignalUncertain SignalLevel = "uncertain"
)

// Valid reports whether s is one of the known signal levels
func (s SignalLevel) Valid() bool {
	switch s {
	case SignalLow, SignalAdequate, SignalUncertain:
		return true
	}
	return false
}

// DetectedItem is a single food the vision model believes is on the plate
type DetectedItem struct {
	Name                 string
	Confidence           float64
	EstimatedWeightGrams *float64
	Notes                string
}

// Range is an inclusive min/max estimate for one macro
type Range struct {
	Min float64
	Max float64
}

// Span returns max - min
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Degenerate reports an exact reading (min == max)
func (r Range) Degenerate() bool {
	return r.Min == r.Max
}

// Ranges holds the four macro ranges of an estimate
type Ranges struct {
	Calories Range
	Protein  Range
	Carbs    Range
	Fat      Range
}

// MicronutrientSignal is a coarse visual hint about a micronutrient
type MicronutrientSignal struct {
	Nutrient  string
	Signal    SignalLevel
	Rationale string
}

// NutritionEstimate is a structured, confidence-scored guess at a meal's nutrition.
// Values are replaced wholesale on refinement; use the With* methods to derive new ones.
type NutritionEstimate struct {
	DetectedItems           []DetectedItem
	Ranges                  Ranges
	MicronutrientSignals    []MicronutrientSignal
	OverallConfidence       float64
	DetectedBrand           string
	DetectedProduct         string
	DatabaseMatchConfidence *float64
	PrecisionModeAvailable  bool
	QuickConfirmOptions     []string
}

// HasProductHint reports whether both brand and product were detected
func (e NutritionEstimate) HasProductHint() bool {
	return e.DetectedBrand != "" && e.DetectedProduct != ""
}

// Clone returns a deep copy so callers never share slices between estimates
func (e NutritionEstimate) Clone() NutritionEstimate {
	out := e
	out.DetectedItems = append([]DetectedItem(nil), e.DetectedItems...)
	for i := range out.DetectedItems {
		if w := out.DetectedItems[i].EstimatedWeightGrams; w != nil {
			v := *w
			out.DetectedItems[i].EstimatedWeightGrams = &v
		}
	}
	out.MicronutrientSignals = append([]MicronutrientSignal(nil), e.MicronutrientSignals...)
	if e.QuickConfirmOptions != nil {
		out.QuickConfirmOptions = append([]string(nil), e.QuickConfirmOptions...)
	}
	if e.DatabaseMatchConfidence != nil {
		v := *e.DatabaseMatchConfidence
		out.DatabaseMatchConfidence = &v
	}
	return out
}

// WithRanges returns a copy carrying the given ranges
func (e NutritionEstimate) WithRanges(r Ranges) NutritionEstimate {
	out := e.Clone()
	out.Ranges = r
	return out
}

// WithDatabaseMatch returns a copy carrying the product database match confidence
func (e NutritionEstimate) WithDatabaseMatch(confidence float64) NutritionEstimate {
	out := e.Clone()
	out.DatabaseMatchConfidence = &confidence
	return out
}

// WithPrecisionMode returns a copy with the precision scan flag set
func (e NutritionEstimate) WithPrecisionMode(available bool) NutritionEstimate {
	out := e.Clone()
	out.PrecisionModeAvailable = available
	return out
}

// WithAuthoritativeRanges returns a copy whose ranges come from trusted data:
// confidence is pinned and quick-confirm options are dropped.
func (e NutritionEstimate) WithAuthoritativeRanges(r Ranges, confidence float64) NutritionEstimate {
	out := e.Clone()
	out.Ranges = r
	out.OverallConfidence = confidence
	out.QuickConfirmOptions = nil
	return out
}

// RawDetectedItem is the wire shape of a detected item
type RawDetectedItem struct {
	Name                 string   `json:"name" yaml:"name"`
	Confidence           float64  `json:"confidence_0_1" yaml:"confidence_0_1"`
	EstimatedWeightGrams *float64 `json:"estimated_weight_g,omitempty" yaml:"estimated_weight_g,omitempty"`
	Notes                string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// RawRanges is the flat wire shape of the macro ranges
type RawRanges struct {
	CaloriesMin float64 `json:"calories_min" yaml:"calories_min"`
	CaloriesMax float64 `json:"calories_max" yaml:"calories_max"`
	ProteinMin  float64 `json:"protein_g_min" yaml:"protein_g_min"`
	ProteinMax  float64 `json:"protein_g_max" yaml:"protein_g_max"`
	CarbsMin    float64 `json:"carbs_g_min" yaml:"carbs_g_min"`
	CarbsMax    float64 `json:"carbs_g_max" yaml:"carbs_g_max"`
	FatMin      float64 `json:"fat_g_min" yaml:"fat_g_min"`
	FatMax      float64 `json:"fat_g_max" yaml:"fat_g_max"`
}

// RawSignal is the wire shape of a micronutrient signal
type RawSignal struct {
	Nutrient  string      `json:"nutrient" yaml:"nutrient"`
	Signal    SignalLevel `json:"signal" yaml:"signal"`
	Rationale string      `json:"rationale_short" yaml:"rationale_short"`
}

// RawEstimate is the JSON wire shape shared with the vision service, storage and clients
type RawEstimate struct {
	DetectedItems           []RawDetectedItem `json:"detected_items" yaml:"detected_items"`
	EstimatedRanges         RawRanges         `json:"estimated_ranges" yaml:"estimated_ranges"`
	MicronutrientSignals    []RawSignal       `json:"micronutrient_signals" yaml:"micronutrient_signals"`
	ConfidenceOverall       float64           `json:"confidence_overall_0_1" yaml:"confidence_overall_0_1"`
	DetectedBrand           *string           `json:"detected_brand" yaml:"detected_brand"`
	DetectedProduct         *string           `json:"detected_product" yaml:"detected_product"`
	DatabaseMatchConfidence *float64          `json:"database_match_confidence_0_1" yaml:"database_match_confidence_0_1"`
	PrecisionModeAvailable  bool              `json:"precision_mode_available" yaml:"precision_mode_available"`
	QuickConfirmOptions     []string          `json:"optional_quick_confirm_options,omitempty" yaml:"optional_quick_confirm_options,omitempty"`
}

// ToRaw converts the estimate to its wire shape
func (e NutritionEstimate) ToRaw() RawEstimate {
	c := e.Clone()
	raw := RawEstimate{
		DetectedItems:        make([]RawDetectedItem, 0, len(c.DetectedItems)),
		MicronutrientSignals: make([]RawSignal, 0, len(c.MicronutrientSignals)),
		EstimatedRanges: RawRanges{
			CaloriesMin: c.Ranges.Calories.Min,
			CaloriesMax: c.Ranges.Calories.Max,
			ProteinMin:  c.Ranges.Protein.Min,
			ProteinMax:  c.Ranges.Protein.Max,
			CarbsMin:    c.Ranges.Carbs.Min,
			CarbsMax:    c.Ranges.Carbs.Max,
			FatMin:      c.Ranges.Fat.Min,
			FatMax:      c.Ranges.Fat.Max,
		},
		ConfidenceOverall:       c.OverallConfidence,
		DatabaseMatchConfidence: c.DatabaseMatchConfidence,
		PrecisionModeAvailable:  c.PrecisionModeAvailable,
		QuickConfirmOptions:     c.QuickConfirmOptions,
	}
	for _, item := range c.DetectedItems {
		raw.DetectedItems = append(raw.DetectedItems, RawDetectedItem{
			Name:                 item.Name,
			Confidence:           item.Confidence,
			EstimatedWeightGrams: item.EstimatedWeightGrams,
			Notes:                item.Notes,
		})
	}
	for _, s := range c.MicronutrientSignals {
		raw.MicronutrientSignals = append(raw.MicronutrientSignals, RawSignal{
			Nutrient:  s.Nutrient,
			Signal:    s.Signal,
			Rationale: s.Rationale,
		})
	}
	if c.DetectedBrand != "" {
		brand := c.DetectedBrand
		raw.DetectedBrand = &brand
	}
	if c.DetectedProduct != "" {
		product := c.DetectedProduct
		raw.DetectedProduct = &product
	}
	return raw
}

// Estimate converts a stored wire shape back without re-normalizing it.
// Only use this for data this service wrote itself.
func (r RawEstimate) Estimate() NutritionEstimate {
	e := NutritionEstimate{
		Ranges: Ranges{
			Calories: Range{Min: r.EstimatedRanges.CaloriesMin, Max: r.EstimatedRanges.CaloriesMax},
			Protein:  Range{Min: r.EstimatedRanges.ProteinMin, Max: r.EstimatedRanges.ProteinMax},
			Carbs:    Range{Min: r.EstimatedRanges.CarbsMin, Max: r.EstimatedRanges.CarbsMax},
			Fat:      Range{Min: r.EstimatedRanges.FatMin, Max: r.EstimatedRanges.FatMax},
		},
		OverallConfidence:       r.ConfidenceOverall,
		DatabaseMatchConfidence: r.DatabaseMatchConfidence,
		PrecisionModeAvailable:  r.PrecisionModeAvailable,
		QuickConfirmOptions:     r.QuickConfirmOptions,
	}
	for _, item := range r.DetectedItems {
		e.DetectedItems = append(e.DetectedItems, DetectedItem{
			Name:                 item.Name,
			Confidence:           item.Confidence,
			EstimatedWeightGrams: item.EstimatedWeightGrams,
			Notes:                item.Notes,
		})
	}
	for _, s := range r.MicronutrientSignals {
		e.MicronutrientSignals = append(e.MicronutrientSignals, MicronutrientSignal{
			Nutrient:  s.Nutrient,
			Signal:    s.Signal,
			Rationale: s.Rationale,
		})
	}
	if r.DetectedBrand != nil {
		e.DetectedBrand = *r.DetectedBrand
	}
	if r.DetectedProduct != nil {
		e.DetectedProduct = *r.DetectedProduct
	}
	return e.Clone()
}

// MarshalJSON encodes the estimate in its wire shape
func (e NutritionEstimate) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToRaw())
}

// UnmarshalJSON decodes the wire shape
func (e *NutritionEstimate) UnmarshalJSON(data []byte) error {
	var raw RawEstimate
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = raw.Estimate()
	return nil
}

// MarshalYAML encodes the estimate in its wire shape
func (e NutritionEstimate) MarshalYAML() (interface{}, error) {
	return e.ToRaw(), nil
}
