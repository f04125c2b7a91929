package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExternalProductRecord is a product returned by the food database search.
// Every field is untrusted and may be missing.
type ExternalProductRecord struct {
	Brands         string         `json:"brands,omitempty"`
	ProductName    string         `json:"product_name,omitempty"`
	Categories     string         `json:"categories,omitempty"`
	CategoriesTags []string       `json:"categories_tags,omitempty"`
	ServingSize    string         `json:"serving_size,omitempty"`
	Nutriments     map[string]any `json:"nutriments,omitempty"`
}

// Nutriment returns the first present value among keys.
// A present value that cannot be read as a number comes back as NaN.
func (p ExternalProductRecord) Nutriment(keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := p.Nutriments[key]
		if !ok || v == nil {
			continue
		}
		return nutrimentNumber(v), true
	}
	return 0, false
}

func nutrimentNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// CategoryText joins categories and category tags into one lowercase string
func (p ExternalProductRecord) CategoryText() string {
	return strings.ToLower(p.Categories + " " + strings.Join(p.CategoriesTags, " "))
}

// ProductMatch is the selected candidate together with its match confidence
type ProductMatch struct {
	Product    ExternalProductRecord `json:"product"`
	Confidence float64               `json:"confidence"`
}
