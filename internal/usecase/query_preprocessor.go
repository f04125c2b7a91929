package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// maxQueryLength keeps search URLs short enough for the food database
const maxQueryLength = 100

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "12 oz", "500 ml", "2 lb"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+\.?\d*\s*(fl\s*)?(oz|ounces?|lbs?|pounds?|ml|liters?|kg|grams?|g)\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6 ct"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b`)

	// Characters the search endpoint treats as syntax
	unsafeQueryChars = regexp.MustCompile(`[^\p{L}\p{N}\s'\-]`)
)

// QueryPreprocessor builds food database search queries from a detected brand and product
type QueryPreprocessor struct {
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool, logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
		logger:             logger.Named("query"),
	}
}

// BuildSearchQuery returns "{brand} {product}" cleaned for the search endpoint.
// The brand is not repeated when the product name already carries it.
func (p *QueryPreprocessor) BuildSearchQuery(brand, product string) string {
	cleanedProduct := cleanQueryText(product)
	cleanedBrand := cleanQueryText(brand)

	query := cleanedProduct
	if cleanedBrand != "" && !strings.Contains(strings.ToLower(cleanedProduct), strings.ToLower(cleanedBrand)) {
		query = strings.TrimSpace(cleanedBrand + " " + cleanedProduct)
	}

	if len(query) > maxQueryLength {
		query = query[:maxQueryLength]
		if lastSpace := strings.LastIndex(query, " "); lastSpace > maxQueryLength/2 {
			query = query[:lastSpace]
		}
		query = strings.TrimSpace(strings.ToValidUTF8(query, ""))
	}

	if p.enableDebugLogging {
		p.logger.Debug("built search query",
			zap.String("brand", brand),
			zap.String("product", product),
			zap.String("query", query))
	}
	return query
}

// cleanQueryText removes sizes, pack counts and search syntax, then collapses whitespace
func cleanQueryText(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")
	s = sizeQuantityPattern.ReplaceAllString(s, " ")
	s = packCountPattern.ReplaceAllString(s, " ")
	s = unsafeQueryChars.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// normalizeForCacheKey lowercases and collapses whitespace so equivalent queries share a key
func normalizeForCacheKey(query string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(strings.ToLower(query), " "))
}
