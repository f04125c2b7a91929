package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
)

// ProductLookupConfig holds configuration for the product lookup service
type ProductLookupConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// ProductLookupService finds food database products for an estimate's brand
// hint and reconciles the estimate against them
type ProductLookupService struct {
	cache    domain.CacheRepository
	searcher domain.ProductSearcher
	matcher  *MatchingService
	queries  *QueryPreprocessor
	cacheTTL time.Duration
	logger   *zap.Logger
	recorder Recorder
}

// NewProductLookupService creates a new product lookup service with dependencies.
// cache may be nil, in which case every lookup goes to the searcher.
func NewProductLookupService(
	cache domain.CacheRepository,
	searcher domain.ProductSearcher,
	matcher *MatchingService,
	config ProductLookupConfig,
	logger *zap.Logger,
	recorder Recorder,
) *ProductLookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = NopRecorder()
	}
	if matcher == nil {
		matcher = NewMatchingService(MatchConfig{EnableDebugLogging: config.EnableDebugLogging}, logger)
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ProductLookupService{
		cache:    cache,
		searcher: searcher,
		matcher:  matcher,
		queries:  NewQueryPreprocessor(config.EnableDebugLogging, logger),
		cacheTTL: cacheTTL,
		logger:   logger.Named("lookup"),
		recorder: recorder,
	}
}

// Search returns candidate products for a brand and product name.
// Flow: check cache -> search food database -> cache -> return
func (s *ProductLookupService) Search(ctx context.Context, brand, product string) ([]domain.ExternalProductRecord, error) {
	query := s.queries.BuildSearchQuery(brand, product)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := generateCacheKey(query)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.recorder.ProductCache(true)
		return cached, nil
	}
	s.recorder.ProductCache(false)

	if s.searcher == nil {
		return nil, fmt.Errorf("%w: no product searcher configured", domain.ErrFoodDBFailure)
	}
	products, err := s.searcher.SearchProducts(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrFoodDBFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFoodDBFailure, err)
	}

	if err := s.setInCache(ctx, cacheKey, products); err != nil {
		s.logger.Warn("failed to cache product search", zap.String("key", cacheKey), zap.Error(err))
	}
	return products, nil
}

// Enrich reconciles est against the food database when it carries both a brand
// and a product. Search failures leave the estimate as it was.
func (s *ProductLookupService) Enrich(ctx context.Context, est domain.NutritionEstimate) (domain.NutritionEstimate, MatchOutcome) {
	if !est.HasProductHint() {
		return est, MatchNone
	}

	products, err := s.Search(ctx, est.DetectedBrand, est.DetectedProduct)
	if err != nil {
		s.logger.Warn("product search failed, keeping vision estimate",
			zap.String("brand", est.DetectedBrand),
			zap.String("product", est.DetectedProduct),
			zap.Error(err))
		s.recorder.ProductMatch(string(MatchSearchFailed))
		return est, MatchSearchFailed
	}

	updated, outcome := s.matcher.Reconcile(est, products)
	s.recorder.ProductMatch(string(outcome))
	return updated, outcome
}

// OverrideThreshold exposes the matcher's override confidence
func (s *ProductLookupService) OverrideThreshold() float64 {
	return s.matcher.OverrideThreshold()
}

// generateCacheKey creates a normalized cache key from a search query.
// Format: "offsearch:{normalized_query}"
func generateCacheKey(query string) string {
	return "offsearch:" + normalizeForCacheKey(query)
}

// getFromCache retrieves a product search result from cache
func (s *ProductLookupService) getFromCache(ctx context.Context, key string) ([]domain.ExternalProductRecord, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var products []domain.ExternalProductRecord
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return products, nil
}

// setInCache stores a product search result in cache
func (s *ProductLookupService) setInCache(ctx context.Context, key string, products []domain.ExternalProductRecord) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
