package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsignal/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled int
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	if m.getError != nil {
		return nil, m.getError
	}
	val, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return val, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockProductSearcher is a mock implementation of domain.ProductSearcher
type MockProductSearcher struct {
	products    []domain.ExternalProductRecord
	err         error
	lastQuery   string
	searchCalls int
}

func (m *MockProductSearcher) SearchProducts(ctx context.Context, query string) ([]domain.ExternalProductRecord, error) {
	m.searchCalls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func TestProductLookupService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss searches and caches", func(t *testing.T) {
		cache := NewMockCacheRepository()
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{acmeBar()}}
		svc := NewProductLookupService(cache, searcher, nil, ProductLookupConfig{}, nil, nil)

		got, err := svc.Search(ctx, "Acme", "Protein Bar Chocolate")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Acme Protein Bar Chocolate", searcher.lastQuery)
		assert.Equal(t, 1, cache.setCalled)

		_, cached := cache.data["offsearch:acme protein bar chocolate"]
		assert.True(t, cached, "expected result cached under normalized key")
	})

	t.Run("cache hit skips the searcher", func(t *testing.T) {
		cache := NewMockCacheRepository()
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{acmeBar()}}
		svc := NewProductLookupService(cache, searcher, nil, ProductLookupConfig{}, nil, nil)

		_, err := svc.Search(ctx, "Acme", "Protein Bar Chocolate")
		require.NoError(t, err)
		got, err := svc.Search(ctx, "acme", "protein bar  chocolate")
		require.NoError(t, err)

		assert.Equal(t, 1, searcher.searchCalls)
		require.Len(t, got, 1)
		assert.Equal(t, "Acme Chocolate Protein Bar", got[0].ProductName)
	})

	t.Run("corrupt cache entry treated as miss", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.data["offsearch:acme protein bar chocolate"] = []byte("{not json")
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{acmeBar()}}
		svc := NewProductLookupService(cache, searcher, nil, ProductLookupConfig{}, nil, nil)

		_, err := svc.Search(ctx, "Acme", "Protein Bar Chocolate")
		require.NoError(t, err)
		assert.Equal(t, 1, searcher.searchCalls)
	})

	t.Run("cache write failure still returns products", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.setError = errors.New("cache full")
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{acmeBar()}}
		svc := NewProductLookupService(cache, searcher, nil, ProductLookupConfig{}, nil, nil)

		got, err := svc.Search(ctx, "Acme", "Protein Bar Chocolate")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("nil cache", func(t *testing.T) {
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{acmeBar()}}
		svc := NewProductLookupService(nil, searcher, nil, ProductLookupConfig{}, nil, nil)

		got, err := svc.Search(ctx, "Acme", "Protein Bar Chocolate")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("searcher failure wrapped", func(t *testing.T) {
		searcher := &MockProductSearcher{err: errors.New("connection refused")}
		svc := NewProductLookupService(NewMockCacheRepository(), searcher, nil, ProductLookupConfig{}, nil, nil)

		_, err := svc.Search(ctx, "Acme", "Protein Bar Chocolate")
		assert.ErrorIs(t, err, domain.ErrFoodDBFailure)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		searcher := &MockProductSearcher{}
		svc := NewProductLookupService(nil, searcher, nil, ProductLookupConfig{}, nil, nil)

		_, err := svc.Search(ctx, "", "  ")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.Equal(t, 0, searcher.searchCalls)
	})
}

func TestProductLookupService_Enrich(t *testing.T) {
	ctx := context.Background()

	t.Run("estimate without hint untouched", func(t *testing.T) {
		searcher := &MockProductSearcher{}
		svc := NewProductLookupService(nil, searcher, nil, ProductLookupConfig{}, nil, nil)

		est := FallbackEstimate()
		got, outcome := svc.Enrich(ctx, est)
		assert.Equal(t, MatchNone, outcome)
		assert.Equal(t, est, got)
		assert.Equal(t, 0, searcher.searchCalls)
	})

	t.Run("search failure keeps estimate", func(t *testing.T) {
		searcher := &MockProductSearcher{err: errors.New("timeout")}
		svc := NewProductLookupService(nil, searcher, nil, ProductLookupConfig{}, nil, nil)

		est := acmeEstimate()
		got, outcome := svc.Enrich(ctx, est)
		assert.Equal(t, MatchSearchFailed, outcome)
		assert.Equal(t, est, got)
	})

	t.Run("confident match overrides", func(t *testing.T) {
		rec := &countingRecorder{}
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{acmeBar()}}
		svc := NewProductLookupService(nil, searcher, nil, ProductLookupConfig{}, nil, rec)

		got, outcome := svc.Enrich(ctx, acmeEstimate())
		assert.Equal(t, MatchOverride, outcome)
		assert.Equal(t, domain.Range{Min: 18, Max: 22}, got.Ranges.Protein)
		assert.Equal(t, []string{string(MatchOverride)}, rec.matches)
	})

	t.Run("custom override threshold", func(t *testing.T) {
		matcher := NewMatchingService(MatchConfig{OverrideConfidence: 0.95}, nil)
		weak := acmeBar()
		weak.Nutriments = nil
		searcher := &MockProductSearcher{products: []domain.ExternalProductRecord{weak}}
		svc := NewProductLookupService(nil, searcher, matcher, ProductLookupConfig{}, nil, nil)

		assert.Equal(t, 0.95, svc.OverrideThreshold())
		_, outcome := svc.Enrich(ctx, acmeEstimate())
		assert.Equal(t, MatchLowConfidence, outcome)
	})
}

// countingRecorder captures measurements for assertions
type countingRecorder struct {
	mu        sync.Mutex
	analyses  []string
	matches   []string
	widened   int
	cacheHits int
	cacheMiss int
	nudges    int
	visions   int
}

func (r *countingRecorder) AnalysisCompleted(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, outcome)
}

func (r *countingRecorder) VisionDuration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visions++
}

func (r *countingRecorder) ProductMatch(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, outcome)
}

func (r *countingRecorder) EstimateWidened() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widened++
}

func (r *countingRecorder) ProductCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMiss++
	}
}

func (r *countingRecorder) NudgesEmitted(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nudges += n
}
