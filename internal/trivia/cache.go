package trivia

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/p-n-ai/trivia/internal/platform/cache"
)

const categoriesKey = "categories"

// CategoryCache holds the category list between requests.
type CategoryCache interface {
	// Categories returns the cached list and whether it was present.
	Categories(ctx context.Context) ([]Category, bool, error)
	StoreCategories(ctx context.Context, categories []Category) error
	Invalidate(ctx context.Context) error
}

// RedisCategoryCache keeps the category list in Dragonfly/Redis.
type RedisCategoryCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisCategoryCache creates a category cache with the given entry TTL.
func NewRedisCategoryCache(c *cache.Cache, ttl time.Duration) (*RedisCategoryCache, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is nil")
	}
	return &RedisCategoryCache{cache: c, ttl: ttl}, nil
}

func (r *RedisCategoryCache) Categories(ctx context.Context) ([]Category, bool, error) {
	var categories []Category
	found, err := r.cache.GetJSON(ctx, categoriesKey, &categories)
	if err != nil || !found {
		return nil, false, err
	}
	return categories, true, nil
}

func (r *RedisCategoryCache) StoreCategories(ctx context.Context, categories []Category) error {
	return r.cache.SetJSON(ctx, categoriesKey, categories, r.ttl)
}

func (r *RedisCategoryCache) Invalidate(ctx context.Context) error {
	return r.cache.Delete(ctx, categoriesKey)
}

// MemoryCategoryCache is an in-process CategoryCache for tests.
type MemoryCategoryCache struct {
	mu         sync.Mutex
	categories []Category
	present    bool
	Hits       int
	Misses     int
}

func (m *MemoryCategoryCache) Categories(_ context.Context) ([]Category, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.present {
		m.Misses++
		return nil, false, nil
	}
	m.Hits++
	return append([]Category{}, m.categories...), true, nil
}

func (m *MemoryCategoryCache) StoreCategories(_ context.Context, categories []Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories = append([]Category{}, categories...)
	m.present = true
	return nil
}

func (m *MemoryCategoryCache) Invalidate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories = nil
	m.present = false
	return nil
}
