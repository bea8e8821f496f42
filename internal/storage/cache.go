package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Number of FindByID calls served from the catalog cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Number of FindByID calls that went to the catalog.",
	})
)

// CachedCatalog puts a per-instance LRU with TTL in front of FindByID.
// Writes through this instance invalidate their entry; writes made by other
// instances become visible once the TTL expires.
type CachedCatalog struct {
	Catalog
	cache *expirable.LRU[int64, models.FileRecord]
}

// NewCachedCatalog wraps next. maxSize must be positive.
func NewCachedCatalog(next Catalog, maxSize int, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		Catalog: next,
		cache:   expirable.NewLRU[int64, models.FileRecord](maxSize, nil, ttl),
	}
}

func (c *CachedCatalog) FindByID(ctx context.Context, id int64) (models.FileRecord, error) {
	if r, ok := c.cache.Get(id); ok {
		cacheHitsTotal.Inc()
		return r, nil
	}
	cacheMissesTotal.Inc()

	r, err := c.Catalog.FindByID(ctx, id)
	if err != nil {
		return models.FileRecord{}, err
	}
	c.cache.Add(id, r)
	return r, nil
}

func (c *CachedCatalog) Create(ctx context.Context, record models.FileRecord) (models.FileRecord, error) {
	created, err := c.Catalog.Create(ctx, record)
	if err != nil {
		return models.FileRecord{}, err
	}
	c.cache.Add(created.ID, created)
	return created, nil
}

func (c *CachedCatalog) Update(ctx context.Context, id int64, changes models.FileChanges) (models.FileRecord, error) {
	c.cache.Remove(id)
	updated, err := c.Catalog.Update(ctx, id, changes)
	if err != nil {
		return models.FileRecord{}, err
	}
	c.cache.Add(id, updated)
	return updated, nil
}

func (c *CachedCatalog) Delete(ctx context.Context, id int64) (bool, error) {
	c.cache.Remove(id)
	deleted, err := c.Catalog.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	// a FindByID racing the delete may have re-cached the record
	c.cache.Remove(id)
	return deleted, nil
}

// Len is the number of cached records.
func (c *CachedCatalog) Len() int {
	return c.cache.Len()
}
