package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"media_relay_bot/internal/pkg/media/domain"
	"media_relay_bot/internal/pkg/metrics"
)

// CachedRepository keeps recently resolved records in an expirable LRU.
// Records never change after insert except for SetThumbnail, which invalidates.
type CachedRepository struct {
	Repository
	cache *expirable.LRU[string, *domain.MediaRecord]
}

func NewCachedRepository(repo Repository, size int, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		Repository: repo,
		cache:      expirable.NewLRU[string, *domain.MediaRecord](size, nil, ttl),
	}
}

func (c *CachedRepository) GetByKey(ctx context.Context, key string) (*domain.MediaRecord, error) {
	if rec, ok := c.cache.Get(key); ok {
		metrics.RecordCacheTotal.WithLabelValues("hit").Inc()
		cp := *rec
		return &cp, nil
	}
	metrics.RecordCacheTotal.WithLabelValues("miss").Inc()

	rec, err := c.Repository.GetByKey(ctx, key)
	if err != nil || rec == nil {
		return rec, err
	}
	cp := *rec
	c.cache.Add(key, &cp)
	return rec, nil
}

func (c *CachedRepository) SetThumbnail(ctx context.Context, key, thumbnailRef string) error {
	c.cache.Remove(key)
	return c.Repository.SetThumbnail(ctx, key, thumbnailRef)
}
