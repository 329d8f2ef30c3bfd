package walking

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/models"
)

// CachedProvider memoizes another provider in an LRU cache with expiry
type CachedProvider struct {
	next   Provider
	cache  gcache.Cache
	logger *logrus.Logger
}

// NewCachedProvider wraps next with a cache of at most size entries
func NewCachedProvider(next Provider, size int, ttl time.Duration, logger *logrus.Logger) *CachedProvider {
	if size <= 0 {
		size = 1000
	}
	builder := gcache.New(size).LRU()
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	return &CachedProvider{
		next:   next,
		cache:  builder.Build(),
		logger: logger,
	}
}

// quantize rounds to 4 decimal places (~11m)
func quantize(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// cacheKey quantizes the free-form origin; the destination is usually a stop and kept precise
func cacheKey(from, to models.Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f,%.6f,%.6f", quantize(from.Lat), quantize(from.Lng), to.Lat, to.Lng)
}

// Route returns a cached leg when one exists for the quantized endpoints
func (p *CachedProvider) Route(ctx context.Context, from, to models.Coordinate) (*models.WalkingLeg, error) {
	key := cacheKey(from, to)
	if cached, err := p.cache.Get(key); err == nil {
		if leg, ok := cached.(*models.WalkingLeg); ok {
			p.logger.WithField("key", key).Debug("Walking cache hit")
			copied := *leg
			copied.From, copied.To = from, to
			return &copied, nil
		}
	}

	leg, err := p.next.Route(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(key, leg); err != nil {
		p.logger.WithError(err).Warn("Failed to cache walking leg")
	}
	return leg, nil
}

// Len returns the number of cached legs
func (p *CachedProvider) Len() int {
	return p.cache.Len(false)
}
