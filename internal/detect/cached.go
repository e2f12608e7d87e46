package detect

import (
	"context"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/cache"
	"github.com/LdDl/censor-go/internal/logger"
	"github.com/LdDl/censor-go/internal/metrics"
)

// Cached consults detection cache before running the wrapped detector and
// stores fresh results afterwards. Cache failures are logged, never fatal.
type Cached struct {
	detector Detector
	cache    cache.Cache
}

func NewCached(detector Detector, c cache.Cache) *Cached {
	return &Cached{detector: detector, cache: c}
}

func (c *Cached) Name() string { return c.detector.Name() }

func (c *Cached) Detect(ctx context.Context, frame Frame) ([]censor.Detection, error) {
	if frame.Hash == "" {
		return c.detector.Detect(ctx, frame)
	}
	key := cache.Key{Detector: c.detector.Name(), FileHash: frame.Hash, Frame: frame.Index}
	dets, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.L().Warn("detection_cache_get_failed", "key", key.String(), "error", err)
	}
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(c.detector.Name()).Inc()
		return dets, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(c.detector.Name()).Inc()
	dets, err = c.detector.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, dets); err != nil {
		logger.L().Warn("detection_cache_put_failed", "key", key.String(), "error", err)
	}
	return dets, nil
}
