package layout

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/MeKo-Tech/layocr/internal/utils"
	"github.com/redis/go-redis/v9"
)

// Cache stores encoded detector responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedDetector serves repeated detections of the same page, model and
// threshold from a Cache. Cache failures are logged and fall through to the
// wrapped detector.
type CachedDetector struct {
	next  Detector
	cache Cache
	ttl   time.Duration
}

// NewCachedDetector wraps next with cache.
func NewCachedDetector(next Detector, cache Cache, ttl time.Duration) *CachedDetector {
	return &CachedDetector{next: next, cache: cache, ttl: ttl}
}

// Detect implements Detector.
func (c *CachedDetector) Detect(ctx context.Context, img image.Image, model Model, threshold float64) (*RegionMap, error) {
	key, err := CacheKey(img, model, threshold)
	if err != nil {
		return nil, &DetectionError{Model: model, Err: err}
	}

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		slog.Warn("layout cache read failed", "key", key, "error", err)
	} else if ok {
		regions, err := ParseDetections(bytes.NewReader(data))
		if err == nil {
			slog.Debug("layout cache hit", "key", key, "regions", regions.Len())
			return regions, nil
		}
		slog.Warn("discarding corrupt layout cache entry", "key", key, "error", err)
	}

	regions, err := c.next.Detect(ctx, img, model, threshold)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(regions)
	if err != nil {
		slog.Warn("layout cache encode failed", "key", key, "error", err)
		return regions, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		slog.Warn("layout cache write failed", "key", key, "error", err)
	}
	return regions, nil
}

// CacheKey derives the cache key from the PNG encoding of img, the model
// and the threshold.
func CacheKey(img image.Image, model Model, threshold float64) (string, error) {
	data, err := utils.EncodePNG(img)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(threshold, 'f', -1, 64)))
	return "layocr:layout:" + hex.EncodeToString(h.Sum(nil)), nil
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rdb *redis.Client
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects to Redis and pings it.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
