package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
)

const (
	forecastKeyPrefix     = "forecast:"
	forecastScanBatchSize = 100
)

// redisForecastCache backs the hourly forecaster's cache with redis so
// forecasts survive process restarts and are shared across instances.
// Redis failures degrade to a miss rather than failing the request.
type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewForecastCache returns a redis-backed forecast.Cache, or nil when
// caching is disabled so the forecaster falls back to its in-process cache.
func NewForecastCache(cfg config.CacheConfig) (forecast.Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func (c *redisForecastCache) Get(ctx context.Context, key string) (forecast.HourlyForecast, bool) {
	payload, err := c.client.Get(ctx, forecastKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return forecast.HourlyForecast{}, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("forecast cache read failed")
		return forecast.HourlyForecast{}, false
	}

	var fc forecast.HourlyForecast
	if err := json.Unmarshal(payload, &fc); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("forecast cache payload corrupt")
		return forecast.HourlyForecast{}, false
	}
	return fc, true
}

func (c *redisForecastCache) Set(ctx context.Context, key string, fc forecast.HourlyForecast) {
	payload, err := json.Marshal(fc)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("forecast cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, forecastKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("forecast cache write failed")
	}
}

// InvalidateAll drops every cached forecast, used after a bulk data load.
func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}
