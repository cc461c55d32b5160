package cache

import (
	"fmt"

	"github.com/hospfin/backend/internal/application/dashboard"
	"github.com/hospfin/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StatsCacheFactory creates stats caches based on configuration
type StatsCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StatsCacheFactoryOption is a functional option for configuring the factory
type StatsCacheFactoryOption func(*StatsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StatsCacheFactoryOption {
	return func(f *StatsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StatsCacheFactoryOption {
	return func(f *StatsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStatsCacheFactory creates a new factory
func NewStatsCacheFactory(cfg config.RedisConfig, opts ...StatsCacheFactoryOption) *StatsCacheFactory {
	f := &StatsCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based stats cache
func (f *StatsCacheFactory) CreateRedisCache() (dashboard.StatsCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisStatsCache(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis stats cache: %w", err)
	}

	return c, nil
}

// CreateInMemoryCache creates an in-memory stats cache
// This is suitable for single-instance deployments and testing
// WARNING: in-memory caches do not share state across process instances,
// so invalidation on one instance leaves stale entries on the others
func (f *StatsCacheFactory) CreateInMemoryCache() dashboard.StatsCache {
	return NewInMemoryStatsCache()
}

// CreateCache creates a stats cache based on whether Redis is available
// It tries Redis first and falls back to in-memory when Redis is unavailable
// and AllowInMemoryFallback is true
func (f *StatsCacheFactory) CreateCache() (dashboard.StatsCache, error) {
	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis stats cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for stats cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stats cache. "+
		"Dashboard invalidation will not propagate across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
