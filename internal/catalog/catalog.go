// Package catalog resolves and manages the service catalog.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"salonbot/internal/database"
	"salonbot/internal/models"
)

const activeServicesKey = "catalog:active_services"

// Catalog serves service lookups, optionally through a Redis
// read-through cache of the active list.
type Catalog struct {
	db       *database.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// New creates a catalog over the store.
func New(db *database.DB, logger zerolog.Logger) *Catalog {
	return &Catalog{
		db:     db,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// UseRedisCache configures optional Redis caching of the active list.
func (c *Catalog) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// ActiveServices returns the active catalog entries, name-ordered.
func (c *Catalog) ActiveServices(ctx context.Context) ([]models.Service, error) {
	var cached []models.Service
	if c.readCache(ctx, &cached) {
		return cached, nil
	}

	services, err := c.db.ListActiveServices(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, services)
	return services, nil
}

// ResolveService matches user text against active services,
// case-insensitive: exact name first, then substring; first match
// wins. Returns nil when nothing matches.
func (c *Catalog) ResolveService(ctx context.Context, text string) (*models.Service, error) {
	services, err := c.ActiveServices(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil, nil
	}

	for i := range services {
		if strings.ToLower(services[i].Name) == needle {
			return &services[i], nil
		}
	}
	for i := range services {
		if strings.Contains(strings.ToLower(services[i].Name), needle) {
			return &services[i], nil
		}
	}
	return nil, nil
}

// ServiceByID returns an entry regardless of its active flag.
func (c *Catalog) ServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	return c.db.GetServiceByID(ctx, id)
}

// AllServices returns every entry, deactivated ones included, for the
// operator screens.
func (c *Catalog) AllServices(ctx context.Context) ([]models.Service, error) {
	return c.db.ListAllServices(ctx)
}

// AddService creates a catalog entry and invalidates the cache.
func (c *Catalog) AddService(ctx context.Context, s *models.Service) error {
	if err := c.db.CreateService(ctx, s); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.Info().Str("name", s.Name).Msg("service added")
	return nil
}

// UpdateService edits a catalog entry and invalidates the cache.
func (c *Catalog) UpdateService(ctx context.Context, s *models.Service) error {
	if err := c.db.UpdateService(ctx, s); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// DeactivateService hides a service; the row stays for historical
// lookups.
func (c *Catalog) DeactivateService(ctx context.Context, id int64) error {
	if err := c.db.DeactivateService(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.Info().Int64("service_id", id).Msg("service deactivated")
	return nil
}

func (c *Catalog) readCache(ctx context.Context, out *[]models.Service) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, activeServicesKey).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Catalog) writeCache(ctx context.Context, services []models.Service) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(services)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, activeServicesKey, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("cache write failed")
	}
}

func (c *Catalog) invalidate(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, activeServicesKey).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("cache invalidation failed")
	}
}
