package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"filetrack/internal/route/metrics"
	"filetrack/internal/route/models"
	id "filetrack/pkg/domain"
	"filetrack/pkg/platform/circuit"
)

const routeKeyPrefix = "route:"

// Backend is the durable route store the cache reads through to.
type Backend interface {
	Save(ctx context.Context, route *models.Route) error
	FindByFileType(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error)
	List(ctx context.Context) ([]*models.Route, error)
	UpsertAdministration(ctx context.Context, admin models.Administration) error
	FindAdministration(ctx context.Context, adminID id.AdministrationID) (*models.Administration, error)
	ListAdministrations(ctx context.Context) ([]models.Administration, error)
}

// CachedStore is a Redis read-through cache in front of a Backend. Concurrent misses
// for the same file type collapse into one backend read, which runs detached from the
// first caller's cancellation so other waiters are not failed by it. Redis failures
// are logged and bypassed; the backend stays authoritative. With a breaker, repeated
// Redis failures stop cache reads until a probe succeeds.
//
// A miss that reads the backend before a concurrent Save invalidates the key can
// write the previous route back, so a re-saved route may be served stale for up to
// the TTL.
type CachedStore struct {
	Backend
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
}

type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedStore) {
		c.metrics = m
	}
}

func WithCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedStore) {
		c.breaker = b
	}
}

func NewCached(backend Backend, client *redis.Client, ttl time.Duration, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		Backend: backend,
		client:  client,
		ttl:     ttl,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type cachedRoute struct {
	FileTypeID   string    `json:"file_type_id"`
	FileTypeName string    `json:"file_type_name"`
	Stations     []string  `json:"stations"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Save writes through to the backend and invalidates the cached entry.
func (c *CachedStore) Save(ctx context.Context, route *models.Route) error {
	if err := c.Backend.Save(ctx, route); err != nil {
		return err
	}
	if err := c.client.Del(ctx, routeKey(route.FileTypeID)).Err(); err != nil {
		c.metrics.IncCacheError()
		c.logger.WarnContext(ctx, "route cache invalidation failed",
			"file_type_id", route.FileTypeID,
			"error", err,
		)
	}
	return nil
}

func (c *CachedStore) FindByFileType(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error) {
	key := routeKey(fileTypeID)
	useCache := c.allow()
	if useCache {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.record(ctx, nil)
			if route, decodeErr := decodeRoute(raw); decodeErr == nil {
				c.metrics.IncCacheHit()
				return route, nil
			}
			c.metrics.IncCacheError()
		case errors.Is(err, redis.Nil):
			c.record(ctx, nil)
		default:
			c.metrics.IncCacheError()
			c.logger.WarnContext(ctx, "route cache read failed",
				"file_type_id", fileTypeID,
				"error", err,
			)
			useCache = c.record(ctx, err)
		}
	}
	c.metrics.IncCacheMiss()

	v, err, _ := c.group.Do(key, func() (any, error) {
		lookupCtx := context.WithoutCancel(ctx)
		route, err := c.Backend.FindByFileType(lookupCtx, fileTypeID)
		if err != nil {
			return nil, err
		}
		if !useCache {
			return route, nil
		}
		if payload, err := encodeRoute(route); err == nil {
			if err := c.client.Set(lookupCtx, key, payload, c.ttl).Err(); err != nil {
				c.metrics.IncCacheError()
				c.record(lookupCtx, err)
			}
		}
		return route, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Route), nil
}

func (c *CachedStore) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

// record feeds a Redis outcome to the breaker and reports whether the cache is
// still usable.
func (c *CachedStore) record(ctx context.Context, err error) bool {
	if c.breaker == nil {
		return err == nil
	}
	if err == nil {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "route cache recovered", "breaker", c.breaker.Name())
		}
		return true
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "route cache disabled after repeated failures", "breaker", c.breaker.Name())
	}
	return false
}

func routeKey(fileTypeID id.FileTypeID) string {
	return routeKeyPrefix + fileTypeID.String()
}

func encodeRoute(route *models.Route) ([]byte, error) {
	stations := make([]string, route.Len())
	for i := range stations {
		stations[i] = route.At(i).String()
	}
	return json.Marshal(cachedRoute{
		FileTypeID:   route.FileTypeID.String(),
		FileTypeName: route.FileTypeName,
		Stations:     stations,
		CreatedBy:    route.CreatedBy.String(),
		CreatedAt:    route.CreatedAt,
		UpdatedAt:    route.UpdatedAt,
	})
}

func decodeRoute(raw []byte) (*models.Route, error) {
	var cr cachedRoute
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, err
	}
	stations := make([]id.AdministrationID, len(cr.Stations))
	for i, s := range cr.Stations {
		stations[i] = id.AdministrationID(s)
	}
	route, err := models.FromStations(id.FileTypeID(cr.FileTypeID), cr.FileTypeName, stations)
	if err != nil {
		return nil, err
	}
	route.CreatedBy = id.AdministrationID(cr.CreatedBy)
	route.CreatedAt = cr.CreatedAt
	route.UpdatedAt = cr.UpdatedAt
	return route, nil
}
