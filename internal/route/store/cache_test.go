package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filetrack/internal/route/metrics"
	"filetrack/internal/route/models"
	"filetrack/internal/route/store"
	id "filetrack/pkg/domain"
	"filetrack/pkg/platform/circuit"
)

func TestCachedStoreBypassesUnreachableRedis(t *testing.T) {
	ctx := context.Background()
	backend := store.NewInMemory()
	route, err := models.NewRoute("permit", "Permit", []id.AdministrationID{"A", "B"}, false)
	require.NoError(t, err)
	require.NoError(t, backend.Save(ctx, route))

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New(prometheus.NewRegistry())
	breaker := circuit.New("route-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	cache := store.NewCached(backend, client, time.Minute,
		store.WithCacheMetrics(m),
		store.WithCacheBreaker(breaker),
	)

	for range 3 {
		got, err := cache.FindByFileType(ctx, "permit")
		require.NoError(t, err, "backend stays authoritative")
		assert.Equal(t, route.Departments(), got.Departments())
	}

	assert.True(t, breaker.IsOpen())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheErrors), "open breaker skips redis")
	assert.Equal(t, float64(3), testutil.ToFloat64(m.CacheMisses))
}

// cancelAwareBackend fails reads on a done context, like a database driver would.
type cancelAwareBackend struct {
	*store.InMemory
}

func (b cancelAwareBackend) FindByFileType(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.InMemory.FindByFileType(ctx, fileTypeID)
}

func TestCachedStoreBackendReadIgnoresCallerCancellation(t *testing.T) {
	backend := store.NewInMemory()
	route, err := models.NewRoute("permit", "Permit", []id.AdministrationID{"A", "B"}, false)
	require.NoError(t, err)
	require.NoError(t, backend.Save(context.Background(), route))

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cache := store.NewCached(cancelAwareBackend{backend}, client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := cache.FindByFileType(ctx, "permit")
	require.NoError(t, err, "shared lookup must not inherit the caller's cancellation")
	assert.Equal(t, route.Departments(), got.Departments())
}
