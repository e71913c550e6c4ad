//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"filetrack/internal/route/metrics"
	"filetrack/internal/route/models"
	"filetrack/internal/route/store"
	id "filetrack/pkg/domain"
	"filetrack/pkg/platform/sentinel"
	"filetrack/pkg/testutil/containers"
)

// countingBackend counts reads that reach the durable store.
type countingBackend struct {
	*store.InMemory
	reads atomic.Int32
}

func (b *countingBackend) FindByFileType(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error) {
	b.reads.Add(1)
	time.Sleep(20 * time.Millisecond)
	return b.InMemory.FindByFileType(ctx, fileTypeID)
}

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *countingBackend
	metrics *metrics.Metrics
	cache   *store.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backend = &countingBackend{InMemory: store.NewInMemory()}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = store.NewCached(s.backend, s.redis.Client, time.Minute, store.WithCacheMetrics(s.metrics))
}

func (s *CachedStoreSuite) seed(stations ...id.AdministrationID) {
	route, err := models.NewRoute("permit", "Permit", stations, true)
	s.Require().NoError(err)
	s.Require().NoError(s.backend.InMemory.Save(context.Background(), route))
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	s.seed("A", "B")

	first, err := s.cache.FindByFileType(ctx, "permit")
	s.Require().NoError(err)
	second, err := s.cache.FindByFileType(ctx, "permit")
	s.Require().NoError(err)

	s.Equal(first.Stations(), second.Stations())
	s.Equal(int32(1), s.backend.reads.Load())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheHits))
}

func (s *CachedStoreSuite) TestConcurrentMissesCollapse() {
	ctx := context.Background()
	s.seed("A", "B", "C")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.cache.FindByFileType(ctx, "permit")
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Less(s.backend.reads.Load(), int32(20))
}

func (s *CachedStoreSuite) TestSaveInvalidates() {
	ctx := context.Background()
	s.seed("A", "B")
	_, err := s.cache.FindByFileType(ctx, "permit")
	s.Require().NoError(err)

	updated, err := models.NewRoute("permit", "Permit", []id.AdministrationID{"A", "C"}, false)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Save(ctx, updated))

	found, err := s.cache.FindByFileType(ctx, "permit")
	s.Require().NoError(err)
	s.Equal([]id.AdministrationID{"A", "C"}, found.Stations())
}

func (s *CachedStoreSuite) TestMissingRouteIsNotCached() {
	_, err := s.cache.FindByFileType(context.Background(), "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
