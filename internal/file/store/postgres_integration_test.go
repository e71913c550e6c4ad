//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"filetrack/internal/file/models"
	"filetrack/internal/file/routing"
	"filetrack/internal/file/store"
	routemodels "filetrack/internal/route/models"
	id "filetrack/pkg/domain"
	"filetrack/pkg/platform/sentinel"
	"filetrack/pkg/testutil/containers"
)

type PostgresFileStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	route    *routemodels.Route
}

func TestPostgresFileStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresFileStoreSuite))
}

func (s *PostgresFileStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	route, err := routemodels.NewRoute("permit", "Permit", []id.AdministrationID{"A", "B"}, true)
	s.Require().NoError(err)
	s.route = route
}

func (s *PostgresFileStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "citizen_files"))
}

func (s *PostgresFileStoreSuite) newFile() *models.File {
	now := time.Now().UTC().Truncate(time.Microsecond)
	f := &models.File{
		ID:             id.NewFileID(),
		TrackingNumber: models.NewTrackingNumber(now),
		Citizen:        models.Citizen{Name: "Amina", NationalID: "AB123", Phone: "+212600000000"},
		Documents:      []string{"id card", "proof of address"},
		CreatedBy:      "A",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	routing.Seed(f, s.route)
	return f
}

func (s *PostgresFileStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	f := s.newFile()
	s.Require().NoError(s.store.Create(ctx, f))

	found, err := s.store.FindByTrackingNumber(ctx, f.TrackingNumber)
	s.Require().NoError(err)
	s.Equal(f.ID, found.ID)
	s.Equal(f.Documents, found.Documents)
	s.Equal(f.StationStatuses, found.StationStatuses)
	s.Equal(id.AdministrationID("B"), found.NextAdministration)
	s.Equal(models.SourceNew, found.Source)
	s.True(f.CreatedAt.Equal(found.CreatedAt))

	s.ErrorIs(s.store.Create(ctx, f), sentinel.ErrConflict)
}

func (s *PostgresFileStoreSuite) TestExecuteWalksToClosure() {
	ctx := context.Background()
	f := s.newFile()
	s.Require().NoError(s.store.Create(ctx, f))

	for _, receiver := range []id.AdministrationID{"B", "A"} {
		_, err := s.store.Execute(ctx, f.ID,
			func(*models.File) error { return nil },
			func(f *models.File) { routing.Advance(f, models.StatusInTransit) },
		)
		s.Require().NoError(err)
		_, err = s.store.Execute(ctx, f.ID,
			func(f *models.File) error { return routing.CanReceive(f, receiver) },
			func(f *models.File) { _ = routing.ReceiveAt(f, s.route, receiver) },
		)
		s.Require().NoError(err)
	}

	found, err := s.store.FindByID(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(id.AdministrationID("A"), found.CurrentAdministration)
	s.False(found.HasNext())
	s.Equal(int64(5), found.Version)
}

func (s *PostgresFileStoreSuite) TestRacingReceiversSerialise() {
	ctx := context.Background()
	f := s.newFile()
	s.Require().NoError(s.store.Create(ctx, f))

	var wg sync.WaitGroup
	var wins atomic.Int32
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, f.ID,
				func(f *models.File) error { return routing.CanReceive(f, "B") },
				func(f *models.File) { _ = routing.ReceiveAt(f, s.route, "B") },
			)
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *PostgresFileStoreSuite) TestLists() {
	ctx := context.Background()
	inTransit := s.newFile()
	routing.Advance(inTransit, models.StatusInTransit)
	blocked := s.newFile()
	routing.Reject(blocked)
	s.Require().NoError(s.store.Create(ctx, inTransit))
	s.Require().NoError(s.store.Create(ctx, blocked))

	incoming, err := s.store.ListIncoming(ctx, "B")
	s.Require().NoError(err)
	s.Require().Len(incoming, 1)
	s.Equal(inTransit.ID, incoming[0].ID)

	held, err := s.store.ListByHolder(ctx, "A", models.ListFilter{Status: models.StatusBlocked})
	s.Require().NoError(err)
	s.Require().Len(held, 1)
	s.Equal(blocked.ID, held[0].ID)
}
