package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"filetrack/internal/file/journal"
	"filetrack/internal/file/metrics"
	"filetrack/internal/file/models"
	"filetrack/internal/file/store"
	routemodels "filetrack/internal/route/models"
	routeservice "filetrack/internal/route/service"
	routestore "filetrack/internal/route/store"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/sentinel"
	"filetrack/pkg/testutil"
)

var fixedNow = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

type FileServiceSuite struct {
	suite.Suite
	files   *store.InMemory
	routes  *routeservice.Service
	journal *journal.MemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestFileServiceSuite(t *testing.T) {
	suite.Run(t, new(FileServiceSuite))
}

func (s *FileServiceSuite) SetupTest() {
	routes := routestore.NewInMemory()
	s.routes = routeservice.New(routes, routes)
	s.files = store.NewInMemory()
	s.journal = journal.NewMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.files, s.routes,
		WithDirectory(s.routes),
		WithJournal(journal.NewPublisher(s.journal, s.journal)),
		WithMetrics(s.metrics),
	)

	ctx := testutil.ActingContext("root", fixedNow)
	s.configure(ctx, "permit", false, "A", "B")
	s.configure(ctx, "license", true, "A", "B", "C")
	s.Require().NoError(s.routes.RegisterAdministration(ctx, routemodels.Administration{ID: "A", Name: "Intake"}))
}

func (s *FileServiceSuite) configure(ctx context.Context, fileType id.FileTypeID, closure bool, departments ...id.AdministrationID) {
	_, err := s.routes.Configure(ctx, routeservice.ConfigureRequest{
		FileTypeID:  fileType,
		Departments: departments,
		Closure:     closure,
	})
	s.Require().NoError(err)
}

func (s *FileServiceSuite) as(admin id.AdministrationID) context.Context {
	return testutil.ActingContext(admin, fixedNow)
}

func (s *FileServiceSuite) create(fileType id.FileTypeID) *models.File {
	f, err := s.service.Create(s.as("A"), models.CreateRequest{
		FileTypeID: fileType,
		Citizen:    models.Citizen{Name: "  Amina Benali ", NationalID: "AB123"},
		Documents:  []string{"id card", " id card", "birth certificate"},
	})
	s.Require().NoError(err)
	return f
}

func (s *FileServiceSuite) TestCreate() {
	s.Run("seeds the file at the route origin", func() {
		f := s.create("permit")

		s.Equal(id.AdministrationID("A"), f.CurrentAdministration)
		s.Equal(id.AdministrationID("B"), f.NextAdministration)
		s.Equal(models.StatusPending, f.Status)
		s.Equal(id.AdministrationID("A"), f.CreatedBy)
		s.Equal("Amina Benali", f.Citizen.Name)
		s.Equal([]string{"id card", "birth certificate"}, f.Documents)
		s.Regexp(regexp.MustCompile(`^TRK-\d+-\d{1,4}$`), f.TrackingNumber.String())

		events, err := s.journal.ListByFile(context.Background(), f.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventFileCreated, events[0].Type)
	})

	s.Run("missing route is fatal", func() {
		_, err := s.service.Create(s.as("A"), models.CreateRequest{
			FileTypeID: "passport",
			Citizen:    models.Citizen{Name: "Amina", NationalID: "AB123"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeRouteNotFound))
	})

	s.Run("citizen identity is required", func() {
		_, err := s.service.Create(s.as("A"), models.CreateRequest{FileTypeID: "permit"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.FilesCreated))
}

// collidingStore reports a tracking number conflict for the first n creates.
type collidingStore struct {
	*store.InMemory
	remaining atomic.Int32
}

func (c *collidingStore) Create(ctx context.Context, f *models.File) error {
	if c.remaining.Add(-1) >= 0 {
		return sentinel.ErrConflict
	}
	return c.InMemory.Create(ctx, f)
}

func (s *FileServiceSuite) TestCreateRetriesTrackingCollisions() {
	files := &collidingStore{InMemory: store.NewInMemory()}
	files.remaining.Store(2)
	svc := New(files, s.routes, WithMetrics(s.metrics))

	_, err := svc.Create(s.as("A"), models.CreateRequest{
		FileTypeID: "permit",
		Citizen:    models.Citizen{Name: "Amina", NationalID: "AB123"},
	})
	s.Require().NoError(err)
	s.Equal(float64(2), promtestutil.ToFloat64(s.metrics.TrackingCollisions))

	files.remaining.Store(maxTrackingAttempts)
	_, err = svc.Create(s.as("A"), models.CreateRequest{
		FileTypeID: "permit",
		Citizen:    models.Citizen{Name: "Amina", NationalID: "AB123"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *FileServiceSuite) TestAdvance() {
	f := s.create("permit")

	s.Run("in transit completes the holder's station", func() {
		updated, err := s.service.Advance(s.as("A"), f.ID, "in transit", "checked documents")
		s.Require().NoError(err)
		s.Equal(models.StationCompleted, updated.StationStatuses["A"])
		s.True(updated.Status.Is(models.StatusInTransit))
		s.Equal(id.AdministrationID("A"), updated.CurrentAdministration)
		s.Equal("checked documents", updated.Notes)
	})

	s.Run("only the holder can change the status", func() {
		_, err := s.service.Advance(s.as("B"), f.ID, "approved", "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown statuses are refused in strict mode", func() {
		_, err := s.service.Advance(s.as("A"), f.ID, "Archived", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown file", func() {
		_, err := s.service.Advance(s.as("A"), id.NewFileID(), "approved", "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *FileServiceSuite) TestLenientStatuses() {
	svc := New(s.files, s.routes, WithStrictStatuses(false))
	f := s.create("permit")

	updated, err := svc.Advance(s.as("A"), f.ID, "Archived", "")
	s.Require().NoError(err)
	s.Equal(models.Status("Archived"), updated.Status)
	s.Equal(models.StationStatus("Archived"), updated.StationStatuses["A"])

	_, err = svc.Advance(s.as("A"), f.ID, "   ", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *FileServiceSuite) TestEndToEnd() {
	t := s.T()
	f := s.create("permit")

	testutil.Given(t, "a file created on route [A, B]", func(t *testing.T) {
		assert.Equal(t, map[id.AdministrationID]models.StationStatus{
			"A": models.StationPending,
			"B": models.StationPending,
		}, f.StationStatuses)
	})

	testutil.When(t, "A sends it on", func(t *testing.T) {
		updated, err := s.service.Advance(s.as("A"), f.ID, "in transit", "")
		require.NoError(t, err)
		assert.Equal(t, models.StationCompleted, updated.StationStatuses["A"])

		incoming, err := s.service.ListIncoming(s.as("B"))
		require.NoError(t, err)
		assert.Len(t, incoming, 1)
	})

	testutil.Then(t, "B receives it and becomes the terminal holder", func(t *testing.T) {
		received, err := s.service.ReceiveAt(s.as("B"), f.ID)
		require.NoError(t, err)
		assert.Equal(t, id.AdministrationID("B"), received.CurrentAdministration)
		assert.False(t, received.HasNext())
		assert.Equal(t, models.StationInReview, received.StationStatuses["B"])
		assert.Equal(t, models.SourceTransferred, received.Source)
	})

	testutil.And(t, "a second receipt is unauthorized", func(t *testing.T) {
		_, err := s.service.ReceiveAt(s.as("B"), f.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Equal(t, float64(1), promtestutil.ToFloat64(s.metrics.ReceiveRefused))
	})

	testutil.And(t, "the journal has every step", func(t *testing.T) {
		history, err := s.service.History(s.as("B"), f.ID)
		require.NoError(t, err)
		types := make([]journal.EventType, 0, len(history))
		for _, e := range history {
			types = append(types, e.Type)
		}
		assert.Equal(t, []journal.EventType{
			journal.EventFileCreated, journal.EventStatusChanged, journal.EventFileReceived,
		}, types)
	})
}

func (s *FileServiceSuite) TestReceiveAtWrongAdministration() {
	f := s.create("license")
	_, err := s.service.ReceiveAt(s.as("C"), f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	stored, err := s.files.FindByID(context.Background(), f.ID)
	s.Require().NoError(err)
	s.Equal(f.Version, stored.Version, "refused receipt writes nothing")
}

type missingRoutes struct{}

func (missingRoutes) AssignRoute(_ context.Context, fileTypeID id.FileTypeID) (*routemodels.Route, error) {
	return nil, dErrors.New(dErrors.CodeRouteNotFound, "no route configured for file type "+fileTypeID.String())
}

func (s *FileServiceSuite) TestReceiveAtWithoutRoute() {
	f := s.create("permit")
	svc := New(s.files, missingRoutes{})
	_, err := svc.ReceiveAt(s.as("B"), f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeRouteNotFound))
}

func (s *FileServiceSuite) TestReceiveAtChecksReceiverBeforeRoute() {
	f := s.create("permit")
	svc := New(s.files, missingRoutes{})
	_, err := svc.ReceiveAt(s.as("C"), f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *FileServiceSuite) TestConcurrentReceiversOnlyOneWins() {
	f := s.create("permit")

	var wg sync.WaitGroup
	var wins atomic.Int32
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.ReceiveAt(s.as("B"), f.ID); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *FileServiceSuite) TestClosureRoundTrip() {
	f := s.create("license")
	for _, receiver := range []id.AdministrationID{"B", "C", "A"} {
		holder, err := s.service.Get(s.as(receiver), f.ID)
		s.Require().NoError(err)
		_, err = s.service.Advance(s.as(holder.CurrentAdministration), f.ID, "in transit", "")
		s.Require().NoError(err)
		_, err = s.service.ReceiveAt(s.as(receiver), f.ID)
		s.Require().NoError(err)
	}
	_, err := s.service.Advance(s.as("A"), f.ID, "approved", "")
	s.Require().NoError(err)

	view, err := s.service.Track(context.Background(), "  "+f.TrackingNumber.String())
	s.Require().NoError(err)
	s.Require().Len(view.Timeline, 4)
	last := view.Timeline[3]
	s.True(last.IsClosure)
	s.True(last.IsCurrent)
	s.Equal("approved", last.DisplayStatus)
	s.Equal("Intake", last.Name)
	s.Equal("completed", view.Timeline[2].DisplayStatus)
	s.Equal("Unknown Admin", view.Timeline[1].Name)
}

func (s *FileServiceSuite) TestReject() {
	f := s.create("permit")

	blocked, err := s.service.Reject(s.as("A"), f.ID, "missing stamp")
	s.Require().NoError(err)
	s.Equal(models.StatusBlocked, blocked.Status)
	s.Equal(models.StationPending, blocked.StationStatuses["A"])

	held, err := s.service.ListHeld(s.as("A"), "blocked")
	s.Require().NoError(err)
	s.Len(held, 1)

	_, err = s.service.Reject(s.as("B"), f.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *FileServiceSuite) TestTrackUnknown() {
	_, err := s.service.Track(context.Background(), "TRK-1-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Track(context.Background(), "nonsense")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

type brokenStore struct {
	*store.InMemory
}

func (brokenStore) FindByID(context.Context, id.FileID) (*models.File, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (s *FileServiceSuite) TestStoreUnavailable() {
	svc := New(brokenStore{store.NewInMemory()}, s.routes)
	_, err := svc.Get(s.as("A"), id.NewFileID())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
