package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"filetrack/internal/route/metrics"
	"filetrack/internal/route/models"
	"filetrack/internal/route/store"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/requestcontext"
)

type failingRoutes struct {
	store.InMemory
}

func (f *failingRoutes) FindByFileType(context.Context, id.FileTypeID) (*models.Route, error) {
	return nil, errors.New("connection refused")
}

type RouteServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestRouteServiceSuite(t *testing.T) {
	suite.Run(t, new(RouteServiceSuite))
}

func (s *RouteServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.store, WithMetrics(s.metrics))
	s.ctx = requestcontext.WithAdministrationID(context.Background(), "admin-root")
	s.ctx = requestcontext.WithTime(s.ctx, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func (s *RouteServiceSuite) TestConfigure() {
	s.Run("closure appends origin and records the author", func() {
		route, err := s.service.Configure(s.ctx, ConfigureRequest{
			FileTypeID:   "permit",
			FileTypeName: "Building permit",
			Departments:  []id.AdministrationID{"intake", "urbanism"},
			Closure:      true,
		})
		s.Require().NoError(err)
		s.Equal([]id.AdministrationID{"intake", "urbanism", "intake"}, route.Stations())
		s.Equal(id.AdministrationID("admin-root"), route.CreatedBy)
	})

	s.Run("re-saving keeps the original creation time", func() {
		later := requestcontext.WithTime(s.ctx, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
		route, err := s.service.Configure(later, ConfigureRequest{
			FileTypeID:  "permit",
			Departments: []id.AdministrationID{"intake"},
		})
		s.Require().NoError(err)
		s.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), route.CreatedAt)
		s.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), route.UpdatedAt)
	})

	s.Run("empty department list is a validation error", func() {
		_, err := s.service.Configure(s.ctx, ConfigureRequest{FileTypeID: "permit"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate department is a validation error", func() {
		_, err := s.service.Configure(s.ctx, ConfigureRequest{
			FileTypeID:  "permit",
			Departments: []id.AdministrationID{"A", "A"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Equal(float64(2), testutil.ToFloat64(s.metrics.RoutesConfigured))
}

func (s *RouteServiceSuite) TestAssignRoute() {
	_, err := s.service.Configure(s.ctx, ConfigureRequest{
		FileTypeID:  "permit",
		Departments: []id.AdministrationID{"A", "B"},
	})
	s.Require().NoError(err)

	s.Run("returns the configured route", func() {
		route, err := s.service.AssignRoute(s.ctx, "permit")
		s.Require().NoError(err)
		s.Equal(id.AdministrationID("A"), route.Origin())
	})

	s.Run("missing route is route_not_found", func() {
		_, err := s.service.AssignRoute(s.ctx, "passport")
		s.True(dErrors.HasCode(err, dErrors.CodeRouteNotFound))
	})

	s.Run("store failure is unavailable", func() {
		svc := New(&failingRoutes{}, s.store)
		_, err := svc.AssignRoute(s.ctx, "permit")
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *RouteServiceSuite) TestAdministrationNames() {
	s.Require().NoError(s.service.RegisterAdministration(s.ctx, models.Administration{ID: "A", Name: "Civil Registry"}))
	route, err := models.NewRoute("permit", "", []id.AdministrationID{"A", "B"}, true)
	s.Require().NoError(err)

	names := s.service.AdministrationNames(s.ctx, route)
	s.Equal(map[id.AdministrationID]string{
		"A": "Civil Registry",
		"B": UnknownAdministrationName,
	}, names)

	s.Error(s.service.RegisterAdministration(s.ctx, models.Administration{Name: "nameless"}))
}
