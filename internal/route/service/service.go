package service

import (
	"context"
	"errors"
	"log/slog"

	"filetrack/internal/route/metrics"
	"filetrack/internal/route/models"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/sentinel"
	"filetrack/pkg/requestcontext"
)

// RouteStore is the Route Repository port.
type RouteStore interface {
	Save(ctx context.Context, route *models.Route) error
	FindByFileType(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error)
	List(ctx context.Context) ([]*models.Route, error)
}

// AdministrationStore is the administration directory port.
type AdministrationStore interface {
	UpsertAdministration(ctx context.Context, admin models.Administration) error
	FindAdministration(ctx context.Context, adminID id.AdministrationID) (*models.Administration, error)
	ListAdministrations(ctx context.Context) ([]models.Administration, error)
}

// UnknownAdministrationName is displayed for administrations missing from the directory.
const UnknownAdministrationName = "Unknown Admin"

// ConfigureRequest is the payload for saving a file type's route.
type ConfigureRequest struct {
	FileTypeID   id.FileTypeID
	FileTypeName string
	Departments  []id.AdministrationID
	Closure      bool
}

// Service manages routes and resolves them for file creation.
type Service struct {
	routes  RouteStore
	admins  AdministrationStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(routes RouteStore, admins AdministrationStore, opts ...Option) *Service {
	s := &Service{
		routes: routes,
		admins: admins,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure validates and saves the route for a file type, replacing any previous one.
func (s *Service) Configure(ctx context.Context, req ConfigureRequest) (*models.Route, error) {
	route, err := models.NewRoute(req.FileTypeID, req.FileTypeName, req.Departments, req.Closure)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	route.CreatedBy = requestcontext.AdministrationID(ctx)
	route.CreatedAt = now
	route.UpdatedAt = now
	if existing, err := s.routes.FindByFileType(ctx, req.FileTypeID); err == nil {
		route.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load route")
	}

	if err := s.routes.Save(ctx, route); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save route")
	}
	s.metrics.IncRoutesConfigured()
	s.logger.InfoContext(ctx, "route configured",
		"file_type_id", route.FileTypeID,
		"stations", route.Len(),
		"closure", route.HasClosure(),
		"administration_id", route.CreatedBy,
	)
	return route, nil
}

// AssignRoute returns the route a file of the given type must follow. A missing route
// is fatal to file creation; no default route is assumed.
func (s *Service) AssignRoute(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error) {
	route, err := s.routes.FindByFileType(ctx, fileTypeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncLookup("not_found")
			return nil, dErrors.New(dErrors.CodeRouteNotFound, "no route configured for file type "+fileTypeID.String())
		}
		s.metrics.IncLookup("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "route repository unavailable")
	}
	s.metrics.IncLookup("found")
	return route, nil
}

// List returns every configured route.
func (s *Service) List(ctx context.Context) ([]*models.Route, error) {
	routes, err := s.routes.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list routes")
	}
	return routes, nil
}

// RegisterAdministration adds or renames an administration in the directory.
func (s *Service) RegisterAdministration(ctx context.Context, admin models.Administration) error {
	if admin.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "administration id required")
	}
	if err := s.admins.UpsertAdministration(ctx, admin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save administration")
	}
	return nil
}

// AdministrationName resolves a display name, falling back to UnknownAdministrationName.
func (s *Service) AdministrationName(ctx context.Context, adminID id.AdministrationID) string {
	admin, err := s.admins.FindAdministration(ctx, adminID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "administration lookup failed",
				"administration_id", adminID,
				"error", err,
			)
		}
		return UnknownAdministrationName
	}
	if admin.Name == "" {
		return UnknownAdministrationName
	}
	return admin.Name
}

// AdministrationNames resolves display names for every station of a route.
func (s *Service) AdministrationNames(ctx context.Context, route *models.Route) map[id.AdministrationID]string {
	names := make(map[id.AdministrationID]string, route.Len())
	for i := range route.Len() {
		a := route.At(i)
		if _, ok := names[a]; ok {
			continue
		}
		names[a] = s.AdministrationName(ctx, a)
	}
	return names
}

// ListAdministrations returns the administration directory.
func (s *Service) ListAdministrations(ctx context.Context) ([]models.Administration, error) {
	admins, err := s.admins.ListAdministrations(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list administrations")
	}
	return admins, nil
}
