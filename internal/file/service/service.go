package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"filetrack/internal/file/journal"
	"filetrack/internal/file/metrics"
	"filetrack/internal/file/models"
	"filetrack/internal/file/routing"
	"filetrack/internal/file/timeline"
	routemodels "filetrack/internal/route/models"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/sentinel"
	strs "filetrack/pkg/platform/strings"
	"filetrack/pkg/requestcontext"
)

const tracerName = "filetrack/internal/file/service"

// maxTrackingAttempts bounds tracking number regeneration on collision.
const maxTrackingAttempts = 5

// Store is the File Record Store port.
type Store interface {
	Create(ctx context.Context, f *models.File) error
	FindByID(ctx context.Context, fileID id.FileID) (*models.File, error)
	FindByTrackingNumber(ctx context.Context, tn models.TrackingNumber) (*models.File, error)
	ListByHolder(ctx context.Context, admin id.AdministrationID, filter models.ListFilter) ([]*models.File, error)
	ListIncoming(ctx context.Context, admin id.AdministrationID) ([]*models.File, error)
	Execute(ctx context.Context, fileID id.FileID, validate func(*models.File) error, mutate func(*models.File)) (*models.File, error)
}

// RouteResolver is the Route Repository lookup used at creation and on receipt.
type RouteResolver interface {
	AssignRoute(ctx context.Context, fileTypeID id.FileTypeID) (*routemodels.Route, error)
}

// Directory resolves administration display names for timelines.
type Directory interface {
	AdministrationNames(ctx context.Context, route *routemodels.Route) map[id.AdministrationID]string
}

type Journal interface {
	Emit(ctx context.Context, event journal.Event) error
	History(ctx context.Context, fileID id.FileID) ([]journal.Event, error)
}

// TrackingView is what a citizen sees when looking up a tracking number.
type TrackingView struct {
	File     *models.File
	Timeline []timeline.StationView
}

// Service orchestrates the routing engine over the file store.
type Service struct {
	files     Store
	routes    RouteResolver
	directory Directory
	journal   Journal
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	strict    bool
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

func WithJournal(j Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

func WithDirectory(d Directory) Option {
	return func(s *Service) {
		s.directory = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithStrictStatuses controls whether statuses outside the closed set are refused
// (true, the default) or recorded verbatim.
func WithStrictStatuses(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

func New(files Store, routes RouteResolver, opts ...Option) *Service {
	s := &Service{
		files:  files,
		routes: routes,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
		strict: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new file at the origin of its file type's route. The acting
// administration is recorded as the creator.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (_ *models.File, err error) {
	ctx, span := s.startSpan(ctx, "file.Create", attribute.String("file_type_id", req.FileTypeID.String()))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("create", time.Now())

	req.Citizen.Name = strings.TrimSpace(req.Citizen.Name)
	req.Citizen.NationalID = strings.TrimSpace(req.Citizen.NationalID)
	req.Citizen.Phone = strings.TrimSpace(req.Citizen.Phone)
	req.Documents = strs.DedupeAndTrim(req.Documents)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	route, err := s.routes.AssignRoute(ctx, req.FileTypeID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	f := &models.File{
		ID:        id.NewFileID(),
		Citizen:   req.Citizen,
		Documents: req.Documents,
		Notes:     req.Notes,
		CreatedBy: requestcontext.AdministrationID(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}
	routing.Seed(f, route)

	for attempt := 1; ; attempt++ {
		f.TrackingNumber = models.NewTrackingNumber(now)
		err = s.files.Create(ctx, f)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) || attempt == maxTrackingAttempts {
			return nil, translate(err)
		}
		s.metrics.IncTrackingCollision()
	}

	s.metrics.IncFilesCreated()
	s.logger.InfoContext(ctx, "file created",
		"request_id", requestcontext.RequestID(ctx),
		"file_id", f.ID,
		"tracking_number", f.TrackingNumber,
		"administration_id", f.CurrentAdministration,
		"status", f.Status,
	)
	s.emit(ctx, journal.EventFileCreated, f, "")
	return f, nil
}

// Get returns a file by id.
func (s *Service) Get(ctx context.Context, fileID id.FileID) (*models.File, error) {
	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, translate(err)
	}
	return f, nil
}

// Advance records a status change by the file's current holder.
func (s *Service) Advance(ctx context.Context, fileID id.FileID, rawStatus, notes string) (_ *models.File, err error) {
	ctx, span := s.startSpan(ctx, "file.Advance",
		attribute.String("file_id", fileID.String()),
		attribute.String("status", rawStatus),
	)
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("advance", time.Now())

	status, err := s.parseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	actor := requestcontext.AdministrationID(ctx)
	now := requestcontext.Now(ctx)
	notes = strings.TrimSpace(notes)

	f, err := s.files.Execute(ctx, fileID,
		func(f *models.File) error { return requireHolder(f, actor) },
		func(f *models.File) {
			routing.Advance(f, status)
			if notes != "" {
				f.Notes = notes
			}
			f.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.IncStatusChange(strings.ToLower(status.String()))
	s.logger.InfoContext(ctx, "file status changed",
		"request_id", requestcontext.RequestID(ctx),
		"file_id", f.ID,
		"administration_id", actor,
		"status", f.Status,
		"station_status", f.StationStatus(f.CurrentAdministration),
	)
	s.emit(ctx, journal.EventStatusChanged, f, notes)
	return f, nil
}

// ReceiveAt hands the file to the acting administration, which must be the
// designated next holder. The precondition is re-checked against the record read
// inside the store's atomic update.
func (s *Service) ReceiveAt(ctx context.Context, fileID id.FileID) (_ *models.File, err error) {
	receiver := requestcontext.AdministrationID(ctx)
	ctx, span := s.startSpan(ctx, "file.ReceiveAt",
		attribute.String("file_id", fileID.String()),
		attribute.String("administration_id", receiver.String()),
	)
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("receive", time.Now())

	current, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, translate(err)
	}
	if err := routing.CanReceive(current, receiver); err != nil {
		s.refuseReceive(ctx, fileID, receiver)
		return nil, err
	}
	route, err := s.routes.AssignRoute(ctx, current.FileTypeID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	station := -1
	f, err := s.files.Execute(ctx, fileID,
		func(f *models.File) error {
			idx, err := routing.PlanReceive(f, route, receiver)
			station = idx
			return err
		},
		func(f *models.File) {
			routing.ApplyReceive(f, route, receiver, station)
			f.UpdatedAt = now
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.refuseReceive(ctx, fileID, receiver)
		}
		return nil, translate(err)
	}

	s.metrics.IncFilesReceived()
	s.logger.InfoContext(ctx, "file received",
		"request_id", requestcontext.RequestID(ctx),
		"file_id", f.ID,
		"administration_id", receiver,
		"next_administration", f.NextAdministration,
		"status", f.Status,
	)
	s.emit(ctx, journal.EventFileReceived, f, "")
	return f, nil
}

func (s *Service) refuseReceive(ctx context.Context, fileID id.FileID, receiver id.AdministrationID) {
	s.metrics.IncReceiveRefused()
	s.logger.WarnContext(ctx, "file receive refused",
		"request_id", requestcontext.RequestID(ctx),
		"file_id", fileID,
		"administration_id", receiver,
	)
}

// Reject blocks the file at its current holder.
func (s *Service) Reject(ctx context.Context, fileID id.FileID, notes string) (_ *models.File, err error) {
	ctx, span := s.startSpan(ctx, "file.Reject", attribute.String("file_id", fileID.String()))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("reject", time.Now())

	actor := requestcontext.AdministrationID(ctx)
	now := requestcontext.Now(ctx)
	notes = strings.TrimSpace(notes)

	f, err := s.files.Execute(ctx, fileID,
		func(f *models.File) error { return requireHolder(f, actor) },
		func(f *models.File) {
			routing.Reject(f)
			if notes != "" {
				f.Notes = notes
			}
			f.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.IncFilesRejected()
	s.logger.InfoContext(ctx, "file rejected",
		"request_id", requestcontext.RequestID(ctx),
		"file_id", f.ID,
		"administration_id", actor,
	)
	s.emit(ctx, journal.EventFileRejected, f, notes)
	return f, nil
}

// Timeline reconciles the station view of a file.
func (s *Service) Timeline(ctx context.Context, fileID id.FileID) (*models.File, []timeline.StationView, error) {
	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, nil, translate(err)
	}
	views, err := s.reconcile(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return f, views, nil
}

// Track is the citizen lookup by tracking number.
func (s *Service) Track(ctx context.Context, rawTrackingNumber string) (*TrackingView, error) {
	tn, err := models.ParseTrackingNumber(rawTrackingNumber)
	if err != nil {
		return nil, err
	}
	f, err := s.files.FindByTrackingNumber(ctx, tn)
	if err != nil {
		return nil, translate(err)
	}
	views, err := s.reconcile(ctx, f)
	if err != nil {
		return nil, err
	}
	return &TrackingView{File: f, Timeline: views}, nil
}

func (s *Service) reconcile(ctx context.Context, f *models.File) ([]timeline.StationView, error) {
	route, err := s.routes.AssignRoute(ctx, f.FileTypeID)
	if err != nil {
		return nil, err
	}
	var names map[id.AdministrationID]string
	if s.directory != nil {
		names = s.directory.AdministrationNames(ctx, route)
	}
	return timeline.Collect(timeline.FromFile(f, route, names)), nil
}

// ListIncoming returns files in transit towards the acting administration.
func (s *Service) ListIncoming(ctx context.Context) ([]*models.File, error) {
	files, err := s.files.ListIncoming(ctx, requestcontext.AdministrationID(ctx))
	if err != nil {
		return nil, translate(err)
	}
	return files, nil
}

// ListHeld returns files held by the acting administration, optionally by status.
func (s *Service) ListHeld(ctx context.Context, rawStatus string) ([]*models.File, error) {
	var filter models.ListFilter
	if strings.TrimSpace(rawStatus) != "" {
		status, err := s.parseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	files, err := s.files.ListByHolder(ctx, requestcontext.AdministrationID(ctx), filter)
	if err != nil {
		return nil, translate(err)
	}
	return files, nil
}

// History returns the journal of a file.
func (s *Service) History(ctx context.Context, fileID id.FileID) ([]journal.Event, error) {
	if _, err := s.files.FindByID(ctx, fileID); err != nil {
		return nil, translate(err)
	}
	if s.journal == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "file history is not available on this deployment")
	}
	return s.journal.History(ctx, fileID)
}

func (s *Service) parseStatus(raw string) (models.Status, error) {
	status, known := models.ParseStatus(raw)
	if status == "" {
		return "", dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if !known && s.strict {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status "+status.String())
	}
	return status, nil
}

func (s *Service) emit(ctx context.Context, eventType journal.EventType, f *models.File, notes string) {
	if s.journal == nil {
		return
	}
	err := s.journal.Emit(ctx, journal.Event{
		Type:             eventType,
		FileID:           f.ID,
		TrackingNumber:   f.TrackingNumber.String(),
		AdministrationID: requestcontext.AdministrationID(ctx),
		Status:           f.Status.String(),
		StationStatus:    f.StationStatus(f.CurrentAdministration).String(),
		Holder:           f.CurrentAdministration,
		Next:             f.NextAdministration,
		Notes:            notes,
		RequestID:        requestcontext.RequestID(ctx),
		Timestamp:        requestcontext.Now(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append file journal",
			"file_id", f.ID,
			"event_type", eventType,
			"error", err,
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func requireHolder(f *models.File, actor id.AdministrationID) error {
	if f.CurrentAdministration != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the current holder can change this file")
	}
	return nil
}

// translate maps store sentinels to domain errors; domain errors pass through.
func translate(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "file not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "file already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "file store unavailable")
	}
}
