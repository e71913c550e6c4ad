package service

import (
	"context"
	"errors"
	"log/slog"

	"filetrack/internal/complaint/models"
	filemodels "filetrack/internal/file/models"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/sentinel"
	"filetrack/pkg/requestcontext"
)

// Store persists complaints.
type Store interface {
	Save(ctx context.Context, c *models.Complaint) error
	ListByAdministration(ctx context.Context, adminID id.AdministrationID) ([]*models.Complaint, error)
}

// Files is the read side of the file store the complaint flow needs.
type Files interface {
	FindByID(ctx context.Context, fileID id.FileID) (*filemodels.File, error)
	FindByTrackingNumber(ctx context.Context, tn filemodels.TrackingNumber) (*filemodels.File, error)
}

type Service struct {
	complaints Store
	files      Files
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(complaints Store, files Files, opts ...Option) *Service {
	s := &Service{
		complaints: complaints,
		files:      files,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a citizen complaint against a blocked file. The complaint is
// addressed to whoever holds the file at submission time.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest) (*models.Complaint, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tn, err := filemodels.ParseTrackingNumber(req.TrackingNumber)
	if err != nil {
		return nil, err
	}
	f, err := s.files.FindByTrackingNumber(ctx, tn)
	if err != nil {
		return nil, translate(err)
	}
	if !f.Status.Is(filemodels.StatusBlocked) {
		return nil, dErrors.New(dErrors.CodeConflict, "complaints can only be filed against blocked files")
	}

	c := &models.Complaint{
		ID:               id.NewComplaintID(),
		TrackingNumber:   f.TrackingNumber,
		FileID:           f.ID,
		AdministrationID: f.CurrentAdministration,
		Message:          req.Message,
		Status:           models.StatusOpen,
		CreatedAt:        requestcontext.Now(ctx),
	}
	if err := s.complaints.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save complaint")
	}

	s.logger.InfoContext(ctx, "complaint submitted",
		"request_id", requestcontext.RequestID(ctx),
		"complaint_id", c.ID.String(),
		"file_id", c.FileID,
		"administration_id", c.AdministrationID,
	)
	return c, nil
}

// ListPending returns complaints addressed to the acting administration whose file
// is still blocked.
func (s *Service) ListPending(ctx context.Context) ([]models.Pending, error) {
	adminID := requestcontext.AdministrationID(ctx)
	complaints, err := s.complaints.ListByAdministration(ctx, adminID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list complaints")
	}

	pending := make([]models.Pending, 0, len(complaints))
	for _, c := range complaints {
		f, err := s.files.FindByID(ctx, c.FileID)
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "complaint references a missing file",
				"complaint_id", c.ID.String(),
				"file_id", c.FileID,
			)
			continue
		}
		if err != nil {
			return nil, translate(err)
		}
		if f.Status.Is(filemodels.StatusBlocked) {
			pending = append(pending, models.Pending{Complaint: c, FileStatus: f.Status})
		}
	}
	return pending, nil
}

func translate(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "file not found")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "file store unavailable")
}
