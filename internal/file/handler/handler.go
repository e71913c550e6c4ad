package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"filetrack/internal/file/journal"
	"filetrack/internal/file/models"
	"filetrack/internal/file/service"
	"filetrack/internal/file/timeline"
	"filetrack/internal/platform/middleware"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/httputil"
)

// Service defines the file operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (*models.File, error)
	Get(ctx context.Context, fileID id.FileID) (*models.File, error)
	Advance(ctx context.Context, fileID id.FileID, rawStatus, notes string) (*models.File, error)
	ReceiveAt(ctx context.Context, fileID id.FileID) (*models.File, error)
	Reject(ctx context.Context, fileID id.FileID, notes string) (*models.File, error)
	Timeline(ctx context.Context, fileID id.FileID) (*models.File, []timeline.StationView, error)
	Track(ctx context.Context, rawTrackingNumber string) (*service.TrackingView, error)
	ListIncoming(ctx context.Context) ([]*models.File, error)
	ListHeld(ctx context.Context, rawStatus string) ([]*models.File, error)
	History(ctx context.Context, fileID id.FileID) ([]journal.Event, error)
}

type Handler struct {
	files  Service
	logger *slog.Logger
	public []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithPublicMiddleware wraps the unauthenticated citizen endpoints.
func WithPublicMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.public = append(h.public, mw...)
	}
}

func New(files Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{files: files, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the staff endpoints behind the acting-administration check and
// the public tracking lookup.
func (h *Handler) Register(r chi.Router) {
	r.With(h.public...).Get("/track/{trackingNumber}", h.handleTrack)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdministration(h.logger))

		r.With(middleware.ContentTypeJSON).Post("/files", h.handleCreate)
		r.Get("/files/{fileID}", h.handleGet)
		r.With(middleware.ContentTypeJSON).Post("/files/{fileID}/status", h.handleAdvance)
		r.Post("/files/{fileID}/receive", h.handleReceive)
		r.With(middleware.ContentTypeJSON).Post("/files/{fileID}/reject", h.handleReject)
		r.Get("/files/{fileID}/timeline", h.handleTimeline)
		r.Get("/files/{fileID}/history", h.handleHistory)

		r.Get("/administrations/me/incoming", h.handleIncoming)
		r.Get("/administrations/me/files", h.handleHeld)
	})
}

type citizenPayload struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone,omitempty"`
}

type createFileRequest struct {
	FileTypeID string         `json:"fileTypeId"`
	Citizen    citizenPayload `json:"citizen"`
	Documents  []string       `json:"documents"`
	Notes      string         `json:"notes"`
}

type advanceRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

type fileResponse struct {
	ID                    string            `json:"id"`
	TrackingNumber        string            `json:"trackingNumber"`
	FileTypeID            string            `json:"fileTypeId"`
	FileTypeName          string            `json:"fileTypeName,omitempty"`
	Citizen               citizenPayload    `json:"citizen"`
	Documents             []string          `json:"documents"`
	CreatedBy             string            `json:"createdBy"`
	CurrentAdministration string            `json:"currentAdministration"`
	NextAdministration    *string           `json:"nextAdministration"`
	Status                string            `json:"status"`
	StationStatuses       map[string]string `json:"stationStatuses"`
	Source                string            `json:"source"`
	Notes                 string            `json:"notes,omitempty"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// trackingResponse is the citizen view. It omits staff-only fields such as notes
// and the citizen's identity.
type trackingResponse struct {
	TrackingNumber        string                 `json:"trackingNumber"`
	FileTypeName          string                 `json:"fileTypeName,omitempty"`
	Status                string                 `json:"status"`
	CurrentAdministration string                 `json:"currentAdministration"`
	UpdatedAt             time.Time              `json:"updatedAt"`
	Timeline              []timeline.StationView `json:"timeline"`
}

type timelineResponse struct {
	FileID   string                 `json:"fileId"`
	Status   string                 `json:"status"`
	Timeline []timeline.StationView `json:"timeline"`
}

func toFileResponse(f *models.File) fileResponse {
	stations := make(map[string]string, len(f.StationStatuses))
	for a, st := range f.StationStatuses {
		stations[a.String()] = st.String()
	}
	var next *string
	if f.HasNext() {
		n := f.NextAdministration.String()
		next = &n
	}
	documents := f.Documents
	if documents == nil {
		documents = []string{}
	}
	return fileResponse{
		ID:             f.ID.String(),
		TrackingNumber: f.TrackingNumber.String(),
		FileTypeID:     f.FileTypeID.String(),
		FileTypeName:   f.FileTypeName,
		Citizen: citizenPayload{
			Name:       f.Citizen.Name,
			NationalID: f.Citizen.NationalID,
			Phone:      f.Citizen.Phone,
		},
		Documents:             documents,
		CreatedBy:             f.CreatedBy.String(),
		CurrentAdministration: f.CurrentAdministration.String(),
		NextAdministration:    next,
		Status:                f.Status.String(),
		StationStatuses:       stations,
		Source:                string(f.Source),
		Notes:                 f.Notes,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.UpdatedAt,
	}
}

func toFileList(files []*models.File) map[string]any {
	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, toFileResponse(f))
	}
	return map[string]any{"files": resp}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createFileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create file request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	fileTypeID, err := id.ParseFileTypeID(req.FileTypeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	f, err := h.files.Create(ctx, models.CreateRequest{
		FileTypeID: fileTypeID,
		Citizen: models.Citizen{
			Name:       req.Citizen.Name,
			NationalID: req.Citizen.NationalID,
			Phone:      req.Citizen.Phone,
		},
		Documents: req.Documents,
		Notes:     req.Notes,
	})
	if err != nil {
		h.logFailure(ctx, "failed to create file", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toFileResponse(f))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	f, err := h.files.Get(ctx, fileID)
	if err != nil {
		h.logFailure(ctx, "failed to load file", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFileResponse(f))
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	var req advanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	f, err := h.files.Advance(ctx, fileID, req.Status, req.Notes)
	if err != nil {
		h.logFailure(ctx, "failed to change file status", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFileResponse(f))
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	f, err := h.files.ReceiveAt(ctx, fileID)
	if err != nil {
		h.logFailure(ctx, "failed to receive file", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFileResponse(f))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	f, err := h.files.Reject(ctx, fileID, req.Notes)
	if err != nil {
		h.logFailure(ctx, "failed to reject file", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFileResponse(f))
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	f, views, err := h.files.Timeline(ctx, fileID)
	if err != nil {
		h.logFailure(ctx, "failed to build timeline", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, timelineResponse{
		FileID:   f.ID.String(),
		Status:   f.Status.String(),
		Timeline: views,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	events, err := h.files.History(ctx, fileID)
	if err != nil {
		h.logFailure(ctx, "failed to load file history", err)
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []journal.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleIncoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	files, err := h.files.ListIncoming(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list incoming files", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFileList(files))
}

func (h *Handler) handleHeld(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	files, err := h.files.ListHeld(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.logFailure(ctx, "failed to list held files", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFileList(files))
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.files.Track(ctx, chi.URLParam(r, "trackingNumber"))
	if err != nil {
		h.logFailure(ctx, "tracking lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trackingResponse{
		TrackingNumber:        view.File.TrackingNumber.String(),
		FileTypeName:          view.File.FileTypeName,
		Status:                view.File.Status.String(),
		CurrentAdministration: view.File.CurrentAdministration.String(),
		UpdatedAt:             view.File.UpdatedAt,
		Timeline:              view.Timeline,
	})
}

func (h *Handler) fileID(w http.ResponseWriter, r *http.Request) (id.FileID, bool) {
	fileID, err := id.ParseFileID(chi.URLParam(r, "fileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.FileID{}, false
	}
	return fileID, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
}
