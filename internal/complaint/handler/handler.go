package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"filetrack/internal/complaint/models"
	"filetrack/internal/platform/middleware"
	"filetrack/pkg/platform/httputil"
)

// Service defines the complaint operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, req models.SubmitRequest) (*models.Complaint, error)
	ListPending(ctx context.Context) ([]models.Pending, error)
}

type Handler struct {
	complaints Service
	logger     *slog.Logger
	public     []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithPublicMiddleware wraps the citizen submission endpoint.
func WithPublicMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.public = append(h.public, mw...)
	}
}

func New(complaints Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{complaints: complaints, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the public submission endpoint and the administration inbox.
func (h *Handler) Register(r chi.Router) {
	r.With(h.public...).With(middleware.ContentTypeJSON).Post("/complaints", h.handleSubmit)
	r.With(middleware.RequireAdministration(h.logger)).Get("/administrations/me/complaints", h.handleListPending)
}

type submitRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Message        string `json:"message"`
}

type complaintResponse struct {
	ID             string    `json:"id"`
	TrackingNumber string    `json:"trackingNumber"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	FileStatus     string    `json:"fileStatus,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toComplaintResponse(c *models.Complaint) complaintResponse {
	return complaintResponse{
		ID:             c.ID.String(),
		TrackingNumber: c.TrackingNumber.String(),
		Message:        c.Message,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.complaints.Submit(ctx, models.SubmitRequest{
		TrackingNumber: req.TrackingNumber,
		Message:        req.Message,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "complaint rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toComplaintResponse(c))
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pending, err := h.complaints.ListPending(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list complaints",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]complaintResponse, 0, len(pending))
	for _, p := range pending {
		c := toComplaintResponse(p.Complaint)
		c.FileStatus = p.FileStatus.String()
		resp = append(resp, c)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"complaints": resp})
}
