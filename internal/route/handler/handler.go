package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"filetrack/internal/platform/middleware"
	"filetrack/internal/route/models"
	"filetrack/internal/route/service"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/httputil"
)

// Service defines the route operations exposed over HTTP.
type Service interface {
	Configure(ctx context.Context, req service.ConfigureRequest) (*models.Route, error)
	AssignRoute(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error)
	List(ctx context.Context) ([]*models.Route, error)
}

type Handler struct {
	routes Service
	logger *slog.Logger
}

func New(routes Service, logger *slog.Logger) *Handler {
	return &Handler{routes: routes, logger: logger}
}

// Register mounts the route configuration endpoints. All of them require an acting
// administration.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdministration(h.logger))
		r.Get("/routes", h.handleList)
		r.Get("/routes/{fileTypeID}", h.handleGet)
		r.With(middleware.ContentTypeJSON).Put("/routes/{fileTypeID}", h.handleConfigure)
	})
}

type configureRouteRequest struct {
	FileTypeName string   `json:"fileTypeName"`
	Departments  []string `json:"departments"`
	Closure      bool     `json:"closure"`
}

type routeResponse struct {
	FileTypeID   string    `json:"fileTypeId"`
	FileTypeName string    `json:"fileTypeName"`
	Route        []string  `json:"route"`
	Closure      bool      `json:"closure"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toRouteResponse(r *models.Route) routeResponse {
	stations := make([]string, r.Len())
	for i := range stations {
		stations[i] = r.At(i).String()
	}
	return routeResponse{
		FileTypeID:   r.FileTypeID.String(),
		FileTypeName: r.FileTypeName,
		Route:        stations,
		Closure:      r.HasClosure(),
		CreatedBy:    r.CreatedBy.String(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	fileTypeID, err := id.ParseFileTypeID(chi.URLParam(r, "fileTypeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req configureRouteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid configure route request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	departments := make([]id.AdministrationID, 0, len(req.Departments))
	for _, d := range req.Departments {
		adminID, err := id.ParseAdministrationID(d)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		departments = append(departments, adminID)
	}

	route, err := h.routes.Configure(ctx, service.ConfigureRequest{
		FileTypeID:   fileTypeID,
		FileTypeName: req.FileTypeName,
		Departments:  departments,
		Closure:      req.Closure,
	})
	if err != nil {
		h.logFailure(ctx, "failed to configure route", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRouteResponse(route))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileTypeID, err := id.ParseFileTypeID(chi.URLParam(r, "fileTypeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	route, err := h.routes.AssignRoute(ctx, fileTypeID)
	if err != nil {
		h.logFailure(ctx, "failed to load route", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRouteResponse(route))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routes, err := h.routes.List(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list routes", err)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]routeResponse, 0, len(routes))
	for _, route := range routes {
		resp = append(resp, toRouteResponse(route))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"routes": resp})
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
