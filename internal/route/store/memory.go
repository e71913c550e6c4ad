package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"filetrack/internal/route/models"
	id "filetrack/pkg/domain"
	"filetrack/pkg/platform/sentinel"
)

// ErrNotFound is returned when a route or administration does not exist.
var ErrNotFound = sentinel.ErrNotFound

// InMemory keeps routes and the administration directory in process memory.
type InMemory struct {
	mu     sync.RWMutex
	routes map[id.FileTypeID]*models.Route
	admins map[id.AdministrationID]models.Administration
}

func NewInMemory() *InMemory {
	return &InMemory{
		routes: make(map[id.FileTypeID]*models.Route),
		admins: make(map[id.AdministrationID]models.Administration),
	}
}

// Save upserts the route for its file type. Routes are immutable so the pointer is shared.
func (s *InMemory) Save(_ context.Context, route *models.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route.FileTypeID] = route
	return nil
}

func (s *InMemory) FindByFileType(_ context.Context, fileTypeID id.FileTypeID) (*models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[fileTypeID]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *models.Route) int {
		return cmp.Compare(a.FileTypeID, b.FileTypeID)
	})
	return out, nil
}

func (s *InMemory) UpsertAdministration(_ context.Context, admin models.Administration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[admin.ID] = admin
	return nil
}

func (s *InMemory) FindAdministration(_ context.Context, adminID id.AdministrationID) (*models.Administration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[adminID]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *InMemory) ListAdministrations(_ context.Context) ([]models.Administration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Administration, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b models.Administration) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
