package store

import (
	"context"
	"slices"
	"sync"

	"filetrack/internal/complaint/models"
	id "filetrack/pkg/domain"
)

// InMemory keeps complaints per addressed administration in submission order.
type InMemory struct {
	mu      sync.RWMutex
	byAdmin map[id.AdministrationID][]*models.Complaint
}

func NewInMemory() *InMemory {
	return &InMemory{byAdmin: make(map[id.AdministrationID][]*models.Complaint)}
}

func (s *InMemory) Save(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *c
	s.byAdmin[c.AdministrationID] = append(s.byAdmin[c.AdministrationID], &stored)
	return nil
}

func (s *InMemory) ListByAdministration(_ context.Context, adminID id.AdministrationID) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Complaint, 0, len(s.byAdmin[adminID]))
	for _, c := range s.byAdmin[adminID] {
		copied := *c
		out = append(out, &copied)
	}
	slices.Reverse(out)
	return out, nil
}
