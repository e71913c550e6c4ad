package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"filetrack/internal/file/models"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/sentinel"
)

// numShards spreads per-file locks so unrelated files never wait on each other.
const numShards = 128

const defaultExecuteTimeout = 5 * time.Second

// InMemory is a File Record Store kept in process memory. Execute serialises
// read-modify-write per file with a sharded mutex.
type InMemory struct {
	shards [numShards]sync.Mutex

	mu         sync.RWMutex
	files      map[id.FileID]*models.File
	byTracking map[models.TrackingNumber]id.FileID
}

func NewInMemory() *InMemory {
	return &InMemory{
		files:      make(map[id.FileID]*models.File),
		byTracking: make(map[models.TrackingNumber]id.FileID),
	}
}

func (s *InMemory) Create(_ context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byTracking[f.TrackingNumber]; ok {
		return sentinel.ErrConflict
	}
	stored := f.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	f.Version = stored.Version
	s.files[f.ID] = stored
	s.byTracking[f.TrackingNumber] = f.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, fileID id.FileID) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[fileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return f.Clone(), nil
}

func (s *InMemory) FindByTrackingNumber(_ context.Context, tn models.TrackingNumber) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fileID, ok := s.byTracking[tn]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.files[fileID].Clone(), nil
}

// ListByHolder returns files currently held by admin, newest first.
func (s *InMemory) ListByHolder(_ context.Context, admin id.AdministrationID, filter models.ListFilter) ([]*models.File, error) {
	return s.collect(func(f *models.File) bool {
		if f.CurrentAdministration != admin {
			return false
		}
		return filter.Status == "" || f.Status.Is(filter.Status)
	}), nil
}

// ListIncoming returns files in transit towards admin, newest first.
func (s *InMemory) ListIncoming(_ context.Context, admin id.AdministrationID) ([]*models.File, error) {
	return s.collect(func(f *models.File) bool {
		return f.NextAdministration == admin && f.Status.Is(models.StatusInTransit)
	}), nil
}

func (s *InMemory) collect(match func(*models.File) bool) []*models.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.File
	for _, f := range s.files {
		if match(f) {
			out = append(out, f.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.File) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TrackingNumber, b.TrackingNumber)
	})
	return out
}

// Execute reads the latest record, runs validate then mutate on a copy, and stores
// the copy. Nothing is written when validate fails.
func (s *InMemory) Execute(ctx context.Context, fileID id.FileID, validate func(*models.File) error, mutate func(*models.File)) (*models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "file update aborted: context cancelled")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultExecuteTimeout)
		defer cancel()
	}

	shard := &s.shards[xxhash.Sum64String(fileID.String())%numShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "file update aborted: context cancelled")
	}

	s.mu.RLock()
	current, ok := s.files[fileID]
	var working *models.File
	if ok {
		working = current.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	working.Version++

	s.mu.Lock()
	s.files[fileID] = working
	s.mu.Unlock()
	return working.Clone(), nil
}
