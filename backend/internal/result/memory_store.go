package result

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"college_portal/backend/internal/shared"
)

// MemoryStore is a Store held in process memory. A single mutex serializes
// every mutation, which gives the same per-key guarantees as the unique
// index on the Mongo side.
type MemoryStore struct {
	mu    sync.Mutex
	byKey map[shared.ResultKey]*shared.Result
	byID  map[string]shared.ResultKey
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[shared.ResultKey]*shared.Result),
		byID:  make(map[string]shared.ResultKey),
	}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, key shared.ResultKey, w Write) (*shared.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, shared.NewStoreError("result upsert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subjects := (&shared.Result{Subjects: w.Subjects}).Clone().Subjects

	res, ok := s.byKey[key]
	if !ok {
		res = &shared.Result{
			ID:           uuid.NewString(),
			StudentID:    key.StudentID,
			Semester:     key.Semester,
			AcademicYear: key.AcademicYear,
			CreatedAt:    w.At,
		}
		s.byKey[key] = res
		s.byID[res.ID] = key
	}

	res.Subjects = subjects
	res.TotalCredits = w.TotalCredits
	res.SGPA = w.SGPA
	res.Percentage = w.Percentage
	res.OverallStatus = w.OverallStatus
	res.UpdatedAt = w.At
	res.Revision++

	return res.Clone(), !ok, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key shared.ResultKey) (*shared.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.byKey[key]
	if !ok {
		return nil, shared.NewNotFoundError(msgResultNotFound)
	}
	return res.Clone(), nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*shared.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.lookupID(id)
	if res == nil {
		return nil, shared.NewNotFoundError(msgResultNotFound)
	}
	return res.Clone(), nil
}

func (s *MemoryStore) lookupID(id string) *shared.Result {
	key, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.byKey[key]
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, filter shared.ResultFilter) ([]*shared.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := []*shared.Result{}
	for _, res := range s.byKey {
		if !matches(res, filter) {
			continue
		}
		if filter.IsPublished != nil && res.IsPublished != *filter.IsPublished {
			continue
		}
		results = append(results, res.Clone())
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear < b.AcademicYear
		}
		return a.Semester < b.Semester
	})
	return results, nil
}

// matches mirrors listQuery on the Mongo side.
func matches(res *shared.Result, filter shared.ResultFilter) bool {
	if filter.Semester != 0 && res.Semester != filter.Semester {
		return false
	}
	if filter.AcademicYear != "" && res.AcademicYear != filter.AcademicYear {
		return false
	}
	if filter.StudentID != "" && res.StudentID != filter.StudentID {
		return false
	}
	if filter.StudentIDs != nil && !slices.Contains(filter.StudentIDs, res.StudentID) {
		return false
	}
	return true
}

// Publish implements Store.
func (s *MemoryStore) Publish(ctx context.Context, id string, at time.Time) (*shared.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, shared.NewStoreError("result publish", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.lookupID(id)
	if res == nil {
		return nil, false, shared.NewNotFoundError(msgResultNotFound)
	}
	if res.IsPublished {
		return res.Clone(), false, nil
	}
	publish(res, at)
	return res.Clone(), true, nil
}

// PublishMany implements Store.
func (s *MemoryStore) PublishMany(ctx context.Context, filter shared.ResultFilter, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, shared.NewStoreError("batch publish", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, res := range s.byKey {
		if res.IsPublished || !matches(res, filter) {
			continue
		}
		publish(res, at)
		n++
	}
	return n, nil
}

func publish(res *shared.Result, at time.Time) {
	res.IsPublished = true
	published := at
	res.PublishedAt = &published
}

// EnsureIndexes implements Store.
func (s *MemoryStore) EnsureIndexes(context.Context) error { return nil }
