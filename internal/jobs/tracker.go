package jobs

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MimeLyc/job-tracker/internal/apperr"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

// Store is the authoritative collection of jobs and the only place ids are
// assigned. Ids come from a counter that never goes backwards, so an id freed
// by Delete or Clear is never handed out again.
type Store struct {
	backend Backend
	now     func() time.Time

	mu        sync.RWMutex
	jobs      map[uint64]*Job
	order     []uint64
	idCounter uint64
}

type Option func(*Store)

// WithBackend mirrors every mutation to b.
func WithBackend(b Backend) Option {
	return func(s *Store) {
		s.backend = b
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a store. If a backend is configured, its content is loaded
// and load failures are logged; use Open to get the error instead.
func NewStore(opts ...Option) *Store {
	s := newStore(opts...)
	if err := s.hydrate(context.Background()); err != nil {
		log.Error("Failed to load jobs from backend: %v", err)
	}
	return s
}

// Open builds a store backed by b and loads its content.
func Open(ctx context.Context, b Backend, opts ...Option) (*Store, error) {
	s := newStore(append(opts, WithBackend(b))...)
	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(opts ...Option) *Store {
	s := &Store{
		now:  time.Now,
		jobs: make(map[uint64]*Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, title, description string) (*Job, error) {
	// title and description are stored exactly as given
	if strings.TrimSpace(title) == "" {
		return nil, apperr.NewError(apperr.ErrValidation, "title is required")
	}
	if !utf8.ValidString(title) || !utf8.ValidString(description) {
		return nil, apperr.NewError(apperr.ErrValidation, "title and description must be valid UTF-8")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.idCounter++
	job := &Job{
		ID:          s.idCounter,
		Title:       title,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}

	if s.backend != nil {
		if err := s.backend.InsertJob(ctx, job); err != nil {
			return nil, apperr.WrapError(err, apperr.ErrStorage, "failed to persist job").WithContext("id", job.ID)
		}
	}

	s.jobs[job.ID] = job
	// ids only grow, so appending keeps order sorted
	s.order = append(s.order, job.ID)
	return cloneJob(job), nil
}

func (s *Store) Get(id uint64) (*Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return cloneJob(job), nil
}

// List returns every job ordered by id ascending.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		ret = append(ret, *s.jobs[id])
	}
	return ret
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return notFound(id)
	}
	if s.backend != nil {
		if err := s.backend.DeleteJob(ctx, id); err != nil {
			return apperr.WrapError(err, apperr.ErrStorage, "failed to delete job").WithContext("id", id)
		}
	}

	delete(s.jobs, id)
	if i, found := slices.BinarySearch(s.order, id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

// Clear removes all jobs. The id counter is kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.DeleteAllJobs(ctx); err != nil {
			return apperr.WrapError(err, apperr.ErrStorage, "failed to clear jobs")
		}
	}
	s.jobs = make(map[uint64]*Job)
	s.order = nil
	return nil
}

// LastID is the most recently issued id, 0 if none was issued yet.
func (s *Store) LastID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idCounter
}

func (s *Store) hydrate(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	loaded, lastID, err := s.backend.LoadJobs(ctx)
	if err != nil {
		return apperr.WrapError(err, apperr.ErrStorage, "failed to load jobs")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, raw := range loaded {
		if raw == nil || raw.ID == 0 {
			continue
		}
		if _, dup := s.jobs[raw.ID]; !dup {
			s.order = append(s.order, raw.ID)
		}
		s.jobs[raw.ID] = cloneJob(raw)
		if raw.ID > s.idCounter {
			s.idCounter = raw.ID
		}
	}
	if lastID > s.idCounter {
		s.idCounter = lastID
	}
	slices.Sort(s.order)
	log.Debug("Loaded %d jobs, last id %d", len(s.jobs), s.idCounter)
	return nil
}

func notFound(id uint64) *apperr.Error {
	return apperr.NewError(apperr.ErrNotFound, "job not found").WithContext("id", id)
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
