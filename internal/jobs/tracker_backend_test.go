package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/job-tracker/internal/apperr"
)

type memoryBackend struct {
	jobs      map[uint64]*Job
	lastID    uint64
	insertErr error
	loadErr   error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{jobs: make(map[uint64]*Job)}
}

func (m *memoryBackend) LoadJobs(_ context.Context) ([]*Job, uint64, error) {
	if m.loadErr != nil {
		return nil, 0, m.loadErr
	}
	ret := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		ret = append(ret, cloneJob(j))
	}
	return ret, m.lastID, nil
}

func (m *memoryBackend) InsertJob(_ context.Context, job *Job) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.jobs[job.ID] = cloneJob(job)
	if job.ID > m.lastID {
		m.lastID = job.ID
	}
	return nil
}

func (m *memoryBackend) DeleteJob(_ context.Context, id uint64) error {
	delete(m.jobs, id)
	return nil
}

func (m *memoryBackend) DeleteAllJobs(_ context.Context) error {
	m.jobs = make(map[uint64]*Job)
	return nil
}

func TestStore_RecoversJobsAndCounterFromBackend(t *testing.T) {
	backend := newMemoryBackend()
	now := time.Now().UTC()
	backend.jobs[3] = &Job{ID: 3, Title: "three", CreatedAt: now}
	backend.jobs[1] = &Job{ID: 1, Title: "one", CreatedAt: now}
	// job 5 was issued and later deleted
	backend.lastID = 5

	s, err := Open(context.Background(), backend)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[0].ID)
	assert.Equal(t, uint64(3), list[1].ID)

	job, err := s.Create(context.Background(), "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), job.ID)
	assert.Contains(t, backend.jobs, uint64(6))
}

func TestStore_MirrorsDeleteAndClear(t *testing.T) {
	backend := newMemoryBackend()
	s, err := Open(context.Background(), backend)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := s.Create(ctx, "a", "")
	require.NoError(t, err)
	_, err = s.Create(ctx, "b", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.NotContains(t, backend.jobs, a.ID)
	assert.Len(t, backend.jobs, 1)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, backend.jobs)
	assert.Equal(t, uint64(2), backend.lastID)
}

func TestStore_InsertFailureIsStorageError(t *testing.T) {
	backend := newMemoryBackend()
	backend.insertErr = assert.AnError
	s := NewStore(WithBackend(backend))

	job, err := s.Create(context.Background(), "a", "")
	require.Error(t, err)
	assert.Nil(t, job)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrStorage))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, s.Len())

	backend.insertErr = nil
	job, err = s.Create(context.Background(), "b", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), job.ID)
}

func TestOpen_LoadFailure(t *testing.T) {
	backend := newMemoryBackend()
	backend.loadErr = assert.AnError

	s, err := Open(context.Background(), backend)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrStorage))
}
