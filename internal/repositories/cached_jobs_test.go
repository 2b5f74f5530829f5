package repositories

import (
	"context"
	"testing"

	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) Save(ctx context.Context, job *entities.Job) (SaveStatus, error) {
	args := m.Called(ctx, job)
	return args.Get(0).(SaveStatus), args.Error(1)
}

func Test_CachedJobs_Save_SkipsRepositoryForKnownFingerprint(t *testing.T) {
	repo := &mockJobs{}
	repo.On("Save", mock.Anything, mock.Anything).Return(SaveStored, nil).Once()
	cached := NewCachedJobs(repo)

	status, err := cached.Save(context.Background(), newJob("Backend Developer"))
	require.NoError(t, err)
	assert.Equal(t, SaveStored, status)

	job := newJob("Backend Developer")
	status, err = cached.Save(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, SaveDuplicate, status)
	assert.Equal(t, Fingerprint(job.Title, job.Company, job.Location, job.DatePosted), job.Fingerprint)

	repo.AssertExpectations(t)
}

func Test_CachedJobs_Save_DoesNotCacheFailures(t *testing.T) {
	repo := &mockJobs{}
	repo.On("Save", mock.Anything, mock.Anything).Return(SaveFailed, assert.AnError).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(SaveStored, nil).Once()
	cached := NewCachedJobs(repo)

	status, err := cached.Save(context.Background(), newJob("Backend Developer"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, SaveFailed, status)

	status, err = cached.Save(context.Background(), newJob("Backend Developer"))
	require.NoError(t, err)
	assert.Equal(t, SaveStored, status)
	repo.AssertExpectations(t)
}

func Test_CachedJobs_WithDatabase(t *testing.T) {
	db := newTestDb(t)
	cached := NewCachedJobs(NewJobsRepository(db.DB))

	status, err := cached.Save(context.Background(), newJob("Backend Developer"))
	require.NoError(t, err)
	assert.Equal(t, SaveStored, status)

	fresh := NewCachedJobs(NewJobsRepository(db.DB))
	status, err = fresh.Save(context.Background(), newJob("Backend Developer"))
	require.NoError(t, err)
	assert.Equal(t, SaveDuplicate, status)
}
