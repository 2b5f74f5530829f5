package services

import (
	"context"
	"testing"
	"time"

	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context) (*RunReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*RunReport)
	return report, args.Error(1)
}

type mockSummary struct {
	mock.Mock
}

func (m *mockSummary) NotifySummary(ctx context.Context, newJobs int) error {
	return m.Called(ctx, newJobs).Error(0)
}

func Test_Scheduler_RunOnce_SendsSummaryWhenJobsFound(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(&RunReport{NewJobs: make([]entities.Job, 3)}, nil).Once()
	summary := &mockSummary{}
	summary.On("NotifySummary", mock.Anything, 3).Return(nil).Once()

	report, err := NewScheduler(runner, summary).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.NewJobs, 3)
	runner.AssertExpectations(t)
	summary.AssertExpectations(t)
}

func Test_Scheduler_RunOnce_NoSummaryWithoutNewJobs(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(&RunReport{}, nil).Once()
	summary := &mockSummary{}

	_, err := NewScheduler(runner, summary).RunOnce(context.Background())
	require.NoError(t, err)
	summary.AssertNotCalled(t, "NotifySummary", mock.Anything, mock.Anything)
}

func Test_Scheduler_RunOnce_SummaryFailureIsNotAnError(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(&RunReport{NewJobs: make([]entities.Job, 1)}, nil).Once()
	summary := &mockSummary{}
	summary.On("NotifySummary", mock.Anything, 1).Return(assert.AnError).Once()

	_, err := NewScheduler(runner, summary).RunOnce(context.Background())
	assert.NoError(t, err)
}

func Test_Scheduler_RunOnce_SkipsOverlappingRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	runner := &mockRunner{}
	runner.On("Run", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&RunReport{}, nil).Once()

	scheduler := NewScheduler(runner, &mockSummary{})

	done := make(chan error)
	go func() {
		_, err := scheduler.RunOnce(context.Background())
		done <- err
	}()

	<-started
	_, err := scheduler.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first run did not finish")
	}
	runner.AssertNumberOfCalls(t, "Run", 1)
}

func Test_Scheduler_Start_RejectsInvalidSpec(t *testing.T) {
	scheduler := NewScheduler(&mockRunner{}, &mockSummary{})

	err := scheduler.Start(context.Background(), []string{"@every 6h", "not a spec"})
	assert.Error(t, err)
}

func Test_Scheduler_Start_RegistersSpecs(t *testing.T) {
	scheduler := NewScheduler(&mockRunner{}, &mockSummary{})

	require.NoError(t, scheduler.Start(context.Background(), []string{"@every 6h", "0 9 * * *", "0 18 * * *"}))
	defer scheduler.Stop()

	assert.Len(t, scheduler.cron.Entries(), 3)
}
