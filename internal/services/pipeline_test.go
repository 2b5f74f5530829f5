package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobalert/internal/config"
	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/maxaizer/jobalert/internal/events"
	"github.com/maxaizer/jobalert/internal/repositories"
	"github.com/maxaizer/jobalert/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const htmlListing = `<html><body><ul>
<li class="job"><h3 class="title">Backend Developer</h3><span class="loc">Austin, TX</span><time class="posted">today</time></li>
<li class="job"><h3 class="title"></h3><span class="loc">Austin, TX</span></li>
</ul></body></html>`

const jsonListing = `{"jobs": [
{"title": "Backend Developer", "location": "Austin, TX", "posted": "today"},
{"title": "Platform Engineer", "location": "Remote", "posted": "45 days ago"}
]}`

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUser(ctx context.Context, user entities.User, jobs []entities.Job) error {
	return m.Called(ctx, user.Email, jobs).Error(0)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

type pipelineFixture struct {
	db        *repositories.DbContext
	jobs      *repositories.Jobs
	users     *repositories.Users
	bus       EventBus.Bus
	notifier  *mockNotifier
	broadcast []entities.Job
	mu        sync.Mutex
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	db, err := repositories.NewDbContext("file::memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	f := &pipelineFixture{
		db:       db,
		jobs:     repositories.NewJobsRepository(db.DB),
		users:    repositories.NewUsersRepository(db.DB),
		bus:      EventBus.New(),
		notifier: &mockNotifier{},
	}
	require.NoError(t, f.bus.Subscribe(events.JobBroadcastTopic, func(event events.JobBroadcast) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.broadcast = append(f.broadcast, event.Job)
	}))
	return f
}

func (f *pipelineFixture) addUser(t *testing.T, email string, roles, locations []string) {
	_, err := f.users.Upsert(context.Background(), entities.NewUser(email, roles, []string{"Full-time"}, locations))
	require.NoError(t, err)
}

func (f *pipelineFixture) pipeline(fetcher fetcher, sources []*scraper.Source) *Pipeline {
	p := NewPipeline(f.bus, fetcher, sources, f.jobs, f.users, f.notifier, PipelineSettings{
		SourceDelay:          time.Second,
		RecencyThresholdDays: 1,
		CanonicalRoles:       []string{"Backend Developer", "Data Scientist"},
	})
	p.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return p
}

func testSources(t *testing.T, baseURL string) []*scraper.Source {
	sources, err := scraper.NewSources([]config.SourceConfig{
		{
			Name: "Careers HTML",
			URL:  baseURL + "/html?q={role}",
			Type: "html_section",
			Selectors: map[string]string{
				"container":   "li.job",
				"title":       ".title",
				"location":    ".loc",
				"company":     "Acme",
				"date_posted": ".posted",
			},
		},
		{
			Name: "Careers JSON",
			URL:  baseURL + "/json?q={role}",
			Type: "json_selection",
			Selectors: map[string]string{
				"field":       "jobs",
				"title":       "title",
				"location":    "location",
				"date_posted": "posted",
				"company":     "Acme",
			},
		},
	})
	require.NoError(t, err)
	return sources
}

func Test_Pipeline_Run_StoresNewJobOnceAndBatchesMatches(t *testing.T) {
	f := newPipelineFixture(t)
	f.addUser(t, "remote@example.com", []string{"backend developer"}, []string{"Remote"})
	f.addUser(t, "austin@example.com", []string{"Backend Developer"}, []string{"Austin, TX"})
	f.addUser(t, "seattle@example.com", []string{"backend developer"}, []string{"Seattle, WA"})

	var (
		requestsMu sync.Mutex
		queries    []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsMu.Lock()
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		requestsMu.Unlock()

		if r.URL.Path == "/html" {
			_, _ = w.Write([]byte(htmlListing))
			return
		}
		_, _ = w.Write([]byte(`{"jobs": [{"title": "Backend Developer", "location": "Austin, TX", "posted": "today"}]}`))
	}))
	defer server.Close()

	f.notifier.On("NotifyUser", mock.Anything, "remote@example.com", mock.Anything).Return(nil).Once()
	f.notifier.On("NotifyUser", mock.Anything, "austin@example.com", mock.Anything).Return(nil).Once()

	report, err := f.pipeline(scraper.NewClient(time.Second), testSources(t, server.URL)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Backend Developer", "backend developer"}, report.Roles)
	require.Len(t, report.NewJobs, 1)
	assert.Equal(t, "Backend Developer", report.NewJobs[0].Title)
	assert.Equal(t, "Acme", report.NewJobs[0].Company)
	assert.Equal(t, 3, report.Duplicates)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Broadcast)
	assert.Equal(t, 2, report.NotifiedUsers)

	count, err := f.jobs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	f.mu.Lock()
	assert.Len(t, f.broadcast, 1)
	f.mu.Unlock()

	f.notifier.AssertExpectations(t)
	for _, call := range f.notifier.Calls {
		jobs := call.Arguments.Get(2).([]entities.Job)
		assert.Len(t, jobs, 1)
	}

	requestsMu.Lock()
	defer requestsMu.Unlock()
	assert.Len(t, queries, 4)
	assert.Contains(t, queries, "/html?q=backend%20developer")
	assert.Contains(t, queries, "/json?q=Backend%20Developer")
}

func Test_Pipeline_Run_WithoutUsersDoesNotFetch(t *testing.T) {
	f := newPipelineFixture(t)
	fetcher := &mockFetcher{}

	report, err := f.pipeline(fetcher, testSources(t, "http://example.com")).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.NewJobs)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything)
}

func Test_Pipeline_Run_SourceFailureDoesNotAbortRun(t *testing.T) {
	f := newPipelineFixture(t)
	f.addUser(t, "remote@example.com", []string{"Platform Engineer"}, []string{"Remote"})
	sources := testSources(t, "http://careers.test")

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, "http://careers.test/html?q=Platform%20Engineer").
		Return(nil, &scraper.StatusError{URL: "http://careers.test/html", StatusCode: http.StatusForbidden}).Once()
	fetcher.On("Fetch", mock.Anything, "http://careers.test/json?q=Platform%20Engineer").
		Return([]byte(jsonListing), nil).Once()

	f.notifier.On("NotifyUser", mock.Anything, "remote@example.com", mock.MatchedBy(func(jobs []entities.Job) bool {
		return len(jobs) == 1 && jobs[0].Title == "Platform Engineer"
	})).Return(nil).Once()

	report, err := f.pipeline(fetcher, sources).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.NewJobs, 2)
	assert.Equal(t, 1, report.Broadcast, "a 45 days old posting is not broadcast")
	fetcher.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func Test_Pipeline_Run_MalformedDocumentYieldsEmptyBatch(t *testing.T) {
	f := newPipelineFixture(t)
	f.addUser(t, "remote@example.com", []string{"Backend Developer"}, []string{"Remote"})
	sources := testSources(t, "http://careers.test")

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, "http://careers.test/html?q=Backend%20Developer").
		Return([]byte(`<html><body>maintenance</body></html>`), nil).Once()
	fetcher.On("Fetch", mock.Anything, "http://careers.test/json?q=Backend%20Developer").
		Return([]byte(`{"jobs": [`), nil).Once()

	report, err := f.pipeline(fetcher, sources).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.NewJobs)
	assert.Zero(t, report.NotifiedUsers)
	f.notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything)
}

func Test_Pipeline_Run_NotificationFailureIsIsolatedPerUser(t *testing.T) {
	f := newPipelineFixture(t)
	f.addUser(t, "broken@example.com", []string{"Backend Developer"}, []string{"Remote"})
	f.addUser(t, "fine@example.com", []string{"Backend Developer"}, []string{"Austin, TX"})
	sources := testSources(t, "http://careers.test")

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return([]byte(jsonListing), nil)

	f.notifier.On("NotifyUser", mock.Anything, "broken@example.com", mock.Anything).Return(assert.AnError).Once()
	f.notifier.On("NotifyUser", mock.Anything, "fine@example.com", mock.Anything).Return(nil).Once()

	report, err := f.pipeline(fetcher, sources).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NotifiedUsers)
	f.notifier.AssertExpectations(t)
}

func Test_Pipeline_Run_CancelledRunSendsNoBatches(t *testing.T) {
	f := newPipelineFixture(t)
	f.addUser(t, "remote@example.com", []string{"Backend Developer"}, []string{"Remote"})
	sources := testSources(t, "http://careers.test")

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return([]byte(jsonListing), nil).Once()

	report, err := f.pipeline(fetcher, sources).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
	f.notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything)
}
