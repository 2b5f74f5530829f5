package services

import (
	"context"
	"sort"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobalert/internal/dates"
	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/maxaizer/jobalert/internal/events"
	"github.com/maxaizer/jobalert/internal/logger"
	"github.com/maxaizer/jobalert/internal/metrics"
	"github.com/maxaizer/jobalert/internal/repositories"
	"github.com/maxaizer/jobalert/internal/scraper"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type jobRepository interface {
	Save(ctx context.Context, job *entities.Job) (repositories.SaveStatus, error)
}

type userRepository interface {
	Active(ctx context.Context) ([]entities.User, error)
}

type userNotifier interface {
	NotifyUser(ctx context.Context, user entities.User, jobs []entities.Job) error
}

type PipelineSettings struct {
	SourceDelay          time.Duration
	RecencyThresholdDays int
	CanonicalRoles       []string
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	Roles         []string
	NewJobs       []entities.Job
	Duplicates    int
	Skipped       int
	Rejected      int
	Failed        int
	Broadcast     int
	NotifiedUsers int
}

// Pipeline fetches every configured source for every role wanted by active
// users, stores the postings it has not seen before, and routes them to the
// matching users and to the broadcast channel.
type Pipeline struct {
	bus        EventBus.Bus
	fetcher    fetcher
	sources    []*scraper.Source
	jobs       jobRepository
	users      userRepository
	notifier   userNotifier
	validator  *JobValidator
	matcher    *UserMatcher
	normalizer *dates.Normalizer
	settings   PipelineSettings
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewPipeline(bus EventBus.Bus, fetcher fetcher, sources []*scraper.Source, jobs jobRepository,
	users userRepository, notifier userNotifier, settings PipelineSettings) *Pipeline {

	if settings.RecencyThresholdDays <= 0 {
		settings.RecencyThresholdDays = 1
	}

	return &Pipeline{
		bus:        bus,
		fetcher:    fetcher,
		sources:    sources,
		jobs:       jobs,
		users:      users,
		notifier:   notifier,
		validator:  NewJobValidator(),
		matcher:    NewUserMatcher(settings.CanonicalRoles),
		normalizer: dates.NewNormalizer(),
		settings:   settings,
		sleep:      sleepContext,
	}
}

// run-scoped state; never shared between runs
type pipelineRun struct {
	users   []entities.User
	report  *RunReport
	batches map[string][]entities.Job
	order   []entities.User
	fetched bool
}

func (r *pipelineRun) addMatch(user entities.User, job entities.Job) {
	if _, ok := r.batches[user.Email]; !ok {
		r.order = append(r.order, user)
	}
	r.batches[user.Email] = append(r.batches[user.Email], job)
}

// Run performs one full pass. It returns early without side effects when no
// active user asks for any role. If ctx is cancelled before all sources are
// processed, jobs stored so far are kept but no user notification is sent.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {

	users, err := p.users.Active(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to load active users: %v", err)
		return nil, err
	}

	roles := distinctRoles(users)
	report := &RunReport{Roles: roles}
	if len(roles) == 0 {
		log.Info("no active users with job roles, nothing to fetch")
		return report, nil
	}

	run := &pipelineRun{
		users:   users,
		report:  report,
		batches: make(map[string][]entities.Job),
	}

	log.Infof("fetching %d roles from %d sources for %d users", len(roles), len(p.sources), len(users))

	for _, role := range roles {
		for _, source := range p.sources {
			if run.fetched && p.settings.SourceDelay > 0 {
				if err = p.sleep(ctx, p.settings.SourceDelay); err != nil {
					return report, err
				}
			}
			if err = ctx.Err(); err != nil {
				return report, err
			}

			run.fetched = true
			p.processSource(ctx, run, source, role)
		}
	}

	p.notifyUsers(ctx, run)

	log.Infof("run finished: %d new, %d duplicates, %d skipped, %d rejected, %d failed, %d broadcast, %d users notified",
		len(report.NewJobs), report.Duplicates, report.Skipped, report.Rejected, report.Failed,
		report.Broadcast, report.NotifiedUsers)

	return report, nil
}

func (p *Pipeline) processSource(ctx context.Context, run *pipelineRun, source *scraper.Source, role string) {

	entry := log.WithFields(log.Fields{"source": source.Name, "role": role})

	body, err := p.fetcher.Fetch(ctx, source.URL(role))
	if err != nil {
		metrics.FetchesCounter.WithLabelValues(source.Name, "error").Inc()
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).Errorf("failed to fetch jobs: %v", err)
		return
	}
	metrics.FetchesCounter.WithLabelValues(source.Name, "ok").Inc()

	results, err := source.Extractor.Extract(body, source.Name, role)
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeParse).Errorf("failed to parse response: %v", err)
		return
	}

	extracted := 0
	for _, result := range results {
		if result.Skipped() {
			run.report.Skipped++
			entry.WithField("reason", result.Reason).Debug("entry skipped")
			continue
		}
		extracted++
		p.processJob(ctx, run, result.Job, entry)
	}

	metrics.ExtractedJobsCounter.WithLabelValues(source.Name).Add(float64(extracted))
	entry.Infof("extracted %d jobs, skipped %d entries", extracted, len(results)-extracted)
}

func (p *Pipeline) processJob(ctx context.Context, run *pipelineRun, job entities.Job, entry *log.Entry) {

	if err := p.validator.Validate(job); err != nil {
		run.report.Rejected++
		entry.WithField("title", job.Title).Debugf("job rejected: %v", err)
		return
	}

	status, err := p.jobs.Save(ctx, &job)
	switch status {
	case repositories.SaveDuplicate:
		run.report.Duplicates++
		metrics.DuplicateJobsCounter.Inc()
		return
	case repositories.SaveFailed:
		run.report.Failed++
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to save job: %v", err)
		return
	}

	run.report.NewJobs = append(run.report.NewJobs, job)
	metrics.StoredJobsCounter.Inc()

	for _, user := range p.matcher.FindMatching(job.Title, job.Location, run.users) {
		run.addMatch(user, job)
	}

	if p.normalizer.IsRecent(job.DatePosted, p.settings.RecencyThresholdDays) {
		run.report.Broadcast++
		p.bus.Publish(events.JobBroadcastTopic, events.JobBroadcast{Job: job})
	}
}

func (p *Pipeline) notifyUsers(ctx context.Context, run *pipelineRun) {
	for _, user := range run.order {
		jobs := run.batches[user.Email]
		if err := p.notifier.NotifyUser(ctx, user, jobs); err != nil {
			log.WithFields(log.Fields{
				logger.ErrorTypeField: logger.ErrorTypeMail,
				"email":               user.Email,
			}).Errorf("failed to notify user about %d jobs: %v", len(jobs), err)
			continue
		}
		run.report.NotifiedUsers++
	}
}

func distinctRoles(users []entities.User) []string {
	roles := lo.Uniq(lo.FlatMap(users, func(user entities.User, _ int) []string {
		return lo.Compact(user.JobRoles)
	}))
	sort.Strings(roles)
	return roles
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
