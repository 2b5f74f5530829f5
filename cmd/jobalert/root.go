package main

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobalert/internal/clients/email"
	"github.com/maxaizer/jobalert/internal/config"
	"github.com/maxaizer/jobalert/internal/logger"
	"github.com/maxaizer/jobalert/internal/repositories"
	"github.com/maxaizer/jobalert/internal/scraper"
	"github.com/maxaizer/jobalert/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "jobalert",
	Short:        "Job postings scraper and alerting service",
	Long:         "jobalert scrapes career sites for the roles users asked for and alerts them about new postings.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"path to config file (default: CONFIG_PATH env var or ./configs/config.yaml)")
}

// store is the part of the application every command needs.
type store struct {
	cfg   *config.Config
	db    *repositories.DbContext
	jobs  *repositories.Jobs
	users *repositories.Users
}

func openStore(ctx context.Context) (*store, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	logger.Setup(ctx, cfg.Logger)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		return nil, errors.Wrap(err, "can't create db context")
	}

	if err = dbContext.Migrate(); err != nil {
		_ = dbContext.Close()
		return nil, errors.Wrap(err, "can't migrate db context")
	}

	return &store{
		cfg:   cfg,
		db:    dbContext,
		jobs:  repositories.NewJobsRepository(dbContext.DB),
		users: repositories.NewUsersRepository(dbContext.DB),
	}, nil
}

func (s *store) Close() {
	if err := s.db.Close(); err != nil {
		log.Errorf("failed to close db: %v", err)
	}
	logger.Cleanup()
}

// newScheduler wires the pipeline with its transports.
func newScheduler(s *store, bus EventBus.Bus) (*services.Scheduler, error) {
	cfg := s.cfg

	sources, err := scraper.NewSources(cfg.Scraper.Sources)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sources")
	}

	client := scraper.NewClient(cfg.Scraper.RequestTimeout)
	client.SetRateLimit(cfg.Scraper.MaxRequestsPerSecond)

	var sender services.MailSender
	if cfg.Mail.Enabled() {
		mailer, err := email.NewMailer(cfg.Mail)
		if err != nil {
			return nil, err
		}
		sender = mailer
	} else {
		log.Warn("mail credentials are not set, email notifications are disabled")
	}

	notifications := services.NewNotifications(sender, cfg.Mail.AdminAddress(), s.users)

	pipeline := services.NewPipeline(bus, client, sources, repositories.NewCachedJobs(s.jobs), s.users,
		notifications, services.PipelineSettings{
			SourceDelay:          cfg.Scraper.SourceDelay,
			RecencyThresholdDays: cfg.Scraper.RecencyThresholdDays,
			CanonicalRoles:       cfg.Scraper.JobRoles,
		})

	return services.NewScheduler(pipeline, notifications), nil
}
