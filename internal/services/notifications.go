package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/maxaizer/jobalert/internal/logger"
	"github.com/maxaizer/jobalert/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MailSender delivers one plain-text message.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type activeUserCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// Notifications composes user alerts and run summaries. With a nil sender
// messages are only logged.
type Notifications struct {
	mail  MailSender
	admin string
	users activeUserCounter
	now   func() time.Time
}

func NewNotifications(mail MailSender, adminAddress string, users activeUserCounter) *Notifications {
	return &Notifications{mail: mail, admin: adminAddress, users: users, now: time.Now}
}

func (n *Notifications) NotifyUser(ctx context.Context, user entities.User, jobs []entities.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	subject := UserAlertSubject(len(jobs))
	if n.mail == nil {
		log.WithField("email", user.Email).Infof("mail disabled, skipping alert %q", subject)
		return nil
	}

	if err := n.mail.Send(ctx, user.Email, subject, composeUserAlert(user, jobs)); err != nil {
		metrics.NotificationsCounter.WithLabelValues("email", "error").Inc()
		return errors.Wrapf(err, "failed to send alert to %s", user.Email)
	}

	metrics.NotificationsCounter.WithLabelValues("email", "ok").Inc()
	log.WithField("email", user.Email).Infof("sent alert with %d jobs", len(jobs))
	return nil
}

// NotifySummary sends the admin a short report after a run that found jobs.
func (n *Notifications) NotifySummary(ctx context.Context, newJobs int) error {
	activeUsers, err := n.users.CountActive(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to count active users: %v", err)
	}

	subject := fmt.Sprintf("Job Tracker Summary - %d jobs processed", newJobs)
	if n.mail == nil || n.admin == "" {
		log.Infof("mail disabled, skipping summary %q", subject)
		return nil
	}

	body := composeSummary(newJobs, activeUsers, n.now())
	if err = n.mail.Send(ctx, n.admin, subject, body); err != nil {
		metrics.NotificationsCounter.WithLabelValues("summary", "error").Inc()
		return errors.Wrap(err, "failed to send summary")
	}

	metrics.NotificationsCounter.WithLabelValues("summary", "ok").Inc()
	return nil
}

func UserAlertSubject(count int) string {
	return fmt.Sprintf("%d New Job(s) Matching Your Preferences", count)
}

func composeUserAlert(user entities.User, jobs []entities.Job) string {
	var b strings.Builder

	b.WriteString("Hi there!\n\nHere are the new jobs that match your preferences:\n\n")
	for _, job := range jobs {
		fmt.Fprintf(&b, "Company: %s\n", job.Company)
		fmt.Fprintf(&b, "Title: %s\n", job.Title)
		fmt.Fprintf(&b, "Location: %s\n", job.Location)
		fmt.Fprintf(&b, "Posted: %s\n", valueOr(job.DatePosted, "N/A"))
		fmt.Fprintf(&b, "Source: %s\n\n---\n\n", job.Source)
	}

	fmt.Fprintf(&b, "Your selected roles: %s\n", strings.Join(user.JobRoles, ", "))
	fmt.Fprintf(&b, "Your selected locations: %s\n\n", strings.Join(user.Locations, ", "))
	b.WriteString("Happy job hunting!\n\n---\nJob Tracker Bot\n")
	return b.String()
}

func composeSummary(newJobs int, activeUsers int64, completedAt time.Time) string {
	return fmt.Sprintf("Job Tracker Summary:\n\n"+
		"Total Jobs Processed: %d\n"+
		"Total Active Users: %d\n"+
		"Scan Completed: %s\n\n---\nJob Tracker System\n",
		newJobs, activeUsers, completedAt.Format("2006-01-02 15:04:05"))
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
