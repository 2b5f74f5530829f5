package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/maxaizer/jobalert/internal/events"
	"github.com/maxaizer/jobalert/internal/logger"
	"github.com/maxaizer/jobalert/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type api interface {
	Send(c botApi.Chattable) (botApi.Message, error)
}

// Broadcaster posts recent jobs to a public channel.
type Broadcaster struct {
	ctx     context.Context
	api     api
	channel string
	limiter *rate.Limiter
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// NewBroadcaster subscribes to job broadcasts. ctx bounds the wait for the
// rate limiter, so cancelling it stops posting.
func NewBroadcaster(ctx context.Context, token, channel string, bus EventBus.Bus) (*Broadcaster, error) {

	botAPI, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", botAPI.Self.UserName)

	if err = botApi.SetLogger(log.StandardLogger()); err != nil {
		return nil, err
	}

	return newBroadcaster(ctx, botAPI, channel, bus)
}

func newBroadcaster(ctx context.Context, api api, channel string, bus EventBus.Bus) (*Broadcaster, error) {
	if bus == nil {
		return nil, errors.New("bus is nil")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("channel is empty")
	}

	b := &Broadcaster{
		ctx:     ctx,
		api:     api,
		channel: strings.TrimSpace(channel),
		// channels accept about 20 posts per minute
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 20),
	}

	if err := bus.Subscribe(events.JobBroadcastTopic, b.onJobBroadcast); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broadcaster) Broadcast(ctx context.Context, job entities.Job) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := b.newMessage(FormatJob(job))
	msg.ParseMode = botApi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		metrics.NotificationsCounter.WithLabelValues("telegram", "error").Inc()
		return errors.Wrapf(err, "failed to post %q", job.Title)
	}

	metrics.NotificationsCounter.WithLabelValues("telegram", "ok").Inc()
	return nil
}

// numeric ids address the chat directly, anything else is a @username
func (b *Broadcaster) newMessage(text string) botApi.MessageConfig {
	if id, err := strconv.ParseInt(b.channel, 10, 64); err == nil {
		return botApi.NewMessage(id, text)
	}
	return botApi.NewMessageToChannel(b.channel, text)
}

func (b *Broadcaster) onJobBroadcast(event events.JobBroadcast) {
	if err := b.Broadcast(b.ctx, event.Job); err != nil {
		log.WithFields(log.Fields{
			logger.ErrorTypeField: logger.ErrorTypeTgApi,
			"source":              event.Job.Source,
		}).Errorf("error occurred while broadcasting job: %v", err)
	}
}

func FormatJob(job entities.Job) string {
	posted := job.DatePosted
	if strings.TrimSpace(posted) == "" {
		posted = "N/A"
	}

	return fmt.Sprintf("🆕 *%s*\n🏢 %s\n📍 %s\n📅 Posted: %s\n🔗 Source: %s",
		escapeMarkdown(job.Title),
		escapeMarkdown(job.Company),
		escapeMarkdown(job.Location),
		escapeMarkdown(posted),
		escapeMarkdown(job.Source))
}

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
