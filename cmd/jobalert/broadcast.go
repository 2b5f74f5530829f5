package main

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobalert/internal/clients/telegram"
	"github.com/maxaizer/jobalert/internal/config"
	log "github.com/sirupsen/logrus"
)

// newBus returns the event bus with the channel broadcaster subscribed when
// telegram is configured. Pending posts are abandoned once ctx is done.
func newBus(ctx context.Context, cfg config.TelegramConfig) EventBus.Bus {
	bus := EventBus.New()

	if !cfg.Enabled() {
		log.Warn("telegram token or channel is not set, broadcasting is disabled")
		return bus
	}

	if _, err := telegram.NewBroadcaster(ctx, cfg.Token, cfg.ChannelID, bus); err != nil {
		log.Errorf("can't create telegram broadcaster, broadcasting is disabled: %v", err)
	}
	return bus
}
