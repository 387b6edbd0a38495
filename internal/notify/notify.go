// Package notify delivers alert messages to product owners. The owner id is
// the Telegram chat id; other senders forward it as-is.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/pricewatch/internal/config"
)

// Sender delivers one message to one owner.
type Sender interface {
	Send(ctx context.Context, ownerID int64, message string) error
}

// New builds the sender selected by cfg.Notifier. The returned close func
// releases any connection the sender holds.
func New(cfg *config.Config, logger *slog.Logger) (Sender, func() error, error) {
	switch cfg.Notifier {
	case config.NotifierTelegram:
		if cfg.TelegramBotToken == "" {
			return nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram notifier")
		}
		return NewTelegram(cfg.TelegramAPIURL, cfg.TelegramBotToken, logger), noClose, nil

	case config.NotifierAMQP:
		if cfg.AMQPURL == "" {
			return nil, nil, fmt.Errorf("AMQP_URL is required for the amqp notifier")
		}
		p, err := NewPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil

	default:
		return NewLogSender(logger), noClose, nil
	}
}

func noClose() error { return nil }
