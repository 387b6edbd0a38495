package notify

import (
	"context"
	"log/slog"
)

// LogSender logs messages instead of delivering them. Used in development
// and when no delivery channel is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message and always succeeds.
func (s *LogSender) Send(ctx context.Context, ownerID int64, message string) error {
	s.logger.Info("Alert (delivery disabled)", "owner_id", ownerID, "message", message)
	return nil
}
