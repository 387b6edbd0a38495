// Package listener provides a Postgres LISTEN/NOTIFY consumer that gives
// newly tracked products their first price check. It holds a dedicated pgx
// connection (not from the pool) listening on the `product_added` channel.
//
// The tracked_products insert trigger fires pg_notify and this consumer runs
// an immediate check for the new product, so its current price and first
// history entry exist before the next scheduled sweep.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/pricewatch/internal/tracker"
)

const (
	channel          = "product_added"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// ProductAddedEvent is the JSON payload from pg_notify('product_added', ...).
type ProductAddedEvent struct {
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
	Timestamp int64 `json:"ts"`
}

// Checker runs a single immediate product check.
type Checker interface {
	CheckSingle(ctx context.Context, productID int64) (tracker.CheckResult, error)
}

// ParseEvent decodes a notification payload.
func ParseEvent(payload string) (ProductAddedEvent, error) {
	var event ProductAddedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, err
	}
	if event.ProductID <= 0 {
		return event, fmt.Errorf("missing product_id")
	}
	return event, nil
}

// Start opens a dedicated connection and listens on the product_added
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, checker Checker, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, checker, logger)
		if ctx.Err() != nil {
			logger.Info("Product listener stopped (context cancelled)")
			return
		}

		logger.Error("Product listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, checker Checker, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Product listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(ctx, checker, notification.Payload, logger)
	}
}

// Handle processes one notification payload. Checks run one at a time;
// notifications that arrive meanwhile are buffered by the connection.
func Handle(ctx context.Context, checker Checker, payload string, logger *slog.Logger) {
	event, err := ParseEvent(payload)
	if err != nil {
		logger.Warn("Failed to parse product event", "payload", payload, "error", err)
		return
	}

	logger = logger.With("product_id", event.ProductID, "user_id", event.UserID)

	res, err := checker.CheckSingle(ctx, event.ProductID)
	switch {
	case errors.Is(err, tracker.ErrInactive):
		logger.Debug("Skipping first check for inactive product")
	case err != nil:
		logger.Warn("First check failed", "error", err)
	default:
		logger.Info("First check complete", "title", res.Title, "price", res.NewPrice)
	}
}
