// Package models holds the persisted entities shared by the store, the
// tracker and the API.
package models

import "time"

// User is the owner of tracked products. ID doubles as the chat id the
// notifier delivers to.
type User struct {
	ID            int64  `json:"id"`
	PlanID        string `json:"plan"`
	CheckInterval string `json:"check_interval,omitempty"` // empty = plan default
	MaxProducts   int    `json:"max_products,omitempty"`   // 0 = plan default
	Active        bool   `json:"active"`
}

// TrackedProduct is a single product a user watches.
type TrackedProduct struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	SourceRef        string     `json:"url"`
	Title            string     `json:"title"`
	CurrentPrice     *float64   `json:"current_price"`
	TargetPrice      *float64   `json:"target_price,omitempty"`
	Currency         string     `json:"currency"`
	LastCheckedAt    *time.Time `json:"last_checked_at"`
	LastAlertedPrice *float64   `json:"last_alerted_price,omitempty"`
	LastAlertedAt    *time.Time `json:"last_alerted_at,omitempty"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Price returns the current price, or 0 when the product has never been
// checked successfully.
func (p TrackedProduct) Price() float64 {
	if p.CurrentPrice == nil {
		return 0
	}
	return *p.CurrentPrice
}

// Candidate is a product loaded for a sweep together with its owner.
type Candidate struct {
	Product TrackedProduct
	Owner   User
}

// HistoryEntry is one observed price.
type HistoryEntry struct {
	ProductID  int64     `json:"product_id"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Quote is the result of a single fetch against the quote source.
type Quote struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

// NewProduct is the input for registering a product.
type NewProduct struct {
	UserID      int64
	SourceRef   string
	TargetPrice *float64
	Currency    string
}

// AlertRecord is an audit row for an attempted notification.
type AlertRecord struct {
	ProductID int64
	UserID    int64
	OldPrice  float64
	NewPrice  float64
	Priority  string
	Reason    string
	Status    string // sent | failed
	Error     string
}
