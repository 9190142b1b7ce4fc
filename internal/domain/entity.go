package domain

import (
	"time"
)

// Run outcomes stored in RunRecord.Outcome
const (
	RunOutcomeRunning     = "running"
	RunOutcomeDone        = "done"
	RunOutcomeFatal       = "fatal"
	RunOutcomeInterrupted = "interrupted"
)

// RunRecord is the persisted summary of one scheduler run
type RunRecord struct {
	RunID      string    `gorm:"primaryKey" json:"run_id"`
	Symbol     string    `json:"symbol" gorm:"index"`
	MaxOrders  int       `json:"max_orders"`
	Opened     int       `json:"opened"`
	Cancelled  int       `json:"cancelled"`
	Outcome    string    `json:"outcome"`
	LastError  string    `json:"last_error"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// OrderRecord is the persisted lifecycle of one placed order.
// Exchange ids repeat across runs (paper ids restart at 1), so the key is (run_id, order_id).
type OrderRecord struct {
	RunID         string    `gorm:"primaryKey" json:"run_id"`
	OrderID       string    `gorm:"primaryKey" json:"order_id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Price         string    `json:"price"` // Decimal string, exactly as submitted
	Qty           string    `json:"qty"`
	Status        string    `json:"status"` // Exchange status on placement, then "CANCELED"
	PlacedAt      time.Time `json:"placed_at"`
	CancelledAt   time.Time `json:"cancelled_at"`
}
