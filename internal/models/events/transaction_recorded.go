package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecorded is published after a transaction and its balance
// adjustment have committed.
type TransactionRecorded struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
