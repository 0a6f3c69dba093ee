package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringTransaction is a template for transactions that repeat on a
// schedule. Only storage is implemented; nothing in the server materializes
// these into transactions.
type RecurringTransaction struct {
	ID            string          `json:"id"`
	UserID        *string         `json:"user_id"`
	AccountID     *string         `json:"account_id"`
	CategoryID    *string         `json:"category_id"`
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Frequency     string          `json:"frequency"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
	NextDate      time.Time       `json:"next_date"`
}
