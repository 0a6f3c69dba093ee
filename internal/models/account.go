package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds money for a single user. Balance always equals the sum of
// signed transaction effects applied since creation; the storage layer's
// RecordTransaction is the only writer allowed to change it.
type Account struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"user_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Color     string          `json:"color"`
	Icon      string          `json:"icon"`
	CreatedAt time.Time       `json:"created_at"`
}
