package models

import "github.com/shopspring/decimal"

// Budget is a monthly spending cap for one category.
type Budget struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id"`
	CategoryID *string         `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
}
