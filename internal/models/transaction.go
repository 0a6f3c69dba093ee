package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TypeIncome is the only transaction type that credits an account; every
// other type debits it.
const TypeIncome = "income"

// Transaction is one recorded ledger event. Rows are immutable once written;
// recording one is what triggers the one-time balance adjustment on the
// referenced account. AccountID and CategoryID are optional: a transaction
// may exist unattached to any account (a planning-only entry).
type Transaction struct {
	ID            string          `json:"id"`
	UserID        *string         `json:"user_id"`
	AccountID     *string         `json:"account_id"`
	CategoryID    *string         `json:"category_id"`
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SignedAmount returns the amount with the sign implied by the transaction
// type: positive for income, negative for everything else.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
