package models

// Category labels transactions and budgets.
type Category struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Type      string  `json:"type"`
	Color     string  `json:"color"`
	IsDefault bool    `json:"is_default"`
}
