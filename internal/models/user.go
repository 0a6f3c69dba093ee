package models

import "time"

// User is an externally-issued identity. The id comes from the auth
// provider's token, so it is opaque text rather than a generated uuid.
type User struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
