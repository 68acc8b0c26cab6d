package model

import "time"

// Funding records a monetary contribution to the platform. Fundings
// are append-only: never mutated or deleted, only aggregated.
type Funding struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}
