package entity

import (
	"time"
)

// Identity is the opaque user reference the core reads from the user store.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"-"`
}

// User is the freelancer/client record as far as the ledger is concerned:
// identity plus the reputation fields the ledger maintains.
type User struct {
	Identity
	Points      int
	Rating      float64
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PreviousWork is a portfolio entry appended when an engagement completes.
type PreviousWork struct {
	ID           string    `json:"id"`
	FreelancerID string    `json:"-"`
	EngagementID string    `json:"engagement_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Client       string    `json:"client"`
	CompletedAt  time.Time `json:"date"`
}
