package entity

import (
	"math"
	"time"
)

type EngagementStatus string

const (
	StatusPending   EngagementStatus = "Pending"
	StatusCompleted EngagementStatus = "Completed"
	StatusDenied    EngagementStatus = "Denied"
)

// Terminal reports whether no further transition is allowed.
func (s EngagementStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDenied
}

// Award values credited to the freelancer.
const (
	CompletionPoints = 10
	ReviewPoints     = 5
)

// Engagement is one hire of a freelancer by a client for a named project.
// It is stored once and referenced by both parties.
type Engagement struct {
	ID                    string           `json:"id"`
	FreelancerID          string           `json:"freelancer_id"`
	ClientID              string           `json:"client_id"`
	FreelancerDisplayName string           `json:"freelancer_name"`
	ClientDisplayName     string           `json:"client_name"`
	Project               string           `json:"project"`
	Status                EngagementStatus `json:"status"`
	CreatedAt             time.Time        `json:"date"`
	Review                string           `json:"review"`
	Rating                int              `json:"rating"`
}

// Reviewed reports whether the write-once review has been stored.
func (e *Engagement) Reviewed() bool { return e.Review != "" }

// AggregateRating is the mean of ratings > 0 rounded to one decimal, and the number of reviews.
func AggregateRating(engagements []Engagement) (rating float64, reviewCount int) {
	sum, n := 0, 0
	for _, e := range engagements {
		if e.Rating > 0 {
			sum += e.Rating
			n++
		}
		if e.Review != "" {
			reviewCount++
		}
	}
	if n == 0 {
		return 0, reviewCount
	}
	return math.Round(float64(sum)/float64(n)*10) / 10, reviewCount
}
