package models

import "time"

// CheckIn records a user signalling presence at a court.
type CheckIn struct {
	UserID    string    `json:"user_id"`
	CourtID   string    `json:"court_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckInEvent is emitted after a check-in is recorded. PlayerCounts holds the
// live count of every court whose count changed.
type CheckInEvent struct {
	UserID          string         `json:"user_id"`
	CourtID         string         `json:"court_id"`
	PreviousCourtID string         `json:"previous_court_id,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	PlayerCounts    map[string]int `json:"player_counts"`
}
