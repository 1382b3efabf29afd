package models

import "time"

// SportReport holds the counters of one sport within a cycle
type SportReport struct {
	SportKey      string `json:"sport_key"`
	Events        int    `json:"events"`
	InWindow      int    `json:"in_window"`
	Evaluated     int    `json:"evaluated"`
	Accepted      int    `json:"accepted"`
	Rejected      int    `json:"rejected"`
	Duplicates    int    `json:"duplicates"`
	InvalidPrices int    `json:"invalid_prices"`
	HistoryRows   int    `json:"history_rows"`
	FetchError    string `json:"fetch_error,omitempty"`
}

// CycleReport summarises one fetch-evaluate-notify cycle
type CycleReport struct {
	CycleID           string        `json:"cycle_id"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at"`
	Sports            []SportReport `json:"sports"`
	Emitted           int           `json:"emitted"`
	NotificationsSent int           `json:"notifications_sent"`
	NotificationsFail int           `json:"notifications_failed"`
	NotificationsHeld int           `json:"notifications_held"` // over the per-cycle cap
}

// Duration returns how long the cycle ran
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
