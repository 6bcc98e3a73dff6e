package entity

import "time"

// TaskEntry is one tracked time slot
type TaskEntry struct {
	ID          int64     `json:"id"`
	ProjectID   string    `json:"project_id"`
	Day         string    `json:"day"` // YYYY-MM-DD
	Description string    `json:"description"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Billable    bool      `json:"billable"`
}

// Duration returns the tracked time, never negative
func (t *TaskEntry) Duration() time.Duration {
	if t.To.Before(t.From) {
		return 0
	}
	return t.To.Sub(t.From)
}
