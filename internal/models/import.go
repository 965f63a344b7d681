package models

import "time"

// ImportRun records one catalog import into the code store.
type ImportRun struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"record_count"`
	Skipped     int       `json:"skipped"`
	CreatedAt   time.Time `json:"created_at"`
}
