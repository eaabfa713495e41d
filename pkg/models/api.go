// Package models holds the public API payload types returned by the HTTP
// surface. Internal records are projected into these before serialization.
package models

import "time"

// UploadAccepted is the synchronous response to a file upload
type UploadAccepted struct {
	TaskID       string `json:"task_id"`
	Filename     string `json:"filename"`
	TotalParsed  int    `json:"total_parsed"`
	InvalidCount int    `json:"invalid_count"`
}

// TaskProgressView is the progress block of a task status response
type TaskProgressView struct {
	Total      int     `json:"total"`
	Processed  int     `json:"processed"`
	Valid      int     `json:"valid"`
	Invalid    int     `json:"invalid"`
	Duplicates int     `json:"duplicates"`
	Percentage float64 `json:"percentage"`
}

// TaskView is the public projection of an upload task
type TaskView struct {
	ID            string           `json:"id"`
	Filename      string           `json:"filename"`
	Status        string           `json:"status"`
	Progress      TaskProgressView `json:"progress"`
	Errors        []string         `json:"errors,omitempty"`
	FailureReason string           `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// GroupView is the public projection of a stored group record
type GroupView struct {
	ID          string    `json:"id"`
	ExternalID  int64     `json:"external_id"`
	Name        string    `json:"name"`
	ScreenName  string    `json:"screen_name,omitempty"`
	MemberCount int       `json:"member_count"`
	Closed      bool      `json:"closed"`
	TaskID      string    `json:"task_id"`
	CreatedAt   time.Time `json:"created_at"`
}
