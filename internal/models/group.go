package models

import "time"

// ResolvedGroup is the canonical descriptor returned by the external
// directory service for one identifier. It lives only within a pipeline run.
type ResolvedGroup struct {
	ExternalID  int64  `json:"id"`
	Name        string `json:"name"`
	ScreenName  string `json:"screen_name,omitempty"`
	MemberCount int    `json:"members_count"`
	Closed      bool   `json:"is_closed"`
}

// GroupRecord is the durable form of a resolved group, tagged with the
// originating task id for later auditing or bulk deletion by task.
type GroupRecord struct {
	ID          string    `json:"id" badgerhold:"key"`
	ExternalID  int64     `json:"external_id" badgerhold:"index"`
	Name        string    `json:"name"`
	ScreenName  string    `json:"screen_name,omitempty"`
	MemberCount int       `json:"member_count"`
	Closed      bool      `json:"closed"`
	TaskID      string    `json:"task_id" badgerhold:"index"`
	CreatedAt   time.Time `json:"created_at"`
}
