package common

import (
	"github.com/google/uuid"
)

// NewTaskID generates a unique upload-task ID with the "task_" prefix
// Format: task_<uuid>
func NewTaskID() string {
	return "task_" + uuid.New().String()
}

// NewGroupRecordID generates a unique stored-group record ID with the "grp_" prefix
// Format: grp_<uuid>
func NewGroupRecordID() string {
	return "grp_" + uuid.New().String()
}
