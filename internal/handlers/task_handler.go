package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
	apimodels "github.com/ternarybob/congrego/pkg/models"
)

// TaskHandler handles task status API requests
type TaskHandler struct {
	tasks  interfaces.TaskStore
	logger arbor.ILogger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks interfaces.TaskStore, logger arbor.ILogger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// GetTaskHandler returns one task by id
// GET /api/tasks/{id}
func (h *TaskHandler) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	taskID := taskIDFromPath(r.URL.Path)
	if taskID == "" {
		WriteError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	task, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, interfaces.ErrTaskNotFound) {
			WriteError(w, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to get task")
		WriteError(w, http.StatusInternalServerError, "Failed to get task")
		return
	}

	WriteJSON(w, http.StatusOK, taskView(task))
}

// ListTasksHandler returns the most recent tasks, newest first
// GET /api/tasks?limit=50
func (h *TaskHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, _ := GetListParams(r, 50)
	tasks, err := h.tasks.List(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list tasks")
		WriteError(w, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	views := make([]apimodels.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView(t))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": views,
		"count": len(views),
	})
}

// DeleteTaskHandler removes a task record
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	taskID := taskIDFromPath(r.URL.Path)
	if taskID == "" {
		WriteError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID); err != nil {
		h.logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to delete task")
		WriteError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	WriteSuccess(w, "Task deleted")
}

// taskIDFromPath extracts the id from /api/tasks/{id}
func taskIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

func taskView(t *models.UploadTask) apimodels.TaskView {
	return apimodels.TaskView{
		ID:       t.ID,
		Filename: t.Filename,
		Status:   string(t.Status),
		Progress: apimodels.TaskProgressView{
			Total:      t.Progress.Total,
			Processed:  t.Progress.Processed,
			Valid:      t.Progress.Valid,
			Invalid:    t.Progress.Invalid,
			Duplicates: t.Progress.Duplicates,
			Percentage: t.Progress.Percentage,
		},
		Errors:        t.Errors,
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		StartedAt:     t.StartedAt,
		CompletedAt:   t.CompletedAt,
	}
}
