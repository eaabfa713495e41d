package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/models"
	"github.com/ternarybob/congrego/internal/taskstore"
	apimodels "github.com/ternarybob/congrego/pkg/models"
)

func newTaskHandlerWithTask(t *testing.T, task *models.UploadTask) *TaskHandler {
	t.Helper()
	store := taskstore.NewMemoryStore(arbor.NewLogger())
	if task != nil {
		require.NoError(t, store.Create(context.Background(), task))
	}
	return NewTaskHandler(store, arbor.NewLogger())
}

func TestGetTaskHandler(t *testing.T) {
	task := models.NewUploadTask("task-abc", "groups.txt", 3, 1, 0)
	task.MarkProcessing()
	h := newTaskHandlerWithTask(t, task)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/task-abc", nil)
	rec := httptest.NewRecorder()
	h.GetTaskHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view apimodels.TaskView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "task-abc", view.ID)
	assert.Equal(t, "processing", view.Status)
	assert.Equal(t, 3, view.Progress.Total)
	assert.Equal(t, 1, view.Progress.Invalid)
	assert.NotNil(t, view.StartedAt)
}

func TestGetTaskHandler_NotFound(t *testing.T) {
	h := newTaskHandlerWithTask(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/missing", nil)
	rec := httptest.NewRecorder()
	h.GetTaskHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskHandler_MissingID(t *testing.T) {
	h := newTaskHandlerWithTask(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	h.GetTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTaskHandler_WrongMethod(t *testing.T) {
	h := newTaskHandlerWithTask(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-abc", nil)
	rec := httptest.NewRecorder()
	h.GetTaskHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListTasksHandler(t *testing.T) {
	h := newTaskHandlerWithTask(t, models.NewUploadTask("task-1", "a.txt", 1, 0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListTasksHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tasks []apimodels.TaskView `json:"tasks"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "task-1", body.Tasks[0].ID)
}

func TestDeleteTaskHandler(t *testing.T) {
	h := newTaskHandlerWithTask(t, models.NewUploadTask("task-1", "a.txt", 1, 0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/task-1", nil)
	rec := httptest.NewRecorder()
	h.DeleteTaskHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// The record is gone afterwards.
	req = httptest.NewRequest(http.MethodGet, "/api/tasks/task-1", nil)
	rec = httptest.NewRecorder()
	h.GetTaskHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
