package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/models"
	"github.com/ternarybob/congrego/internal/parser"
	"github.com/ternarybob/congrego/internal/pipeline"
	"github.com/ternarybob/congrego/internal/taskstore"
	apimodels "github.com/ternarybob/congrego/pkg/models"
)

type stubDirectory struct{}

func (stubDirectory) ResolveGroups(ctx context.Context, refs []string) ([]models.ResolvedGroup, error) {
	return nil, nil
}

type stubGroupStorage struct{}

func (stubGroupStorage) ExistsByExternalID(ctx context.Context, externalID int64) (bool, error) {
	return false, nil
}
func (stubGroupStorage) BulkInsert(ctx context.Context, records []*models.GroupRecord) (int, error) {
	return len(records), nil
}
func (stubGroupStorage) CountGroups(ctx context.Context) (int, error) { return 0, nil }
func (stubGroupStorage) ListGroups(ctx context.Context, limit, offset int) ([]*models.GroupRecord, error) {
	return nil, nil
}
func (stubGroupStorage) DeleteByTaskID(ctx context.Context, taskID string) (int, error) {
	return 0, nil
}

func newUploadHandler(t *testing.T) *UploadHandler {
	t.Helper()
	logger := arbor.NewLogger()
	uploadCfg := common.UploadConfig{
		MaxFileSize:       1024,
		AllowedExtensions: []string{".txt"},
	}

	resolver := pipeline.NewBatchResolver(stubDirectory{}, 10, pipeline.NewFixedDelayer(0), logger)
	svc := pipeline.NewService(
		parser.NewLineParser(),
		resolver,
		pipeline.NewDeduper(stubGroupStorage{}, logger),
		taskstore.NewMemoryStore(logger),
		nil,
		uploadCfg,
		logger,
	)
	t.Cleanup(svc.Close)

	return NewUploadHandler(svc, uploadCfg, logger)
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/groups/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadGroupsHandler_Accepted(t *testing.T) {
	h := newUploadHandler(t)

	rec := httptest.NewRecorder()
	h.UploadGroupsHandler(rec, multipartUpload(t, "groups.txt", "123\n456\n"))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp apimodels.UploadAccepted
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, "groups.txt", resp.Filename)
	assert.Equal(t, 2, resp.TotalParsed)
	assert.Equal(t, 0, resp.InvalidCount)
}

func TestUploadGroupsHandler_RejectsWrongExtension(t *testing.T) {
	h := newUploadHandler(t)

	rec := httptest.NewRecorder()
	h.UploadGroupsHandler(rec, multipartUpload(t, "groups.csv", "123\n"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadGroupsHandler_MissingFileField(t *testing.T) {
	h := newUploadHandler(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/groups/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	h.UploadGroupsHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadGroupsHandler_WrongMethod(t *testing.T) {
	h := newUploadHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/groups/upload", nil)
	rec := httptest.NewRecorder()
	h.UploadGroupsHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
