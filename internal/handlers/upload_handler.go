package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/pipeline"
	apimodels "github.com/ternarybob/congrego/pkg/models"
)

// UploadHandler handles group file upload requests
type UploadHandler struct {
	pipeline *pipeline.Service
	upload   common.UploadConfig
	logger   arbor.ILogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(pipelineService *pipeline.Service, upload common.UploadConfig, logger arbor.ILogger) *UploadHandler {
	return &UploadHandler{
		pipeline: pipelineService,
		upload:   upload,
		logger:   logger,
	}
}

// UploadGroupsHandler accepts a multipart file of group identifiers and
// starts asynchronous ingestion
// POST /api/groups/upload (multipart field "file")
func (h *UploadHandler) UploadGroupsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseMultipartForm(h.upload.MaxFileSize); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	result, err := h.pipeline.Submit(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.logger.Warn().Err(err).Str("filename", header.Filename).Msg("Upload rejected")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, apimodels.UploadAccepted{
		TaskID:       result.TaskID,
		Filename:     header.Filename,
		TotalParsed:  result.TotalParsed,
		InvalidCount: result.InvalidCount,
	})
}
