package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/interfaces"
	apimodels "github.com/ternarybob/congrego/pkg/models"
)

// GroupHandler handles stored-group API requests
type GroupHandler struct {
	groups interfaces.GroupStorage
	logger arbor.ILogger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups interfaces.GroupStorage, logger arbor.ILogger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

// ListGroupsHandler returns stored groups, newest first
// GET /api/groups?limit=50&offset=0
func (h *GroupHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	limit, offset := GetListParams(r, 50)
	records, err := h.groups.ListGroups(ctx, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list groups")
		WriteError(w, http.StatusInternalServerError, "Failed to list groups")
		return
	}

	totalCount, err := h.groups.CountGroups(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count groups")
		totalCount = len(records)
	}

	views := make([]apimodels.GroupView, 0, len(records))
	for _, rec := range records {
		views = append(views, apimodels.GroupView{
			ID:          rec.ID,
			ExternalID:  rec.ExternalID,
			Name:        rec.Name,
			ScreenName:  rec.ScreenName,
			MemberCount: rec.MemberCount,
			Closed:      rec.Closed,
			TaskID:      rec.TaskID,
			CreatedAt:   rec.CreatedAt,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"groups":      views,
		"total_count": totalCount,
		"limit":       limit,
		"offset":      offset,
	})
}

// GroupStatsHandler returns aggregate counts for stored groups
// GET /api/groups/stats
func (h *GroupHandler) GroupStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	totalCount, err := h.groups.CountGroups(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count groups")
		WriteError(w, http.StatusInternalServerError, "Failed to count groups")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total_count": totalCount,
	})
}
