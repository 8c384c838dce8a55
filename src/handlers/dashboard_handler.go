// src/handlers/dashboard_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/services"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

type DashboardHandler struct {
	pipelineService services.PipelineService
}

func NewDashboardHandler(pipelineService services.PipelineService) *DashboardHandler {
	return &DashboardHandler{
		pipelineService: pipelineService,
	}
}

// HandleGetDashboard serves the aggregated pipeline view. Filter selection
// comes from query parameters when present, otherwise from the user's
// persisted filter state, otherwise the unrestricted defaults.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	state := loadFilterState(userID)
	state = applyFilterQueryParams(state, r)

	summary, err := h.pipelineService.GetDashboard(userID, state, time.Now())
	if err != nil {
		logger.L.Error("Error building dashboard", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error building dashboard for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(summary)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for dashboard", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for dashboard", "userID", userID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		logger.L.Error("Error generating JSON response for dashboard", "userID", userID, "error", err)
	}
}

// HandleGetDeals returns the user's canonical deals as stored, in
// upload/sync order.
func (h *DashboardHandler) HandleGetDeals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	deals, err := h.pipelineService.GetDeals(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving deals for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if deals == nil {
		deals = []models.Deal{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deals)
}

// HandleDeleteAllDeals clears the user's stored deal set.
func (h *DashboardHandler) HandleDeleteAllDeals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.pipelineService.DeleteAllDeals(userID); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error deleting deals for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "All deals deleted"})
}

// applyFilterQueryParams overlays query parameters onto a filter state.
// Bad values fall back to what the state already held; the dashboard renders
// with the best interpretation rather than erroring.
func applyFilterQueryParams(state models.FilterState, r *http.Request) models.FilterState {
	q := r.URL.Query()

	if kind := q.Get("date_filter"); kind != "" {
		state.DateFilter = models.DateFilter{Kind: models.DateFilterKind(kind)}
		if state.DateFilter.Kind == models.DateFilterCustom {
			if start := q.Get("start_date"); start != "" {
				state.DateFilter.StartDate = utils.ParseDate(start)
			}
			if end := q.Get("end_date"); end != "" {
				state.DateFilter.EndDate = utils.ParseDate(end)
			}
		}
	}

	if minStr := q.Get("prob_min"); minStr != "" {
		if v, err := strconv.ParseFloat(minStr, 64); err == nil {
			state.Probability.Min = v
		}
	}
	if maxStr := q.Get("prob_max"); maxStr != "" {
		if v, err := strconv.ParseFloat(maxStr, 64); err == nil {
			state.Probability.Max = v
		}
	}

	return state
}
