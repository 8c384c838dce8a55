// src/handlers/sync_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/services"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

type SyncHandler struct {
	pipelineService services.PipelineService
}

func NewSyncHandler(pipelineService services.PipelineService) *SyncHandler {
	return &SyncHandler{
		pipelineService: pipelineService,
	}
}

// HandleSync pulls the user's deal book from the CRM and stores it.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	logger.L.Info("Handling CRM sync request", "userID", userID)
	result, err := h.pipelineService.SyncFromCRM(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrCRMSyncFailed) {
			logger.L.Warn("CRM sync failed", "userID", userID, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("CRM sync failed: %v", err), http.StatusBadGateway)
		} else {
			logger.L.Error("Internal error during CRM sync", "userID", userID, "error", err)
			utils.SendJSONError(w, "An internal error occurred during CRM sync. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
