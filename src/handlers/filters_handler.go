// src/handlers/filters_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/database"
	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

type FilterHandler struct{}

func NewFilterHandler() *FilterHandler {
	return &FilterHandler{}
}

// HandleGetFilterState returns the user's persisted dashboard filter
// selection, defaults when none has been saved yet.
func (h *FilterHandler) HandleGetFilterState(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	state := loadFilterState(userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// HandlePutFilterState persists the user's dashboard filter selection so it
// survives sessions. The stored state is input to the engine, never output.
func (h *FilterHandler) HandlePutFilterState(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var state models.FilterState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if state.DateFilter.Kind == "" {
		state.DateFilter.Kind = models.DateFilterAll
	}
	if state.Probability.Min > state.Probability.Max {
		utils.SendJSONError(w, "prob_min must not exceed prob_max", http.StatusBadRequest)
		return
	}

	if err := saveFilterState(userID, state); err != nil {
		logger.L.Error("Failed to save filter state", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error saving filter state for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// loadFilterState reads the persisted selection, falling back to the
// unrestricted defaults when the user never saved one or the row is
// unreadable. The dashboard must render regardless.
func loadFilterState(userID int64) models.FilterState {
	state := models.DefaultFilterState()

	var kind string
	var startDate, endDate sql.NullString
	var probMin, probMax float64
	err := database.DB.QueryRow(`SELECT date_kind, start_date, end_date, prob_min, prob_max FROM filter_states WHERE user_id = ?`, userID).
		Scan(&kind, &startDate, &endDate, &probMin, &probMax)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.L.Warn("Failed to load filter state, using defaults", "userID", userID, "error", err)
		}
		return state
	}

	state.DateFilter.Kind = models.DateFilterKind(kind)
	if startDate.Valid && startDate.String != "" {
		state.DateFilter.StartDate = utils.ParseDate(startDate.String)
	}
	if endDate.Valid && endDate.String != "" {
		state.DateFilter.EndDate = utils.ParseDate(endDate.String)
	}
	state.Probability.Min = probMin
	state.Probability.Max = probMax
	return state
}

func saveFilterState(userID int64, state models.FilterState) error {
	var startDate, endDate any
	if !state.DateFilter.StartDate.IsZero() {
		startDate = state.DateFilter.StartDate.Format("2006-01-02")
	}
	if !state.DateFilter.EndDate.IsZero() {
		endDate = state.DateFilter.EndDate.Format("2006-01-02")
	}

	_, err := database.DB.Exec(`INSERT INTO filter_states (user_id, date_kind, start_date, end_date, prob_min, prob_max, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			date_kind = excluded.date_kind,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			prob_min = excluded.prob_min,
			prob_max = excluded.prob_max,
			updated_at = excluded.updated_at`,
		userID, string(state.DateFilter.Kind), startDate, endDate,
		state.Probability.Min, state.Probability.Max, time.Now())
	return err
}
