// src/handlers/rates_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/services"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

type RatesHandler struct {
	rateService services.RateService
}

func NewRatesHandler(rateService services.RateService) *RatesHandler {
	return &RatesHandler{
		rateService: rateService,
	}
}

// HandleGetRateStatus reports the cache classification the engine itself
// uses, plus currency count and age, for the dashboard's rates badge.
func (h *RatesHandler) HandleGetRateStatus(w http.ResponseWriter, r *http.Request) {
	info := h.rateService.Status(time.Now())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// HandleRefreshRates triggers a refresh on operator demand, outside the
// cron schedule.
func (h *RatesHandler) HandleRefreshRates(w http.ResponseWriter, r *http.Request) {
	if err := h.rateService.Refresh(r.Context()); err != nil {
		logger.L.Warn("Manual rate refresh failed", "error", err)
		status := http.StatusBadGateway
		if !errors.Is(err, services.ErrRateFetchFailed) {
			status = http.StatusInternalServerError
		}
		utils.SendJSONError(w, "Rate refresh failed; previous snapshot retained", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.rateService.Status(time.Now()))
}
