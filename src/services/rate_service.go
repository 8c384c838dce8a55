// src/services/rate_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/processors"
	"golang.org/x/net/publicsuffix"
)

// rateServiceImpl holds the current rate snapshot behind a RWMutex. Readers
// get the snapshot pointer and never see a partially-written table; Refresh
// builds a complete new table before swapping it in.
type rateServiceImpl struct {
	httpClient        http.Client
	baseURL           string
	reportingCurrency string
	staleThreshold    time.Duration
	alertService      AlertService

	mu    sync.RWMutex
	table *models.RateTable
}

// NewRateService creates the rate-refresh collaborator. The snapshot starts
// empty; callers schedule Refresh at boot and on a cron interval.
func NewRateService(baseURL, reportingCurrency string, staleThreshold time.Duration, alertService AlertService) RateService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &rateServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		baseURL:           baseURL,
		reportingCurrency: reportingCurrency,
		staleThreshold:    staleThreshold,
		alertService:      alertService,
	}
}

// Refresh fetches the latest rate table and publishes it as a new immutable
// snapshot. A failed fetch keeps the previous snapshot in place; the old
// table keeps serving conversions and degrades to stale purely by age. When
// a failure leaves the cache stale or empty, operators get an email.
func (s *rateServiceImpl) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/latest?base=%s", s.baseURL, s.reportingCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRateFetchFailed, err)
	}
	req.Header.Set("User-Agent", "PipelinePulse/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.refreshFailed(fmt.Errorf("%w: %v", ErrRateFetchFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.refreshFailed(fmt.Errorf("%w: rate API returned status %d", ErrRateFetchFailed, resp.StatusCode))
	}

	var payload models.RateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return s.refreshFailed(fmt.Errorf("%w: decoding rate API response: %v", ErrRateFetchFailed, err))
	}
	if len(payload.Rates) == 0 {
		return s.refreshFailed(fmt.Errorf("%w: rate API returned no rates", ErrRateFetchFailed))
	}

	table := &models.RateTable{
		Base:      payload.Base,
		Rates:     payload.Rates,
		FetchedAt: time.Now(),
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()

	logger.L.Info("Rate table refreshed", "base", table.Base, "currencies", len(table.Rates))
	return nil
}

// refreshFailed logs the failure and alerts operators if the surviving
// snapshot is no longer fresh. The error is returned for manual-refresh
// callers; scheduled callers just log it.
func (s *rateServiceImpl) refreshFailed(err error) error {
	info := s.Status(time.Now())
	logger.L.Warn("Rate refresh failed, keeping previous snapshot",
		"error", err, "cacheStatus", info.Status, "currencies", info.CurrencyCount)

	if info.Status != models.RateCacheFresh && s.alertService != nil {
		if alertErr := s.alertService.SendRateCacheAlert(info, err); alertErr != nil {
			logger.L.Error("Failed to send rate cache alert", "error", alertErr)
		}
	}
	return err
}

// Snapshot returns the current rate table, nil while the cache is empty.
// The returned table must be treated as read-only.
func (s *rateServiceImpl) Snapshot() *models.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Status classifies the snapshot for the status endpoint, with the same rule
// the conversion engine applies.
func (s *rateServiceImpl) Status(now time.Time) models.RateCacheInfo {
	return processors.DescribeRateCache(s.Snapshot(), now, s.staleThreshold)
}
