// src/services/pipeline_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/database"
	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/parsers"
	"github.com/jrkphani/pipeline-pulse-sub003/src/processors"
	"github.com/patrickmn/go-cache"
)

const (
	// Cached aggregation results, invalidated whenever the stored deal set
	// changes for a user.
	ckDashboard = "res_dashboard_user_%d_%s"
	ckDealList  = "res_deal_list_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type pipelineServiceImpl struct {
	resolver    processors.DealResolver
	aggregator  processors.PipelineAggregator
	rateService RateService
	crmService  CRMService
	reportCache *cache.Cache
}

func NewPipelineService(
	resolver processors.DealResolver,
	aggregator processors.PipelineAggregator,
	rateService RateService,
	crmService CRMService,
	reportCache *cache.Cache,
) PipelineService {
	return &pipelineServiceImpl{
		resolver:    resolver,
		aggregator:  aggregator,
		rateService: rateService,
		crmService:  crmService,
		reportCache: reportCache,
	}
}

// ProcessUpload parses one uploaded deal file, resolves the records and
// stores them for the user. Storage preserves input order; re-uploading the
// same deal updates it in place via its content hash instead of duplicating.
func (s *pipelineServiceImpl) ProcessUpload(fileReader io.Reader, userID int64, source string) (*IngestSummary, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "source", source)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	rawRecords, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	deals := s.resolver.ResolveAll(source, rawRecords)
	summary, err := s.storeDeals(userID, source, "", deals)
	if err != nil {
		return nil, err
	}
	summary.Received = len(rawRecords)

	logger.L.Info("ProcessUpload END", "userID", userID, "received", summary.Received, "stored", summary.Stored, "duration", time.Since(overallStartTime))
	return summary, nil
}

// SyncFromCRM pulls the current deal book from the CRM and stores it the
// same way an upload is stored, under the crm-sync source label.
func (s *pipelineServiceImpl) SyncFromCRM(ctx context.Context, userID int64) (*IngestSummary, error) {
	if s.crmService == nil {
		return nil, fmt.Errorf("%w: CRM sync is not configured", ErrCRMSyncFailed)
	}

	batchID, rawRecords, err := s.crmService.FetchDeals(ctx)
	if err != nil {
		return nil, err
	}

	deals := s.resolver.ResolveAll("crm-sync", rawRecords)
	summary, err := s.storeDeals(userID, "crm-sync", batchID, deals)
	if err != nil {
		return nil, err
	}
	summary.Received = len(rawRecords)
	return summary, nil
}

// storeDeals writes a resolved batch inside one transaction. The content
// hash dedupes: a deal seen before gets its mutable fields updated in place,
// keeping its row id and with it the original insertion order.
func (s *pipelineServiceImpl) storeDeals(userID int64, source, batchID string, deals []models.Deal) (*IngestSummary, error) {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO deals
		(user_id, deal_id, source, name, account_name, owner, amount_original, currency_code, explicit_rate, probability, stage, closing_date, country_code, country_name, country_flag, hash_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, hash_id) DO UPDATE SET
			deal_id = excluded.deal_id,
			source = excluded.source,
			stage = excluded.stage,
			probability = excluded.probability`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, deal := range deals {
		var closingDate any
		if deal.HasClosingDate() {
			closingDate = deal.ClosingDate.Format(time.RFC3339)
		}
		_, err := stmt.Exec(userID, deal.ID, source, deal.Name, deal.AccountName, deal.Owner,
			deal.AmountOriginal, deal.CurrencyCode, deal.ExplicitRate, deal.ProbabilityPercent,
			deal.Stage, closingDate, deal.CountryCode, deal.CountryName, deal.CountryFlag, deal.HashId)
		if err != nil {
			return nil, fmt.Errorf("%w: inserting deal %q: %v", ErrProcessingFailed, deal.Name, err)
		}
		stored++
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing deals: %w", err)
	}

	s.InvalidateUserCache(userID)
	return &IngestSummary{BatchID: batchID, Source: source, Stored: stored}, nil
}

// GetDashboard runs the filter and aggregation pipeline over the user's
// stored deals against the current rate snapshot. Results are cached per
// filter selection; the key carries the snapshot's fetch time so a rate
// refresh naturally misses the old entries.
func (s *pipelineServiceImpl) GetDashboard(userID int64, state models.FilterState, now time.Time) (*models.PipelineSummary, error) {
	table := s.rateService.Snapshot()
	cacheKey := fmt.Sprintf(ckDashboard, userID, dashboardSignature(state, table, now))
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for GetDashboard", "userID", userID)
		return cached.(*models.PipelineSummary), nil
	}

	deals, err := s.GetDeals(userID)
	if err != nil {
		return nil, err
	}

	filtered := processors.ApplyFilters(deals, state.DateFilter, state.Probability, now)
	summary := s.aggregator.Aggregate(filtered, table)

	s.reportCache.Set(cacheKey, &summary, DefaultCacheExpiration)
	return &summary, nil
}

// dashboardSignature keys one aggregation result: the filter selection, the
// rate snapshot generation, and the preset day (presets resolve against the
// clock, so a cached "this month" result must not survive into tomorrow).
func dashboardSignature(state models.FilterState, table *models.RateTable, now time.Time) string {
	fetched := int64(0)
	if table != nil {
		fetched = table.FetchedAt.Unix()
	}
	return fmt.Sprintf("%s_%d_%d_%.2f_%.2f_%d_%s",
		state.DateFilter.Kind,
		state.DateFilter.StartDate.Unix(), state.DateFilter.EndDate.Unix(),
		state.Probability.Min, state.Probability.Max,
		fetched, now.Format("2006-01-02"))
}

// GetDeals returns the user's stored canonical deals in insertion order.
func (s *pipelineServiceImpl) GetDeals(userID int64) ([]models.Deal, error) {
	cacheKey := fmt.Sprintf(ckDealList, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for GetDeals", "userID", userID)
		return cached.([]models.Deal), nil
	}

	rows, err := database.DB.Query(`SELECT deal_id, source, name, account_name, owner, amount_original, currency_code, explicit_rate, probability, stage, closing_date, country_code, country_name, country_flag, hash_id
		FROM deals WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying deals for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var deal models.Deal
		var closingDate sql.NullString
		scanErr := rows.Scan(&deal.ID, &deal.Source, &deal.Name, &deal.AccountName, &deal.Owner,
			&deal.AmountOriginal, &deal.CurrencyCode, &deal.ExplicitRate, &deal.ProbabilityPercent,
			&deal.Stage, &closingDate, &deal.CountryCode, &deal.CountryName, &deal.CountryFlag, &deal.HashId)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning deal row for userID %d: %w", userID, scanErr)
		}
		if closingDate.Valid && closingDate.String != "" {
			if t, parseErr := time.Parse(time.RFC3339, closingDate.String); parseErr == nil {
				deal.ClosingDate = t
			}
		}
		deals = append(deals, deal)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over deal rows for userID %d: %w", userID, err)
	}

	s.reportCache.Set(cacheKey, deals, DefaultCacheExpiration)
	logger.L.Info("DB fetch complete.", "userID", userID, "dealCount", len(deals))
	return deals, nil
}

// DeleteAllDeals clears the user's stored deal set and filter state.
func (s *pipelineServiceImpl) DeleteAllDeals(userID int64) error {
	if _, err := database.DB.Exec(`DELETE FROM deals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting deals for userID %d: %w", userID, err)
	}
	if _, err := database.DB.Exec(`DELETE FROM filter_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting filter state for userID %d: %w", userID, err)
	}
	s.InvalidateUserCache(userID)
	logger.L.Info("Deleted all deals for user", "userID", userID)
	return nil
}

// HasData reports whether the user has any stored deals.
func (s *pipelineServiceImpl) HasData(userID int64) (bool, error) {
	var count int
	err := database.DB.QueryRow(`SELECT COUNT(1) FROM deals WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error counting deals for userID %d: %w", userID, err)
	}
	return count > 0, nil
}

// InvalidateUserCache clears all cached data for a user, forcing a complete
// rebuild on the next request. Dashboard entries are keyed by filter
// signature, so the whole key space is swept by prefix.
func (s *pipelineServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckDealList, userID))
	prefix := fmt.Sprintf("res_dashboard_user_%d_", userID)
	for key := range s.reportCache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.reportCache.Delete(key)
		}
	}
	logger.L.Info("Invalidated all caches for user", "userID", userID)
}
