package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

var (
	ErrParsingFailed    = errors.New("parsing failed")
	ErrProcessingFailed = errors.New("processing failed")
	ErrRateFetchFailed  = errors.New("rate fetch failed")
	ErrCRMSyncFailed    = errors.New("crm sync failed")
)

// IngestSummary reports what one upload or sync batch did to the stored
// deal set.
type IngestSummary struct {
	BatchID  string `json:"batch_id"`
	Source   string `json:"source"`
	Received int    `json:"received"`
	Stored   int    `json:"stored"`
}

// PipelineService owns the stored deal set and runs the
// resolve -> filter -> aggregate pipeline over it.
type PipelineService interface {
	ProcessUpload(fileReader io.Reader, userID int64, source string) (*IngestSummary, error)
	SyncFromCRM(ctx context.Context, userID int64) (*IngestSummary, error)
	GetDashboard(userID int64, state models.FilterState, now time.Time) (*models.PipelineSummary, error)
	GetDeals(userID int64) ([]models.Deal, error)
	DeleteAllDeals(userID int64) error
	HasData(userID int64) (bool, error)
	InvalidateUserCache(userID int64)
}

// RateService is the refresh collaborator for the exchange-rate snapshot.
// The snapshot it hands out is immutable; a refresh publishes a new one and
// a failed refresh keeps the old one, degrading fresh to stale by age alone.
type RateService interface {
	Refresh(ctx context.Context) error
	Snapshot() *models.RateTable
	Status(now time.Time) models.RateCacheInfo
}

// CRMService pulls the current deal book from the CRM REST API.
// Records keep the API key spellings; resolution happens downstream.
type CRMService interface {
	FetchDeals(ctx context.Context) (batchID string, records []models.RawDealRecord, err error)
}

// AlertService notifies operators when the rate cache degrades.
type AlertService interface {
	SendRateCacheAlert(info models.RateCacheInfo, cause error) error
}
