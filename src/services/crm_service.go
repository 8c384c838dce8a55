// src/services/crm_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"golang.org/x/oauth2"
)

// crmDealsPage is the JSON shape of one page of the CRM deals listing.
type crmDealsPage struct {
	Data []map[string]any `json:"data"`
	Info struct {
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

type crmServiceImpl struct {
	oauthConfig  *oauth2.Config
	refreshToken string
	baseURL      string
	pageSize     int
}

// NewCRMService creates the live-sync record source. Authentication is the
// refresh-token grant: the CRM issued a long-lived refresh token at install
// time and oauth2 mints short-lived access tokens from it per request batch.
func NewCRMService(baseURL, clientID, clientSecret, refreshToken, tokenURL string, pageSize int) CRMService {
	return &crmServiceImpl{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		refreshToken: refreshToken,
		baseURL:      baseURL,
		pageSize:     pageSize,
	}
}

// FetchDeals pulls the full deal book, page by page, and returns the raw
// records with their API key spellings intact. The uuid batch id ties the
// log lines of one sync run together.
func (s *crmServiceImpl) FetchDeals(ctx context.Context) (string, []models.RawDealRecord, error) {
	batchID := uuid.New().String()
	logger.L.Info("CRM sync START", "batchID", batchID)

	tokenSource := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken})
	client := oauth2.NewClient(ctx, tokenSource)
	client.Timeout = 30 * time.Second

	var records []models.RawDealRecord
	for page := 1; ; page++ {
		pageData, err := s.fetchPage(ctx, client, page)
		if err != nil {
			return batchID, nil, fmt.Errorf("%w: page %d: %v", ErrCRMSyncFailed, page, err)
		}
		for _, obj := range pageData.Data {
			records = append(records, models.RawDealRecord(obj))
		}
		if !pageData.Info.MoreRecords {
			break
		}
		time.Sleep(250 * time.Millisecond) // Respectful delay
	}

	logger.L.Info("CRM sync END", "batchID", batchID, "records", len(records))
	return batchID, records, nil
}

func (s *crmServiceImpl) fetchPage(ctx context.Context, client *http.Client, page int) (*crmDealsPage, error) {
	url := fmt.Sprintf("%s/deals?page=%d&per_page=%d", s.baseURL, page, s.pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The CRM answers 204 for an empty deal book rather than an empty page.
	if resp.StatusCode == http.StatusNoContent {
		return &crmDealsPage{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CRM API returned status %d", resp.StatusCode)
	}

	var pageData crmDealsPage
	if err := json.NewDecoder(resp.Body).Decode(&pageData); err != nil {
		return nil, fmt.Errorf("decoding CRM response: %w", err)
	}
	return &pageData, nil
}
