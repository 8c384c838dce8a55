// src/parsers/crmjson/parser.go
package crmjson

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/security/validation"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

// Keys whose values are date strings in the CRM export.
var dateKeys = map[string]bool{
	"Closing_Date": true,
	"closing_date": true,
}

type CRMJSONParser struct{}

func NewParser() *CRMJSONParser {
	return &CRMJSONParser{}
}

// Parse reads a CRM JSON export: either a bare array of deal objects or the
// API's `{"data": [...]}` envelope. Keys pass through with their API
// spellings; date strings become time values and string cells are sanitized.
// JSON numbers are already float64 after decoding, which is exactly what the
// field resolver expects.
func (p *CRMJSONParser) Parse(file io.Reader) ([]models.RawDealRecord, error) {
	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(payload, &objects); err != nil {
		var envelope struct {
			Data []map[string]any `json:"data"`
		}
		if envErr := json.Unmarshal(payload, &envelope); envErr != nil || envelope.Data == nil {
			return nil, fmt.Errorf("failed to decode JSON deal export: %w", err)
		}
		objects = envelope.Data
	}

	records := make([]models.RawDealRecord, 0, len(objects))
	for _, obj := range objects {
		record := models.RawDealRecord{}
		for key, value := range obj {
			switch v := value.(type) {
			case string:
				if dateKeys[key] {
					if t := utils.ParseDate(v); !t.IsZero() {
						record[key] = t
					}
					continue
				}
				record[key] = validation.SanitizeCell(v)
			case nil:
				// Absent stays absent.
			default:
				record[key] = value
			}
		}
		if len(record) == 0 {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}
