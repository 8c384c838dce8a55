// src/parsers/csvexport/parser.go
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/security/validation"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

// Expected header spellings for a spreadsheet deal export. Column order is
// not fixed; the header row decides which column feeds which key.
var knownHeaders = map[string]bool{
	"Deal Name":       true,
	"Account Name":    true,
	"Amount":          true,
	"Currency":        true,
	"Exchange Rate":   true,
	"Probability (%)": true,
	"Stage":           true,
	"Owner":           true,
	"Country":         true,
	"Closing Date":    true,
}

// Columns carrying numbers rather than text.
var numericHeaders = map[string]bool{
	"Amount":          true,
	"Exchange Rate":   true,
	"Probability (%)": true,
}

type CSVExportParser struct{}

func NewParser() *CSVExportParser {
	return &CSVExportParser{}
}

// Parse reads a spreadsheet deal export. Each row becomes one record keyed
// by the human header spellings; numeric columns are parsed here so the
// field resolver only ever sees numbers-or-absent, and string cells are
// sanitized before they enter the pipeline. Rows shorter than the header
// keep whatever cells they do have.
func (p *CSVExportParser) Parse(file io.Reader) ([]models.RawDealRecord, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	recognized := 0
	for i, name := range header {
		name = strings.TrimSpace(name)
		columns[i] = name
		if knownHeaders[name] {
			recognized++
		}
	}
	if recognized == 0 {
		return nil, fmt.Errorf("no recognized deal columns in CSV header: %v", header)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	records := make([]models.RawDealRecord, 0, len(rows))
	for i, row := range rows {
		record := models.RawDealRecord{}
		for col, cell := range row {
			if col >= len(columns) {
				break
			}
			key := columns[col]
			if key == "" || !knownHeaders[key] {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if numericHeaders[key] {
				value, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
				if err != nil {
					logger.L.Warn("Skipping unparseable numeric cell", "row", i+2, "column", key, "value", cell)
					continue
				}
				record[key] = value
				continue
			}
			if key == "Closing Date" {
				if t := utils.ParseDate(cell); !t.IsZero() {
					record[key] = t
				}
				continue
			}
			record[key] = validation.SanitizeCell(cell)
		}
		if len(record) == 0 {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}
