package csvexport

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestParseSpreadsheetExport(t *testing.T) {
	csvData := `Deal Name,Account Name,Owner,Amount,Currency,Exchange Rate,Probability (%),Stage,Country,Closing Date
Acme Expansion,Acme Corp,Alice Tan,"100,000",USD,1.35,80,Negotiation,Singapore,2025-06-30
Initech Rollout,Initech,Bob Lim,150000,MYR,,90,Negotiation,Malaysia,2025-07-15
`

	records, err := NewParser().Parse(strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Acme Expansion", first["Deal Name"])
	assert.Equal(t, "Acme Corp", first["Account Name"])
	assert.Equal(t, "Alice Tan", first["Owner"])
	assert.Equal(t, 100000.0, first["Amount"], "thousands separators are stripped")
	assert.Equal(t, "USD", first["Currency"])
	assert.Equal(t, 1.35, first["Exchange Rate"])
	assert.Equal(t, 80.0, first["Probability (%)"])
	assert.Equal(t, "Singapore", first["Country"])
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), first["Closing Date"])

	second := records[1]
	assert.Equal(t, 150000.0, second["Amount"])
	_, present := second["Exchange Rate"]
	assert.False(t, present, "an empty cell stays absent rather than becoming zero")
}

func TestParseColumnOrderIrrelevant(t *testing.T) {
	csvData := `Amount,Deal Name
5000,Reordered Deal
`

	records, err := NewParser().Parse(strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "Reordered Deal", records[0]["Deal Name"])
	assert.Equal(t, 5000.0, records[0]["Amount"])
}

func TestParseIgnoresUnknownColumnsAndShortRows(t *testing.T) {
	csvData := `Deal Name,Internal Notes,Amount
Short Row Deal
Full Deal,secret notes,1234
`

	records, err := NewParser().Parse(strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Equal(t, "Short Row Deal", records[0]["Deal Name"])
	_, present := records[0]["Amount"]
	assert.False(t, present)

	_, present = records[1]["Internal Notes"]
	assert.False(t, present, "unrecognized columns never enter the record")
	assert.Equal(t, 1234.0, records[1]["Amount"])
}

func TestParseSkipsUnparseableNumbers(t *testing.T) {
	csvData := `Deal Name,Amount,Probability (%)
Bad Amount Deal,not-a-number,50
`

	records, err := NewParser().Parse(strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Len(t, records, 1)

	_, present := records[0]["Amount"]
	assert.False(t, present, "an unparseable number stays absent; the row survives")
	assert.Equal(t, 50.0, records[0]["Probability (%)"])
}

func TestParseSanitizesFormulaCells(t *testing.T) {
	csvData := `Deal Name,Owner
=HYPERLINK(""http://evil""),Alice Tan
`

	records, err := NewParser().Parse(strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Len(t, records, 1)

	name := records[0]["Deal Name"].(string)
	assert.True(t, strings.HasPrefix(name, "'="), "formula cells get neutralized")
}

func TestParseRejectsUnrecognizedHeader(t *testing.T) {
	csvData := `Foo,Bar
1,2
`

	_, err := NewParser().Parse(strings.NewReader(csvData))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized deal columns")
}

func TestParseEmptyBodyYieldsNoRecords(t *testing.T) {
	csvData := "Deal Name,Amount\n"

	records, err := NewParser().Parse(strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Empty(t, records)
}
