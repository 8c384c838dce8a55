package crmjson

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBareArray(t *testing.T) {
	jsonData := `[
		{"Deal_Name": "Acme Expansion", "Amount": 100000, "Currency": "USD",
		 "Probability": 80, "Stage": "Negotiation", "Billing_Country": "Singapore",
		 "Closing_Date": "2025-06-30"},
		{"Deal_Name": "Initech Rollout", "Amount": 150000.5, "Currency": "MYR"}
	]`

	records, err := NewParser().Parse(strings.NewReader(jsonData))
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Acme Expansion", first["Deal_Name"])
	assert.Equal(t, 100000.0, first["Amount"], "JSON numbers decode to float64")
	assert.Equal(t, 80.0, first["Probability"])
	assert.Equal(t, "Singapore", first["Billing_Country"])
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), first["Closing_Date"])

	assert.Equal(t, 150000.5, records[1]["Amount"])
}

func TestParseDataEnvelope(t *testing.T) {
	jsonData := `{"data": [{"Deal_Name": "Enveloped Deal", "Amount": 42000}],
		"info": {"more_records": false}}`

	records, err := NewParser().Parse(strings.NewReader(jsonData))
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "Enveloped Deal", records[0]["Deal_Name"])
}

func TestParseDropsNullsAndEmptyObjects(t *testing.T) {
	jsonData := `[
		{"Deal_Name": "Partial Deal", "Owner": null, "Amount": 1000},
		{"Owner": null}
	]`

	records, err := NewParser().Parse(strings.NewReader(jsonData))
	assert.NoError(t, err)
	assert.Len(t, records, 1, "a record with only nulls is dropped entirely")

	_, present := records[0]["Owner"]
	assert.False(t, present, "null values stay absent for the resolver")
	assert.Equal(t, 1000.0, records[0]["Amount"])
}

func TestParseUnparseableDateStaysAbsent(t *testing.T) {
	jsonData := `[{"Deal_Name": "Bad Date Deal", "Closing_Date": "soon"}]`

	records, err := NewParser().Parse(strings.NewReader(jsonData))
	assert.NoError(t, err)
	assert.Len(t, records, 1)

	_, present := records[0]["Closing_Date"]
	assert.False(t, present)
}

func TestParseSanitizesStrings(t *testing.T) {
	jsonData := `[{"Deal_Name": "=cmd|calc"}]`

	records, err := NewParser().Parse(strings.NewReader(jsonData))
	assert.NoError(t, err)

	name := records[0]["Deal_Name"].(string)
	assert.True(t, strings.HasPrefix(name, "'="))
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader(`{"deals": "not-a-list"}`))
	assert.Error(t, err)

	_, err = NewParser().Parse(strings.NewReader(`not json`))
	assert.Error(t, err)
}
