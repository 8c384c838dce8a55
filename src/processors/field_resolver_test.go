package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

func TestResolveAliasPrecedence(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	tests := []struct {
		name string
		raw  models.RawDealRecord
		want string
	}{
		{
			name: "API spelling wins over lowercase",
			raw:  models.RawDealRecord{"Deal_Name": "Acme Expansion", "name": "old spelling"},
			want: "Acme Expansion",
		},
		{
			name: "human header spelling wins over lowercase",
			raw:  models.RawDealRecord{"Deal Name": "Acme Expansion", "name": "old spelling"},
			want: "Acme Expansion",
		},
		{
			name: "lowercase used when it is all there is",
			raw:  models.RawDealRecord{"name": "Acme Expansion"},
			want: "Acme Expansion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := resolver.Resolve(tt.raw)
			assert.Equal(t, tt.want, deal.Name)
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	// A record carrying nothing at all still resolves to a renderable deal.
	deal := resolver.Resolve(models.RawDealRecord{})

	assert.Equal(t, "", deal.Name)
	assert.Equal(t, UnassignedOwner, deal.Owner)
	assert.Equal(t, 0.0, deal.AmountOriginal)
	assert.Equal(t, "SGD", deal.CurrencyCode)
	assert.Equal(t, 0.0, deal.ExplicitRate)
	assert.Equal(t, 0.0, deal.ProbabilityPercent)
	assert.Equal(t, "", deal.Stage)
	assert.False(t, deal.HasClosingDate())
	assert.Equal(t, "XX", deal.CountryCode)
	assert.Equal(t, "Unknown", deal.CountryName)
	assert.NotEmpty(t, deal.HashId)
	assert.Equal(t, deal.HashId, deal.ID, "missing source id falls back to the content hash")
}

func TestResolveEmptyOwnerIsUnassigned(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	deal := resolver.Resolve(models.RawDealRecord{"Owner": ""})
	assert.Equal(t, UnassignedOwner, deal.Owner)

	deal = resolver.Resolve(models.RawDealRecord{"Owner": "Alice Tan"})
	assert.Equal(t, "Alice Tan", deal.Owner)
}

func TestResolveNormalizesCurrencyCode(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	deal := resolver.Resolve(models.RawDealRecord{"Currency": " usd "})
	assert.Equal(t, "USD", deal.CurrencyCode)

	deal = resolver.Resolve(models.RawDealRecord{"Currency": ""})
	assert.Equal(t, "SGD", deal.CurrencyCode, "empty currency takes the reporting default")
}

func TestResolveCountry(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	tests := []struct {
		name     string
		raw      models.RawDealRecord
		wantCode string
		wantName string
	}{
		{
			name:     "known country resolves to table entry",
			raw:      models.RawDealRecord{"Country": "singapore"},
			wantCode: "SG",
			wantName: "Singapore",
		},
		{
			name:     "unrecognized country keeps raw spelling under sentinel code",
			raw:      models.RawDealRecord{"Country": "Atlantis"},
			wantCode: "XX",
			wantName: "Atlantis",
		},
		{
			name:     "absent country is the full sentinel",
			raw:      models.RawDealRecord{},
			wantCode: "XX",
			wantName: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := resolver.Resolve(tt.raw)
			assert.Equal(t, tt.wantCode, deal.CountryCode)
			assert.Equal(t, tt.wantName, deal.CountryName)
		})
	}
}

func TestResolveHashIgnoresStageAndProbability(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	base := models.RawDealRecord{
		"Deal_Name":    "Acme Expansion",
		"Account_Name": "Acme Corp",
		"Owner":        "Alice Tan",
		"Amount":       100000.0,
		"Currency":     "USD",
		"Closing_Date": time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		"Stage":        "Qualification",
		"Probability":  20.0,
	}
	advanced := models.RawDealRecord{
		"Deal_Name":    "Acme Expansion",
		"Account_Name": "Acme Corp",
		"Owner":        "Alice Tan",
		"Amount":       100000.0,
		"Currency":     "USD",
		"Closing_Date": time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		"Stage":        "Negotiation",
		"Probability":  75.0,
	}

	// The same deal moving through the pipeline keeps its identity; a re-sync
	// updates in place instead of duplicating.
	assert.Equal(t, resolver.Resolve(base).HashId, resolver.Resolve(advanced).HashId)

	renamed := models.RawDealRecord{
		"Deal_Name":    "Acme Expansion Phase 2",
		"Account_Name": "Acme Corp",
		"Owner":        "Alice Tan",
		"Amount":       100000.0,
		"Currency":     "USD",
		"Closing_Date": time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.NotEqual(t, resolver.Resolve(base).HashId, resolver.Resolve(renamed).HashId)
}

func TestResolveSourceIDWinsOverHash(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	deal := resolver.Resolve(models.RawDealRecord{"id": "crm-4711", "Deal_Name": "Acme Expansion"})
	assert.Equal(t, "crm-4711", deal.ID)
	assert.NotEqual(t, deal.HashId, deal.ID)
}

func TestResolveNumericTypes(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	tests := []struct {
		name string
		raw  models.RawDealRecord
		want float64
	}{
		{name: "float64 as decoded from JSON", raw: models.RawDealRecord{"Amount": 150000.5}, want: 150000.5},
		{name: "int", raw: models.RawDealRecord{"Amount": 150000}, want: 150000},
		{name: "int64", raw: models.RawDealRecord{"Amount": int64(150000)}, want: 150000},
		{name: "string amount is not silently parsed", raw: models.RawDealRecord{"Amount": "150000"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := resolver.Resolve(tt.raw)
			assert.Equal(t, tt.want, deal.AmountOriginal)
		})
	}
}

func TestResolveAllPreservesOrderAndStampsSource(t *testing.T) {
	resolver := NewFieldResolver("SGD")

	raws := []models.RawDealRecord{
		{"Deal_Name": "first"},
		{"Deal_Name": "second"},
		{"Deal_Name": "third"},
	}

	deals := resolver.ResolveAll("crm-sync", raws)

	assert.Len(t, deals, 3)
	assert.Equal(t, "first", deals[0].Name)
	assert.Equal(t, "second", deals[1].Name)
	assert.Equal(t, "third", deals[2].Name)
	for _, deal := range deals {
		assert.Equal(t, "crm-sync", deal.Source)
	}
}
