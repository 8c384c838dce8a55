// src/processors/field_resolver.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

// Alias-priority tables, one per canonical attribute. Keys are probed in
// order and the first present value wins. Spellings differ by record origin:
// CRM sync sends API names ("Deal_Name"), file exports send human headers
// ("Deal Name"), older snapshots send lowercase. Adding a historical spelling
// is a one-line change here, no resolution logic moves.
var (
	idAliases           = []string{"id", "Id", "ID"}
	nameAliases         = []string{"Deal_Name", "Deal Name", "name"}
	accountNameAliases  = []string{"Account_Name", "Account Name", "account_name"}
	ownerAliases        = []string{"Owner", "Deal_Owner", "owner"}
	amountAliases       = []string{"Amount", "amount"}
	currencyAliases     = []string{"Currency", "Currency_Code", "currency"}
	explicitRateAliases = []string{"Exchange_Rate", "Exchange Rate", "exchange_rate"}
	probabilityAliases  = []string{"Probability", "Probability (%)", "probability"}
	stageAliases        = []string{"Stage", "stage"}
	countryAliases      = []string{"Country", "Billing_Country", "country"}
	closingDateAliases  = []string{"Closing_Date", "Closing Date", "closing_date"}
)

// UnassignedOwner is the sentinel owner for deals no account manager claims.
const UnassignedOwner = "Unassigned"

type fieldResolverImpl struct {
	reportingCurrency string
}

// NewFieldResolver creates a DealResolver. The reporting currency becomes the
// default currency code for records that carry none.
func NewFieldResolver(reportingCurrency string) DealResolver {
	return &fieldResolverImpl{reportingCurrency: reportingCurrency}
}

// Resolve builds a canonical Deal from a loosely-typed record. It is total:
// every attribute has a default, so a partial or malformed record yields a
// renderable Deal instead of blocking the rest of the batch. The source
// record is never mutated.
func (r *fieldResolverImpl) Resolve(raw models.RawDealRecord) models.Deal {
	var deal models.Deal

	deal.Name, _ = stringField(raw, nameAliases)
	deal.AccountName, _ = stringField(raw, accountNameAliases)

	deal.Owner = UnassignedOwner
	if owner, found := stringField(raw, ownerAliases); found && owner != "" {
		deal.Owner = owner
	}

	deal.AmountOriginal, _ = numberField(raw, amountAliases)

	deal.CurrencyCode = r.reportingCurrency
	if code, found := stringField(raw, currencyAliases); found && code != "" {
		deal.CurrencyCode = strings.ToUpper(strings.TrimSpace(code))
	}

	deal.ExplicitRate, _ = numberField(raw, explicitRateAliases)
	deal.ProbabilityPercent, _ = numberField(raw, probabilityAliases)
	deal.Stage, _ = stringField(raw, stageAliases)
	deal.ClosingDate, _ = timeField(raw, closingDateAliases)

	rawCountry, _ := stringField(raw, countryAliases)
	country := utils.LookupCountry(rawCountry)
	deal.CountryCode = country.Code
	deal.CountryName = country.Name
	deal.CountryFlag = country.Flag

	deal.HashId = dealHash(deal)
	deal.ID = deal.HashId
	if id, found := stringField(raw, idAliases); found && id != "" {
		deal.ID = id
	}
	return deal
}

// ResolveAll resolves a batch in order and stamps each deal with the source
// label. Input order is preserved; the dashboard renders it as-is.
func (r *fieldResolverImpl) ResolveAll(source string, raws []models.RawDealRecord) []models.Deal {
	deals := make([]models.Deal, 0, len(raws))
	for _, raw := range raws {
		deal := r.Resolve(raw)
		deal.Source = source
		deals = append(deals, deal)
	}
	return deals
}

// dealHash fingerprints a deal's identity fields. Stage and probability are
// excluded so a deal that advances through the pipeline keeps its hash and a
// re-sync updates it in place instead of duplicating it.
func dealHash(d models.Deal) string {
	input := fmt.Sprintf("%s|%s|%s|%.2f|%s|%s",
		d.Name, d.AccountName, d.Owner, d.AmountOriginal, d.CurrencyCode,
		d.ClosingDate.Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// stringField probes the alias list and returns the first present string.
func stringField(raw models.RawDealRecord, aliases []string) (string, bool) {
	for _, key := range aliases {
		if value, present := raw[key]; present {
			if s, ok := value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// numberField probes the alias list and returns the first present numeric
// value. Sources supply numbers as float64 (JSON) or typed ints, never as
// strings needing further parsing.
func numberField(raw models.RawDealRecord, aliases []string) (float64, bool) {
	for _, key := range aliases {
		value, present := raw[key]
		if !present {
			continue
		}
		switch n := value.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

// timeField probes the alias list and returns the first present time value.
func timeField(raw models.RawDealRecord, aliases []string) (time.Time, bool) {
	for _, key := range aliases {
		if value, present := raw[key]; present {
			if t, ok := value.(time.Time); ok && !t.IsZero() {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
