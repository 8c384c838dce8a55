package utils

import "strings"

// CountryInfo is one entry of the closed country lookup table.
type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// UnknownCountry is the sentinel returned for any country name outside the
// table. Downstream grouping and iconography key on Code, so the sentinel
// keeps those stable no matter what the source record carried.
var UnknownCountry = CountryInfo{Code: "XX", Name: "Unknown", Flag: "🌍"}

// countryTable maps normalized country names to their entry. The table is
// closed: adding a market is a one-line change here, nothing else moves.
var countryTable = map[string]CountryInfo{
	"singapore":      {Code: "SG", Name: "Singapore", Flag: "🇸🇬"},
	"malaysia":       {Code: "MY", Name: "Malaysia", Flag: "🇲🇾"},
	"indonesia":      {Code: "ID", Name: "Indonesia", Flag: "🇮🇩"},
	"thailand":       {Code: "TH", Name: "Thailand", Flag: "🇹🇭"},
	"philippines":    {Code: "PH", Name: "Philippines", Flag: "🇵🇭"},
	"vietnam":        {Code: "VN", Name: "Vietnam", Flag: "🇻🇳"},
	"viet nam":       {Code: "VN", Name: "Vietnam", Flag: "🇻🇳"},
	"myanmar":        {Code: "MM", Name: "Myanmar", Flag: "🇲🇲"},
	"cambodia":       {Code: "KH", Name: "Cambodia", Flag: "🇰🇭"},
	"laos":           {Code: "LA", Name: "Laos", Flag: "🇱🇦"},
	"brunei":         {Code: "BN", Name: "Brunei", Flag: "🇧🇳"},
	"india":          {Code: "IN", Name: "India", Flag: "🇮🇳"},
	"bangladesh":     {Code: "BD", Name: "Bangladesh", Flag: "🇧🇩"},
	"sri lanka":      {Code: "LK", Name: "Sri Lanka", Flag: "🇱🇰"},
	"pakistan":       {Code: "PK", Name: "Pakistan", Flag: "🇵🇰"},
	"china":          {Code: "CN", Name: "China", Flag: "🇨🇳"},
	"hong kong":      {Code: "HK", Name: "Hong Kong", Flag: "🇭🇰"},
	"taiwan":         {Code: "TW", Name: "Taiwan", Flag: "🇹🇼"},
	"japan":          {Code: "JP", Name: "Japan", Flag: "🇯🇵"},
	"south korea":    {Code: "KR", Name: "South Korea", Flag: "🇰🇷"},
	"korea":          {Code: "KR", Name: "South Korea", Flag: "🇰🇷"},
	"australia":      {Code: "AU", Name: "Australia", Flag: "🇦🇺"},
	"new zealand":    {Code: "NZ", Name: "New Zealand", Flag: "🇳🇿"},
	"united states":  {Code: "US", Name: "United States", Flag: "🇺🇸"},
	"usa":            {Code: "US", Name: "United States", Flag: "🇺🇸"},
	"united kingdom": {Code: "GB", Name: "United Kingdom", Flag: "🇬🇧"},
	"uk":             {Code: "GB", Name: "United Kingdom", Flag: "🇬🇧"},
	"germany":        {Code: "DE", Name: "Germany", Flag: "🇩🇪"},
	"france":         {Code: "FR", Name: "France", Flag: "🇫🇷"},
	"netherlands":    {Code: "NL", Name: "Netherlands", Flag: "🇳🇱"},
	"switzerland":    {Code: "CH", Name: "Switzerland", Flag: "🇨🇭"},
	"canada":         {Code: "CA", Name: "Canada", Flag: "🇨🇦"},
	"uae":            {Code: "AE", Name: "United Arab Emirates", Flag: "🇦🇪"},
	"saudi arabia":   {Code: "SA", Name: "Saudi Arabia", Flag: "🇸🇦"},
}

// LookupCountry resolves a raw country name case-insensitively against the
// table. An unrecognized but non-empty name keeps its raw spelling for
// display while taking the sentinel code and flag; an empty name returns the
// full Unknown sentinel.
func LookupCountry(rawName string) CountryInfo {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return UnknownCountry
	}
	if info, found := countryTable[strings.ToLower(name)]; found {
		return info
	}
	return CountryInfo{Code: UnknownCountry.Code, Name: name, Flag: UnknownCountry.Flag}
}
