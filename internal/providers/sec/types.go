package sec

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// --- XBRL Company Facts (data.sec.gov/api/xbrl/companyfacts) ---

// edgarCompanyFactsResponse is the response from the company facts endpoint.
type edgarCompanyFactsResponse struct {
	CIK        int                             `json:"cik"`
	EntityName string                          `json:"entityName"`
	Facts      map[string]map[string]edgarFact `json:"facts"` // taxonomy -> concept -> fact
}

type edgarFact struct {
	Label       string                     `json:"label"`
	Description string                     `json:"description"`
	Units       map[string][]edgarFactUnit `json:"units"` // unit type ("USD", "shares") -> values
}

type edgarFactUnit struct {
	Start string          `json:"start"`
	End   string          `json:"end"`
	Val   decimal.Decimal `json:"val"`
	Accn  string          `json:"accn"`
	FY    json.RawMessage `json:"fy"` // usually an int, sometimes null
	FP    string          `json:"fp"` // "Q1", "Q2", "Q3", "FY"
	Form  string          `json:"form"`
	Filed string          `json:"filed"`
	Frame string          `json:"frame,omitempty"`
}

// coerceFiscalYear turns the raw "fy" value into a year. Null, missing and
// non-numeric values become 0, as do fractional numbers.
func coerceFiscalYear(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}

// --- EDGAR Submissions (data.sec.gov/submissions) ---

// Fields plucked from the submissions document. The document also carries
// the full filing history, which the profile does not need.
var submissionsPaths = []string{
	"cik",
	"name",
	"tickers",
	"exchanges",
	"sicDescription",
	"fiscalYearEnd",
}
