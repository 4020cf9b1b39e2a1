package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fact is one reported value for a concept, as filed in a single submission.
type Fact struct {
	Accession  string          `json:"accn"`  // filing accession number, e.g. "0001564590-20-004475"
	End        time.Time       `json:"end"`   // period end (or instant) date
	Start      time.Time       `json:"start"` // zero for instant concepts
	Value      decimal.Decimal `json:"val"`
	Form       string          `json:"form"` // e.g. "10-K", "10-Q", "10-K/A"
	FiscalYear int             `json:"fy"`   // 0 when the filing omitted it or it was not numeric
	FiscalPart string          `json:"fp"`   // "FY", "Q1".."Q4"
	Filed      time.Time       `json:"filed"`
}

// Concept is one XBRL concept with its facts grouped by unit of measure.
type Concept struct {
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Units       map[string][]Fact `json:"units"` // unit ("USD", "shares") -> facts in source order
}

// FactCollection is the full companyfacts snapshot for one entity.
type FactCollection struct {
	CIK        int                           `json:"cik"`
	EntityName string                        `json:"entity_name"`
	Facts      map[string]map[string]Concept `json:"facts"` // taxonomy -> concept name -> concept
	FetchedAt  time.Time                     `json:"fetched_at"`
}

// FactSet holds the facts of a single concept in a single unit.
// Present is false when the concept (or unit) was not in the snapshot;
// Facts is then empty but the set is still usable downstream.
type FactSet struct {
	Concept string `json:"concept"`
	Unit    string `json:"unit"`
	Present bool   `json:"present"`
	Facts   []Fact `json:"facts"`
}

// Len returns the number of facts in the set.
func (s FactSet) Len() int { return len(s.Facts) }

// PeriodKey identifies one filing's value for one reporting period.
type PeriodKey struct {
	Accession string
	End       time.Time
}

// Key returns the join key of a fact.
func (f Fact) Key() PeriodKey {
	return PeriodKey{Accession: f.Accession, End: f.End}
}

// PeriodRow aggregates one value per concept label for a (accession, period-end) key.
type PeriodRow struct {
	Accession  string                     `json:"accn"`
	End        time.Time                  `json:"end"`
	FiscalYear int                        `json:"fy"`
	Values     map[string]decimal.Decimal `json:"values"` // label -> value
}

// Key returns the join key of the row.
func (r PeriodRow) Key() PeriodKey {
	return PeriodKey{Accession: r.Accession, End: r.End}
}

// Ratio is a computed ratio that may be undefined, e.g. when the
// denominator is zero or an input is missing.
type Ratio struct {
	Value decimal.Decimal
	Valid bool
}

// UndefinedRatio is the zero Ratio.
var UndefinedRatio = Ratio{}

// NewRatio returns numerator/denominator, or an undefined ratio when the
// denominator is zero.
func NewRatio(numerator, denominator decimal.Decimal) Ratio {
	if denominator.IsZero() {
		return UndefinedRatio
	}
	return Ratio{Value: numerator.Div(denominator), Valid: true}
}

// Float returns the ratio as a float64 and whether it is defined.
func (r Ratio) Float() (float64, bool) {
	if !r.Valid {
		return 0, false
	}
	f, _ := r.Value.Float64()
	return f, true
}

// String formats the ratio with four decimals, or "n/a" when undefined.
func (r Ratio) String() string {
	if !r.Valid {
		return "n/a"
	}
	return r.Value.StringFixed(4)
}

// MetricRow is an income-statement period with derived margins.
type MetricRow struct {
	Accession         string          `json:"accn"`
	End               time.Time       `json:"end"`
	Revenue           decimal.Decimal `json:"revenue"`
	NetIncome         decimal.Decimal `json:"net_income"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	GrossProfitMargin Ratio           `json:"-"`
	NetProfitMargin   Ratio           `json:"-"`
	Amended           bool            `json:"amended"`              // period was restated by a later amendment
	AmendedBy         string          `json:"amended_by,omitempty"` // accession of that amendment
}

// QuickRatioRow is one fiscal year of liquidity inputs and the derived quick ratio.
type QuickRatioRow struct {
	Accession   string          `json:"accn"`
	End         time.Time       `json:"end"`
	FiscalYear  int             `json:"fy"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Inventory   decimal.Decimal `json:"inventory"`
	QuickRatio  Ratio           `json:"-"`
	Amended     bool            `json:"amended"`
	AmendedBy   string          `json:"amended_by,omitempty"`
}

// CompanyProfile is the descriptive part of the EDGAR submissions document.
type CompanyProfile struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	Tickers        []string `json:"tickers"`
	Exchanges      []string `json:"exchanges"`
	SICDescription string   `json:"sic_description"`
	FiscalYearEnd  string   `json:"fiscal_year_end"` // MMDD, e.g. "1231"
}

// Filing is one entry of the EDGAR filings feed.
type Filing struct {
	Accession string    `json:"accession"`
	Form      string    `json:"form"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Filed     time.Time `json:"filed"`
	Amendment bool      `json:"amendment"`
}
