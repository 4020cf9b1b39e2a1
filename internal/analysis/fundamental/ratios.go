package fundamental

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/factsheet/pkg/models"
)

// Column labels of joined and pivoted rows.
const (
	LabelRevenue     = "revenue"
	LabelNetIncome   = "net_income"
	LabelGrossProfit = "gross_profit"
	LabelAssets      = "assets"
	LabelLiabilities = "liabilities"
	LabelInventory   = "inventory"
)

// QuickRatioMinFiscalYear is the earliest fiscal year reported in the
// quick-ratio series. Older companyfacts data is sparse for these concepts.
const QuickRatioMinFiscalYear = 2011

// ComputeMargins derives gross and net profit margins for each joined row.
// A margin is undefined when its inputs are missing or revenue is zero.
func ComputeMargins(rows []models.PeriodRow) []models.MetricRow {
	out := make([]models.MetricRow, 0, len(rows))
	for _, r := range rows {
		revenue, hasRevenue := r.Values[LabelRevenue]
		netIncome, hasNetIncome := r.Values[LabelNetIncome]
		grossProfit, hasGrossProfit := r.Values[LabelGrossProfit]

		out = append(out, models.MetricRow{
			Accession:         r.Accession,
			End:               r.End,
			Revenue:           revenue,
			NetIncome:         netIncome,
			GrossProfit:       grossProfit,
			GrossProfitMargin: ratioOf(grossProfit, hasGrossProfit, revenue, hasRevenue),
			NetProfitMargin:   ratioOf(netIncome, hasNetIncome, revenue, hasRevenue),
		})
	}
	return out
}

func ratioOf(num decimal.Decimal, numOK bool, den decimal.Decimal, denOK bool) models.Ratio {
	if !numOK || !denOK {
		return models.UndefinedRatio
	}
	return models.NewRatio(num, den)
}

// IncomeMetrics runs the income-statement pipeline over a snapshot:
// revenue, net income and gross profit filed on the selected form,
// deduplicated per filing, inner-joined per period and ordered by period end.
func IncomeMetrics(coll *models.FactCollection, sel Selector) []models.MetricRow {
	rows := JoinPeriods(
		Labeled(LabelRevenue, sel.Annual(coll, ConceptRevenues)),
		Labeled(LabelNetIncome, sel.Annual(coll, ConceptNetIncomeLoss)),
		Labeled(LabelGrossProfit, sel.Annual(coll, ConceptGrossProfit)),
	)
	metrics := ComputeMargins(rows)
	slices.SortStableFunc(metrics, func(a, b models.MetricRow) int {
		return a.End.Compare(b.End)
	})
	return metrics
}

// QuickRatioOptions narrows the facts that feed the quick-ratio series.
type QuickRatioOptions struct {
	Form          string // default FormAnnual
	MinFiscalYear int    // default QuickRatioMinFiscalYear
}

func (o QuickRatioOptions) withDefaults() QuickRatioOptions {
	if o.Form == "" {
		o.Form = FormAnnual
	}
	if o.MinFiscalYear == 0 {
		o.MinFiscalYear = QuickRatioMinFiscalYear
	}
	return o
}

type labeledFact struct {
	label string
	fact  models.Fact
}

type pivotKey struct {
	accession  string
	end        time.Time
	fiscalYear int
}

// QuickRatioSeries computes (assets - inventory) / liabilities per fiscal year.
//
// The three sets are tagged with their label and stacked into one long list,
// filtered to opts.Form and fiscal years >= opts.MinFiscalYear, then pivoted
// to one row per (accession, period end, fiscal year) taking the first value
// seen for each label. Rows lacking any label are dropped. When a fiscal year
// has several rows, the one with the latest period end wins. The result is
// ordered by fiscal year.
func QuickRatioSeries(assets, liabilities, inventory models.FactSet, opts QuickRatioOptions) []models.QuickRatioRow {
	opts = opts.withDefaults()

	long := make([]labeledFact, 0, assets.Len()+liabilities.Len()+inventory.Len())
	for _, ls := range []LabeledSet{
		Labeled(LabelAssets, assets),
		Labeled(LabelLiabilities, liabilities),
		Labeled(LabelInventory, inventory),
	} {
		for _, f := range ls.Set.Facts {
			long = append(long, labeledFact{label: ls.Label, fact: f})
		}
	}

	pivot := make(map[pivotKey]map[string]decimal.Decimal)
	var keys []pivotKey
	for _, lf := range long {
		f := lf.fact
		// FiscalYear 0 means the source value was missing or not numeric.
		if f.Form != opts.Form || f.FiscalYear == 0 || f.FiscalYear < opts.MinFiscalYear {
			continue
		}
		k := pivotKey{accession: f.Accession, end: f.End, fiscalYear: f.FiscalYear}
		values, ok := pivot[k]
		if !ok {
			values = make(map[string]decimal.Decimal, 3)
			pivot[k] = values
			keys = append(keys, k)
		}
		if _, seen := values[lf.label]; !seen {
			values[lf.label] = f.Value
		}
	}

	slices.SortFunc(keys, func(a, b pivotKey) int {
		return cmp.Or(
			strings.Compare(a.accession, b.accession),
			a.end.Compare(b.end),
			cmp.Compare(a.fiscalYear, b.fiscalYear),
		)
	})

	rows := make([]models.QuickRatioRow, 0, len(keys))
	for _, k := range keys {
		values := pivot[k]
		a, okA := values[LabelAssets]
		l, okL := values[LabelLiabilities]
		inv, okI := values[LabelInventory]
		if !okA || !okL || !okI {
			continue
		}
		rows = append(rows, models.QuickRatioRow{
			Accession:   k.accession,
			End:         k.end,
			FiscalYear:  k.fiscalYear,
			Assets:      a,
			Liabilities: l,
			Inventory:   inv,
			QuickRatio:  models.NewRatio(a.Sub(inv), l),
		})
	}

	return latestPerFiscalYear(rows)
}

func latestPerFiscalYear(rows []models.QuickRatioRow) []models.QuickRatioRow {
	slices.SortStableFunc(rows, func(a, b models.QuickRatioRow) int {
		return a.End.Compare(b.End)
	})

	latest := make(map[int]models.QuickRatioRow, len(rows))
	for _, r := range rows {
		latest[r.FiscalYear] = r
	}

	out := make([]models.QuickRatioRow, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.QuickRatioRow) int {
		return cmp.Compare(a.FiscalYear, b.FiscalYear)
	})
	return out
}

// LiquidityMetrics runs the quick-ratio pipeline over a snapshot. The
// selector's form overrides opts.Form.
func LiquidityMetrics(coll *models.FactCollection, sel Selector, opts QuickRatioOptions) []models.QuickRatioRow {
	sel = sel.withDefaults()
	opts.Form = sel.Form
	return QuickRatioSeries(
		sel.Facts(coll, ConceptAssetsCurrent),
		sel.Facts(coll, ConceptLiabilitiesCurrent),
		sel.Facts(coll, ConceptInventoryNet),
		opts,
	)
}

// IncomeConcepts and LiquidityConcepts list the concepts each series reads.
var (
	IncomeConcepts    = []string{ConceptRevenues, ConceptNetIncomeLoss, ConceptGrossProfit}
	LiquidityConcepts = []string{ConceptAssetsCurrent, ConceptLiabilitiesCurrent, ConceptInventoryNet}
)
