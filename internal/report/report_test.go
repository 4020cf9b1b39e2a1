package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/factsheet/internal/pipeline"
	"github.com/seenimoa/factsheet/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sampleResult() *pipeline.Result {
	income := []models.MetricRow{
		{Accession: "0001564590-19-003165", End: date(2018, 12, 31), Revenue: dec(21_461_000_000), NetIncome: dec(-976_000_000), GrossProfit: dec(4_042_000_000)},
		{Accession: "0001564590-20-004475", End: date(2019, 12, 31), Revenue: dec(24_578_000_000), NetIncome: dec(-862_000_000), GrossProfit: dec(4_069_000_000)},
		{Accession: "0001564590-21-004599", End: date(2020, 12, 31), Revenue: dec(0), NetIncome: dec(721_000_000), GrossProfit: dec(6_630_000_000), Amended: true, AmendedBy: "0001564590-21-011234"},
		{Accession: "0000950170-22-000796", End: date(2021, 12, 31), Revenue: dec(53_823_000_000), NetIncome: dec(5_519_000_000), GrossProfit: dec(13_606_000_000)},
	}
	for i := range income {
		r := &income[i]
		r.GrossProfitMargin = models.NewRatio(r.GrossProfit, r.Revenue)
		r.NetProfitMargin = models.NewRatio(r.NetIncome, r.Revenue)
	}

	liquidity := []models.QuickRatioRow{
		{Accession: "0001564590-20-004475", End: date(2019, 12, 31), FiscalYear: 2019, Assets: dec(12_103_000_000), Liabilities: dec(10_667_000_000), Inventory: dec(3_552_000_000)},
		{Accession: "0000950170-22-000796", End: date(2021, 12, 31), FiscalYear: 2021, Assets: dec(27_100_000_000), Liabilities: dec(19_705_000_000), Inventory: dec(5_757_000_000)},
	}
	for i := range liquidity {
		r := &liquidity[i]
		r.QuickRatio = models.NewRatio(r.Assets.Sub(r.Inventory), r.Liabilities)
	}

	return &pipeline.Result{
		RunID:       "run-1",
		CIK:         "0001318605",
		CompanyName: "Tesla, Inc.",
		Profile: &models.CompanyProfile{
			CIK:            "0001318605",
			Name:           "Tesla, Inc.",
			Tickers:        []string{"TSLA"},
			Exchanges:      []string{"Nasdaq"},
			SICDescription: "Motor Vehicles & Passenger Car Bodies",
			FiscalYearEnd:  "1231",
		},
		Filings: []models.Filing{
			{Accession: "0000950170-22-000796", Form: "10-K", Link: "https://www.sec.gov/a", Filed: date(2022, 2, 7)},
			{Accession: "0001564590-21-011234", Form: "10-K/A", Link: "https://www.sec.gov/b", Filed: date(2021, 4, 30), Amendment: true},
		},
		Income:    income,
		Liquidity: liquidity,
		FetchedAt: date(2024, 5, 1),
	}
}

func parseHTML(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}
	return doc
}

func yearlyPoints(values ...float64) []Point {
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{Time: date(2015+i, 12, 31), Value: v, Valid: true}
	}
	return pts
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

func TestLineChart_Basic(t *testing.T) {
	cfg := DefaultChartConfig()
	cfg.Title = "Margins"
	cfg.XLabel = "Fiscal Year"
	cfg.YLabel = "Profit Margin"

	svg := LineChart([]TimeSeries{
		{Name: "Net", Points: yearlyPoints(0.1, 0.2, 0.15)},
		{Name: "Gross", Points: yearlyPoints(0.3, 0.35, 0.4)},
	}, cfg)

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete svg document")
	}
	for _, want := range []string{"Margins", "Fiscal Year", "Profit Margin", "Net", "Gross", "rotate(-45", "2016"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(svg, "NaN") {
		t.Error("svg contains NaN coordinates")
	}

	doc := parseHTML(t, svg)
	if n := doc.Find("circle.marker").Length(); n != 6 {
		t.Errorf("markers = %d, want 6", n)
	}
	if n := doc.Find("path").Length(); n != 2 {
		t.Errorf("paths = %d, want 2", n)
	}
}

func TestLineChart_UndefinedPointsSplitLine(t *testing.T) {
	pts := yearlyPoints(1.2, 0, 1.4, 1.5)
	pts[1].Valid = false

	svg := LineChart([]TimeSeries{{Name: "Quick Ratio", Points: pts}}, DefaultChartConfig())
	doc := parseHTML(t, svg)

	if n := doc.Find("path").Length(); n != 2 {
		t.Errorf("paths = %d, want 2 segments around the gap", n)
	}
	if n := doc.Find("circle.marker").Length(); n != 3 {
		t.Errorf("markers = %d, want 3", n)
	}
}

func TestLineChart_Empty(t *testing.T) {
	svg := LineChart(nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data") {
		t.Error("expected empty chart placeholder")
	}
}

func TestLineChart_AllUndefined(t *testing.T) {
	cfg := DefaultChartConfig()
	cfg.Title = "Nothing"
	svg := LineChart([]TimeSeries{{Name: "x", Points: []Point{{Time: date(2020, 1, 1)}}}}, cfg)
	if !strings.Contains(svg, "No data") || !strings.Contains(svg, "Nothing") {
		t.Error("expected titled placeholder when no point is defined")
	}
}

func TestLineChart_SinglePoint(t *testing.T) {
	svg := LineChart([]TimeSeries{{Name: "x", Points: yearlyPoints(2.0)}}, DefaultChartConfig())
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("single point produced invalid coordinates")
	}
	if n := parseHTML(t, svg).Find("circle.marker").Length(); n != 1 {
		t.Errorf("markers = %d, want 1", n)
	}
}

func TestLineChart_PointsPlacedByDate(t *testing.T) {
	pts := []Point{
		{Time: date(2015, 12, 31), Value: 1, Valid: true},
		{Time: date(2016, 12, 31), Value: 1, Valid: true},
		{Time: date(2020, 12, 31), Value: 1, Valid: true},
	}
	doc := parseHTML(t, LineChart([]TimeSeries{{Name: "x", Points: pts}}, DefaultChartConfig()))

	var xs []string
	doc.Find("circle.marker").Each(func(_ int, s *goquery.Selection) {
		xs = append(xs, s.AttrOr("cx", ""))
	})
	if len(xs) != 3 {
		t.Fatalf("markers = %d, want 3", len(xs))
	}
	// Four-year gap must be wider than the one-year gap.
	pos := make([]float64, len(xs))
	for i, x := range xs {
		v, err := strconv.ParseFloat(x, 64)
		if err != nil {
			t.Fatalf("cx %q: %v", x, err)
		}
		pos[i] = v
	}
	x0, x1, x2 := pos[0], pos[1], pos[2]
	if (x2 - x1) <= 3*(x1-x0) {
		t.Errorf("x positions %v not proportional to dates", xs)
	}
}

func TestLineChart_UndatedPointIgnored(t *testing.T) {
	pts := []Point{
		{Value: 9, Valid: true},
		{Time: date(2019, 12, 31), Value: 1, Valid: true},
		{Time: date(2020, 12, 31), Value: 2, Valid: true},
	}
	doc := parseHTML(t, LineChart([]TimeSeries{{Name: "x", Points: pts}}, DefaultChartConfig()))

	ticks := doc.Find("text.x-tick")
	if first := ticks.First().Text(); first != "2019" {
		t.Errorf("first year tick = %q, want 2019", first)
	}
	if n := ticks.Length(); n != 3 {
		t.Errorf("year ticks = %d, want 3 (2019-2021)", n)
	}
	if n := doc.Find("circle.marker").Length(); n != 2 {
		t.Errorf("markers = %d, want 2", n)
	}
	if n := doc.Find("path").Length(); n != 1 {
		t.Errorf("paths = %d, want 1", n)
	}
}

func TestBounds(t *testing.T) {
	tMin, tMax, vMin, vMax, ok := bounds([]TimeSeries{
		{Points: []Point{{Value: -50, Valid: true}, {Time: date(2021, 12, 31), Value: 3, Valid: true}}},
		{Points: []Point{{Time: date(2018, 12, 31)}, {Time: date(2020, 12, 31), Value: 1, Valid: true}}},
	})
	if !ok {
		t.Fatal("expected plottable points")
	}
	if !tMin.Equal(date(2018, 12, 31)) || !tMax.Equal(date(2021, 12, 31)) {
		t.Errorf("time range = %s..%s", tMin, tMax)
	}
	if vMin != 1 || vMax != 3 {
		t.Errorf("value range = %v..%v, undated value leaked in", vMin, vMax)
	}

	if _, _, _, _, ok := bounds([]TimeSeries{{Points: []Point{{Value: 1, Valid: true}}}}); ok {
		t.Error("undated points alone should not be plottable")
	}
}

func TestSegments(t *testing.T) {
	pts := yearlyPoints(1, 2, 3, 4, 5)
	pts[0].Valid = false
	pts[2].Valid = false
	segs := segments(pts)
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if len(segs[0]) != 1 || len(segs[1]) != 2 {
		t.Errorf("segment sizes = %d,%d", len(segs[0]), len(segs[1]))
	}
}

// ════════════════════════════════════════════════════════════════════
// Report Charts
// ════════════════════════════════════════════════════════════════════

func TestRenderCharts_Titles(t *testing.T) {
	charts := RenderCharts(sampleResult(), DefaultChartConfig())

	cases := []struct {
		name, svg, title, yLabel string
	}{
		{"margins", charts.ProfitMargins, "Tesla, Inc. Profit Margins Over Time", "Profit Margin"},
		{"quick", charts.QuickRatio, "Tesla, Inc. Quick Ratio Over Time", "Quick Ratio"},
		{"income", charts.NetIncome, "Tesla, Inc. Net Income Over Time", "Net Income (Billions USD)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !strings.Contains(tc.svg, tc.title) {
				t.Errorf("missing title %q", tc.title)
			}
			if !strings.Contains(tc.svg, tc.yLabel) {
				t.Errorf("missing y label %q", tc.yLabel)
			}
			if !strings.Contains(tc.svg, "Fiscal Year") {
				t.Error("missing x label")
			}
		})
	}
}

func TestProfitMarginChart_ZeroRevenueIsGap(t *testing.T) {
	res := sampleResult()
	doc := parseHTML(t, ProfitMarginChart("Tesla", res.Income, DefaultChartConfig()))

	// Two series of four periods, the 2020 period undefined in both.
	if n := doc.Find("circle.marker").Length(); n != 6 {
		t.Errorf("markers = %d, want 6", n)
	}
	if n := doc.Find("path").Length(); n != 4 {
		t.Errorf("paths = %d, want 4", n)
	}
}

func TestNetIncomeChart_Billions(t *testing.T) {
	res := sampleResult()
	svg := NetIncomeChart("Tesla", res.Income, withYFormat(DefaultChartConfig(), "%.1f"))
	if !strings.Contains(svg, "2021-12-31: 5.5") {
		t.Error("expected net income marker in billions")
	}
}

func TestRenderCharts_FallbackName(t *testing.T) {
	res := sampleResult()
	res.CompanyName = ""
	charts := RenderCharts(res, DefaultChartConfig())
	if !strings.Contains(charts.QuickRatio, "CIK 0001318605 Quick Ratio Over Time") {
		t.Error("expected CIK fallback in chart title")
	}
}

// ════════════════════════════════════════════════════════════════════
// Text tables
// ════════════════════════════════════════════════════════════════════

func TestWriteText_Basic(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Tesla, Inc. (CIK 0001318605)",
		"TSLA",
		"INCOME METRICS",
		"QUICK RATIO",
		"0000950170-22-000796",
		"$53.82B",
		"25.28%", // 13606 / 53823
		"n/a",
		"1.08", // (27100-5757)/19705
		"* 0001564590-21-011234",
		"* period amended by a 10-K/A",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
	if !strings.Contains(out, "═") || !strings.Contains(out, "─") {
		t.Error("expected box-drawing separators")
	}
}

func TestWriteText_Empty(t *testing.T) {
	res := &pipeline.Result{
		CIK:             "0000000001",
		Warnings:        []string{"company profile: upstream unavailable"},
		MissingConcepts: []string{"GrossProfit"},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"(no periods", "(no fiscal years", "! company profile", "concept not reported: GrossProfit"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
	if strings.Contains(out, "amendment") {
		t.Error("amendment footnote printed without amended rows")
	}
}

func TestAmendmentMarks(t *testing.T) {
	tests := []struct {
		accn, by string
		amended  bool
		mark     string
		cell     string
	}{
		{"K1", "", false, "", "K1"},
		{"K1", "K1A", true, " * K1A", `K1 \* K1A`},
		{"K1A", "K1A", true, " *", `K1A \*`},
		{"K1", "", true, " *", `K1 \*`},
	}
	for _, tt := range tests {
		if got := amendedMark(tt.accn, tt.by, tt.amended); got != tt.mark {
			t.Errorf("amendedMark(%q, %q, %v) = %q, want %q", tt.accn, tt.by, tt.amended, got, tt.mark)
		}
		if got := accessionCell(tt.accn, tt.by, tt.amended); got != tt.cell {
			t.Errorf("accessionCell(%q, %q, %v) = %q, want %q", tt.accn, tt.by, tt.amended, got, tt.cell)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// HTML
// ════════════════════════════════════════════════════════════════════

func TestGenerateHTML_Basic(t *testing.T) {
	res := sampleResult()
	cfg := DefaultConfig()
	page, err := GenerateHTML(res, RenderCharts(res, cfg.Chart), cfg)
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}

	doc := parseHTML(t, page)

	if got := doc.Find("head title").Text(); got != "Tesla, Inc. Financial Factsheet" {
		t.Errorf("title = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("h1").First().Text()); got != "Tesla, Inc. Financial Factsheet" {
		t.Errorf("h1 = %q", got)
	}
	if n := doc.Find("div.chart svg").Length(); n != 3 {
		t.Errorf("inline charts = %d, want 3", n)
	}
	if n := doc.Find("table").Length(); n != 2 {
		t.Fatalf("tables = %d, want 2", n)
	}
	if n := doc.Find("table").First().Find("tbody tr").Length(); n != 4 {
		t.Errorf("income rows = %d, want 4", n)
	}
	if n := doc.Find("table").Last().Find("tbody tr").Length(); n != 2 {
		t.Errorf("quick ratio rows = %d, want 2", n)
	}

	amended := doc.Find("table").First().Find("tbody tr").Eq(2).Find("td").Eq(1).Text()
	if amended != "0001564590-21-004599 * 0001564590-21-011234" {
		t.Errorf("amended accession cell = %q", amended)
	}

	filings := doc.Find("li")
	if filings.Length() != 2 {
		t.Fatalf("filings = %d, want 2", filings.Length())
	}
	if filings.Eq(1).Find("strong").Text() != "amendment" {
		t.Error("expected amendment flag on 10-K/A filing")
	}
	if href, _ := filings.First().Find("a").Attr("href"); href != "https://www.sec.gov/a" {
		t.Errorf("filing link = %q", href)
	}

	if !strings.Contains(doc.Find(".footer").Text(), "run-1") {
		t.Error("footer missing run id")
	}
	if !strings.Contains(doc.Text(), "Motor Vehicles & Passenger Car Bodies") {
		t.Error("profile industry missing")
	}
}

func TestGenerateHTML_NilResult(t *testing.T) {
	if _, err := GenerateHTML(nil, Charts{}, DefaultConfig()); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestGenerateHTML_Minimal(t *testing.T) {
	res := &pipeline.Result{
		CIK:             "0000000001",
		CompanyName:     "Widgets | Co",
		Warnings:        []string{"filing feed: upstream unavailable"},
		MissingConcepts: []string{"InventoryNet"},
	}
	cfg := DefaultConfig()
	page, err := GenerateHTML(res, RenderCharts(res, cfg.Chart), cfg)
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	doc := parseHTML(t, page)

	if n := doc.Find("table").Length(); n != 0 {
		t.Errorf("tables = %d, want 0", n)
	}
	if got := strings.TrimSpace(doc.Find("h1").Text()); got != "Widgets | Co Financial Factsheet" {
		t.Errorf("h1 = %q", got)
	}
	if !strings.Contains(doc.Find("blockquote").Text(), "filing feed") {
		t.Error("expected warning blockquote")
	}
	if doc.Find("code").Text() != "InventoryNet" {
		t.Error("expected missing concept listed")
	}
	if n := doc.Find("div.chart svg").Length(); n != 3 {
		t.Errorf("placeholder charts = %d, want 3", n)
	}
}

func TestMarkdown_EscapesCells(t *testing.T) {
	res := sampleResult()
	res.Profile.SICDescription = "A|B"
	md := Markdown(res, Charts{})
	if !strings.Contains(md, `A\|B`) {
		t.Error("pipe in profile not escaped")
	}
	if strings.Contains(md, `<div class="chart">`) {
		t.Error("empty chart should not be inlined")
	}
}

func TestFiscalYearEnd(t *testing.T) {
	if got := fiscalYearEnd("1231"); got != "12-31" {
		t.Errorf("fiscalYearEnd = %q", got)
	}
	if got := fiscalYearEnd("--"); got != "--" {
		t.Errorf("fiscalYearEnd = %q", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// Write to disk
// ════════════════════════════════════════════════════════════════════

func TestWrite_ChartsAndHTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := DefaultConfig()
	cfg.OutputDir = dir

	out, err := Write(context.Background(), sampleResult(), cfg)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(out.Charts) != 3 {
		t.Fatalf("charts = %d, want 3", len(out.Charts))
	}
	for _, name := range []string{FileProfitMargins, FileQuickRatio, FileNetIncome, FileHTML} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("reading %s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
	if out.PDFPath != "" {
		t.Error("pdf written without being requested")
	}
}

func TestWrite_NoHTML(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = dir
	cfg.HTML = false

	out, err := Write(context.Background(), sampleResult(), cfg)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.HTMLPath != "" {
		t.Error("html path set with HTML disabled")
	}
	if _, err := os.Stat(filepath.Join(dir, FileHTML)); !os.IsNotExist(err) {
		t.Error("report.html should not exist")
	}
}

func TestWrite_NilResult(t *testing.T) {
	if _, err := Write(context.Background(), nil, DefaultConfig()); err == nil {
		t.Error("expected error for nil result")
	}
}

// ════════════════════════════════════════════════════════════════════
// PDF
// ════════════════════════════════════════════════════════════════════

func TestDefaultPDFConfig(t *testing.T) {
	cfg := DefaultPDFConfig()
	if cfg.PaperWidth != 8.27 || cfg.PaperHeight != 11.69 {
		t.Errorf("paper = %vx%v, want A4", cfg.PaperWidth, cfg.PaperHeight)
	}
	if cfg.Landscape {
		t.Error("expected portrait")
	}
	if cfg.Timeout <= 0 {
		t.Error("expected a timeout")
	}
}

func TestDetectBrowser(t *testing.T) {
	path, err := DetectBrowser()
	if err != nil {
		if err != ErrNoBrowser {
			t.Errorf("unexpected error: %v", err)
		}
		return
	}
	if path == "" {
		t.Error("empty browser path without error")
	}
}

func TestGeneratePDF(t *testing.T) {
	if !IsPDFSupported() {
		t.Skip("no chrome/chromium on PATH")
	}
	pdf, err := GeneratePDF(context.Background(), "<html><body><h1>hi</h1></body></html>", DefaultPDFConfig())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestGeneratePDF_BadBrowser(t *testing.T) {
	cfg := DefaultPDFConfig()
	cfg.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")
	cfg.Timeout = 5 * time.Second
	if _, err := GeneratePDF(context.Background(), "<p>x</p>", cfg); err == nil {
		t.Error("expected error for missing browser binary")
	}
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`<a href="x">&</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;&amp;&lt;/a&gt;"
	if got != want {
		t.Errorf("escapeXML = %q, want %q", got, want)
	}
}

func TestDefaultChartConfig(t *testing.T) {
	cfg := DefaultChartConfig()
	if cfg.Width != 1000 || cfg.Height != 600 {
		t.Errorf("size = %dx%d, want 1000x600", cfg.Width, cfg.Height)
	}
	sized := cfg.WithSize(800, 0)
	if sized.Width != 800 || sized.Height != 600 {
		t.Errorf("WithSize = %dx%d", sized.Width, sized.Height)
	}
}

func TestPlotArea(t *testing.T) {
	cfg := DefaultChartConfig()
	x, y, w, h := cfg.plotArea()
	if x != 80 || y != 50 || w != 880 || h != 460 {
		t.Errorf("plotArea = %v,%v,%v,%v", x, y, w, h)
	}
}

func TestEmptySVG(t *testing.T) {
	svg := emptySVG(ChartConfig{}, "none")
	if !strings.Contains(svg, `width="400"`) || !strings.Contains(svg, "none") {
		t.Error("expected default-sized placeholder")
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleResult())
	for _, want := range []string{"Tesla, Inc.", "4 income periods", "2 quick ratio years", "$5.52B", "1.08"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary %q missing %q", got, want)
		}
	}
}
