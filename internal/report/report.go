// Package report presents a pipeline result: text tables for the terminal,
// SVG line charts, and an HTML (optionally PDF) factsheet.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/seenimoa/factsheet/internal/pipeline"
	"github.com/seenimoa/factsheet/pkg/models"
	"github.com/seenimoa/factsheet/pkg/utils"
)

// Output file names inside Config.OutputDir.
const (
	FileProfitMargins = "profit_margins.svg"
	FileQuickRatio    = "quick_ratio.svg"
	FileNetIncome     = "net_income.svg"
	FileHTML          = "report.html"
	FilePDF           = "report.pdf"
)

// Config controls which artifacts are written.
type Config struct {
	OutputDir string
	HTML      bool
	PDF       bool
	Chart     ChartConfig
	PDFConfig PDFConfig
	Version   string // shown in the page metadata
}

// DefaultConfig writes charts and HTML to ./out.
func DefaultConfig() Config {
	return Config{
		OutputDir: "out",
		HTML:      true,
		Chart:     DefaultChartConfig(),
		PDFConfig: DefaultPDFConfig(),
		Version:   "dev",
	}
}

// Output lists the files written by Write.
type Output struct {
	Charts   []string
	HTMLPath string
	PDFPath  string
}

// Charts holds the three rendered SVG documents.
type Charts struct {
	ProfitMargins string
	QuickRatio    string
	NetIncome     string
}

// RenderCharts draws the profit margin, quick ratio and net income charts.
func RenderCharts(res *pipeline.Result, cfg ChartConfig) Charts {
	company := companyName(res)
	return Charts{
		ProfitMargins: ProfitMarginChart(company, res.Income, cfg),
		QuickRatio:    QuickRatioChart(company, res.Liquidity, cfg),
		NetIncome:     NetIncomeChart(company, res.Income, withYFormat(cfg, "%.1f")),
	}
}

func withYFormat(cfg ChartConfig, format string) ChartConfig {
	cfg.YFormat = format
	return cfg
}

func companyName(res *pipeline.Result) string {
	if res.CompanyName != "" {
		return res.CompanyName
	}
	return "CIK " + res.CIK
}

// ════════════════════════════════════════════════════════════════════
// Text tables
// ════════════════════════════════════════════════════════════════════

// WriteText prints the income metric table and the quick ratio table.
// Rows from amended filings are marked with "*".
func WriteText(w io.Writer, res *pipeline.Result) error {
	var sb strings.Builder
	line := strings.Repeat("═", 100)
	thinLine := strings.Repeat("─", 100)

	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "  %s (CIK %s)\n", companyName(res), res.CIK)
	if p := res.Profile; p != nil && len(p.Tickers) > 0 {
		fmt.Fprintf(&sb, "  Tickers: %s | Exchanges: %s | %s\n",
			strings.Join(p.Tickers, ", "), strings.Join(p.Exchanges, ", "), p.SICDescription)
	}
	sb.WriteString(line + "\n\n")

	sb.WriteString("  INCOME METRICS\n")
	sb.WriteString(thinLine + "\n")
	fmt.Fprintf(&sb, "  %-10s  %-20s  %14s  %14s  %14s  %8s  %8s\n",
		"End", "Accession", "Revenue", "Net Income", "Gross Profit", "Gross %", "Net %")
	sb.WriteString(thinLine + "\n")
	if len(res.Income) == 0 {
		sb.WriteString("  (no periods with revenue, net income and gross profit)\n")
	}
	for _, r := range res.Income {
		fmt.Fprintf(&sb, "  %-10s  %-20s  %14s  %14s  %14s  %8s  %8s%s\n",
			utils.FormatDate(r.End), r.Accession,
			utils.FormatUSDCompact(r.Revenue), utils.FormatUSDCompact(r.NetIncome), utils.FormatUSDCompact(r.GrossProfit),
			pct(r.GrossProfitMargin), pct(r.NetProfitMargin), amendedMark(r.Accession, r.AmendedBy, r.Amended))
	}
	sb.WriteString("\n")

	sb.WriteString("  QUICK RATIO\n")
	sb.WriteString(thinLine + "\n")
	fmt.Fprintf(&sb, "  %-4s  %-10s  %-20s  %14s  %14s  %14s  %8s\n",
		"FY", "End", "Accession", "Assets", "Liabilities", "Inventory", "Quick")
	sb.WriteString(thinLine + "\n")
	if len(res.Liquidity) == 0 {
		sb.WriteString("  (no fiscal years with current assets, liabilities and inventory)\n")
	}
	for _, r := range res.Liquidity {
		fmt.Fprintf(&sb, "  %-4d  %-10s  %-20s  %14s  %14s  %14s  %8s%s\n",
			r.FiscalYear, utils.FormatDate(r.End), r.Accession,
			utils.FormatUSDCompact(r.Assets), utils.FormatUSDCompact(r.Liabilities), utils.FormatUSDCompact(r.Inventory),
			quick(r.QuickRatio), amendedMark(r.Accession, r.AmendedBy, r.Amended))
	}

	if hasAmended(res) {
		sb.WriteString("\n  * period amended by a 10-K/A (accession shown when it differs)\n")
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(&sb, "  ! %s\n", warn)
	}
	for _, c := range res.MissingConcepts {
		fmt.Fprintf(&sb, "  ! concept not reported: %s\n", c)
	}
	sb.WriteString(line + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func pct(r models.Ratio) string {
	if !r.Valid {
		return "n/a"
	}
	return utils.FormatPct(r.Value)
}

func quick(r models.Ratio) string {
	if !r.Valid {
		return "n/a"
	}
	return r.Value.StringFixed(2)
}

func amendedMark(accn, by string, amended bool) string {
	switch {
	case !amended:
		return ""
	case by == "" || by == accn:
		return " *"
	default:
		return " * " + by
	}
}

func hasAmended(res *pipeline.Result) bool {
	for _, r := range res.Income {
		if r.Amended {
			return true
		}
	}
	for _, r := range res.Liquidity {
		if r.Amended {
			return true
		}
	}
	return false
}

// ════════════════════════════════════════════════════════════════════
// Markdown / HTML
// ════════════════════════════════════════════════════════════════════

// Markdown builds the factsheet body with the charts inlined as raw SVG.
func Markdown(res *pipeline.Result, charts Charts) string {
	var sb strings.Builder
	company := companyName(res)

	fmt.Fprintf(&sb, "# %s Financial Factsheet\n\n", mdEscape(company))
	facts := []string{"**CIK** " + res.CIK}
	if p := res.Profile; p != nil {
		if len(p.Tickers) > 0 {
			facts = append(facts, "**Tickers** "+mdEscape(strings.Join(p.Tickers, ", ")))
		}
		if len(p.Exchanges) > 0 {
			facts = append(facts, "**Exchanges** "+mdEscape(strings.Join(p.Exchanges, ", ")))
		}
		if p.SICDescription != "" {
			facts = append(facts, "**Industry** "+mdEscape(p.SICDescription))
		}
		if p.FiscalYearEnd != "" {
			facts = append(facts, "**Fiscal year end** "+fiscalYearEnd(p.FiscalYearEnd))
		}
	}
	sb.WriteString(strings.Join(facts, " · ") + "\n\n")

	for _, warn := range res.Warnings {
		fmt.Fprintf(&sb, "> %s\n>\n", mdEscape(warn))
	}
	if len(res.Warnings) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("## Profit Margins\n\n")
	writeChart(&sb, charts.ProfitMargins)
	if len(res.Income) == 0 {
		sb.WriteString("No reporting period has revenue, net income and gross profit on the same filing.\n\n")
	} else {
		sb.WriteString("| Period End | Accession | Revenue | Net Income | Gross Profit | Gross Margin | Net Margin |\n")
		sb.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
		for _, r := range res.Income {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
				utils.FormatDate(r.End), accessionCell(r.Accession, r.AmendedBy, r.Amended),
				utils.FormatUSD(r.Revenue), utils.FormatUSD(r.NetIncome), utils.FormatUSD(r.GrossProfit),
				pct(r.GrossProfitMargin), pct(r.NetProfitMargin))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Net Income\n\n")
	writeChart(&sb, charts.NetIncome)

	sb.WriteString("## Quick Ratio\n\n")
	writeChart(&sb, charts.QuickRatio)
	if len(res.Liquidity) == 0 {
		sb.WriteString("No fiscal year reports current assets, current liabilities and inventory together.\n\n")
	} else {
		sb.WriteString("| Fiscal Year | Period End | Accession | Current Assets | Current Liabilities | Inventory | Quick Ratio |\n")
		sb.WriteString("|---|---|---|---:|---:|---:|---:|\n")
		for _, r := range res.Liquidity {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s | %s |\n",
				r.FiscalYear, utils.FormatDate(r.End), accessionCell(r.Accession, r.AmendedBy, r.Amended),
				utils.FormatUSD(r.Assets), utils.FormatUSD(r.Liabilities), utils.FormatUSD(r.Inventory),
				quick(r.QuickRatio))
		}
		sb.WriteString("\n")
	}

	if len(res.Filings) > 0 {
		sb.WriteString("## Recent Annual Filings\n\n")
		for _, f := range res.Filings {
			fmt.Fprintf(&sb, "- %s [%s](%s) %s", utils.FormatDate(f.Filed), mdEscape(f.Form), f.Link, f.Accession)
			if f.Amendment {
				sb.WriteString(" **amendment**")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(res.MissingConcepts) > 0 {
		sb.WriteString("## Missing Concepts\n\n")
		for _, c := range res.MissingConcepts {
			fmt.Fprintf(&sb, "- `%s`\n", c)
		}
		sb.WriteString("\n")
	}

	if hasAmended(res) {
		sb.WriteString("Periods marked \\* were amended by a 10-K/A; the amending accession follows the mark.\n")
	}
	return sb.String()
}

func writeChart(sb *strings.Builder, svg string) {
	if svg == "" {
		return
	}
	// Raw HTML block: must stay on one line and end with a blank line.
	sb.WriteString(`<div class="chart">`)
	sb.WriteString(strings.ReplaceAll(svg, "\n", " "))
	sb.WriteString("</div>\n\n")
}

func accessionCell(accn, by string, amended bool) string {
	switch {
	case !amended:
		return accn
	case by == "" || by == accn:
		return accn + ` \*`
	default:
		return accn + ` \* ` + by
	}
}

// fiscalYearEnd turns EDGAR's MMDD into "MM-DD".
func fiscalYearEnd(mmdd string) string {
	if len(mmdd) == 4 {
		return mmdd[:2] + "-" + mmdd[2:]
	}
	return mdEscape(mmdd)
}

var mdReplacer = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "<", "&lt;", ">", "&gt;", "[", `\[`, "]", `\]`)

func mdEscape(s string) string { return mdReplacer.Replace(s) }

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

type pageData struct {
	Title       string
	Version     string
	GeneratedAt string
	RunID       string
	Body        template.HTML
}

// GenerateHTML renders the Markdown factsheet into a standalone HTML page.
func GenerateHTML(res *pipeline.Result, charts Charts, cfg Config) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is nil")
	}

	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(res, charts)), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	tmpl, err := template.New("page").Parse(PageTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	data := pageData{
		Title:       companyName(res) + " Financial Factsheet",
		Version:     cfg.Version,
		GeneratedAt: res.FetchedAt.UTC().Format("2006-01-02 15:04 MST"),
		RunID:       res.RunID,
		Body:        template.HTML(body.String()),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Write artifacts
// ════════════════════════════════════════════════════════════════════

// Write renders the charts into cfg.OutputDir and, when enabled, the HTML
// page and its PDF export.
func Write(ctx context.Context, res *pipeline.Result, cfg Config) (*Output, error) {
	if res == nil {
		return nil, fmt.Errorf("result is nil")
	}
	log := zerolog.Ctx(ctx).With().Str("component", "report").Logger()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	charts := RenderCharts(res, cfg.Chart)
	out := &Output{}
	for _, c := range []struct{ name, svg string }{
		{FileProfitMargins, charts.ProfitMargins},
		{FileNetIncome, charts.NetIncome},
		{FileQuickRatio, charts.QuickRatio},
	} {
		path := filepath.Join(cfg.OutputDir, c.name)
		if err := os.WriteFile(path, []byte(c.svg), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", c.name, err)
		}
		out.Charts = append(out.Charts, path)
	}
	log.Debug().Strs("files", out.Charts).Msg("charts written")

	if !cfg.HTML && !cfg.PDF {
		return out, nil
	}

	page, err := GenerateHTML(res, charts, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.HTML {
		out.HTMLPath = filepath.Join(cfg.OutputDir, FileHTML)
		if err := os.WriteFile(out.HTMLPath, []byte(page), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", FileHTML, err)
		}
		log.Info().Str("path", out.HTMLPath).Msg("html report written")
	}

	if cfg.PDF {
		pdf, err := GeneratePDF(ctx, page, cfg.PDFConfig)
		if err != nil {
			return out, fmt.Errorf("exporting pdf: %w", err)
		}
		out.PDFPath = filepath.Join(cfg.OutputDir, FilePDF)
		if err := os.WriteFile(out.PDFPath, pdf, 0o644); err != nil {
			return out, fmt.Errorf("writing %s: %w", FilePDF, err)
		}
		log.Info().Str("path", out.PDFPath).Msg("pdf report written")
	}
	return out, nil
}

// Summary is a one-line description of a result for logs and status output.
func Summary(res *pipeline.Result) string {
	latest := "n/a"
	if n := len(res.Liquidity); n > 0 {
		latest = quick(res.Liquidity[n-1].QuickRatio)
	}
	income := decimal.Zero
	if n := len(res.Income); n > 0 {
		income = res.Income[n-1].NetIncome
	}
	return fmt.Sprintf("%s: %d income periods, %d quick ratio years, latest net income %s, latest quick ratio %s",
		companyName(res), len(res.Income), len(res.Liquidity), utils.FormatUSDCompact(income), latest)
}
