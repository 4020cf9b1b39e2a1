package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/seenimoa/factsheet/pkg/models"
	"github.com/seenimoa/factsheet/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Renderer: pure Go, no external dependencies
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds common chart rendering options.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
	Title        string
	XLabel       string
	YLabel       string
	YFormat      string // fmt verb for y tick labels, default "%.2f"
}

// DefaultChartConfig returns a 1000x600 chart with room for rotated x ticks.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        1000,
		Height:       600,
		MarginTop:    50,
		MarginRight:  40,
		MarginBottom: 90,
		MarginLeft:   80,
		BgColor:      "#ffffff",
		GridColor:    "#e0e0e0",
		TextColor:    "#333333",
		FontSize:     12,
		YFormat:      "%.2f",
	}
}

// WithSize returns a copy of cfg with the given dimensions; non-positive
// values keep the current ones.
func (cfg ChartConfig) WithSize(width, height int) ChartConfig {
	if width > 0 {
		cfg.Width = width
	}
	if height > 0 {
		cfg.Height = height
	}
	return cfg
}

func (cfg ChartConfig) plotArea() (x, y, w, h float64) {
	x = float64(cfg.MarginLeft)
	y = float64(cfg.MarginTop)
	w = float64(cfg.Width - cfg.MarginLeft - cfg.MarginRight)
	h = float64(cfg.Height - cfg.MarginTop - cfg.MarginBottom)
	return
}

// Point is one observation of a time series. Undefined points break the line.
type Point struct {
	Time  time.Time
	Value float64
	Valid bool
}

// TimeSeries is a named line on a time axis.
type TimeSeries struct {
	Name   string
	Color  string // default from palette
	Points []Point
}

var palette = []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// LineChart renders series on a shared time x-axis. Points are placed by
// date, each defined point gets a marker, and undefined points split the
// line into separate segments. Year ticks are rotated under the axis.
func LineChart(series []TimeSeries, cfg ChartConfig) string {
	tMin, tMax, vMin, vMax, ok := bounds(series)
	if !ok {
		return emptySVG(cfg, "No data")
	}

	px, py, pw, ph := cfg.plotArea()
	if cfg.YFormat == "" {
		cfg.YFormat = "%.2f"
	}

	if vMin == vMax {
		pad := math.Max(math.Abs(vMin)*0.1, 1)
		vMin -= pad
		vMax += pad
	}
	pad := (vMax - vMin) * 0.05
	vMin -= pad
	vMax += pad

	// Pad the time axis to whole years so ticks land inside the plot.
	start := time.Date(tMin.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(tMax.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
	span := end.Sub(start).Seconds()

	scaleX := func(t time.Time) float64 {
		return px + t.Sub(start).Seconds()/span*pw
	}
	scaleY := func(v float64) float64 {
		return py + ph - (v-vMin)/(vMax-vMin)*ph
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)

	if cfg.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" text-anchor="middle" font-size="%d" font-weight="bold" fill="%s">%s</text>`,
			cfg.Width/2, cfg.MarginTop/2+4, cfg.FontSize+4, cfg.TextColor, escapeXML(cfg.Title))
	}

	// Horizontal grid with value labels
	for i := 0; i <= 5; i++ {
		v := vMin + (vMax-vMin)*float64(i)/5
		y := scaleY(v)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-dasharray="4,4"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" text-anchor="end" font-size="%d" fill="%s">%s</text>`,
			px-6, y+4, cfg.FontSize-1, cfg.TextColor, escapeXML(fmt.Sprintf(cfg.YFormat, v)))
	}

	// Axes
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, px, py+ph, px+pw, py+ph, cfg.TextColor)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, px, py, px, py+ph, cfg.TextColor)

	// Year ticks, thinned to at most a dozen labels
	years := end.Year() - start.Year()
	step := max(1, (years+11)/12)
	for yr := start.Year(); yr <= end.Year(); yr += step {
		x := scaleX(time.Date(yr, 1, 1, 0, 0, 0, 0, time.UTC))
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, x, py+ph, x, py+ph+5, cfg.TextColor)
		ty := py + ph + 18
		fmt.Fprintf(&sb, `<text class="x-tick" x="%.1f" y="%.1f" text-anchor="end" font-size="%d" fill="%s" transform="rotate(-45 %.1f %.1f)">%d</text>`,
			x, ty, cfg.FontSize-1, cfg.TextColor, x, ty, yr)
	}

	// Axis labels
	if cfg.XLabel != "" {
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" text-anchor="middle" font-size="%d" fill="%s">%s</text>`,
			px+pw/2, cfg.Height-12, cfg.FontSize, cfg.TextColor, escapeXML(cfg.XLabel))
	}
	if cfg.YLabel != "" {
		cx, cy := 18.0, py+ph/2
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="%d" fill="%s" transform="rotate(-90 %.1f %.1f)">%s</text>`,
			cx, cy, cfg.FontSize, cfg.TextColor, cx, cy, escapeXML(cfg.YLabel))
	}

	for si, s := range series {
		color := s.Color
		if color == "" {
			color = palette[si%len(palette)]
		}

		for _, seg := range segments(s.Points) {
			var path strings.Builder
			for i, p := range seg {
				cmd := "L"
				if i == 0 {
					cmd = "M"
				}
				fmt.Fprintf(&path, "%s%.1f,%.1f ", cmd, scaleX(p.Time), scaleY(p.Value))
			}
			fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.TrimSpace(path.String()), color)
		}

		for _, p := range s.Points {
			if !plottable(p) {
				continue
			}
			fmt.Fprintf(&sb, `<circle class="marker" cx="%.1f" cy="%.1f" r="3.5" fill="%s"><title>%s: %s</title></circle>`,
				scaleX(p.Time), scaleY(p.Value), color,
				utils.FormatDate(p.Time), escapeXML(fmt.Sprintf(cfg.YFormat, p.Value)))
		}

		// Legend
		ly := py + 10 + float64(si)*18
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="12" height="3" fill="%s"/>`, px+10, ly, color)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			px+26, ly+5, cfg.FontSize-1, cfg.TextColor, escapeXML(s.Name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// bounds returns the time range over dated points and the value range over
// plottable ones. ok is false when no series has a plottable point.
func bounds(series []TimeSeries) (tMin, tMax time.Time, vMin, vMax float64, ok bool) {
	vMin, vMax = math.Inf(1), math.Inf(-1)
	seen := false
	for _, s := range series {
		for _, p := range s.Points {
			if p.Time.IsZero() {
				continue
			}
			if !seen || p.Time.Before(tMin) {
				tMin = p.Time
			}
			if !seen || p.Time.After(tMax) {
				tMax = p.Time
			}
			seen = true
			if !plottable(p) {
				continue
			}
			ok = true
			vMin = math.Min(vMin, p.Value)
			vMax = math.Max(vMax, p.Value)
		}
	}
	return
}

// plottable reports whether p has a date and a finite defined value.
func plottable(p Point) bool {
	return p.Valid && !p.Time.IsZero() && !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// segments splits points into runs of consecutive plottable values.
func segments(points []Point) [][]Point {
	var out [][]Point
	var cur []Point
	for _, p := range points {
		if !plottable(p) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// ════════════════════════════════════════════════════════════════════
// Report Charts
// ════════════════════════════════════════════════════════════════════

func ratioPoint(t time.Time, r models.Ratio) Point {
	v, ok := r.Float()
	return Point{Time: t, Value: v, Valid: ok}
}

// ProfitMarginChart plots net and gross profit margins per period end.
func ProfitMarginChart(company string, rows []models.MetricRow, cfg ChartConfig) string {
	net := TimeSeries{Name: "Net Profit Margin", Color: palette[0]}
	gross := TimeSeries{Name: "Gross Profit Margin", Color: palette[1]}
	for _, r := range rows {
		net.Points = append(net.Points, ratioPoint(r.End, r.NetProfitMargin))
		gross.Points = append(gross.Points, ratioPoint(r.End, r.GrossProfitMargin))
	}
	cfg.Title = company + " Profit Margins Over Time"
	cfg.XLabel = "Fiscal Year"
	cfg.YLabel = "Profit Margin"
	return LineChart([]TimeSeries{net, gross}, cfg)
}

// QuickRatioChart plots the quick ratio at each fiscal year's period end.
func QuickRatioChart(company string, rows []models.QuickRatioRow, cfg ChartConfig) string {
	qr := TimeSeries{Name: "Quick Ratio", Color: palette[2]}
	for _, r := range rows {
		qr.Points = append(qr.Points, ratioPoint(r.End, r.QuickRatio))
	}
	cfg.Title = company + " Quick Ratio Over Time"
	cfg.XLabel = "Fiscal Year"
	cfg.YLabel = "Quick Ratio"
	return LineChart([]TimeSeries{qr}, cfg)
}

// NetIncomeChart plots net income in billions of USD.
func NetIncomeChart(company string, rows []models.MetricRow, cfg ChartConfig) string {
	ni := TimeSeries{Name: "Net Income", Color: palette[3]}
	for _, r := range rows {
		ni.Points = append(ni.Points, Point{Time: r.End, Value: utils.ToBillions(r.NetIncome), Valid: true})
	}
	cfg.Title = company + " Net Income Over Time"
	cfg.XLabel = "Fiscal Year"
	cfg.YLabel = "Net Income (Billions USD)"
	return LineChart([]TimeSeries{ni}, cfg)
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	title := ""
	if cfg.Title != "" {
		title = fmt.Sprintf(`<text x="%d" y="24" text-anchor="middle" font-size="16" font-weight="bold" fill="#333">%s</text>`,
			cfg.Width/2, escapeXML(cfg.Title))
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/>%s<text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, title, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
