package report

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ════════════════════════════════════════════════════════════════════
// PDF Generator: HTML → PDF via headless Chrome (chromedp)
// ════════════════════════════════════════════════════════════════════

// ErrNoBrowser is returned when no Chrome or Chromium binary is on PATH.
var ErrNoBrowser = errors.New("no chrome/chromium binary found")

var browserNames = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "headless-shell"}

// PDFConfig holds configuration for PDF generation. Sizes are in inches.
type PDFConfig struct {
	ExecPath     string // default: first browser found on PATH
	PaperWidth   float64
	PaperHeight  float64
	Landscape    bool
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	Timeout      time.Duration
}

// DefaultPDFConfig returns A4 portrait with 15mm/10mm margins.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		PaperWidth:   8.27,
		PaperHeight:  11.69,
		MarginTop:    0.59,
		MarginBottom: 0.59,
		MarginLeft:   0.39,
		MarginRight:  0.39,
		Timeout:      60 * time.Second,
	}
}

// DetectBrowser returns the path of the first Chrome-like binary on PATH.
func DetectBrowser() (string, error) {
	for _, name := range browserNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoBrowser
}

// IsPDFSupported returns true if a browser for PDF export is available.
func IsPDFSupported() bool {
	_, err := DetectBrowser()
	return err == nil
}

// GeneratePDF loads html into a headless browser tab and prints it.
func GeneratePDF(ctx context.Context, html string, cfg PDFConfig) ([]byte, error) {
	execPath := cfg.ExecPath
	if execPath == "" {
		var err error
		if execPath, err = DetectBrowser(); err != nil {
			return nil, err
		}
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(cfg.Landscape).
				WithPaperWidth(cfg.PaperWidth).
				WithPaperHeight(cfg.PaperHeight).
				WithMarginTop(cfg.MarginTop).
				WithMarginBottom(cfg.MarginBottom).
				WithMarginLeft(cfg.MarginLeft).
				WithMarginRight(cfg.MarginRight).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome print to pdf: %w", err)
	}
	return pdf, nil
}
