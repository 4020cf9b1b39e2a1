package report

// PageTemplate wraps the rendered Markdown body in a standalone HTML page.
// It is embedded as a Go constant so the report has no external assets.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta name="generator" content="factsheet {{.Version}}">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1080px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p, ul { margin: 6px 0; }
  ul { padding-left: 20px; }
  table { width: 100%; border-collapse: collapse; font-size: 0.85rem; margin: 8px 0; }
  th { background: var(--section-bg); text-align: left; padding: 6px 8px; border-bottom: 2px solid var(--border); }
  td { padding: 5px 8px; border-bottom: 1px solid var(--border); }
  td:not(:first-child), th:not(:first-child) { text-align: right; }
  svg { max-width: 100%; height: auto; margin: 12px 0; }
  .chart { page-break-inside: avoid; }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); color: var(--muted); font-size: 0.75rem; }
  @media print {
    body { padding: 0; }
    h2 { page-break-after: avoid; }
  }
</style>
</head>
<body>
{{.Body}}
<div class="footer">Source: SEC EDGAR companyfacts. Generated {{.GeneratedAt}} (run {{.RunID}}).</div>
</body>
</html>`
