package sec

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/atom"

	"github.com/seenimoa/factsheet/internal/infra"
	"github.com/seenimoa/factsheet/internal/provider"
	"github.com/seenimoa/factsheet/pkg/models"
	"github.com/seenimoa/factsheet/pkg/utils"
)

// ---- FilingFeed fetcher ----
// Lists a company's recent filings of one form type from the browse-edgar
// Atom feed. EDGAR matches the type as a prefix, so "10-K" also returns
// "10-K/A" amendments.

const defaultFeedForm = "10-K"

var (
	accessionRe = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)
	filedRe     = regexp.MustCompile(`Filed:\s*(\d{4}-\d{2}-\d{2})`)
)

type filingFeedFetcher struct {
	provider.BaseFetcher
	p      *Provider
	parser *atom.Parser
}

func newFilingFeedFetcher(p *Provider) *filingFeedFetcher {
	return &filingFeedFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelFilingFeed,
			"Recent filings of a form type from the EDGAR Atom feed",
			provider.ParamCIK,
		),
		p:      p,
		parser: &atom.Parser{},
	}
}

func (f *filingFeedFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cik, err := cikParam(params)
	if err != nil {
		return nil, err
	}

	form := params[provider.ParamForm]
	if form == "" {
		form = defaultFeedForm
	}
	count := f.p.opts.FeedCount
	if s := params[provider.ParamLimit]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("sec filing feed: invalid limit %q", s)
		}
		count = n
	}

	u := f.feedURL(cik, form, count)
	data, err := f.p.fetchSECRaw(ctx, u, "application/atom+xml")
	if err != nil {
		return nil, fmt.Errorf("sec filing feed: %w", err)
	}

	feed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("sec filing feed: %w",
			infra.NewUpstreamError(u, 200, fmt.Errorf("parse Atom feed: %w", err)))
	}

	filings := make([]models.Filing, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		filings = append(filings, toFiling(entry))
	}
	return newResult(filings), nil
}

func (f *filingFeedFetcher) feedURL(cik, form string, count int) string {
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", cik)
	q.Set("type", form)
	q.Set("dateb", "")
	q.Set("owner", "include")
	q.Set("count", strconv.Itoa(count))
	q.Set("output", "atom")
	return f.p.opts.WWWURL + browseEdgarPath + "?" + q.Encode()
}

// toFiling maps one feed entry. EDGAR puts the accession number in the
// entry id ("urn:tag:sec.gov,2008:accession-number=...") and the form in
// the category term (the label is always "form type"); the title starts
// with the form too and the summary repeats the accession as HTML.
func toFiling(entry *atom.Entry) models.Filing {
	summary := cleanHTML(entry.Summary)

	filing := models.Filing{
		Title: strings.TrimSpace(entry.Title),
		Link:  entryLink(entry),
	}

	if _, accn, ok := strings.Cut(entry.ID, "accession-number="); ok {
		filing.Accession = strings.TrimSpace(accn)
	} else {
		filing.Accession = accessionRe.FindString(summary)
	}

	for _, c := range entry.Categories {
		if c != nil && c.Term != "" {
			filing.Form = strings.TrimSpace(c.Term)
			break
		}
	}
	if filing.Form == "" {
		if form, _, ok := strings.Cut(filing.Title, " - "); ok {
			filing.Form = strings.TrimSpace(form)
		}
	}
	filing.Amendment = strings.HasSuffix(filing.Form, "/A")

	if m := filedRe.FindStringSubmatch(summary); m != nil {
		filing.Filed = utils.ParseSECDate(m[1])
	} else if entry.UpdatedParsed != nil {
		filing.Filed = *entry.UpdatedParsed
	}

	return filing
}

// entryLink returns the alternate (filing index) link of an entry.
func entryLink(entry *atom.Entry) string {
	for _, l := range entry.Links {
		if l != nil && (l.Rel == "" || l.Rel == "alternate") {
			return l.Href
		}
	}
	return ""
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
