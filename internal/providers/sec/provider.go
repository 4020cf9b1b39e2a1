// Package sec implements the SEC EDGAR data provider.
// SEC EDGAR provides free access to XBRL company facts, company submissions
// and filing feeds via REST APIs.
//
// No API key required. Must include a User-Agent header identifying a
// contact per SEC policy.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
// Rate limit: 10 requests/second per user-agent.
package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seenimoa/factsheet/internal/infra"
	"github.com/seenimoa/factsheet/internal/provider"
	"github.com/seenimoa/factsheet/pkg/utils"
)

const (
	providerName = "sec"

	// SEC EDGAR hosts.
	DefaultDataURL = "https://data.sec.gov" // JSON data API
	DefaultWWWURL  = "https://www.sec.gov"  // browse-edgar feeds

	companyFactsPath = "/api/xbrl/companyfacts"
	submissionsPath  = "/submissions"
	browseEdgarPath  = "/cgi-bin/browse-edgar"

	// CredUserAgent is the credential carrying the contact identity.
	CredUserAgent = "user_agent"

	// Sent when no contact identity is configured. EDGAR may throttle it.
	defaultUserAgent = "factsheet/1.0 (contact not configured)"

	// Ping target: Tesla, Inc.
	pingCIK = "0001318605"

	defaultFeedCount = 40
)

// Options configures the SEC provider.
type Options struct {
	DataURL   string        // default DefaultDataURL
	WWWURL    string        // default DefaultWWWURL
	Timeout   time.Duration // default 30s
	RateLimit float64       // requests per second, default infra.DefaultRateLimit
	FeedCount int           // filings requested from the Atom feed, default 40

	// Client replaces the HTTP client built from Timeout and RateLimit.
	Client *infra.HTTPClient
}

func (o Options) withDefaults() Options {
	if o.DataURL == "" {
		o.DataURL = DefaultDataURL
	}
	if o.WWWURL == "" {
		o.WWWURL = DefaultWWWURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RateLimit == 0 {
		o.RateLimit = infra.DefaultRateLimit
	}
	if o.FeedCount <= 0 {
		o.FeedCount = defaultFeedCount
	}
	return o
}

// Provider implements provider.Provider for SEC EDGAR.
type Provider struct {
	provider.BaseProvider
	opts   Options
	client *infra.HTTPClient
}

// New creates a new SEC provider and registers all fetchers.
func New(opts Options) *Provider {
	opts = opts.withDefaults()

	client := opts.Client
	if client == nil {
		client = infra.NewHTTPClient(
			infra.WithTimeout(opts.Timeout),
			infra.WithRateLimit(opts.RateLimit),
		)
	}

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"SEC EDGAR - XBRL company facts, submissions and filing feeds",
			"https://www.sec.gov/edgar",
			[]provider.ProviderCredential{{
				Name:        CredUserAgent,
				Description: "Contact identity sent as User-Agent, e.g. \"Name name@example.com\"",
				Default:     defaultUserAgent,
				EnvVar:      "FACTSHEET_SEC_USER_AGENT",
			}},
		),
		opts:   opts,
		client: client,
	}

	p.RegisterFetcher(newCompanyFactsFetcher(p))
	p.RegisterFetcher(newCompanyProfileFetcher(p))
	p.RegisterFetcher(newFilingFeedFetcher(p))

	return p
}

// Ping checks connectivity to SEC EDGAR.
func (p *Provider) Ping(ctx context.Context) error {
	url := p.submissionsURL(pingCIK)
	body, _, err := p.client.DoGet(ctx, url, p.headers("application/json"))
	if err != nil {
		return fmt.Errorf("sec ping: %w", err)
	}
	body.Close()
	return nil
}

// UserAgent returns the identity sent with every request.
func (p *Provider) UserAgent() string {
	if ua := p.Credential(CredUserAgent); ua != "" {
		return ua
	}
	// Init not called yet.
	return defaultUserAgent
}

// --- Shared helpers ---

func (p *Provider) headers(accept string) map[string]string {
	return map[string]string{
		"User-Agent": p.UserAgent(),
		"Accept":     accept,
	}
}

func (p *Provider) companyFactsURL(cik string) string {
	return fmt.Sprintf("%s%s/CIK%s.json", p.opts.DataURL, companyFactsPath, cik)
}

func (p *Provider) submissionsURL(cik string) string {
	return fmt.Sprintf("%s%s/CIK%s.json", p.opts.DataURL, submissionsPath, cik)
}

// fetchSECJSON performs a GET request to the SEC API and decodes JSON.
// Decode failures are upstream errors: the service answered with a body
// this client cannot use.
func (p *Provider) fetchSECJSON(ctx context.Context, url string, dest any) error {
	data, err := p.fetchSECRaw(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return infra.NewUpstreamError(url, 200, fmt.Errorf("parse SEC JSON: %w", err))
	}
	return nil
}

// fetchSECRaw performs a GET request and returns raw bytes.
func (p *Provider) fetchSECRaw(ctx context.Context, url, accept string) ([]byte, error) {
	return p.client.GetBytes(ctx, url, p.headers(accept))
}

// cikParam reads and normalizes the CIK query parameter.
func cikParam(params provider.QueryParams) (string, error) {
	cik, err := utils.NormalizeCIK(params[provider.ParamCIK])
	if err != nil {
		return "", fmt.Errorf("sec: %w", err)
	}
	return cik, nil
}

func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}
