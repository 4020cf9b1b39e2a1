// Package pipeline runs one report: fetch the snapshot, reshape it into
// income and liquidity series, and annotate them with filing metadata.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/factsheet/internal/analysis/fundamental"
	"github.com/seenimoa/factsheet/internal/provider"
	"github.com/seenimoa/factsheet/pkg/models"
)

// Source fetches one standard model. *provider.Registry satisfies it.
type Source interface {
	Fetch(ctx context.Context, model provider.ModelType, params provider.QueryParams) (*provider.FetchResult, error)
}

// Options selects the company and the facts a run reads.
type Options struct {
	CIK             string // ten-digit CIK
	Selector        fundamental.Selector
	QuickRatioMinFY int // default fundamental.QuickRatioMinFiscalYear
	FeedLimit       int // 0 leaves the provider default
}

// Result is everything one run produced.
type Result struct {
	RunID       string
	CIK         string
	CompanyName string
	Profile     *models.CompanyProfile // nil when the submissions fetch failed
	Filings     []models.Filing        // empty when the feed fetch failed
	Facts       *models.FactCollection
	Income      []models.MetricRow
	Liquidity   []models.QuickRatioRow

	MissingConcepts []string // concepts absent from the snapshot
	Warnings        []string // non-fatal fetch failures
	FetchedAt       time.Time
	Duration        time.Duration
}

// Pipeline runs reports against a data source.
type Pipeline struct {
	src Source
	log zerolog.Logger
}

// New creates a pipeline.
func New(src Source, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		src: src,
		log: log.With().Str("component", "pipeline").Logger(),
	}
}

// Run fetches the company facts, profile and filing feed concurrently and
// computes both series. Only a company facts failure is fatal; it keeps its
// *infra.UpstreamError in the chain.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID: uuid.NewString(),
		CIK:   opts.CIK,
	}

	log := p.log.With().Str("run_id", res.RunID).Str("cik", opts.CIK).Logger()
	ctx = log.WithContext(ctx)

	if err := p.fetch(ctx, opts, res); err != nil {
		log.Error().Err(err).Msg("company facts unavailable")
		return nil, err
	}

	res.CompanyName = res.Facts.EntityName
	if res.Profile != nil && res.Profile.Name != "" {
		res.CompanyName = res.Profile.Name
	}

	res.MissingConcepts = missingConcepts(res.Facts, opts.Selector)
	for _, c := range res.MissingConcepts {
		log.Warn().Str("concept", c).Msg("concept absent from snapshot")
	}

	res.Income = fundamental.IncomeMetrics(res.Facts, opts.Selector)
	res.Liquidity = fundamental.LiquidityMetrics(res.Facts, opts.Selector, fundamental.QuickRatioOptions{
		MinFiscalYear: opts.QuickRatioMinFY,
	})
	if n := FlagAmendments(res.Facts, opts.Selector, res.Income, res.Liquidity, res.Filings); n > 0 {
		log.Info().Int("rows", n).Msg("periods restated by later amendments")
	}

	res.Duration = time.Since(start)
	log.Info().
		Int("income_rows", len(res.Income)).
		Int("quick_ratio_rows", len(res.Liquidity)).
		Int("filings", len(res.Filings)).
		Dur("took", res.Duration).
		Msg("pipeline complete")

	return res, nil
}

func (p *Pipeline) fetch(ctx context.Context, opts Options, res *Result) error {
	params := provider.QueryParams{provider.ParamCIK: opts.CIK}

	var mu sync.Mutex
	warn := func(what string, err error) {
		zerolog.Ctx(ctx).Warn().Err(err).Msgf("%s unavailable, continuing without it", what)
		mu.Lock()
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", what, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	// 1. Company facts (required).
	g.Go(func() error {
		r, err := p.src.Fetch(gctx, provider.ModelCompanyFacts, params)
		if err != nil {
			return fmt.Errorf("company facts: %w", err)
		}
		coll, err := provider.DataAs[*models.FactCollection](r)
		if err != nil {
			return fmt.Errorf("company facts: %w", err)
		}
		res.Facts = coll
		res.FetchedAt = r.FetchedAt
		return nil
	})

	// 2. Company profile from submissions.
	g.Go(func() error {
		r, err := p.src.Fetch(gctx, provider.ModelCompanyProfile, params)
		if err == nil {
			var profile *models.CompanyProfile
			if profile, err = provider.DataAs[*models.CompanyProfile](r); err == nil {
				mu.Lock()
				res.Profile = profile
				mu.Unlock()
				return nil
			}
		}
		warn("company profile", err)
		return nil
	})

	// 3. Filing feed for amendment flags.
	g.Go(func() error {
		feedParams := provider.QueryParams{
			provider.ParamCIK:  opts.CIK,
			provider.ParamForm: opts.Selector.Form,
		}
		if feedParams[provider.ParamForm] == "" {
			feedParams[provider.ParamForm] = fundamental.FormAnnual
		}
		if opts.FeedLimit > 0 {
			feedParams[provider.ParamLimit] = strconv.Itoa(opts.FeedLimit)
		}
		r, err := p.src.Fetch(gctx, provider.ModelFilingFeed, feedParams)
		if err == nil {
			var filings []models.Filing
			if filings, err = provider.DataAs[[]models.Filing](r); err == nil {
				mu.Lock()
				res.Filings = filings
				mu.Unlock()
				return nil
			}
		}
		warn("filing feed", err)
		return nil
	})

	return g.Wait()
}

type amendment struct {
	accession string
	filed     time.Time
}

// FlagAmendments marks rows whose period was restated by a later amendment
// and returns how many rows it flagged.
//
// Amendment facts never survive the form filter, so they are found in the
// full snapshot: a fact belongs to an amendment when its form is the
// selected form with an "/A" suffix or the filing feed lists its accession
// as one. Each amendment covers the latest period end it reports. A row is
// flagged when it comes from an amendment itself, or when an amendment
// covering its period end was filed after the row's own filing.
func FlagAmendments(coll *models.FactCollection, sel fundamental.Selector, income []models.MetricRow, liquidity []models.QuickRatioRow, filings []models.Filing) int {
	if coll == nil {
		return 0
	}
	if sel.Form == "" {
		sel.Form = fundamental.FormAnnual
	}
	amendForm := sel.Form + "/A"

	feedAmended := make(map[string]time.Time)
	for _, f := range filings {
		if f.Amendment {
			feedAmended[f.Accession] = f.Filed
		}
	}

	filedAt := make(map[string]time.Time) // accession -> filing date
	covers := make(map[string]time.Time)  // amendment accession -> latest period end
	for _, group := range [][]string{fundamental.IncomeConcepts, fundamental.LiquidityConcepts} {
		for _, c := range group {
			for _, f := range sel.Facts(coll, c).Facts {
				if f.Filed.After(filedAt[f.Accession]) {
					filedAt[f.Accession] = f.Filed
				}
				_, listed := feedAmended[f.Accession]
				if f.Form != amendForm && !listed {
					continue
				}
				if f.End.After(covers[f.Accession]) {
					covers[f.Accession] = f.End
				}
			}
		}
	}
	if len(covers) == 0 {
		return 0
	}

	day := func(t time.Time) string { return t.Format(time.DateOnly) }
	latest := make(map[string]amendment, len(covers)) // period end -> newest amendment
	for accn, end := range covers {
		filed := filedAt[accn]
		if filed.IsZero() {
			filed = feedAmended[accn]
		}
		cur, ok := latest[day(end)]
		if !ok || filed.After(cur.filed) || (filed.Equal(cur.filed) && accn > cur.accession) {
			latest[day(end)] = amendment{accession: accn, filed: filed}
		}
	}

	restatedBy := func(accn string, end time.Time) (string, bool) {
		if _, self := covers[accn]; self {
			return accn, true
		}
		a, ok := latest[day(end)]
		if !ok || !a.filed.After(filedAt[accn]) {
			return "", false
		}
		return a.accession, true
	}

	flagged := 0
	for i := range income {
		if by, ok := restatedBy(income[i].Accession, income[i].End); ok {
			income[i].Amended, income[i].AmendedBy = true, by
			flagged++
		}
	}
	for i := range liquidity {
		if by, ok := restatedBy(liquidity[i].Accession, liquidity[i].End); ok {
			liquidity[i].Amended, liquidity[i].AmendedBy = true, by
			flagged++
		}
	}
	return flagged
}

func missingConcepts(coll *models.FactCollection, sel fundamental.Selector) []string {
	var missing []string
	for _, group := range [][]string{fundamental.IncomeConcepts, fundamental.LiquidityConcepts} {
		for _, c := range group {
			if !sel.Facts(coll, c).Present {
				missing = append(missing, c)
			}
		}
	}
	return missing
}
