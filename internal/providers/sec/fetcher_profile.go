package sec

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/seenimoa/factsheet/internal/infra"
	"github.com/seenimoa/factsheet/internal/provider"
	"github.com/seenimoa/factsheet/pkg/models"
	"github.com/seenimoa/factsheet/pkg/utils"
)

// ---- CompanyProfile fetcher ----
// Reads the descriptive header of the submissions document.

type companyProfileFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCompanyProfileFetcher(p *Provider) *companyProfileFetcher {
	return &companyProfileFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCompanyProfile,
			"Company name, tickers and industry from SEC EDGAR submissions",
			provider.ParamCIK,
		),
		p: p,
	}
}

func (f *companyProfileFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cik, err := cikParam(params)
	if err != nil {
		return nil, err
	}

	url := f.p.submissionsURL(cik)
	data, err := f.p.fetchSECRaw(ctx, url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("sec submissions: %w", err)
	}

	profile, err := parseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("sec submissions: %w", infra.NewUpstreamError(url, 200, err))
	}
	if profile.CIK == "" {
		profile.CIK = cik
	}
	return newResult(profile), nil
}

func parseProfile(data []byte) (*models.CompanyProfile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse submissions JSON: invalid document")
	}

	r := gjson.GetManyBytes(data, submissionsPaths...)
	cik, name, tickers, exchanges, sic, fye := r[0], r[1], r[2], r[3], r[4], r[5]

	if !name.Exists() {
		return nil, fmt.Errorf("parse submissions JSON: missing name")
	}

	profile := &models.CompanyProfile{
		Name:           name.String(),
		Tickers:        stringArray(tickers),
		Exchanges:      stringArray(exchanges),
		SICDescription: sic.String(),
		FiscalYearEnd:  fye.String(),
	}
	if cik.Exists() {
		if padded, err := utils.NormalizeCIK(cik.String()); err == nil {
			profile.CIK = padded
		}
	}
	return profile, nil
}

func stringArray(r gjson.Result) []string {
	arr := r.Array()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
