package sec

import (
	"context"
	"fmt"

	"github.com/seenimoa/factsheet/internal/provider"
	"github.com/seenimoa/factsheet/pkg/models"
	"github.com/seenimoa/factsheet/pkg/utils"
)

// ---- CompanyFacts fetcher ----
// Retrieves every XBRL fact a company has filed, grouped by taxonomy,
// concept and unit.

type companyFactsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCompanyFactsFetcher(p *Provider) *companyFactsFetcher {
	return &companyFactsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCompanyFacts,
			"XBRL company facts from SEC EDGAR",
			provider.ParamCIK,
		),
		p: p,
	}
}

func (f *companyFactsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cik, err := cikParam(params)
	if err != nil {
		return nil, err
	}

	var resp edgarCompanyFactsResponse
	if err := f.p.fetchSECJSON(ctx, f.p.companyFactsURL(cik), &resp); err != nil {
		return nil, fmt.Errorf("sec company facts: %w", err)
	}

	res := newResult(nil)
	coll := toFactCollection(&resp)
	coll.FetchedAt = res.FetchedAt
	res.Data = coll
	return res, nil
}

// toFactCollection converts the wire response, keeping source order within
// each unit.
func toFactCollection(resp *edgarCompanyFactsResponse) *models.FactCollection {
	coll := &models.FactCollection{
		CIK:        resp.CIK,
		EntityName: resp.EntityName,
		Facts:      make(map[string]map[string]models.Concept, len(resp.Facts)),
	}

	for taxonomy, concepts := range resp.Facts {
		tx := make(map[string]models.Concept, len(concepts))
		for name, c := range concepts {
			units := make(map[string][]models.Fact, len(c.Units))
			for unit, values := range c.Units {
				facts := make([]models.Fact, 0, len(values))
				for _, v := range values {
					facts = append(facts, models.Fact{
						Accession:  v.Accn,
						End:        utils.ParseSECDate(v.End),
						Start:      utils.ParseSECDate(v.Start),
						Value:      v.Val,
						Form:       v.Form,
						FiscalYear: coerceFiscalYear(v.FY),
						FiscalPart: v.FP,
						Filed:      utils.ParseSECDate(v.Filed),
					})
				}
				units[unit] = facts
			}
			tx[name] = models.Concept{
				Label:       c.Label,
				Description: c.Description,
				Units:       units,
			}
		}
		coll.Facts[taxonomy] = tx
	}
	return coll
}
