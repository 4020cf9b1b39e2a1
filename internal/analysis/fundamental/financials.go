// Package fundamental turns raw companyfacts records into deduplicated,
// period-aligned rows and the ratios derived from them.
package fundamental

import (
	"slices"

	"github.com/seenimoa/factsheet/pkg/models"
)

const (
	TaxonomyUSGAAP = "us-gaap"
	UnitUSD        = "USD"
	FormAnnual     = "10-K"
)

// Concept names used by the reports.
const (
	ConceptRevenues           = "Revenues"
	ConceptNetIncomeLoss      = "NetIncomeLoss"
	ConceptGrossProfit        = "GrossProfit"
	ConceptAssetsCurrent      = "AssetsCurrent"
	ConceptLiabilitiesCurrent = "LiabilitiesCurrent"
	ConceptInventoryNet       = "InventoryNet"
)

// Extract returns the us-gaap USD facts for concept.
func Extract(coll *models.FactCollection, concept string) models.FactSet {
	return ExtractUnit(coll, TaxonomyUSGAAP, concept, UnitUSD)
}

// ExtractUnit returns the facts of concept in the given taxonomy and unit.
// A missing taxonomy, concept or unit yields an empty set with Present=false.
func ExtractUnit(coll *models.FactCollection, taxonomy, concept, unit string) models.FactSet {
	set := models.FactSet{Concept: concept, Unit: unit, Facts: []models.Fact{}}
	if coll == nil {
		return set
	}

	c, ok := coll.Facts[taxonomy][concept]
	if !ok {
		return set
	}
	facts, ok := c.Units[unit]
	if !ok {
		return set
	}

	set.Present = true
	set.Facts = append(set.Facts, facts...)
	return set
}

// FilterForm keeps only the facts filed on the given form type.
// The match is exact: "10-K/A" is not "10-K".
func FilterForm(set models.FactSet, form string) models.FactSet {
	out := set
	out.Facts = make([]models.Fact, 0, len(set.Facts))
	for _, f := range set.Facts {
		if f.Form == form {
			out.Facts = append(out.Facts, f)
		}
	}
	return out
}

// DedupLatest collapses facts sharing an accession number to one.
//
// Facts are stable-sorted by period end ascending (equal ends keep their
// source order) and the last fact of each accession in that order wins.
// The result stays ordered by period end.
func DedupLatest(set models.FactSet) models.FactSet {
	sorted := slices.Clone(set.Facts)
	slices.SortStableFunc(sorted, func(a, b models.Fact) int {
		return a.End.Compare(b.End)
	})

	last := make(map[string]int, len(sorted))
	for i, f := range sorted {
		last[f.Accession] = i
	}

	out := set
	out.Facts = make([]models.Fact, 0, len(last))
	for i, f := range sorted {
		if last[f.Accession] == i {
			out.Facts = append(out.Facts, f)
		}
	}
	return out
}

// Selector picks which facts of a snapshot feed the pipeline.
// Zero fields default to us-gaap, USD and 10-K.
type Selector struct {
	Taxonomy string
	Unit     string
	Form     string
}

func (s Selector) withDefaults() Selector {
	if s.Taxonomy == "" {
		s.Taxonomy = TaxonomyUSGAAP
	}
	if s.Unit == "" {
		s.Unit = UnitUSD
	}
	if s.Form == "" {
		s.Form = FormAnnual
	}
	return s
}

// Facts extracts concept in the selected taxonomy and unit.
func (s Selector) Facts(coll *models.FactCollection, concept string) models.FactSet {
	s = s.withDefaults()
	return ExtractUnit(coll, s.Taxonomy, concept, s.Unit)
}

// Annual extracts concept and narrows it to one deduplicated fact per
// filing of the selected form.
func (s Selector) Annual(coll *models.FactCollection, concept string) models.FactSet {
	s = s.withDefaults()
	return DedupLatest(FilterForm(s.Facts(coll, concept), s.Form))
}
