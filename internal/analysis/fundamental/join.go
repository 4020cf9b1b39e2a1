package fundamental

import (
	"github.com/shopspring/decimal"

	"github.com/seenimoa/factsheet/pkg/models"
)

// LabeledSet pairs a fact set with the column label its values take in a
// joined row.
type LabeledSet struct {
	Label string
	Set   models.FactSet
}

// Labeled is shorthand for building a LabeledSet.
func Labeled(label string, set models.FactSet) LabeledSet {
	return LabeledSet{Label: label, Set: set}
}

// JoinPeriods inner-joins the sets on (accession, period end).
//
// A row is emitted only for keys present in every set; everything else is
// dropped without error. Rows follow the order of the first set. Inputs are
// expected to be deduplicated already; if a key repeats, its last fact wins
// and the key still yields a single row.
func JoinPeriods(sets ...LabeledSet) []models.PeriodRow {
	if len(sets) == 0 {
		return []models.PeriodRow{}
	}

	indexes := make([]map[models.PeriodKey]decimal.Decimal, len(sets))
	for i, ls := range sets[1:] {
		idx := make(map[models.PeriodKey]decimal.Decimal, len(ls.Set.Facts))
		for _, f := range ls.Set.Facts {
			idx[f.Key()] = f.Value
		}
		indexes[i+1] = idx
	}

	rows := make([]models.PeriodRow, 0, len(sets[0].Set.Facts))
	position := make(map[models.PeriodKey]int)

	for _, f := range sets[0].Set.Facts {
		key := f.Key()
		values := map[string]decimal.Decimal{sets[0].Label: f.Value}

		matched := true
		for i := 1; i < len(sets); i++ {
			v, ok := indexes[i][key]
			if !ok {
				matched = false
				break
			}
			values[sets[i].Label] = v
		}
		if !matched {
			continue
		}

		row := models.PeriodRow{
			Accession:  f.Accession,
			End:        f.End,
			FiscalYear: f.FiscalYear,
			Values:     values,
		}
		if at, seen := position[key]; seen {
			rows[at] = row
			continue
		}
		position[key] = len(rows)
		rows = append(rows, row)
	}
	return rows
}
