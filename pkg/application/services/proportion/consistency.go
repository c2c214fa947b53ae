package proportion

import (
	"sort"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// RemovalMismatch lists the different percent removed values found for
// one disturbance type
type RemovalMismatch struct {
	DisturbanceID entities.DisturbanceID
	Values        []float64
}

// CheckRemovalConsistency reports disturbance types whose treatments do not
// agree on the share of merchantable biomass removed. The share is a
// property of the disturbance matrix, so every treatment using a
// disturbance type should carry the same value.
func CheckRemovalConsistency(treatments []*entities.Treatment) []RemovalMismatch {
	values := make(map[entities.DisturbanceID]map[float64]bool)
	for _, t := range treatments {
		if values[t.DisturbanceID] == nil {
			values[t.DisturbanceID] = make(map[float64]bool)
		}
		values[t.DisturbanceID][t.PercentRemoved] = true
	}

	var mismatches []RemovalMismatch
	for id, set := range values {
		if len(set) < 2 {
			continue
		}
		m := RemovalMismatch{DisturbanceID: id}
		for v := range set {
			m.Values = append(m.Values, v)
		}
		sort.Float64s(m.Values)
		mismatches = append(mismatches, m)
	}
	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].DisturbanceID < mismatches[j].DisturbanceID
	})
	return mismatches
}
