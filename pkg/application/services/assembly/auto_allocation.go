package assembly

import (
	"sort"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// AutoAllocationRow summarises the events of one status, class,
// disturbance type, step and efficiency
type AutoAllocationRow struct {
	Status       string
	ConBroad     string
	DistTypeName entities.DisturbanceID
	Step         int
	Efficiency   float64
	Amount       float64
	SWStart      int
	SWEnd        int
	HWStart      int
	HWEnd        int
	SortType     entities.SortType
}

type autoKey struct {
	status     string
	conBroad   string
	dist       entities.DisturbanceID
	step       int
	efficiency float64
}

// AutoAllocation aggregates events: amounts are summed, age windows
// widened to cover every event and the most frequent sort type kept,
// the smallest code winning ties
func AutoAllocation(events []entities.DisturbanceEvent) []AutoAllocationRow {
	rows := make(map[autoKey]*AutoAllocationRow)
	sortCounts := make(map[autoKey]map[entities.SortType]int)
	var order []autoKey

	for _, e := range events {
		k := autoKey{
			status:     e.Classifiers.Get(entities.ClassifierStatus),
			conBroad:   e.Classifiers.Get(entities.ClassifierConBroad),
			dist:       e.DistTypeName,
			step:       e.Step,
			efficiency: e.Efficiency,
		}
		row, ok := rows[k]
		if !ok {
			row = &AutoAllocationRow{
				Status:       k.status,
				ConBroad:     k.conBroad,
				DistTypeName: k.dist,
				Step:         k.step,
				Efficiency:   k.efficiency,
				SWStart:      e.SWStart,
				SWEnd:        e.SWEnd,
				HWStart:      e.HWStart,
				HWEnd:        e.HWEnd,
			}
			rows[k] = row
			sortCounts[k] = make(map[entities.SortType]int)
			order = append(order, k)
		}
		row.Amount += e.Amount
		row.SWStart = min(row.SWStart, e.SWStart)
		row.HWStart = min(row.HWStart, e.HWStart)
		row.SWEnd = max(row.SWEnd, e.SWEnd)
		row.HWEnd = max(row.HWEnd, e.HWEnd)
		sortCounts[k][e.SortType]++
	}

	out := make([]AutoAllocationRow, 0, len(order))
	for _, k := range order {
		row := rows[k]
		row.SortType = modeSortType(sortCounts[k])
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		if a.ConBroad != b.ConBroad {
			return a.ConBroad < b.ConBroad
		}
		if a.DistTypeName != b.DistTypeName {
			return a.DistTypeName < b.DistTypeName
		}
		if a.Step != b.Step {
			return a.Step < b.Step
		}
		return a.Efficiency < b.Efficiency
	})
	return out
}

func modeSortType(counts map[entities.SortType]int) entities.SortType {
	var best entities.SortType
	bestCount := 0
	for s, n := range counts {
		if n > bestCount || (n == bestCount && s < best) {
			best, bestCount = s, n
		}
	}
	return best
}
