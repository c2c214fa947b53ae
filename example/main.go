package main

import (
	"fmt"

	"github.com/vsinha/harvest/pkg/application/services/allocation"
	"github.com/vsinha/harvest/pkg/application/services/assembly"
	"github.com/vsinha/harvest/pkg/application/services/conservation"
	"github.com/vsinha/harvest/pkg/domain/entities"
)

func rule(dist entities.DisturbanceID, forestType string, product entities.Product, prop float64) entities.AllocationRule {
	category, err := entities.NewProductCategory(product, entities.Conifer)
	if err != nil {
		panic(err)
	}
	return entities.AllocationRule{
		DisturbanceID: dist,
		Classifiers: entities.Classifiers{
			entities.ClassifierStatus:             entities.ForestStatus,
			entities.ClassifierForestType:         forestType,
			entities.ClassifierManagementType:     "H",
			entities.ClassifierManagementStrategy: "E",
			entities.ClassifierConBroad:           "Con",
		},
		Category:       category,
		StockAvailable: prop * 1000,
		Prop:           prop,
		Density:        0.5,
		OWCFraction:    0.1,
		SnagFraction:   0.05,
		MinAge:         40,
		MaxAge:         120,
		MinSinceLast:   10,
		MaxSinceLast:   entities.Unconstrained,
		SortType:       entities.SortType(2),
		Efficiency:     1,
		PercentRemoved: 1,
		ManMade:        true,
	}
}

func main() {
	// 1000 m3 of conifer roundwood split 60/40 between two rules
	rules := []entities.AllocationRule{
		rule("20", "PA", entities.Roundwood, 0.6),
		rule("22", "PS", entities.Roundwood, 0.4),
		rule("13", "PA", entities.Fuelwood, 1.0),
	}
	irw, _ := entities.NewDemandRecord(1, entities.Roundwood, entities.Conifer, 1000)
	fw, _ := entities.NewDemandRecord(1, entities.Fuelwood, entities.Conifer, 400)
	demands := []*entities.DemandRecord{irw, fw}

	allocator := allocation.NewAllocator(nil)
	roundwood, err := allocator.AllocateRoundwood(demands, rules)
	if err != nil {
		fmt.Printf("Roundwood allocation failed: %v\n", err)
		return
	}
	fmt.Println("Roundwood")
	for _, a := range roundwood {
		fmt.Printf("  %s %s: %.1f m3, byproduct %.1f m3\n",
			a.Rule.DisturbanceID, a.Rule.Classifiers.Get(entities.ClassifierForestType), a.Amount, a.Byproduct())
	}

	fuelwood, err := allocator.AllocateFuelwood(demands, rules, roundwood)
	if err != nil {
		fmt.Printf("Fuelwood allocation failed: %v\n", err)
		return
	}
	fmt.Println("Fuelwood")
	for _, b := range fuelwood.Balances {
		fmt.Printf("  demand %.1f m3, byproduct %.1f m3, remaining %.1f m3\n", b.Demand, b.Byproduct, b.Remaining)
	}
	for _, a := range fuelwood.Allocations {
		fmt.Printf("  %s: %.2f m3 harvested, %.2f m3 generated\n", a.Rule.DisturbanceID, a.Amount, a.GeneratedVolume())
	}

	report, err := conservation.NewValidator(allocator.Config(), nil).Validate(demands, roundwood, fuelwood.Allocations)
	if err != nil {
		fmt.Printf("Conservation check failed: %v\n", err)
		return
	}
	fmt.Printf("Conservation: %d comparisons passed\n", len(report.Roundwood)+len(report.Fuelwood))

	result, err := assembly.NewAssembler(entities.DefaultClassifierSchema, nil).Assemble(nil, roundwood, fuelwood.Allocations)
	if err != nil {
		fmt.Printf("Assembly failed: %v\n", err)
		return
	}
	fmt.Println("Events (tC)")
	for _, e := range result.Events {
		fmt.Printf("  step %d %s %s: %s\n",
			e.Step, e.DistTypeName, e.Classifiers.Get(entities.ClassifierForestType), entities.FormatFloat(e.Amount))
	}
}
