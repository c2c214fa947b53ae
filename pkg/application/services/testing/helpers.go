package testing

import (
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/memory"
)

// mustCreateDemand is a helper for tests - panics on validation error
func mustCreateDemand(step int, product entities.Product, conBroad entities.ConBroad, volume float64) *entities.DemandRecord {
	d, err := entities.NewDemandRecord(step, product, conBroad, volume)
	if err != nil {
		panic(err)
	}
	return d
}

// mustParseCategory is a helper for tests - panics on validation error
func mustParseCategory(s string) entities.ProductCategory {
	c, err := entities.ParseProductCategory(s)
	if err != nil {
		panic(err)
	}
	return c
}

// silvicultureClassifiers builds the classifiers an allocation rule carries
func silvicultureClassifiers(forestType, conBroad string) entities.Classifiers {
	return entities.Classifiers{
		entities.ClassifierStatus:             entities.ForestStatus,
		entities.ClassifierForestType:         forestType,
		entities.ClassifierManagementType:     "H",
		entities.ClassifierManagementStrategy: "E",
		entities.ClassifierConBroad:           conBroad,
	}
}

// standClassifiers builds a full classifier set of the test country
func standClassifiers(forestType, conBroad string) entities.Classifiers {
	c := silvicultureClassifiers(forestType, conBroad)
	c[entities.ClassifierRegion] = "AT"
	c[entities.ClassifierClimaticUnit] = "25"
	return c
}

// NewRule builds an allocation rule with the defaults shared by the test scenarios
func NewRule(dist entities.DisturbanceID, forestType, category string, prop, density, owc, snag float64) entities.AllocationRule {
	cat := mustParseCategory(category)
	conBroad := "Con"
	if cat.ConBroad == entities.Broadleaf {
		conBroad = "Broad"
	}
	return entities.AllocationRule{
		DisturbanceID:  dist,
		Classifiers:    silvicultureClassifiers(forestType, conBroad),
		Category:       cat,
		StockAvailable: prop * 1000,
		Prop:           prop,
		Density:        density,
		OWCFraction:    owc,
		SnagFraction:   snag,
		MinAge:         40,
		MaxAge:         120,
		MinSinceLast:   10,
		MaxSinceLast:   -1,
		SortType:       2,
		Efficiency:     1,
		RegenDelay:     0,
		ResetAge:       0,
		PercentRemoved: 1,
		ManMade:        true,
	}
}

// BuildConcreteRules builds the two-rule conifer roundwood scenario: props
// 0.6 and 0.4, density 0.5, owc 0.1 and snag 0.05, plus one fuelwood rule
// per class and one broadleaf roundwood rule
func BuildConcreteRules() []entities.AllocationRule {
	return []entities.AllocationRule{
		NewRule("20", "PA", "irw_c", 0.6, 0.5, 0.1, 0.05),
		NewRule("22", "FS", "irw_c", 0.4, 0.5, 0.1, 0.05),
		NewRule("13", "PA", "fw_c", 1.0, 0.5, 0.1, 0.05),
		NewRule("20", "QR", "irw_b", 1.0, 0.6, 0.2, 0),
		NewRule("13", "QR", "fw_b", 1.0, 0.6, 0.2, 0),
	}
}

// BuildConcreteDemand builds one step of demand: 1000 m3 of conifer roundwood
// and the given fuelwood volume for conifers
func BuildConcreteDemand(fuelwood float64) []*entities.DemandRecord {
	return []*entities.DemandRecord{
		mustCreateDemand(1, entities.Roundwood, entities.Conifer, 1000),
		mustCreateDemand(1, entities.Fuelwood, entities.Conifer, fuelwood),
	}
}

// CountryData is the full input set of a small synthetic country
type CountryData struct {
	Schema            entities.ClassifierSchema
	Inventory         []*entities.InventoryRecord
	Yields            []*entities.YieldRecord
	Treatments        []*entities.Treatment
	CorrectionFactors []*entities.CorrectionFactor
	Densities         []*entities.DensityCoefficient
	Demands           []*entities.DemandRecord
	HistoryColumns    []string
	HistoryRows       [][]string
}

func treatment(dist entities.DisturbanceID, forestType, conBroad, category string, percent float64, minSinceLast int) *entities.Treatment {
	c := silvicultureClassifiers(forestType, conBroad)
	c[entities.ClassifierStatus] = "?"
	return &entities.Treatment{
		Classifiers:    c,
		DisturbanceID:  dist,
		Category:       mustParseCategory(category),
		SortType:       2,
		Efficiency:     1,
		MinAge:         40,
		MaxAge:         120,
		MinSinceLast:   minSinceLast,
		MaxSinceLast:   -1,
		PercentRemoved: percent,
		OWCFraction:    0.1,
		SnagFraction:   0.05,
		ManMade:        true,
	}
}

// BuildCountryData builds a three forest type country. Its stock available is
// PA/20 3000, FS/20 500, PA/13 1200, QR/20 1600 and QR/13 640 m3 per year,
// giving conifer roundwood props of 6/7 and 1/7.
func BuildCountryData() *CountryData {
	schema := entities.DefaultClassifierSchema
	data := &CountryData{
		Schema: schema,
		Inventory: []*entities.InventoryRecord{
			{Classifiers: standClassifiers("PA", "Con"), AgeClass: 6, Area: 100},
			{Classifiers: standClassifiers("FS", "Con"), AgeClass: 6, Area: 50},
			{Classifiers: standClassifiers("QR", "Broad"), AgeClass: 8, Area: 80},
			// too young for any treatment
			{Classifiers: standClassifiers("PA", "Con"), AgeClass: 2, Area: 400},
		},
		Yields: []*entities.YieldRecord{
			{Classifiers: standClassifiers("PA", "Con"), AgeClass: 6, Volume: 300},
			{Classifiers: standClassifiers("PA", "Con"), AgeClass: 2, Volume: 20},
			{Classifiers: standClassifiers("FS", "Con"), AgeClass: 6, Volume: 200},
			{Classifiers: standClassifiers("QR", "Broad"), AgeClass: 8, Volume: 250},
		},
		Treatments: []*entities.Treatment{
			treatment("20", "PA", "Con", "irw_c", 1.0, 10),
			treatment("20", "FS", "Con", "irw_c", 1.0, 10),
			treatment("13", "PA", "Con", "fw_c", 0.2, 5),
			treatment("20", "QR", "Broad", "irw_b", 1.0, 10),
			treatment("13", "QR", "Broad", "fw_b", 0.2, 5),
			// natural disturbance, ignored before any division
			treatment("7", "PA", "Con", "fw_c", 1.0, 0),
		},
		CorrectionFactors: []*entities.CorrectionFactor{
			{ForestType: "PA", Factor: 1.0},
			{ForestType: "FS", Factor: 0.5},
			{ForestType: "QR", Factor: 0.8},
		},
		Densities: []*entities.DensityCoefficient{
			{ForestType: "PA", Density: 0.4},
			{ForestType: "FS", Density: 0.45},
			{ForestType: "QR", Density: 0.6},
		},
		Demands: []*entities.DemandRecord{
			mustCreateDemand(1, entities.Roundwood, entities.Conifer, 1000),
			mustCreateDemand(1, entities.Roundwood, entities.Broadleaf, 500),
			mustCreateDemand(1, entities.Fuelwood, entities.Conifer, 400),
			mustCreateDemand(1, entities.Fuelwood, entities.Broadleaf, 50),
			mustCreateDemand(2, entities.Roundwood, entities.Conifer, 1200),
			mustCreateDemand(2, entities.Roundwood, entities.Broadleaf, 450),
			mustCreateDemand(2, entities.Fuelwood, entities.Conifer, 300),
			mustCreateDemand(2, entities.Fuelwood, entities.Broadleaf, 200),
		},
	}
	data.HistoryColumns = entities.EventColumns(schema)
	data.HistoryRows = [][]string{
		historyRow(data.HistoryColumns, "PA", "Con", "20", "1520.25", "1"),
		historyRow(data.HistoryColumns, "QR", "Broad", "5", "12.5", "1"),
	}
	return data
}

func historyRow(columns []string, forestType, conBroad, dist, amount, step string) []string {
	values := map[string]string{
		entities.ClassifierStatus:             "For",
		entities.ClassifierForestType:         forestType,
		entities.ClassifierRegion:             "AT",
		entities.ClassifierManagementType:     "H",
		entities.ClassifierManagementStrategy: "E",
		entities.ClassifierClimaticUnit:       "25",
		entities.ClassifierConBroad:           conBroad,
		entities.ColumnUsingID:                "False",
		entities.ColumnSWStart:                "0",
		entities.ColumnSWEnd:                  "210",
		entities.ColumnHWStart:                "0",
		entities.ColumnHWEnd:                  "210",
		entities.ColumnMinSinceLastDist:       "-1",
		entities.ColumnMaxSinceLastDist:       "-1",
		entities.ColumnEfficiency:             "1",
		entities.ColumnSortType:               "2",
		entities.ColumnMeasurementType:        "M",
		entities.ColumnAmount:                 amount,
		entities.ColumnDistTypeName:           dist,
		entities.ColumnStep:                   step,
	}
	row := make([]string, len(columns))
	for i, col := range columns {
		if v, ok := values[col]; ok {
			row[i] = v
		} else {
			row[i] = "-1"
		}
	}
	return row
}

// BuildCountryRepositories loads the synthetic country into in-memory repositories
func BuildCountryRepositories() (*memory.DemandRepository, *memory.ForestRepository, *memory.SilvicultureRepository) {
	data := BuildCountryData()

	demandRepo := memory.NewDemandRepository()
	forestRepo := memory.NewForestRepository(len(data.Inventory))
	silvRepo := memory.NewSilvicultureRepository()

	mustLoad(demandRepo.LoadDemands(data.Demands))
	mustLoad(forestRepo.LoadSchema(data.Schema))
	mustLoad(forestRepo.LoadInventory(data.Inventory))
	mustLoad(forestRepo.LoadYields(data.Yields))
	mustLoad(silvRepo.LoadTreatments(data.Treatments))
	mustLoad(silvRepo.LoadCorrectionFactors(data.CorrectionFactors))
	mustLoad(silvRepo.LoadDensities(data.Densities))

	return demandRepo, forestRepo, silvRepo
}

func mustLoad(err error) {
	if err != nil {
		panic(err)
	}
}
