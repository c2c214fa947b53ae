package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/xlsx"
)

var (
	coniferTypes   = []string{"PA", "PS", "AA", "LD", "PN"}
	broadleafTypes = []string{"FS", "QR", "CB", "FE", "BP"}
)

// GenerateConfig holds configuration for synthetic country generation
type GenerateConfig struct {
	Country     string  // Country code, also the output directory name
	ForestTypes int     // Number of forest types, alternating conifer and broadleaf
	Steps       int     // Number of demand steps
	DemandScale float64 // Multiplier applied to the base demand volumes
	History     bool    // Write historical disturbance events
	Format      string  // csv or xlsx
	OutputDir   string  // Output directory for generated files
	Seed        int64   // Random seed for reproducible generation
	Help        bool    // Show help
	Verbose     bool    // Verbose output
}

// GenerateCommand writes a synthetic country the allocate command can read
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	stdout io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		stdout: os.Stdout,
	}
}

// WithOutput redirects messages to w
func (cmd *GenerateCommand) WithOutput(w io.Writer) *GenerateCommand {
	cmd.stdout = w
	return cmd
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	country, err := cmd.GenerateCountry()
	if err != nil {
		return fmt.Errorf("failed to generate country: %w", err)
	}

	var path string
	switch cmd.config.Format {
	case "", "csv":
		path = filepath.Join(cmd.config.OutputDir, cmd.config.Country)
		err = csv.WriteCountry(path, country)
	case "xlsx":
		if err := os.MkdirAll(cmd.config.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path = filepath.Join(cmd.config.OutputDir, cmd.config.Country+".xlsx")
		err = xlsx.WriteCountry(path, country)
	default:
		return fmt.Errorf("unsupported format: %s", cmd.config.Format)
	}
	if err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.stdout, "Generated %s: %d forest types, %d inventory rows, %d treatments, %d demand rows\n",
			cmd.config.Country, cmd.config.ForestTypes, len(country.Inventory), len(country.Treatments), len(country.Demands))
		fmt.Fprintf(cmd.stdout, "Written to %s\n", path)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	if cmd.config.Country == "" {
		return fmt.Errorf("country is required")
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if cmd.config.ForestTypes < 2 || cmd.config.ForestTypes > len(coniferTypes)+len(broadleafTypes) {
		return fmt.Errorf("forest types must be between 2 and %d", len(coniferTypes)+len(broadleafTypes))
	}
	if cmd.config.Steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	if cmd.config.DemandScale <= 0 || math.IsNaN(cmd.config.DemandScale) {
		return fmt.Errorf("demand scale must be positive")
	}
	return nil
}

func (cmd *GenerateCommand) between(lo, hi float64) float64 {
	return math.Round((lo+cmd.rand.Float64()*(hi-lo))*100) / 100
}

func standClassifiers(country, forestType, conBroad string) entities.Classifiers {
	return entities.Classifiers{
		entities.ClassifierStatus:             entities.ForestStatus,
		entities.ClassifierForestType:         forestType,
		entities.ClassifierRegion:             country,
		entities.ClassifierManagementType:     "H",
		entities.ClassifierManagementStrategy: "E",
		entities.ClassifierClimaticUnit:       "25",
		entities.ClassifierConBroad:           conBroad,
	}
}

type treatmentTemplate struct {
	dist         entities.DisturbanceID
	product      entities.Product
	minAge       int
	maxAge       int
	minSinceLast int
	percent      float64
}

var treatmentTemplates = []treatmentTemplate{
	{"20", entities.Roundwood, 30, 90, 10, 0.25},
	{"22", entities.Roundwood, 80, 200, 50, 1.0},
	{"13", entities.Fuelwood, 20, 200, 15, 0.1},
}

// GenerateCountry builds the country tables. Stands cover age classes 1
// to 12, so every treatment finds stock.
func (cmd *GenerateCommand) GenerateCountry() (*csv.Country, error) {
	c := &csv.Country{Name: cmd.config.Country, Schema: entities.DefaultClassifierSchema}

	for i := 0; i < cmd.config.ForestTypes; i++ {
		forestType, conBroad := coniferTypes[i/2], entities.Conifer
		if i%2 == 1 {
			forestType, conBroad = broadleafTypes[i/2], entities.Broadleaf
		}
		label := "Con"
		owc, snag := 0.1, 0.05
		if conBroad == entities.Broadleaf {
			label = "Broad"
			owc, snag = 0.2, 0.0
		}
		stand := standClassifiers(cmd.config.Country, forestType, label)

		for ac := 1; ac <= 12; ac++ {
			c.Inventory = append(c.Inventory, &entities.InventoryRecord{
				Classifiers: stand.Clone(),
				AgeClass:    ac,
				Area:        cmd.between(10, 500),
			})
		}
		vmax := cmd.between(250, 600)
		for ac := 0; ac <= 15; ac++ {
			growth := 1 - math.Exp(-0.25*float64(ac))
			c.Yields = append(c.Yields, &entities.YieldRecord{
				Classifiers: stand.Clone(),
				AgeClass:    ac,
				Volume:      math.Round(vmax*growth*growth*100) / 100,
			})
		}

		for _, tpl := range treatmentTemplates {
			category, err := entities.NewProductCategory(tpl.product, conBroad)
			if err != nil {
				return nil, err
			}
			classifiers := stand.Subset(entities.SilvicultureClassifiers)
			classifiers[entities.ClassifierStatus] = entities.ClassifierPlaceholder
			c.Treatments = append(c.Treatments, &entities.Treatment{
				Classifiers:    classifiers,
				DisturbanceID:  tpl.dist,
				Category:       category,
				SortType:       2,
				Efficiency:     1,
				MinAge:         tpl.minAge,
				MaxAge:         tpl.maxAge,
				MinSinceLast:   tpl.minSinceLast,
				MaxSinceLast:   entities.Unconstrained,
				ResetAge:       entities.Unconstrained,
				PercentRemoved: tpl.percent,
				OWCFraction:    owc,
				SnagFraction:   snag,
				ManMade:        true,
			})
		}

		c.CorrectionFactors = append(c.CorrectionFactors, &entities.CorrectionFactor{
			ForestType: forestType,
			Factor:     cmd.between(0.5, 1),
		})
		c.Densities = append(c.Densities, &entities.DensityCoefficient{
			ForestType: forestType,
			Density:    cmd.between(0.35, 0.7),
		})
	}

	base := map[entities.ProductCategory]float64{
		{Product: entities.Roundwood, ConBroad: entities.Conifer}:   1000,
		{Product: entities.Roundwood, ConBroad: entities.Broadleaf}: 600,
		{Product: entities.Fuelwood, ConBroad: entities.Conifer}:    300,
		{Product: entities.Fuelwood, ConBroad: entities.Broadleaf}:  250,
	}
	order := []entities.ProductCategory{
		{Product: entities.Roundwood, ConBroad: entities.Conifer},
		{Product: entities.Roundwood, ConBroad: entities.Broadleaf},
		{Product: entities.Fuelwood, ConBroad: entities.Conifer},
		{Product: entities.Fuelwood, ConBroad: entities.Broadleaf},
	}
	for step := 1; step <= cmd.config.Steps; step++ {
		for _, category := range order {
			volume := math.Round(base[category]*cmd.config.DemandScale*cmd.between(0.8, 1.2)*100) / 100
			d, err := entities.NewDemandRecord(step, category.Product, category.ConBroad, volume)
			if err != nil {
				return nil, err
			}
			c.Demands = append(c.Demands, d)
		}
	}

	if cmd.config.History {
		history, err := cmd.generateHistory(c)
		if err != nil {
			return nil, err
		}
		c.History = history
	}
	return c, nil
}

// generateHistory writes one clear cut per forest type at step 0
func (cmd *GenerateCommand) generateHistory(c *csv.Country) (*entities.EventLog, error) {
	log, err := entities.NewEventLog(c.Schema, entities.EventColumns(c.Schema), nil)
	if err != nil {
		return nil, err
	}
	var events []entities.DisturbanceEvent
	for _, cf := range c.CorrectionFactors {
		var stand entities.Classifiers
		for _, inv := range c.Inventory {
			if inv.Classifiers.Get(entities.ClassifierForestType) == cf.ForestType {
				stand = inv.Classifiers.Clone()
				break
			}
		}
		e := entities.DisturbanceEvent{
			Classifiers:      stand,
			SWStart:          0,
			SWEnd:            210,
			HWStart:          0,
			HWEnd:            210,
			MinSinceLastDist: entities.Unconstrained,
			MaxSinceLastDist: entities.Unconstrained,
			LastDistID:       entities.Unconstrained,
			Efficiency:       1,
			SortType:         2,
			MeasurementType:  entities.MeasurementMass,
			Amount:           cmd.between(50, 500),
			DistTypeName:     "22",
			Step:             0,
		}
		for i := range e.Bounds {
			e.Bounds[i] = entities.Unconstrained
		}
		events = append(events, e)
	}
	return log.Append(events)
}

func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.stdout, `Harvest Country Generator

USAGE:
    harvest generate [OPTIONS]

OPTIONS:
    --country <CODE>      Country code (default: ZZ)
    --forest-types <N>    Number of forest types, 2 to 10 (default: 4)
    --steps <N>           Number of demand steps (default: 5)
    --demand-scale <F>    Demand multiplier (default: 1.0)
    --history             Write historical disturbance events
    --format <FMT>        csv or xlsx (default: csv)
    --output <DIR>        Output directory for generated files (required)
    --seed <N>            Random seed for reproducible generation (optional)
    --verbose             Enable verbose output
    --help                Show this help message

EXAMPLES:
    # Generate a small country
    harvest generate --output ./countries

    # Generate a reproducible workbook
    harvest generate --country AT --forest-types 6 --format xlsx --output ./countries --seed 12345`)
}
