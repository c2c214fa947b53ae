package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/application/dto"
	"github.com/vsinha/harvest/pkg/application/services/orchestration"
	"github.com/vsinha/harvest/pkg/application/services/shared"
	"github.com/vsinha/harvest/pkg/infrastructure/events"
	"github.com/vsinha/harvest/pkg/infrastructure/logging"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/xlsx"
	"github.com/vsinha/harvest/pkg/interfaces/cli/config"
	"github.com/vsinha/harvest/pkg/interfaces/cli/output"
)

// AllocateConfig holds configuration for the allocate command
type AllocateConfig struct {
	Settings  config.Config
	InputDir  string   // A country directory, a workbook, or a directory of countries
	Countries []string // Restricts a multi-country run to these names
	OutputDir string
	Verbose   bool
	Help      bool
}

// AllocateCommand allocates the demand of every country found in the
// input and writes one combined event table per country
type AllocateCommand struct {
	config AllocateConfig
	stdout io.Writer
	logger *zap.Logger
}

// NewAllocateCommand creates a new allocate command with the given configuration
func NewAllocateCommand(config AllocateConfig) *AllocateCommand {
	return &AllocateCommand{config: config, stdout: os.Stdout}
}

// WithOutput redirects results and the summary to w
func (c *AllocateCommand) WithOutput(w io.Writer) *AllocateCommand {
	c.stdout = w
	return c
}

// WithLogger replaces the logger built from the settings
func (c *AllocateCommand) WithLogger(logger *zap.Logger) *AllocateCommand {
	c.logger = logger
	return c
}

// countrySource is one country input, either a directory of CSV tables or a workbook
type countrySource struct {
	name     string
	path     string
	workbook bool
}

// Execute runs the allocate command. A failing country is reported and
// the remaining countries still run.
func (c *AllocateCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	logger := c.logger
	if logger == nil {
		var err error
		logger, err = logging.NewLogger(c.config.Settings.LogLevel, c.config.Settings.LogFormat, "harvest")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	sources, err := c.resolveCountries()
	if err != nil {
		return fmt.Errorf("failed to resolve countries: %w", err)
	}

	eventStore := events.NewInMemoryEventStore(logger)
	if c.config.Verbose {
		if err := eventStore.Subscribe(events.AllEventTypes, events.HandlerFunc(c.printMilestone)); err != nil {
			return err
		}
	}
	orchestrator := orchestration.NewAllocationOrchestrator(eventStore, logger)

	var store *sqlite.Store
	if path := c.config.Settings.SQLitePath; path != "" {
		if store, err = sqlite.Open(path); err != nil {
			return err
		}
		defer store.Close()
		orchestrator.WithEventLogRepository(store)
	}

	var (
		contexts []*shared.RunContext
		errs     []error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rc, err := c.loadCountry(ctx, store, src, logger)
		if err != nil {
			logger.Error("country inputs rejected",
				zap.String("country", src.name),
				zap.NamedError("kind", orchestration.Classify(err)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}
		contexts = append(contexts, rc)
	}

	allocated, err := orchestrator.RunAll(ctx, contexts)
	errs = append(errs, err)

	format := c.config.Settings.OutputFormat
	if format == "" {
		format = config.FormatCSV
	}
	var runs []*dto.AllocationRun
	for _, run := range allocated {
		if err := output.Generate(run, output.Config{
			Format:    format,
			OutputDir: c.config.OutputDir,
			Verbose:   c.config.Verbose,
		}, c.stdout); err != nil {
			errs = append(errs, fmt.Errorf("%s: failed to write output: %w", run.Country, err))
			continue
		}
		runs = append(runs, run)
	}

	if len(runs) > 0 && (c.config.OutputDir != "" || c.config.Verbose) {
		output.PrintSummary(c.stdout, runs, c.config.Verbose)
	}
	return errors.Join(errs...)
}

// loadCountry reads one country into a run context. With a store, the
// loaded history seeds the store once and later runs read it from there.
func (c *AllocateCommand) loadCountry(
	ctx context.Context,
	store *sqlite.Store,
	src countrySource,
	logger *zap.Logger,
) (*shared.RunContext, error) {
	var (
		country *csv.Country
		err     error
	)
	if src.workbook {
		country, err = xlsx.NewLoader(logger).LoadCountry(src.path)
	} else {
		country, err = csv.NewLoader(logger).LoadCountry(src.path)
	}
	if err != nil {
		return nil, err
	}

	demandRepo, forestRepo, silvRepo, err := country.Repositories()
	if err != nil {
		return nil, err
	}
	scenario, err := shared.ParseScenario(c.config.Settings.Scenario)
	if err != nil {
		return nil, err
	}
	rc, err := shared.NewRunContextFromRepositories(country.Name, scenario, demandRepo, forestRepo, silvRepo)
	if err != nil {
		return nil, err
	}
	rc.Allocation = c.config.Settings.Allocation()
	if rc.Proportion, err = c.config.Settings.Proportion(); err != nil {
		return nil, err
	}
	rc.History = country.History

	if store != nil {
		stored, err := store.LoadHistory(ctx, country.Name, country.Schema)
		if err != nil {
			return nil, err
		}
		if stored == nil && country.History != nil {
			if err := store.Seed(ctx, country.Name, country.History); err != nil {
				return nil, err
			}
		}
		rc.History = nil
	}
	return rc, nil
}

func (c *AllocateCommand) printMilestone(event events.Event) error {
	_, err := fmt.Fprintf(c.stdout, "  [%s] %s\n", event.StreamID(), event.Type())
	return err
}

func (c *AllocateCommand) validateInputs() error {
	if c.config.InputDir == "" {
		return fmt.Errorf("input is required")
	}
	if _, err := os.Stat(c.config.InputDir); err != nil {
		return fmt.Errorf("input %s: %w", c.config.InputDir, err)
	}
	if strings.EqualFold(c.config.Settings.OutputFormat, config.FormatXLSX) && c.config.OutputDir == "" {
		return fmt.Errorf("xlsx output requires an output directory")
	}
	return c.config.Settings.Validate()
}

func isCountryDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, csv.TableClassifiers+".csv"))
	return err == nil
}

func isWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// resolveCountries finds the countries of the input in name order
func (c *AllocateCommand) resolveCountries() ([]countrySource, error) {
	input := filepath.Clean(c.config.InputDir)
	if isWorkbook(input) {
		return []countrySource{{
			name:     strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)),
			path:     input,
			workbook: true,
		}}, nil
	}
	if isCountryDir(input) {
		return []countrySource{{name: filepath.Base(input), path: input}}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(c.config.Countries))
	for _, name := range c.config.Countries {
		wanted[name] = true
	}

	var sources []countrySource
	for _, entry := range entries {
		path := filepath.Join(input, entry.Name())
		var src countrySource
		switch {
		case entry.IsDir() && isCountryDir(path):
			src = countrySource{name: entry.Name(), path: path}
		case !entry.IsDir() && isWorkbook(path):
			src = countrySource{name: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), path: path, workbook: true}
		default:
			continue
		}
		if len(wanted) > 0 && !wanted[src.name] {
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no country inputs found in %s", input)
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].name < sources[j].name })
	return sources, nil
}

func (c *AllocateCommand) showHelp() {
	fmt.Fprintln(c.stdout, `Harvest Allocation

USAGE:
    harvest [allocate] [OPTIONS]

OPTIONS:
    --input <PATH>        Country directory, country workbook, or directory of countries (required)
    --countries <LIST>    Comma separated countries to run from a directory of countries
    --output <DIR>        Output directory; results go to stdout when omitted
    --format <FMT>        Output format: csv, json, xlsx (env HARVEST_OUTPUT_FORMAT)
    --scenario <NAME>     static_demand or empty (env HARVEST_SCENARIO)
    --irw-ratio <F>       Roundwood artificial demand ratio (env HARVEST_IRW_ARTIFICIAL_RATIO)
    --fw-ratio <F>        Fuelwood artificial demand ratio (env HARVEST_FW_ARTIFICIAL_RATIO)
    --sqlite <PATH>       Persist event logs to a SQLite database (env HARVEST_SQLITE_PATH)
    --log-level <LEVEL>   debug, info, warn or error (env HARVEST_LOG_LEVEL)
    --verbose             Print run milestones and the auto allocation table
    --help                Show this help message

COUNTRY TABLES:
    classifiers.csv, inventory.csv, yields.csv, silv_treatments.csv,
    harvest_corr_fact.csv, coefficients.csv, demand.csv and optionally
    disturbance_events.csv. A workbook holds one sheet per table.

EXAMPLES:
    harvest --input ./countries --output ./results
    harvest --input ./countries/AT --format json
    HARVEST_IRW_ARTIFICIAL_RATIO=1.2 harvest --input ./countries --output ./results --sqlite harvest.db`)
}
