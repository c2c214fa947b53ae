package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/memory"
)

// CombinedEventsFile is the name of the event table written after a run
const CombinedEventsFile = "disturbance_events_combined.csv"

// TableReader returns the raw records of a named table, or an error
// wrapping ErrTableNotFound
type TableReader func(name string) ([][]string, error)

// Country holds every input table of one country
type Country struct {
	Name              string
	Schema            entities.ClassifierSchema
	Inventory         []*entities.InventoryRecord
	Yields            []*entities.YieldRecord
	Treatments        []*entities.Treatment
	CorrectionFactors []*entities.CorrectionFactor
	Densities         []*entities.DensityCoefficient
	Demands           []*entities.DemandRecord
	// History is nil when the country has no historical events
	History *entities.EventLog
}

// Repositories loads the country tables into in-memory repositories
func (c *Country) Repositories() (*memory.DemandRepository, *memory.ForestRepository, *memory.SilvicultureRepository, error) {
	demandRepo := memory.NewDemandRepository()
	if err := demandRepo.LoadDemands(c.Demands); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load demand into repository: %w", err)
	}

	forestRepo := memory.NewForestRepository(len(c.Inventory))
	if err := forestRepo.LoadSchema(c.Schema); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load schema into repository: %w", err)
	}
	if err := forestRepo.LoadInventory(c.Inventory); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load inventory into repository: %w", err)
	}
	if err := forestRepo.LoadYields(c.Yields); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load yields into repository: %w", err)
	}

	silvRepo := memory.NewSilvicultureRepository()
	if err := silvRepo.LoadTreatments(c.Treatments); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load treatments into repository: %w", err)
	}
	if err := silvRepo.LoadCorrectionFactors(c.CorrectionFactors); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load correction factors into repository: %w", err)
	}
	if err := silvRepo.LoadDensities(c.Densities); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load densities into repository: %w", err)
	}
	return demandRepo, forestRepo, silvRepo, nil
}

// Loader reads country input tables from CSV files
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// ReadFile reads every record of a CSV file
func ReadFile(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", filename, ErrTableNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", filename, err)
	}
	return records, nil
}

// DirReader reads tables from <dir>/<name>.csv
func DirReader(dir string) TableReader {
	return func(name string) ([][]string, error) {
		return ReadFile(filepath.Join(dir, name+".csv"))
	}
}

// LoadCountry reads a country directory
func (l *Loader) LoadCountry(dir string) (*Country, error) {
	return l.ParseCountry(filepath.Base(filepath.Clean(dir)), DirReader(dir))
}

// ParseCountry builds a country from any table source
func (l *Loader) ParseCountry(name string, read TableReader) (*Country, error) {
	logger := l.logger.With(zap.String("country", name))

	records, err := read(TableClassifiers)
	if err != nil {
		return nil, err
	}
	mapping, schema, err := ParseClassifierMapping(records)
	if err != nil {
		return nil, err
	}
	country := &Country{Name: name, Schema: schema}

	table := func(tableName string) (*Table, error) {
		records, err := read(tableName)
		if err != nil {
			return nil, err
		}
		return NewTable(tableName, records, mapping)
	}

	t, err := table(TableInventory)
	if err != nil {
		return nil, err
	}
	if country.Inventory, err = ParseInventory(t, schema); err != nil {
		return nil, err
	}

	if t, err = table(TableYields); err != nil {
		return nil, err
	}
	if country.Yields, err = ParseYields(t, schema); err != nil {
		return nil, err
	}

	if t, err = table(TableTreatments); err != nil {
		return nil, err
	}
	var skipped int
	if country.Treatments, skipped, err = ParseTreatments(t, schema); err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.Debug("treatments without product category skipped", zap.Int("rows", skipped))
	}

	if t, err = table(TableCorrectionFactors); err != nil {
		return nil, err
	}
	if country.CorrectionFactors, err = ParseCorrectionFactors(t); err != nil {
		return nil, err
	}

	if t, err = table(TableCoefficients); err != nil {
		return nil, err
	}
	if country.Densities, err = ParseDensities(t); err != nil {
		return nil, err
	}

	if t, err = table(TableDemand); err != nil {
		return nil, err
	}
	if country.Demands, err = ParseDemand(t); err != nil {
		return nil, err
	}

	t, err = table(TableEvents)
	switch {
	case errors.Is(err, ErrTableNotFound):
		logger.Debug("no historical disturbance events")
	case err != nil:
		return nil, err
	default:
		if country.History, err = ParseEventLog(t, schema); err != nil {
			return nil, fmt.Errorf("%s: %w", TableEvents, err)
		}
	}

	logger.Info("country inputs loaded",
		zap.Int("classifiers", len(schema)),
		zap.Int("inventory", len(country.Inventory)),
		zap.Int("yields", len(country.Yields)),
		zap.Int("treatments", len(country.Treatments)),
		zap.Int("demands", len(country.Demands)))
	return country, nil
}

// WriteEventLog writes the header and every row of an event log
func WriteEventLog(w io.Writer, log *entities.EventLog) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(log.Columns()); err != nil {
		return fmt.Errorf("failed to write event header: %w", err)
	}
	if err := writer.WriteAll(log.Rows()); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

func writeRecords(filename string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}

// WriteEventLogFile writes an event log to a CSV file
func WriteEventLogFile(filename string, log *entities.EventLog) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := WriteEventLog(file, log); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
