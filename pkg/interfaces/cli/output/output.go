package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vsinha/harvest/pkg/application/dto"
	"github.com/vsinha/harvest/pkg/application/services/assembly"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
}

// eventFile returns <dir>/<country>/disturbance_events_combined.<ext>
func eventFile(config Config, run *dto.AllocationRun, ext string) (string, error) {
	dir := filepath.Join(config.OutputDir, run.Country)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := strings.TrimSuffix(csv.CombinedEventsFile, filepath.Ext(csv.CombinedEventsFile))
	return filepath.Join(dir, name+"."+ext), nil
}

// Generate writes the combined event table of a run in the configured
// format. Without an output directory csv and json go to stdout.
func Generate(run *dto.AllocationRun, config Config, stdout io.Writer) error {
	switch strings.ToLower(config.Format) {
	case "csv":
		return generateCSVOutput(run, config, stdout)
	case "json":
		return generateJSONOutput(run, config, stdout)
	case "xlsx":
		return generateXLSXOutput(run, config, stdout)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateCSVOutput(run *dto.AllocationRun, config Config, stdout io.Writer) error {
	if config.OutputDir == "" {
		return csv.WriteEventLog(stdout, run.Combined)
	}
	filename, err := eventFile(config, run, "csv")
	if err != nil {
		return err
	}
	if err := csv.WriteEventLogFile(filename, run.Combined); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(stdout, "Events saved to: %s\n", filename)
	}
	return nil
}

// RunDocument is the JSON form of a run
type RunDocument struct {
	RunID          string                       `json:"run_id"`
	Country        string                       `json:"country"`
	Scenario       string                       `json:"scenario"`
	NewEvents      int                          `json:"new_events"`
	Columns        []string                     `json:"columns"`
	Rows           [][]string                   `json:"rows"`
	AutoAllocation []assembly.AutoAllocationRow `json:"auto_allocation,omitempty"`
}

// NewRunDocument builds the JSON form of a run
func NewRunDocument(run *dto.AllocationRun) RunDocument {
	return RunDocument{
		RunID:          run.RunID,
		Country:        run.Country,
		Scenario:       run.Scenario,
		NewEvents:      run.NewEventCount(),
		Columns:        run.Combined.Columns(),
		Rows:           run.Combined.Rows(),
		AutoAllocation: run.AutoAllocation,
	}
}

func generateJSONOutput(run *dto.AllocationRun, config Config, stdout io.Writer) error {
	jsonData, err := json.MarshalIndent(NewRunDocument(run), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(stdout, string(jsonData))
		return err
	}
	filename, err := eventFile(config, run, "json")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(stdout, "JSON results saved to: %s\n", filename)
	}
	return nil
}

func generateXLSXOutput(run *dto.AllocationRun, config Config, stdout io.Writer) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}
	filename, err := eventFile(config, run, "xlsx")
	if err != nil {
		return err
	}
	if err := xlsx.WriteEventLog(filename, run.Combined); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(stdout, "Workbook saved to: %s\n", filename)
	}
	return nil
}

// Totals are the volumes moved by a run, in m3
type Totals struct {
	Roundwood decimal.Decimal
	Byproduct decimal.Decimal
	Fuelwood  decimal.Decimal
}

// RunTotals sums the allocated volumes of a run
func RunTotals(run *dto.AllocationRun) Totals {
	var t Totals
	for _, a := range run.Roundwood {
		t.Roundwood = t.Roundwood.Add(decimal.NewFromFloat(a.Amount))
		t.Byproduct = t.Byproduct.Add(decimal.NewFromFloat(a.Byproduct()))
	}
	for _, a := range run.Fuelwood {
		t.Fuelwood = t.Fuelwood.Add(decimal.NewFromFloat(a.Amount))
	}
	return t
}

// PrintSummary writes a human readable report of the runs
func PrintSummary(w io.Writer, runs []*dto.AllocationRun, verbose bool) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "Harvest Allocation Summary\n")
	p.Fprintf(w, "==========================\n\n")
	for _, run := range runs {
		totals := RunTotals(run)
		rw, _ := totals.Roundwood.Round(1).Float64()
		bp, _ := totals.Byproduct.Round(1).Float64()
		fw, _ := totals.Fuelwood.Round(1).Float64()

		p.Fprintf(w, "%s (%s)\n", run.Country, run.Scenario)
		p.Fprintf(w, "  Rules: %d\n", len(run.Rules))
		p.Fprintf(w, "  Roundwood: %.1f m3 in %d allocations, byproduct %.1f m3\n", rw, len(run.Roundwood), bp)
		p.Fprintf(w, "  Fuelwood: %.1f m3 in %d allocations\n", fw, len(run.Fuelwood))

		clipped := 0
		for _, b := range run.Balances {
			if b.Clipped {
				clipped++
			}
		}
		if clipped > 0 {
			p.Fprintf(w, "  Fuelwood demands covered by byproducts: %d of %d\n", clipped, len(run.Balances))
		}
		if run.Report != nil {
			p.Fprintf(w, "  Conservation: %d checks, %d failures\n",
				len(run.Report.Roundwood)+len(run.Report.Fuelwood), len(run.Report.Failures()))
		}
		p.Fprintf(w, "  Events: %d new, %d historical\n", run.NewEventCount(), run.HistoryCount())
		p.Fprintf(w, "  Duration: %v\n", run.Duration)

		if verbose && len(run.AutoAllocation) > 0 {
			p.Fprintf(w, "\n  %-6s %-8s %-12s %-6s %-10s %14s %-6s\n",
				"Status", "Class", "Disturbance", "Step", "Efficiency", "Amount (tC)", "Sort")
			for _, row := range run.AutoAllocation {
				p.Fprintf(w, "  %-6s %-8s %-12s %-6d %-10.2f %14.2f %-6d\n",
					row.Status, row.ConBroad, row.DistTypeName, row.Step, row.Efficiency, row.Amount, int(row.SortType))
			}
		}
		p.Fprintf(w, "\n")
	}
}
