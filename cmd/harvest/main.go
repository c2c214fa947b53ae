package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vsinha/harvest/pkg/interfaces/cli/commands"
	"github.com/vsinha/harvest/pkg/interfaces/cli/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	var err error
	if len(args) > 0 && args[0] == "generate" {
		err = runGenerate(ctx, args[1:])
	} else {
		if len(args) > 0 && args[0] == "allocate" {
			args = args[1:]
		}
		err = runAllocate(ctx, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAllocate(ctx context.Context, args []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	var (
		input     = fs.String("input", "", "Country directory, country workbook, or directory of countries")
		countries = fs.String("countries", "", "Comma separated countries to run (optional)")
		outputDir = fs.String("output", "", "Output directory for results (optional)")
		format    = fs.String("format", settings.OutputFormat, "Output format: csv, json, xlsx")
		scenario  = fs.String("scenario", settings.Scenario, "Scenario: static_demand or empty")
		irwRatio  = fs.Float64("irw-ratio", settings.RoundwoodRatio, "Roundwood artificial demand ratio")
		fwRatio   = fs.Float64("fw-ratio", settings.FuelwoodRatio, "Fuelwood artificial demand ratio")
		sqlite    = fs.String("sqlite", settings.SQLitePath, "SQLite database persisting event logs (optional)")
		logLevel  = fs.String("log-level", settings.LogLevel, "Log level: debug, info, warn, error")
		verbose   = fs.Bool("verbose", false, "Enable verbose output")
		help      = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings.OutputFormat = strings.ToLower(*format)
	settings.Scenario = *scenario
	settings.RoundwoodRatio = *irwRatio
	settings.FuelwoodRatio = *fwRatio
	settings.SQLitePath = *sqlite
	settings.LogLevel = *logLevel

	var names []string
	for _, name := range strings.Split(*countries, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	cmd := commands.NewAllocateCommand(commands.AllocateConfig{
		Settings:  settings,
		InputDir:  *input,
		Countries: names,
		OutputDir: *outputDir,
		Verbose:   *verbose,
		Help:      *help,
	})
	return cmd.Execute(ctx)
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		country     = fs.String("country", "ZZ", "Country code")
		forestTypes = fs.Int("forest-types", 4, "Number of forest types")
		steps       = fs.Int("steps", 5, "Number of demand steps")
		scale       = fs.Float64("demand-scale", 1.0, "Demand multiplier")
		history     = fs.Bool("history", false, "Write historical disturbance events")
		format      = fs.String("format", "csv", "Output format: csv or xlsx")
		outputDir   = fs.String("output", "", "Output directory for generated files")
		seed        = fs.Int64("seed", 0, "Random seed for reproducible generation")
		verbose     = fs.Bool("verbose", false, "Enable verbose output")
		help        = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Country:     *country,
		ForestTypes: *forestTypes,
		Steps:       *steps,
		DemandScale: *scale,
		History:     *history,
		Format:      strings.ToLower(*format),
		OutputDir:   *outputDir,
		Seed:        *seed,
		Help:        *help,
		Verbose:     *verbose,
	})
	return cmd.Execute(ctx)
}
