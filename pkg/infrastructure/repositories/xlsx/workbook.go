package xlsx

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/csv"
)

// Loader reads country input tables from the sheets of one workbook
type Loader struct {
	tables *csv.Loader
	logger *zap.Logger
}

// NewLoader creates a workbook loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{tables: csv.NewLoader(logger), logger: logger}
}

// sheetReader reads a sheet, padding the short rows excelize returns for
// trailing empty cells and dropping blank rows
func sheetReader(f *excelize.File) csv.TableReader {
	return func(name string) ([][]string, error) {
		idx, err := f.GetSheetIndex(name)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("sheet %s: %w", name, csv.ErrTableNotFound)
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			return rows, nil
		}
		width := len(rows[0])
		records := make([][]string, 0, len(rows))
		for _, row := range rows {
			if strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			for len(row) < width {
				row = append(row, "")
			}
			records = append(records, row)
		}
		return records, nil
	}
}

// LoadCountry reads a country workbook; the country is named after the file
func (l *Loader) LoadCountry(path string) (*csv.Country, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return l.tables.ParseCountry(name, sheetReader(f))
}

func newWorkbook() (*excelize.File, int, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return f, style, nil
}

func writeSheet(f *excelize.File, headerStyle int, name string, records [][]string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := record
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write sheet %s row %d: %w", name, i+1, err)
		}
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(records[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func save(f *excelize.File, path string) error {
	// the default sheet is only removed once another one exists
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		f.Close()
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return f.Close()
}

// WriteEventLog writes an event log to a single-sheet workbook
func WriteEventLog(path string, log *entities.EventLog) error {
	f, style, err := newWorkbook()
	if err != nil {
		return err
	}
	records := append([][]string{log.Columns()}, log.Rows()...)
	if err := writeSheet(f, style, csv.TableEvents, records); err != nil {
		f.Close()
		return err
	}
	return save(f, path)
}

// WriteCountry writes every country table to one sheet of a workbook
func WriteCountry(path string, c *csv.Country) error {
	f, style, err := newWorkbook()
	if err != nil {
		return err
	}
	tables := c.Records()
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeSheet(f, style, name, tables[name]); err != nil {
			f.Close()
			return err
		}
	}
	return save(f, path)
}
