package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"warrantfeed/internal/domain"
)

// FileCatalog reads a .xlsx or .csv file with Code and Name columns.
type FileCatalog struct {
	path   string
	sheet  string
	suffix string
	limit  int
}

func NewFile(path, sheet, suffix string, limit int) *FileCatalog {
	return &FileCatalog{path: path, sheet: sheet, suffix: suffix, limit: limit}
}

func (c *FileCatalog) Load(ctx context.Context) ([]domain.Instrument, error) {
	rows, err := c.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return Instruments(rows, c.suffix, c.limit)
}

// Rows returns the raw catalog lines, without suffix or limit.
func (c *FileCatalog) Rows(_ context.Context) ([]Row, error) {
	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".xlsx", ".xlsm":
		table, err = c.readSheet()
	case ".csv":
		table, err = c.readCSV()
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrCatalogUnavailable, c.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, c.path, err)
	}
	return rowsFromTable(table)
}

func (c *FileCatalog) readSheet() ([][]string, error) {
	f, err := excelize.OpenFile(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := c.sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	return f.GetRows(sheet)
}

func (c *FileCatalog) readCSV() ([][]string, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}
