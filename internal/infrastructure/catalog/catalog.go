// Package catalog loads the instrument list from a spreadsheet, a CSV file or
// a SQL table.
package catalog

import (
	"fmt"
	"strings"

	"warrantfeed/internal/domain"
)

// Row is one catalog line before the market suffix is applied.
type Row struct {
	Code string
	Name string
}

// Instruments applies suffix to every code, drops blank and repeated codes
// (first wins) and truncates to limit when limit > 0.
func Instruments(rows []Row, suffix string, limit int) ([]domain.Instrument, error) {
	out := make([]domain.Instrument, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			continue
		}
		symbol := code
		if suffix != "" && !strings.HasSuffix(strings.ToUpper(code), strings.ToUpper(suffix)) {
			symbol = code + suffix
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, domain.Instrument{Symbol: symbol, Name: strings.TrimSpace(r.Name)})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no instruments", domain.ErrCatalogUnavailable)
	}
	return out, nil
}

// rowsFromTable locates the Code and Name header columns and returns the data
// rows below them.
func rowsFromTable(table [][]string) ([]Row, error) {
	for h, header := range table {
		codeCol, nameCol := -1, -1
		for i, cell := range header {
			switch strings.ToLower(strings.TrimSpace(cell)) {
			case "code":
				codeCol = i
			case "name":
				nameCol = i
			}
		}
		if codeCol < 0 || nameCol < 0 {
			continue
		}

		rows := make([]Row, 0, len(table)-h-1)
		for _, line := range table[h+1:] {
			rows = append(rows, Row{Code: cell(line, codeCol), Name: cell(line, nameCol)})
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: missing Code/Name header", domain.ErrCatalogUnavailable)
}

func cell(line []string, i int) string {
	if i < len(line) {
		return line[i]
	}
	return ""
}
