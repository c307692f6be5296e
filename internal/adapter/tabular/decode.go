// Package tabular decodes CSV and spreadsheet payloads into domain tables.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/anrid/xls"
	"github.com/xuri/excelize/v2"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
)

// Decode converts raw bytes into a Table, choosing the format from the
// file extension of name. The published datasets circulate as .csv, .xlsx,
// and legacy .xls; query strings and fragments in name are ignored.
func Decode(name string, data []byte) (domain.Table, error) {
	switch ext(name) {
	case ".csv":
		return decodeCSV(data)
	case ".xlsx":
		return decodeXLSX(data)
	case ".xls":
		return decodeXLS(data)
	default:
		return domain.Table{}, fmt.Errorf("unsupported table format in %q", name)
	}
}

func ext(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(path.Ext(name))
}

func decodeCSV(data []byte) (domain.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // sources pad rows inconsistently

	rows, err := r.ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return tableFromRows(rows)
}

func decodeXLSX(data []byte) (domain.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Table{}, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.Table{}, fmt.Errorf("read xlsx sheet %q: %w", sheets[0], err)
	}
	return tableFromRows(rows)
}

func decodeXLS(data []byte) (domain.Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return domain.Table{}, fmt.Errorf("open xls: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return domain.Table{}, errors.New("xls has no sheets")
	}

	var rows [][]string
	for i := 0; i < int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cols := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (domain.Table, error) {
	if len(rows) == 0 {
		return domain.Table{}, errors.New("table needs a header row and at least one data row")
	}

	// Blank padding rows hold no record and are dropped before parsing.
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if !blankRow(row) {
			data = append(data, row)
		}
	}
	if len(data) == 0 {
		return domain.Table{}, errors.New("table needs a header row and at least one data row")
	}
	return domain.Table{Header: rows[0], Rows: data}, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
