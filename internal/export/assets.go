// Package export renders asset lists as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

const sheetName = "Assets"

// Row is one asset with its display-resolved references.
type Row struct {
	Asset       domain.Asset
	StatusLabel string
}

// Column is a selectable spreadsheet column.
type Column struct {
	Key    string
	Header string
	Value  func(Row) string
}

var columns = []Column{
	{Key: "name", Header: "Name", Value: func(r Row) string { return r.Asset.Name }},
	{Key: "model", Header: "Model", Value: func(r Row) string { return r.Asset.Model }},
	{Key: "tag", Header: "Tag", Value: func(r Row) string { return r.Asset.Tag }},
	{Key: "status", Header: "Status", Value: func(r Row) string { return r.StatusLabel }},
	{Key: "assignedToName", Header: "Assigned To", Value: func(r Row) string { return r.Asset.AssignedToName }},
	{Key: "os", Header: "OS", Value: func(r Row) string { return r.Asset.OS }},
	{Key: "osVersion", Header: "OS Version", Value: func(r Row) string { return r.Asset.OSVersion }},
	{Key: "ram", Header: "RAM", Value: func(r Row) string { return r.Asset.RAM }},
	{Key: "drive", Header: "Drive", Value: func(r Row) string { return r.Asset.Drive }},
	{Key: "serialNumber", Header: "Serial Number", Value: func(r Row) string { return r.Asset.SerialNumber }},
	{Key: "purchaseDate", Header: "Purchase Date", Value: func(r Row) string { return r.Asset.PurchaseDate }},
	{Key: "peripherals", Header: "Peripherals", Value: func(r Row) string { return r.Asset.Peripherals }},
	{Key: "history", Header: "History", Value: func(r Row) string { return domain.FlattenHistory(r.Asset.History) }},
	{Key: "installedSoftware", Header: "Installed Software", Value: func(r Row) string {
		return domain.FlattenSoftware(r.Asset.InstalledSoftware)
	}},
}

// DefaultColumnKeys lists every column in display order.
func DefaultColumnKeys() []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}

// ResolveColumns maps keys to columns in the given order. Empty keys select
// every column.
func ResolveColumns(keys []string) ([]Column, error) {
	if len(keys) == 0 {
		return append([]Column(nil), columns...), nil
	}
	byKey := make(map[string]Column, len(columns))
	for _, c := range columns {
		byKey[c.Key] = c
	}
	seen := make(map[string]bool, len(keys))
	out := make([]Column, 0, len(keys))
	for _, k := range keys {
		c, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("unknown export column %q", k)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out, nil
}

// Sheet describes one export.
type Sheet struct {
	Title   string
	Filters string
	Columns []Column
	Rows    []Row
}

// Build renders the workbook: a merged title row, a filter row, the header
// row and one row per asset.
func Build(s Sheet) (*bytes.Buffer, error) {
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("export needs at least one column")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.Columns))
	if err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E5E7EB"}},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellValue(sheetName, "A1", s.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A2", s.Filters); err != nil {
		return nil, err
	}
	if len(s.Columns) > 1 {
		if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
			return nil, err
		}
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle); err != nil {
		return nil, err
	}

	for i, col := range s.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col.Header); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetName, "A3", lastCol+"3", headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, 20); err != nil {
		return nil, err
	}

	for r, row := range s.Rows {
		for c, col := range s.Columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+4)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, col.Value(row)); err != nil {
				return nil, err
			}
		}
	}

	return f.WriteToBuffer()
}

// ReadTable parses a workbook produced by Build and returns the header row
// and data rows, each padded to the header width.
func ReadTable(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 3 {
		return nil, nil, fmt.Errorf("workbook has no header row")
	}
	header := rows[2]
	data := make([][]string, 0, len(rows)-3)
	for _, row := range rows[3:] {
		padded := make([]string, len(header))
		copy(padded, row)
		data = append(data, padded)
	}
	return header, data, nil
}
