package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"ruccli/internal/config"
	"ruccli/internal/registry"
)

// XLSX serializes table as a workbook with a single sheet. Row 1 holds the
// bold header; there is no index column. Cells are written as text so that
// activity codes keep their exact spelling.
func XLSX(table *registry.Table, sheet string) ([]byte, error) {
	if sheet == "" {
		sheet = config.DefaultOutputSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != config.DefaultOutputSheet {
		if err := f.SetSheetName(config.DefaultOutputSheet, sheet); err != nil {
			return nil, fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, len(table.Header))
	for i, h := range table.Header {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for i, record := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
