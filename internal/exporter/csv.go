package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"ruccli/internal/registry"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV serializes table as UTF-8 CSV. The BOM prefix makes spreadsheet
// applications pick the right encoding for accented names.
func CSV(table *registry.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)

	if err := writer.Write(table.Header); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for i, record := range table.Rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
