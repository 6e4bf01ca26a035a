// Package exporter serializes registry tables for output.
//
// Both writers return bytes instead of writing files: the caller hands the
// serialized output to files.SafeWriter, so a failure while serializing never
// leaves a truncated file behind.
//
// XLSX: single-sheet workbook, bold header row, no index column.
//
// CSV: UTF-8 with BOM for spreadsheet compatibility.
package exporter
