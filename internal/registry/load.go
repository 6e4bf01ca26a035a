package registry

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	apperrors "ruccli/internal/errors"
	"ruccli/internal/files"
)

// DefaultSampleSize is the number of bytes inspected to sniff the delimiter.
const DefaultSampleSize = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadOptions configures Load.
type LoadOptions struct {
	// Sheet selects the worksheet of a workbook; empty means the first one.
	Sheet string
	// Required columns must be present for a parse attempt to succeed.
	Required []string
	// Delimiters is the ordered fallback list; nil means DefaultDelimiters.
	Delimiters []string
	// SampleSize bounds the sniffing window; zero means DefaultSampleSize.
	SampleSize int
	Logger     *slog.Logger
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Load reads a registry from a CSV-like text file or a workbook.
//
// A missing file yields a NOT_FOUND error carrying the listing of the
// directory it was expected in (context key "directory_listing").
func Load(path string, opts LoadOptions) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(path)
		}
		return nil, apperrors.NewStorageError("failed to stat registry", err).WithContext("path", path)
	}

	var (
		table *Table
		err   error
	)
	if isTextFile(path) {
		table, err = loadText(path, opts)
	} else {
		table, err = loadWorkbook(path, opts)
	}
	if err != nil {
		return nil, err
	}

	opts.logger().Info("Registry loaded",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Header)),
		slog.String("delimiter", fmt.Sprintf("%q", table.Delimiter)))

	return table, nil
}

func isTextFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return true
	}
	return false
}

func notFound(path string) error {
	dir := filepath.Dir(path)
	listing, listErr := files.ListDirectory(dir)

	appErr := apperrors.NewNotFoundError(path).
		WithContext("path", path).
		WithContext("directory", dir).
		WithContext("directory_listing", listing)
	if listErr != nil {
		appErr.WithContext("listing_error", listErr.Error())
	}
	return appErr
}

// loadText sniffs the delimiter, then falls back through the candidate list.
func loadText(path string, opts LoadOptions) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read registry", err).WithContext("path", path)
	}

	content, encoding := decode(raw)
	if encoding != "utf-8" {
		opts.logger().Warn("Registry is not valid UTF-8, decoded as Windows-1252", slog.String("path", path))
	}

	candidates := opts.Delimiters
	if candidates == nil {
		candidates = DefaultDelimiters
	}

	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	var lastErr error
	if delim, ok := Sniff(sample(content, sampleSize), candidates); ok {
		table, err := parseText(content, delim, opts.Required)
		if err == nil {
			table.Source = path
			return table, nil
		}
		lastErr = err
		opts.logger().Warn("Sniffed delimiter failed to parse",
			slog.String("delimiter", fmt.Sprintf("%q", delim)),
			slog.String("error", err.Error()))
	} else {
		opts.logger().Debug("Could not sniff delimiter", slog.String("path", path))
	}

	for _, delim := range candidates {
		opts.logger().Info("Retrying with delimiter", slog.String("delimiter", fmt.Sprintf("%q", delim)))
		table, err := parseText(content, delim, opts.Required)
		if err == nil {
			table.Source = path
			return table, nil
		}
		lastErr = err
	}

	return nil, apperrors.NewParsingError("failed to parse registry", lastErr).
		WithContext("path", path).
		WithContext("delimiters", candidates)
}

// decode returns the file as UTF-8 text. Content that is not valid UTF-8 is
// taken to be Windows-1252, the encoding of older registry exports.
func decode(raw []byte) (string, string) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�"), "utf-8-replace"
	}
	return string(decoded), "windows-1252"
}

// sample returns at most n bytes of s without splitting a rune.
func sample(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// parseText parses content with delim. Rows longer than the header are an
// error; shorter rows are padded.
func parseText(content, delim string, required []string) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	if utf8.RuneCountInString(delim) == 1 {
		records, err = readDelimited(content, []rune(delim)[0])
	} else {
		records, err = splitLines(content, delim)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("no columns to parse")
	}

	table := &Table{Header: records[0], Delimiter: delim}
	width := len(table.Header)
	for i, rec := range records[1:] {
		if len(rec) > width {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, width, len(rec))
		}
		table.Rows = append(table.Rows, rec)
	}
	table.pad()

	for _, col := range required {
		if _, err := table.Column(col); err != nil {
			return nil, fmt.Errorf("delimiter %q: %w", delim, err)
		}
	}
	return table, nil
}

func readDelimited(content string, comma rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// splitLines handles multi-character separators, which carry no quoting.
func splitLines(content, delim string) ([][]string, error) {
	var records [][]string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, strings.Split(line, delim))
	}
	return records, nil
}

// loadWorkbook reads the first (or configured) sheet; row 1 is the header.
func loadWorkbook(path string, opts LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("sheet is empty", nil).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}

	table := &Table{Header: rows[0], Source: path}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) > len(table.Header) {
			row = row[:len(table.Header)]
		}
		table.Rows = append(table.Rows, row)
	}
	table.pad()

	for _, col := range opts.Required {
		if _, err := table.Column(col); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
