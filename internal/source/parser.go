// Package source discovers and parses salescast input files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

// Column names of the transaction file.
const (
	DateColumn = "Tanggal"
	QtyColumn  = "Qty"
)

// dateLayouts are tried in order for every date cell. Slash dates are read
// month-first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// ParseResult holds the output of parsing a transaction file.
type ParseResult struct {
	Records []model.Transaction
	Err     error
}

// ParseFile reads a transaction CSV from disk.
//
// A missing file yields an error matching model.ErrFileNotFound. Any bad date
// or quantity fails the whole file with model.ErrDataFormat.
func ParseFile(path string) ParseResult {
	f, err := os.Open(path) //nolint:gosec // path comes from local config/flags
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ParseResult{Err: fmt.Errorf("%w: %w", model.ErrFileNotFound, err)}
		}
		return ParseResult{Err: fmt.Errorf("%w: %w", model.ErrDataLoad, err)}
	}
	defer func() { _ = f.Close() }()

	records, err := Parse(f)
	return ParseResult{Records: records, Err: err}
}

// Parse reads transactions from a CSV stream with a header row.
func Parse(r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", model.ErrDataFormat)
		}
		return nil, fmt.Errorf("%w: reading header: %w", model.ErrDataLoad, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	dateIdx := columnIndex(header, DateColumn)
	qtyIdx := columnIndex(header, QtyColumn)
	if dateIdx < 0 || qtyIdx < 0 {
		return nil, fmt.Errorf("%w: header must contain %q and %q columns", model.ErrDataFormat, DateColumn, QtyColumn)
	}

	var records []model.Transaction
	row := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", model.ErrDataLoad, row, err)
		}
		if dateIdx >= len(rec) || qtyIdx >= len(rec) {
			return nil, fmt.Errorf("%w: row %d: missing %s/%s value", model.ErrDataFormat, row, DateColumn, QtyColumn)
		}

		date, err := ParseDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		qty, err := parseQty(rec[qtyIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		fields := make(map[string]string, len(header))
		for i, v := range rec {
			if i == dateIdx || i == qtyIdx || i >= len(header) {
				continue
			}
			fields[header[i]] = v
		}

		records = append(records, model.Transaction{Date: date, Qty: qty, Fields: fields})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no transactions", model.ErrDataFormat)
	}
	return records, nil
}

// ParseDate parses a date cell into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", model.ErrDataFormat, s)
}

func parseQty(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty quantity", model.ErrDataFormat)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable quantity %q", model.ErrDataFormat, s)
	}
	return v, nil
}

// columnIndex finds a header by exact name, then case-insensitively.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}
