// Package loader reads the delimited sales file into a core.Table.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"vendas/internal/core"
)

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

// Options controls how the sales file is tokenised and decoded.
type Options struct {
	// Comma is the field separator. Defaults to ';'.
	Comma rune
	// Encoding names the input character set (see Decoder). Defaults to utf-8.
	Encoding string
}

// DefaultOptions matches the layout of the exported sales file.
func DefaultOptions() Options {
	return Options{Comma: ';', Encoding: EncodingUTF8}
}

func (o Options) withDefaults() Options {
	if o.Comma == 0 {
		o.Comma = ';'
	}
	if o.Encoding == "" {
		o.Encoding = EncodingUTF8
	}
	return o
}

// Read parses a sales file from r. Field level problems never abort the
// load; a row the CSV reader cannot tokenise is skipped and counted.
func Read(r io.Reader, opts Options) (core.Table, error) {
	opts = opts.withDefaults()
	decoded, err := Decode(r, opts.Encoding)
	if err != nil {
		return core.Table{}, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = opts.Comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return core.Table{}, errors.New("sales file is empty")
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("read header: %w", err)
	}

	idx, err := ColumnIndex(header)
	if err != nil {
		return core.Table{}, err
	}

	var table core.Table
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Skipping unreadable sales row", "line", line, "error", err)
			table.Skipped++
			continue
		}
		if isBlank(rec) {
			continue
		}
		table.Records = append(table.Records, idx.Record(rec))
	}
	return table, nil
}

// FromRows normalizes an already tokenised matrix whose first row is the header.
// It is used by sources that do not hand out a delimited stream.
func FromRows(rows [][]string) (core.Table, error) {
	if len(rows) == 0 {
		return core.Table{}, errors.New("sales data is empty")
	}
	idx, err := ColumnIndex(rows[0])
	if err != nil {
		return core.Table{}, err
	}
	var table core.Table
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		table.Records = append(table.Records, idx.Record(row))
	}
	return table, nil
}

// LoadFile opens path (local or gs://), reads it fully and closes it.
func LoadFile(ctx context.Context, path string, opts Options) (core.Table, error) {
	rc, err := Open(ctx, path)
	if err != nil {
		return core.Table{}, err
	}
	defer rc.Close()

	table, err := Read(rc, opts)
	if err != nil {
		return core.Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

// Index maps required column names to their position in a header row.
type Index map[string]int

// ColumnIndex locates the required columns in header. Extra columns are ignored.
func ColumnIndex(header []string) (Index, error) {
	idx := make(Index, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, req := range core.RequiredColumns {
		if _, ok := idx[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// Record builds a normalized record from one tokenised row.
func (idx Index) Record(row []string) core.SalesRecord {
	get := func(col string) string {
		if i, ok := idx[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	return core.NormalizeRow(
		get(core.ColumnDate),
		get(core.ColumnCity),
		get(core.ColumnProductLine),
		get(core.ColumnPayment),
		get(core.ColumnTotal),
		get(core.ColumnRating),
	)
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
