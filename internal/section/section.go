// Package section detects multi-section report exports and merges them into
// one wide table so downstream classification sees a single flat row shape.
//
// A raw export may concatenate several report sections, each introduced by
// its own header row starting with the ClientAccountID column. The section
// whose header carries the trade columns (ListingExchange and Buy/Sell) is
// the anchor; every other section's rows are appended into it under a
// unified column superset, with absent columns filled with "".
package section

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/flexledger/flexledger/internal/apperrors"
	"github.com/flexledger/flexledger/internal/model"
)

// minHeaderColumns is the smallest header a section must carry to be
// treated as parseable.
const minHeaderColumns = 3

// headerSignature is the leading column name that marks a section header.
const headerSignature = model.ColClientAccountID

// columnRenames maps alternate source column names onto the canonical
// merged shape. The date/time column of the trade section becomes the trade
// date; the cash-movement direction column becomes the internal direction
// marker.
var columnRenames = map[string]string{
	model.ColDateTime:  model.ColTradeDate,
	model.ColDirection: model.ColType,
}

// Table is the merged report: the unified column superset and one RawRow
// per body line.
type Table struct {
	Columns []string
	Rows    []model.RawRow
}

// IsMultiSection reports whether the raw text contains two or more section
// header rows.
func IsMultiSection(raw string) bool {
	return countHeaders(raw) >= 2
}

func countHeaders(raw string) int {
	n := 0
	for _, line := range strings.Split(stripBOM(raw), "\n") {
		if isHeaderLine(line) {
			n++
		}
	}
	return n
}

func isHeaderLine(line string) bool {
	line = strings.TrimPrefix(strings.TrimSpace(line), `"`)
	return strings.HasPrefix(line, headerSignature+",") ||
		strings.HasPrefix(line, headerSignature+`"`) ||
		strings.TrimSuffix(line, "\r") == headerSignature
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// Merge parses raw CSV text into the unified table. Single-section input is
// parsed directly; multi-section input is split into header+body blocks,
// anchored on the trade-shaped section, and merged.
//
// Returns apperrors.ErrNoSectionsFound when nothing parses and
// apperrors.ErrNoTradeAnchor when no section carries the trade columns.
// Both are fatal for the batch: classification cannot proceed without a
// trade-shaped anchor.
func Merge(raw string) (*Table, error) {
	raw = stripBOM(raw)

	if countHeaders(raw) < 2 {
		t, err := parseCSV(raw)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, apperrors.ErrNoSectionsFound
		}
		return t, nil
	}

	blocks := splitBlocks(raw)
	var tables []*Table
	for _, block := range blocks {
		t, err := parseCSV(block)
		if err != nil || t == nil {
			continue
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, apperrors.ErrNoSectionsFound
	}

	anchor := -1
	for i, t := range tables {
		if hasColumn(t, model.ColListingExchange) && hasColumn(t, model.ColBuySell) {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return nil, apperrors.ErrNoTradeAnchor
	}

	merged := tables[anchor]
	colSet := make(map[string]bool, len(merged.Columns))
	for _, c := range merged.Columns {
		colSet[c] = true
	}
	for i, t := range tables {
		if i == anchor {
			continue
		}
		for _, c := range t.Columns {
			if !colSet[c] {
				colSet[c] = true
				merged.Columns = append(merged.Columns, c)
			}
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}

	// Fill the superset so every row answers every column.
	for _, row := range merged.Rows {
		for _, c := range merged.Columns {
			if _, ok := row[c]; !ok {
				row[c] = ""
			}
		}
	}
	return merged, nil
}

func hasColumn(t *Table, name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// splitBlocks groups lines into contiguous header+body blocks. Lines before
// the first header are dropped.
func splitBlocks(raw string) []string {
	var blocks []string
	var current []string
	for _, line := range strings.Split(raw, "\n") {
		if isHeaderLine(line) {
			if len(current) > 0 {
				blocks = append(blocks, strings.Join(current, "\n"))
			}
			current = []string{line}
			continue
		}
		if len(current) > 0 {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

// parseCSV parses one header+body block. Returns (nil, nil) for blocks with
// no usable header.
func parseCSV(block string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(block))
	r.FieldsPerRecord = -1

	header, err := readNonEmpty(r)
	if err != nil {
		return nil, nil //nolint:nilerr // unusable block, caller skips it
	}
	cols := make([]string, 0, len(header))
	for _, c := range header {
		c = strings.TrimSpace(stripBOM(c))
		if renamed, ok := columnRenames[c]; ok {
			c = renamed
		}
		cols = append(cols, c)
	}
	if countNonEmpty(cols) < minHeaderColumns {
		return nil, nil
	}

	t := &Table{Columns: cols}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if allEmpty(rec) {
			continue
		}
		row := make(model.RawRow, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				row[c] = strings.TrimSpace(rec[i])
			} else {
				row[c] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func readNonEmpty(r *csv.Reader) ([]string, error) {
	for {
		rec, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !allEmpty(rec) {
			return rec, nil
		}
	}
}

func countNonEmpty(fields []string) int {
	n := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}

func allEmpty(fields []string) bool {
	return countNonEmpty(fields) == 0
}
