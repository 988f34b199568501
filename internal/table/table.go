// Package table implements the tabular-data capability used by synthesized
// parser artifacts and by the differential tester: ordered rows of typed
// cells, permissive date/numeric coercion, and schema-normalized comparison.
package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a cell value.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindDate
	KindNumber
)

// Cell is a single table value. Empty or whitespace-only input collapses to
// KindMissing so that absence and emptiness compare equal.
type Cell struct {
	Kind Kind
	Text string
	Date time.Time
	Num  decimal.Decimal
}

// Missing is the canonical marker for an absent value.
var Missing = Cell{Kind: KindMissing}

// TextCell builds a text cell, collapsing blank input to Missing.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	return Cell{Kind: KindText, Text: s}
}

// Equal compares two cells by parsed value. Missing equals Missing; kinds
// must otherwise match exactly.
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindMissing:
		return true
	case KindText:
		return c.Text == other.Text
	case KindDate:
		return c.Date.Equal(other.Date)
	case KindNumber:
		return c.Num.Equal(other.Num)
	}
	return false
}

// String renders the cell for diffs and logs.
func (c Cell) String() string {
	switch c.Kind {
	case KindMissing:
		return "<missing>"
	case KindDate:
		return c.Date.Format("02-01-2006")
	case KindNumber:
		return c.Num.String()
	default:
		return c.Text
	}
}

// Column declares a named, typed column of a schema.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the fixed column contract a table is normalized against.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Table is an ordered collection of rows over named columns.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New creates an empty table with the given column names.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AppendRow appends raw string values as one row. Values beyond the column
// count are dropped; short rows are padded with Missing.
func (t *Table) AppendRow(values ...string) {
	row := make([]Cell, len(t.Columns))
	for i := range row {
		if i < len(values) {
			row[i] = TextCell(values[i])
		} else {
			row[i] = Missing
		}
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// statement dates are day-first; accept the common separators.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"02-01-06",
	"2 Jan 2006",
	"02 Jan 2006",
}

// ParseDate parses a day-first date string. The dayFirst flag controls
// whether ambiguous forms resolve day-before-month.
func ParseDate(s string, dayFirst bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := dateLayouts
	if !dayFirst {
		layouts = []string{"01-02-2006", "01/02/2006", "2006-01-02"}
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric string, tolerating thousands separators and
// surrounding whitespace.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// CoerceDate converts the named column to date cells. Values that do not
// parse become Missing.
func (t *Table) CoerceDate(column string, dayFirst bool) {
	idx := t.columnIndex(column)
	if idx < 0 {
		return
	}
	for _, row := range t.Rows {
		row[idx] = coerceDateCell(row[idx], dayFirst)
	}
}

// CoerceNumber converts the named columns to numeric cells. Values that do
// not parse become Missing.
func (t *Table) CoerceNumber(columns ...string) {
	for _, column := range columns {
		idx := t.columnIndex(column)
		if idx < 0 {
			continue
		}
		for _, row := range t.Rows {
			row[idx] = coerceNumberCell(row[idx])
		}
	}
}

func coerceDateCell(c Cell, dayFirst bool) Cell {
	switch c.Kind {
	case KindDate:
		return c
	case KindText:
		if ts, ok := ParseDate(c.Text, dayFirst); ok {
			return Cell{Kind: KindDate, Date: ts}
		}
	}
	return Missing
}

func coerceNumberCell(c Cell) Cell {
	switch c.Kind {
	case KindNumber:
		return c
	case KindText:
		if d, ok := ParseNumber(c.Text); ok {
			return Cell{Kind: KindNumber, Num: d}
		}
	}
	return Missing
}

// DropMissing removes rows whose cell in the named column is Missing.
func (t *Table) DropMissing(column string) {
	idx := t.columnIndex(column)
	if idx < 0 {
		return
	}
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if row[idx].Kind != KindMissing {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// Normalize reindexes the table to the schema's column order and coerces
// each column to its declared kind. Columns absent from the table come back
// entirely Missing, so absence and emptiness compare equal.
func (t *Table) Normalize(schema Schema) *Table {
	out := &Table{Columns: schema.Names()}
	src := make([]int, len(schema))
	for i, col := range schema {
		src[i] = t.columnIndex(col.Name)
	}
	for _, row := range t.Rows {
		normalized := make([]Cell, len(schema))
		for i, col := range schema {
			cell := Missing
			if src[i] >= 0 && src[i] < len(row) {
				cell = row[src[i]]
			}
			switch col.Kind {
			case KindDate:
				cell = coerceDateCell(cell, true)
			case KindNumber:
				cell = coerceNumberCell(cell)
			}
			normalized[i] = cell
		}
		out.Rows = append(out.Rows, normalized)
	}
	return out
}

// Compare checks two schema-normalized tables for exact equality. Rows are
// order-sensitive; the returned diffs describe the shape mismatch or every
// mismatched cell.
func Compare(got, want *Table, schema Schema) (bool, []string) {
	var diffs []string
	if got.Len() != want.Len() {
		diffs = append(diffs, fmt.Sprintf("row count mismatch: got %d rows, want %d", got.Len(), want.Len()))
	}
	n := got.Len()
	if want.Len() < n {
		n = want.Len()
	}
	for r := 0; r < n; r++ {
		for c, col := range schema {
			if !got.Rows[r][c].Equal(want.Rows[r][c]) {
				diffs = append(diffs, fmt.Sprintf("row %d, column %s: got %s, want %s",
					r+1, col.Name, got.Rows[r][c], want.Rows[r][c]))
			}
		}
	}
	return len(diffs) == 0, diffs
}

// Head renders up to n rows for log output.
func (t *Table) Head(n int) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(t.Columns, " | "))
	for i, row := range t.Rows {
		if i >= n {
			break
		}
		parts := make([]string, len(row))
		for j, cell := range row {
			parts[j] = cell.String()
		}
		sb.WriteString("\n" + strings.Join(parts, " | "))
	}
	return sb.String()
}
