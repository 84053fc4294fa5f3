package database

import (
	"slices"
	"strings"
)

// Schema describes one named table inside the workbook.
type Schema struct {
	// Name is the sheet name. Matched case-insensitively on read.
	Name string

	// Columns are the required columns. Missing ones are synthesized blank.
	Columns []string

	// Initial overrides Columns for the header written into a brand new
	// document. Empty means Columns.
	Initial []string

	// Numeric lists columns written as numeric cells when their text parses.
	Numeric []string

	// Dates lists columns read back as YYYY-MM-DD. Cells Excel stores as
	// date serials are converted; text that does not parse is kept as is.
	Dates []string
}

// The three tables of the roadmap document.
var (
	GoalsSchema = Schema{
		Name:    "goals",
		Columns: []string{"id", "name", "start_date", "due_date", "description", "display", "tags"},
		Initial: []string{"id", "name", "due_date", "description", "display", "tags"},
		Numeric: []string{"id", "display"},
		Dates:   []string{"start_date", "due_date"},
	}

	RelationshipsSchema = Schema{
		Name:    "relationships",
		Columns: []string{"parent_id", "child_id"},
		Numeric: []string{"parent_id", "child_id"},
	}

	ChangelogSchema = Schema{
		Name:    "changelog",
		Columns: []string{"date", "version", "note", "author"},
	}
)

// Schemas lists the tables in document order.
var Schemas = []Schema{GoalsSchema, RelationshipsSchema, ChangelogSchema}

func (s Schema) initialColumns() []string {
	if len(s.Initial) > 0 {
		return s.Initial
	}
	return s.Columns
}

func (s Schema) isNumeric(column string) bool {
	return slices.Contains(s.Numeric, column)
}

// readValue converts a raw cell for column into its stored text form.
func (s Schema) readValue(column, raw string) string {
	if !slices.Contains(s.Dates, column) {
		return raw
	}
	if iso := NormalizeDate(raw); iso != "" {
		return iso
	}
	return raw
}

// Row is one record keyed by lowercased column name. Blank cells are "".
type Row map[string]string

// Get returns the cell for column, or "" when absent.
func (r Row) Get(column string) string {
	return r[column]
}

// Table is a named sheet loaded into memory. Columns keep the stored order
// (lowercased) followed by any synthesized required columns.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Append adds a row, registering any columns the table has not seen yet.
func (t *Table) Append(row Row) {
	for col := range row {
		if !slices.Contains(t.Columns, col) {
			t.Columns = append(t.Columns, col)
		}
	}
	t.Rows = append(t.Rows, row)
}

// RemoveWhere drops every row matching fn and returns how many were removed.
func (t *Table) RemoveWhere(fn func(Row) bool) int {
	before := len(t.Rows)
	t.Rows = slices.DeleteFunc(t.Rows, fn)
	return before - len(t.Rows)
}

// ensureColumns appends any missing required columns so callers never need
// to check for column existence.
func (t *Table) ensureColumns(required []string) {
	for _, col := range required {
		if !slices.Contains(t.Columns, col) {
			t.Columns = append(t.Columns, col)
		}
	}
}

// newTable builds a Table for schema s from raw sheet rows. The first row is
// the header; names are trimmed and lowercased. Fully blank data rows are
// dropped.
func newTable(name string, raw [][]string, s Schema) *Table {
	t := &Table{Name: name}
	if len(raw) == 0 {
		t.ensureColumns(s.Columns)
		return t
	}

	header := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		col := strings.ToLower(strings.TrimSpace(h))
		header[i] = col
		if col != "" && !slices.Contains(t.Columns, col) {
			t.Columns = append(t.Columns, col)
		}
	}

	for _, cells := range raw[1:] {
		row := make(Row, len(header))
		blank := true
		for i, col := range header {
			if col == "" || i >= len(cells) {
				continue
			}
			if strings.TrimSpace(cells[i]) == "" {
				row[col] = cells[i]
				continue
			}
			row[col] = s.readValue(col, cells[i])
			blank = false
		}
		if !blank {
			t.Rows = append(t.Rows, row)
		}
	}

	t.ensureColumns(s.Columns)
	return t
}
