// Package database is the spreadsheet access layer. The roadmap lives in one
// .xlsx document holding three named tables (goals, relationships,
// changelog). This package owns that file: every read or write of those
// tables passes through a Workbook.
//
// Every mutation is a whole-table rewrite: the sheet is loaded, changed in
// memory and written back in full, so a failure before the save leaves the
// previous file intact.
package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/keyxmakerx/roadmap/internal/apperror"
)

// Workbook provides table-level access to the roadmap spreadsheet. There is
// no cache: each call opens the file from disk.
type Workbook struct {
	path string

	// mu serializes read-modify-write cycles within this process. Other
	// processes are only detected, never coordinated.
	mu sync.Mutex
}

// NewWorkbook returns a Workbook for the document at path. The file is not
// touched until Ensure or a table operation runs.
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path}
}

// Path returns the document location as configured.
func (w *Workbook) Path() string {
	return w.path
}

// FileName returns the document's base name, as users see it in Excel.
func (w *Workbook) FileName() string {
	return filepath.Base(w.path)
}

// AbsPath returns the absolute document location for display.
func (w *Workbook) AbsPath() string {
	if abs, err := filepath.Abs(w.path); err == nil {
		return abs
	}
	return w.path
}

// Ensure creates the document with the three empty tables if the file does
// not exist. It is a no-op when the file is already there.
func (w *Workbook) Ensure() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := os.Stat(w.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return w.classify(err, "checking workbook")
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, s := range Schemas {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}
		if err := writeHeader(f, s.Name, s.initialColumns()); err != nil {
			return err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return w.classify(err, "creating workbook")
	}
	slog.Info("created workbook", slog.String("path", w.path))
	return nil
}

// ReadTable loads one named table. A table missing from an existing
// document is created empty and saved before returning.
func (w *Workbook) ReadTable(ctx context.Context, s Schema) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, created, err := loadTable(f, s)
	if err != nil {
		return nil, err
	}
	if created {
		if err := w.save(f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteTable replaces a table's contents wholesale with t.
func (w *Workbook) WriteTable(ctx context.Context, s Schema, t *Table) error {
	return w.Update(ctx, s, func(current *Table) (bool, error) {
		current.Columns = t.Columns
		current.Rows = t.Rows
		current.ensureColumns(s.Columns)
		return true, nil
	})
}

// Update loads table s, passes it to fn and, when fn reports a change,
// rewrites the whole sheet and saves the document. The cycle runs under
// the workbook mutex with a single open and save.
func (w *Workbook) Update(ctx context.Context, s Schema, fn func(*Table) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkLock(); err != nil {
		return err
	}
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	t, created, err := loadTable(f, s)
	if err != nil {
		return err
	}

	changed, err := fn(t)
	if err != nil {
		return err
	}
	if !changed && !created {
		return nil
	}

	if err := writeTable(f, s, t); err != nil {
		return err
	}
	return w.save(f)
}

// open opens the document. Office still lets other programs read a file it
// holds, so only writers check for the owner marker.
func (w *Workbook) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, w.classify(err, "opening workbook")
	}
	return f, nil
}

// save writes the document back to its own path.
func (w *Workbook) save(f *excelize.File) error {
	if err := w.checkLock(); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return w.classify(err, "saving workbook")
	}
	return nil
}

// ownerFile is the "~$name" marker Office writes next to a document it has
// open for editing.
func (w *Workbook) ownerFile() string {
	return filepath.Join(filepath.Dir(w.path), "~$"+filepath.Base(w.path))
}

// checkLock fails with a locked error while another program holds the file.
func (w *Workbook) checkLock() error {
	if _, err := os.Stat(w.ownerFile()); err == nil {
		return apperror.NewLocked(w.FileName(), fmt.Errorf("owner file %s present", w.ownerFile()))
	}
	return nil
}

// classify turns permission and sharing violations into locked errors and
// wraps everything else with op.
func (w *Workbook) classify(err error, op string) error {
	if isLockError(err) {
		return apperror.NewLocked(w.FileName(), fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isLockError recognizes the errors an exclusively held file produces:
// EACCES/EPERM on Unix, and ERROR_SHARING_VIOLATION / ERROR_LOCK_VIOLATION
// on Windows.
func isLockError(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "being used by another process") ||
		strings.Contains(msg, "locked a portion of the file")
}

// findSheet returns the stored sheet name matching name case-insensitively,
// or "" if none does.
func findSheet(f *excelize.File, name string) string {
	for _, sheet := range f.GetSheetList() {
		if strings.EqualFold(sheet, name) {
			return sheet
		}
	}
	return ""
}

// loadTable reads sheet s from f, creating it with a header row if it is
// missing. created reports whether the sheet had to be added.
func loadTable(f *excelize.File, s Schema) (*Table, bool, error) {
	sheet := findSheet(f, s.Name)
	if sheet == "" {
		if _, err := f.NewSheet(s.Name); err != nil {
			return nil, false, fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}
		if err := writeHeader(f, s.Name, s.Columns); err != nil {
			return nil, false, err
		}
		slog.Warn("workbook table missing, created empty", slog.String("table", s.Name))
		return newTable(s.Name, nil, s), true, nil
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return newTable(sheet, raw, s), false, nil
}

// writeTable overwrites the sheet in place with the header and every row,
// then removes rows left over from a longer table. Blank values become
// empty cells.
func writeTable(f *excelize.File, s Schema, t *Table) error {
	sheet := findSheet(f, s.Name)
	if sheet == "" {
		sheet = s.Name
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
	}

	existing, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	// Cover the old width too so stale cells to the right are cleared.
	width := len(t.Columns)
	for _, cells := range existing {
		width = max(width, len(cells))
	}

	header := make([]any, width)
	for c, col := range t.Columns {
		header[c] = col
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, width)
		for c, col := range t.Columns {
			if value := row.Get(col); !isBlank(value) {
				cells[c] = cellValue(s, col, value)
			}
		}
		if err := setRow(f, sheet, r+2, cells); err != nil {
			return err
		}
	}

	for n := len(existing); n > len(t.Rows)+1; n-- {
		if err := f.RemoveRow(sheet, n); err != nil {
			return fmt.Errorf("trimming sheet %s: %w", sheet, err)
		}
	}
	return nil
}

// setRow writes cells starting at column A of row n. nil cells are left
// empty.
func setRow(f *excelize.File, sheet string, n int, cells []any) error {
	start, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("addressing row %d: %w", n, err)
	}
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, n, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, columns []string) error {
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header of %s: %w", sheet, err)
	}
	return nil
}

// cellValue types numeric columns as numbers; everything else is text.
func cellValue(s Schema, column, value string) any {
	if !s.isNumeric(column) {
		return value
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}
	if n == float64(int64(n)) {
		return int64(n)
	}
	return n
}

// isBlank treats "" and the literal "nan" other tools write for missing
// values as empty.
func isBlank(v string) bool {
	return v == "" || strings.EqualFold(strings.TrimSpace(v), "nan")
}
