package database

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/keyxmakerx/roadmap/internal/apperror"
)

// newTestWorkbook returns an ensured workbook in a temp directory.
func newTestWorkbook(t *testing.T) *Workbook {
	t.Helper()
	w := NewWorkbook(filepath.Join(t.TempDir(), "roadmap.xlsx"))
	if err := w.Ensure(); err != nil {
		t.Fatalf("ensuring workbook: %v", err)
	}
	return w
}

func TestEnsure_CreatesThreeTables(t *testing.T) {
	w := newTestWorkbook(t)

	f, err := excelize.OpenFile(w.Path())
	if err != nil {
		t.Fatalf("opening created workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{"goals", "relationships", "changelog"} {
		if !slices.Contains(sheets, want) {
			t.Errorf("sheet %q missing from %v", want, sheets)
		}
	}

	rows, err := f.GetRows("goals")
	if err != nil {
		t.Fatalf("reading goals: %v", err)
	}
	want := []string{"id", "name", "due_date", "description", "display", "tags"}
	if len(rows) != 1 || !slices.Equal(rows[0], want) {
		t.Errorf("goals header = %v, want %v", rows, want)
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	w := newTestWorkbook(t)
	ctx := context.Background()

	err := w.Update(ctx, RelationshipsSchema, func(tbl *Table) (bool, error) {
		tbl.Append(Row{"parent_id": "1", "child_id": "2"})
		return true, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := w.Ensure(); err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	tbl, err := w.ReadTable(ctx, RelationshipsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Errorf("ensure on existing file changed data: %d rows", len(tbl.Rows))
	}
}

func TestReadTable_SynthesizesMissingColumns(t *testing.T) {
	w := newTestWorkbook(t)

	tbl, err := w.ReadTable(context.Background(), GoalsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, col := range GoalsSchema.Columns {
		if !slices.Contains(tbl.Columns, col) {
			t.Errorf("column %q not synthesized; have %v", col, tbl.Columns)
		}
	}
}

func TestReadTable_CaseInsensitiveNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadmap.xlsx")
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Goals"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	f.SetSheetRow("Goals", "A1", &[]any{"ID", "Name", "Display"})
	f.SetSheetRow("Goals", "A2", &[]any{1, "Alpha", 0})
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	w := NewWorkbook(path)
	tbl, err := w.ReadTable(context.Background(), GoalsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Name != "Goals" {
		t.Errorf("Name = %q, want stored sheet name Goals", tbl.Name)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(tbl.Rows))
	}
	row := tbl.Rows[0]
	if row.Get("id") != "1" || row.Get("name") != "Alpha" || row.Get("display") != "0" {
		t.Errorf("row = %v", row)
	}
	if row.Get("tags") != "" {
		t.Errorf("synthesized tags = %q, want blank", row.Get("tags"))
	}
}

func TestReadTable_SelfHealsMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadmap.xlsx")
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "goals")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	w := NewWorkbook(path)
	tbl, err := w.ReadTable(context.Background(), RelationshipsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("healed table has %d rows", len(tbl.Rows))
	}

	f, err = excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	if !slices.Contains(f.GetSheetList(), "relationships") {
		t.Error("missing table was not persisted")
	}
}

func TestWriteTable_BlankRoundTrip(t *testing.T) {
	w := newTestWorkbook(t)
	ctx := context.Background()

	tbl := &Table{Columns: GoalsSchema.Columns}
	tbl.Append(Row{"id": "1", "name": "Alpha", "due_date": "", "description": "nan", "display": "1"})
	if err := w.WriteTable(ctx, GoalsSchema, tbl); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := w.ReadTable(ctx, GoalsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(got.Rows))
	}
	row := got.Rows[0]
	if row.Get("due_date") != "" {
		t.Errorf("due_date = %q, want empty", row.Get("due_date"))
	}
	if row.Get("description") != "" {
		t.Errorf("description = %q, want empty cell instead of nan", row.Get("description"))
	}
}

func TestReadTable_NormalizesExcelDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadmap.xlsx")
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "goals")
	f.SetSheetRow("goals", "A1", &[]any{"id", "name", "due_date", "start_date"})
	f.SetSheetRow("goals", "A2", &[]any{1, "Alpha", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "someday"})
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	w := NewWorkbook(path)
	ctx := context.Background()
	tbl, err := w.ReadTable(ctx, GoalsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	row := tbl.Rows[0]
	if row.Get("due_date") != "2025-03-14" {
		t.Errorf("due_date = %q, want 2025-03-14", row.Get("due_date"))
	}
	if row.Get("start_date") != "someday" {
		t.Errorf("start_date = %q, want unparseable text kept", row.Get("start_date"))
	}

	// Rewriting the table for an unrelated row must not turn the date into
	// a bare serial number.
	err = w.Update(ctx, GoalsSchema, func(tbl *Table) (bool, error) {
		tbl.Append(Row{"id": "2", "name": "Beta"})
		return true, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	f, err = excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	got, err := f.GetCellValue("goals", "C2", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("reading C2: %v", err)
	}
	if got != "2025-03-14" {
		t.Errorf("C2 after rewrite = %q, want 2025-03-14", got)
	}
}

func TestWriteTable_ShrinksSheet(t *testing.T) {
	w := newTestWorkbook(t)
	ctx := context.Background()

	full := &Table{}
	full.Append(Row{"parent_id": "1", "child_id": "2"})
	full.Append(Row{"parent_id": "1", "child_id": "3"})
	if err := w.WriteTable(ctx, RelationshipsSchema, full); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := w.Update(ctx, RelationshipsSchema, func(tbl *Table) (bool, error) {
		return tbl.RemoveWhere(func(r Row) bool { return r.Get("child_id") == "3" }) > 0, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := w.ReadTable(ctx, RelationshipsSchema)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Get("child_id") != "2" {
		t.Errorf("rows after removal = %v", got.Rows)
	}
}

func TestLockedWorkbook(t *testing.T) {
	w := newTestWorkbook(t)
	ctx := context.Background()

	if err := os.WriteFile(w.ownerFile(), []byte("someone"), 0o644); err != nil {
		t.Fatalf("writing owner file: %v", err)
	}

	// Readers are not blocked by the owner file.
	if _, err := w.ReadTable(ctx, GoalsSchema); err != nil {
		t.Errorf("read while locked: %v", err)
	}

	err := w.Update(ctx, GoalsSchema, func(tbl *Table) (bool, error) {
		tbl.Append(Row{"id": "1", "name": "Alpha"})
		return true, nil
	})
	if !apperror.IsLocked(err) {
		t.Errorf("update: expected locked error, got %v", err)
	}

	if err := os.Remove(w.ownerFile()); err != nil {
		t.Fatalf("removing owner file: %v", err)
	}
	tbl, err := w.ReadTable(ctx, GoalsSchema)
	if err != nil {
		t.Fatalf("read after unlock: %v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("locked update leaked %d rows", len(tbl.Rows))
	}
}

func TestUpdate_CanceledContext(t *testing.T) {
	w := newTestWorkbook(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.ReadTable(ctx, GoalsSchema); err == nil {
		t.Error("expected canceled context error")
	}
}

func TestWriteTable_ClearsStaleCells(t *testing.T) {
	w := newTestWorkbook(t)
	ctx := context.Background()

	wide := &Table{}
	wide.Append(Row{"parent_id": "1", "child_id": "2", "note": "old"})
	wide.Append(Row{"parent_id": "1", "child_id": "3", "note": "old"})
	if err := w.WriteTable(ctx, RelationshipsSchema, wide); err != nil {
		t.Fatalf("write wide: %v", err)
	}

	narrow := &Table{}
	narrow.Append(Row{"parent_id": "4", "child_id": "5"})
	if err := w.WriteTable(ctx, RelationshipsSchema, narrow); err != nil {
		t.Fatalf("write narrow: %v", err)
	}

	f, err := excelize.OpenFile(w.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("relationships")
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	want := [][]string{{"parent_id", "child_id"}, {"4", "5"}}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		if !slices.Equal(rows[i], want[i]) {
			t.Errorf("row %d = %v, want %v", i+1, rows[i], want[i])
		}
	}
}
