package goals

import (
	"context"
	"net/http"
	"path/filepath"
	"slices"
	"testing"

	"github.com/keyxmakerx/roadmap/internal/apperror"
	"github.com/keyxmakerx/roadmap/internal/database"
)

func newTestWorkbook(t *testing.T) *database.Workbook {
	t.Helper()
	wb := database.NewWorkbook(filepath.Join(t.TempDir(), "roadmap.xlsx"))
	if err := wb.Ensure(); err != nil {
		t.Fatalf("ensure workbook: %v", err)
	}
	return wb
}

func TestGoalRepository_CreateDefaults(t *testing.T) {
	wb := newTestWorkbook(t)
	repo := NewGoalRepository(wb)
	ctx := context.Background()

	id, err := repo.Create(ctx, GoalInput{Name: "Alpha", DueDate: "2025-03-14"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}

	goals, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("got %d goals, want 1", len(goals))
	}
	g := goals[0]
	if g.Name != "Alpha" || g.Display != VisibilityVisible || g.Tags != "" {
		t.Errorf("goal = %+v, want visible Alpha with no tags", g)
	}
	if g.DueDate != "2025-03-14" || g.StartDate != "" {
		t.Errorf("dates = %q/%q, want blank start and 2025-03-14 due", g.StartDate, g.DueDate)
	}
}

func TestGoalRepository_IDIsMaxPlusOne(t *testing.T) {
	wb := newTestWorkbook(t)
	repo := NewGoalRepository(wb)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := repo.Create(ctx, GoalInput{Name: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	id, err := repo.Create(ctx, GoalInput{Name: "D"})
	if err != nil {
		t.Fatalf("Create D: %v", err)
	}
	if id != 4 {
		t.Errorf("id after deleting a middle goal = %d, want 4", id)
	}

	// Removing the highest id frees it for reuse.
	if err := repo.Delete(ctx, 4); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	id, err = repo.Create(ctx, GoalInput{Name: "E"})
	if err != nil {
		t.Fatalf("Create E: %v", err)
	}
	if id != 4 {
		t.Errorf("id after deleting the max = %d, want 4", id)
	}
}

func TestGoalRepository_UpdateKeepsOmittedFields(t *testing.T) {
	wb := newTestWorkbook(t)
	repo := NewGoalRepository(wb)
	ctx := context.Background()

	hidden := VisibilityHidden
	tags := "infra, q3"
	id, err := repo.Create(ctx, GoalInput{Name: "Alpha", Display: &hidden, Tags: &tags})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Update(ctx, id, GoalInput{Name: "Alpha v2", DueDate: "03/14/2025"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	goals, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	g := goals[0]
	if g.Name != "Alpha v2" || g.DueDate != "2025-03-14" {
		t.Errorf("goal = %+v", g)
	}
	if g.Display != VisibilityHidden || g.Tags != "infra, q3" {
		t.Errorf("omitted fields changed: display=%v tags=%q", g.Display, g.Tags)
	}

	// Blank dates round-trip as blank.
	if err := repo.Update(ctx, id, GoalInput{Name: "Alpha v2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	goals, _ = repo.List(ctx)
	if goals[0].DueDate != "" {
		t.Errorf("due date = %q, want blank", goals[0].DueDate)
	}
}

func TestGoalRepository_MissingID(t *testing.T) {
	wb := newTestWorkbook(t)
	repo := NewGoalRepository(wb)
	ctx := context.Background()

	if err := repo.Update(ctx, 9, GoalInput{Name: "x"}); apperror.As(err).Code != http.StatusBadRequest {
		t.Errorf("Update missing id: got %v, want 400", err)
	}
	if err := repo.Delete(ctx, 9); apperror.As(err).Code != http.StatusBadRequest {
		t.Errorf("Delete missing id: got %v, want 400", err)
	}
}

func TestRelationshipRepository_Toggle(t *testing.T) {
	wb := newTestWorkbook(t)
	repo := NewRelationshipRepository(wb)
	ctx := context.Background()

	steps := []struct {
		enabled bool
		changed bool
		want    []Relationship
	}{
		{true, true, []Relationship{{ParentID: 1, ChildID: 2}}},
		{true, false, []Relationship{{ParentID: 1, ChildID: 2}}},
		{false, true, []Relationship{}},
		{false, false, []Relationship{}},
	}
	for i, step := range steps {
		changed, err := repo.Toggle(ctx, 1, 2, step.enabled)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if changed != step.changed {
			t.Errorf("step %d: changed = %v, want %v", i, changed, step.changed)
		}
		rels, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("step %d: List: %v", i, err)
		}
		if !slices.Equal(rels, step.want) {
			t.Errorf("step %d: rels = %v, want %v", i, rels, step.want)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"3", 3, true},
		{"3.0", 3, true},
		{" 12 ", 12, true},
		{"3.5", 0, false},
		{"", 0, false},
		{"nan", 0, false},
		{"abc", 0, false},
		{"1e30", 0, false},
		{"-1e30", 0, false},
		{"9.3e18", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseID(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseID(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
