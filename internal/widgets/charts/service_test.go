package charts

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/plugins/goals"
)

// mockSource implements GoalSource for testing.
type mockSource struct {
	goals []goals.Goal
	rels  []goals.Relationship
	err   error
}

func (m *mockSource) Snapshot(ctx context.Context) ([]goals.Goal, []goals.Relationship, error) {
	return m.goals, m.rels, m.err
}

func testSource() *mockSource {
	return &mockSource{
		goals: []goals.Goal{
			{ID: 1, Name: "Platform", Display: goals.VisibilityUnset, Tags: "infra, q3", DueDate: "2025-03-14 00:00:00"},
			{ID: 2, Name: "Secret", Display: goals.VisibilityHidden, Tags: "hidden-tag"},
			{ID: 3, Name: "API", Display: goals.VisibilityVisible, Tags: " q3 ,api,,", StartDate: "45000"},
			{ID: 4, Name: "Docs", Display: goals.VisibilityVisible},
		},
		rels: []goals.Relationship{
			{ParentID: 1, ChildID: 3},
			{ParentID: 1, ChildID: 2},
			{ParentID: 2, ChildID: 4},
			{ParentID: 4, ChildID: 3},
		},
	}
}

func chartedIDs(gs []ChartGoal) []int {
	ids := make([]int, len(gs))
	for i, g := range gs {
		ids[i] = g.ID
	}
	return ids
}

func TestMindMap_ExcludesHiddenGoals(t *testing.T) {
	svc := NewChartService(testSource())

	payload, err := svc.MindMap(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := chartedIDs(payload.Goals); !slices.Equal(got, []int{1, 3, 4}) {
		t.Errorf("goal ids = %v, want [1 3 4]", got)
	}
	want := []Edge{{Parent: 1, Child: 3}, {Parent: 4, Child: 3}}
	if !slices.Equal(payload.Edges, want) {
		t.Errorf("edges = %v, want %v", payload.Edges, want)
	}
	if payload.Goals[0].Due != "2025-03-14" || payload.Goals[1].Start != "2023-03-15" {
		t.Errorf("dates not normalized: %+v", payload.Goals)
	}
}

func TestGantt_Indexes(t *testing.T) {
	src := testSource()
	src.rels = append(src.rels, goals.Relationship{ParentID: 1, ChildID: 4})
	svc := NewChartService(src)

	payload, err := svc.Gantt(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := chartedIDs(payload.Goals); slices.Contains(got, 2) {
		t.Errorf("hidden goal charted: %v", got)
	}

	wantChildren := map[int][]int{1: {3, 4}, 4: {3}}
	if !maps.EqualFunc(payload.Relationships.ChildrenByParent, wantChildren, slices.Equal[[]int]) {
		t.Errorf("children_by_parent = %v, want %v", payload.Relationships.ChildrenByParent, wantChildren)
	}
	// Goal 3 has two parents; the later edge wins.
	wantParent := map[int]int{3: 4, 4: 1}
	if !maps.Equal(payload.Relationships.ParentByChild, wantParent) {
		t.Errorf("parent_by_child = %v, want %v", payload.Relationships.ParentByChild, wantParent)
	}
}

func TestSankey_Tags(t *testing.T) {
	svc := NewChartService(testSource())

	payload, err := svc.Sankey(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"api", "infra", "q3"}
	if !slices.Equal(payload.Tags, want) {
		t.Errorf("tags = %v, want %v", payload.Tags, want)
	}
}

func TestDistinctTags(t *testing.T) {
	tests := []struct {
		lists []string
		want  []string
	}{
		{nil, []string{}},
		{[]string{"", " , "}, []string{}},
		{[]string{"b, a", "a,c", "b"}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := DistinctTags(tt.lists); !slices.Equal(got, tt.want) {
			t.Errorf("DistinctTags(%q) = %v, want %v", tt.lists, got, tt.want)
		}
	}
}

func TestCharts_PropagateErrors(t *testing.T) {
	svc := NewChartService(&mockSource{err: errors.New("boom")})
	if _, err := svc.MindMap(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestSankeyHandler_Height(t *testing.T) {
	h := NewHandler(NewChartService(testSource()), 900)
	e := echo.New()

	tests := []struct {
		query string
		want  string
	}{
		{"", `height="900"`},
		{"?h=640", `height="640"`},
		{"?h=tall", `height="900"`},
		{"?h=-5", `height="900"`},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/sankey"+tt.query, nil)
		rec := httptest.NewRecorder()
		if err := h.Sankey(e.NewContext(req, rec)); err != nil {
			t.Fatalf("%s: %v", tt.query, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tt.query, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s: body missing %s", tt.query, tt.want)
		}
		if strings.Contains(rec.Body.String(), "Secret") {
			t.Errorf("%s: hidden goal rendered", tt.query)
		}
	}
}
