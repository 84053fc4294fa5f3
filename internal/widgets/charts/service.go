package charts

import (
	"context"
	"slices"
	"strings"

	"github.com/keyxmakerx/roadmap/internal/database"
	"github.com/keyxmakerx/roadmap/internal/plugins/goals"
)

// GoalSource provides the raw goal and relationship tables. Satisfied by
// goals.GoalService.
type GoalSource interface {
	Snapshot(ctx context.Context) ([]goals.Goal, []goals.Relationship, error)
}

// ChartService builds the chart payloads.
type ChartService interface {
	MindMap(ctx context.Context) (*MindMapPayload, error)
	Gantt(ctx context.Context) (*GanttPayload, error)
	Sankey(ctx context.Context) (*SankeyPayload, error)
}

type chartService struct {
	source GoalSource
}

// NewChartService creates a ChartService reading from source.
func NewChartService(source GoalSource) ChartService {
	return &chartService{source: source}
}

// MindMap returns the visible goals and the edges between them.
func (s *chartService) MindMap(ctx context.Context) (*MindMapPayload, error) {
	charted, edges, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &MindMapPayload{Goals: charted, Edges: edges}, nil
}

// Gantt returns the visible goals plus both adjacency indexes.
func (s *chartService) Gantt(ctx context.Context) (*GanttPayload, error) {
	charted, edges, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	index := GanttIndex{
		ChildrenByParent: make(map[int][]int),
		ParentByChild:    make(map[int]int),
	}
	for _, e := range edges {
		index.ChildrenByParent[e.Parent] = append(index.ChildrenByParent[e.Parent], e.Child)
		index.ParentByChild[e.Child] = e.Parent
	}
	return &GanttPayload{Goals: charted, Relationships: index}, nil
}

// Sankey returns the visible goals, their edges and the tag set.
func (s *chartService) Sankey(ctx context.Context) (*SankeyPayload, error) {
	charted, edges, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	tagLists := make([]string, len(charted))
	for i, g := range charted {
		tagLists[i] = g.Tags
	}
	return &SankeyPayload{Goals: charted, Edges: edges, Tags: DistinctTags(tagLists)}, nil
}

// load drops goals whose display flag is explicitly hidden, and edges that
// touch one.
func (s *chartService) load(ctx context.Context) ([]ChartGoal, []Edge, error) {
	all, rels, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	charted := make([]ChartGoal, 0, len(all))
	visible := make(map[int]bool, len(all))
	for _, g := range all {
		if !g.Display.Visible() {
			continue
		}
		visible[g.ID] = true
		charted = append(charted, ChartGoal{
			ID:    g.ID,
			Name:  g.Name,
			Start: database.NormalizeDate(g.StartDate),
			Due:   database.NormalizeDate(g.DueDate),
			Tags:  g.Tags,
		})
	}

	edges := make([]Edge, 0, len(rels))
	for _, r := range rels {
		if visible[r.ParentID] && visible[r.ChildID] {
			edges = append(edges, Edge{Parent: r.ParentID, Child: r.ChildID})
		}
	}
	return charted, edges, nil
}

// DistinctTags splits each comma-separated tag list, trims the pieces,
// drops empties and returns the sorted distinct union.
func DistinctTags(lists []string) []string {
	tags := []string{}
	for _, list := range lists {
		for _, tag := range strings.Split(list, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}
