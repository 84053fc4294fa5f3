package goals

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keyxmakerx/roadmap/internal/apperror"
	"github.com/keyxmakerx/roadmap/internal/database"
)

// Actions recorded in the change log.
const (
	ActionGoalCreated = "goal.created"
	ActionGoalUpdated = "goal.updated"
	ActionGoalDeleted = "goal.deleted"
	ActionLinkAdded   = "link.added"
	ActionLinkRemoved = "link.removed"
)

// ChangeRecorder receives a note for every successful mutation. Defined here
// so the goals package does not import the changelog plugin.
type ChangeRecorder interface {
	Record(ctx context.Context, action, entityType string, entityID int, details string)
}

// GoalService defines the business logic contract for goals and their
// links. Handlers call these methods -- they never touch the repositories
// directly.
type GoalService interface {
	// List builds the goal listing with display labels and linked names.
	List(ctx context.Context) (*GoalList, error)

	// Snapshot returns every goal and every relationship, unfiltered.
	Snapshot(ctx context.Context) ([]Goal, []Relationship, error)

	// Create validates input and adds a goal, returning its id.
	Create(ctx context.Context, in GoalInput) (int, error)

	// Update validates input and rewrites the goal's fields.
	Update(ctx context.Context, id int, in GoalInput) error

	// Delete removes a goal that has no parent or child links.
	Delete(ctx context.Context, id int) error

	// AddParent links parentID as a parent of goalID.
	AddParent(ctx context.Context, goalID, parentID int) error

	// AddChild links childID as a child of goalID.
	AddChild(ctx context.Context, goalID, childID int) error

	// CreateAndLink creates a goal and links it to goalID on the given
	// side, returning the new id.
	CreateAndLink(ctx context.Context, goalID int, dir Direction, in GoalInput) (int, error)

	// LinkPage lists every other goal with its current link state.
	LinkPage(ctx context.Context, goalID int, dir Direction) (*LinkPage, error)

	// ReplaceLinks makes the submitted ids the complete set of goalID's
	// children or parents.
	ReplaceLinks(ctx context.Context, goalID int, dir Direction, submitted []int) error
}

// goalService implements GoalService.
type goalService struct {
	goals    GoalRepository
	rels     RelationshipRepository
	recorder ChangeRecorder
}

// NewGoalService creates a GoalService. recorder may be nil.
func NewGoalService(goals GoalRepository, rels RelationshipRepository, recorder ChangeRecorder) GoalService {
	return &goalService{goals: goals, rels: rels, recorder: recorder}
}

// List builds the goal listing. Linked names are resolved through the id →
// name map, blanks dropped, and sorted alphabetically.
func (s *goalService) List(ctx context.Context) (*GoalList, error) {
	goals, rels, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[int]string, len(goals))
	for _, g := range goals {
		names[g.ID] = g.Name
	}
	children, parents := adjacency(rels)

	list := &GoalList{
		Goals:    make([]GoalRow, 0, len(goals)),
		AllGoals: make([]GoalOption, 0, len(goals)),
	}
	for _, g := range goals {
		list.Goals = append(list.Goals, GoalRow{
			ID:               g.ID,
			Name:             g.Name,
			StartDate:        g.StartDate,
			StartDateDisplay: database.NormalizeDate(g.StartDate),
			DueDate:          g.DueDate,
			DueDateDisplay:   database.NormalizeDate(g.DueDate),
			Description:      cleanDescription(g.Description),
			Display:          g.Display.Label(),
			DisplayValue:     g.Display.Value(),
			Tags:             g.Tags,
			ChildrenNames:    linkedNames(children[g.ID], names),
			ParentNames:      linkedNames(parents[g.ID], names),
		})
		list.AllGoals = append(list.AllGoals, GoalOption{ID: g.ID, Name: g.Name})
	}
	return list, nil
}

// Snapshot reads both tables.
func (s *goalService) Snapshot(ctx context.Context) ([]Goal, []Relationship, error) {
	goals, err := s.goals.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	rels, err := s.rels.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return goals, rels, nil
}

// Create validates input and adds a goal.
func (s *goalService) Create(ctx context.Context, in GoalInput) (int, error) {
	in = normalizeInput(in)
	if in.Name == "" {
		return 0, apperror.NewBadRequest("Name is required.")
	}

	id, err := s.goals.Create(ctx, in)
	if err != nil {
		return 0, err
	}
	s.record(ctx, ActionGoalCreated, "goal", id, in.Name)
	return id, nil
}

// Update validates input and rewrites the goal.
func (s *goalService) Update(ctx context.Context, id int, in GoalInput) error {
	in = normalizeInput(in)
	if in.Name == "" {
		return apperror.NewBadRequest("Name is required.")
	}

	if err := s.goals.Update(ctx, id, in); err != nil {
		return err
	}
	s.record(ctx, ActionGoalUpdated, "goal", id, in.Name)
	return nil
}

// Delete refuses to remove a goal that is still linked as a parent or a
// child; unlink it first.
func (s *goalService) Delete(ctx context.Context, id int) error {
	rels, err := s.rels.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range rels {
		if r.ParentID == id || r.ChildID == id {
			return apperror.NewBadRequest("Cannot delete: goal is linked to other goals as parent or child.")
		}
	}

	if err := s.goals.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, ActionGoalDeleted, "goal", id, "")
	return nil
}

// AddParent links parentID above goalID after checking both exist and
// differ.
func (s *goalService) AddParent(ctx context.Context, goalID, parentID int) error {
	if err := s.checkEndpoints(ctx, goalID, parentID, "A goal cannot be its own parent"); err != nil {
		return err
	}
	return s.link(ctx, parentID, goalID, true)
}

// AddChild links childID below goalID after checking both exist and differ.
func (s *goalService) AddChild(ctx context.Context, goalID, childID int) error {
	if err := s.checkEndpoints(ctx, goalID, childID, "A goal cannot be its own child"); err != nil {
		return err
	}
	return s.link(ctx, goalID, childID, true)
}

// CreateAndLink creates a goal and links it as a parent or child of goalID.
// The new goal has a fresh id, so it can never be its own link.
func (s *goalService) CreateAndLink(ctx context.Context, goalID int, dir Direction, in GoalInput) (int, error) {
	in = normalizeInput(in)
	if in.Name == "" {
		return 0, apperror.NewBadRequest("Name is required.")
	}
	if _, err := s.find(ctx, goalID); err != nil {
		return 0, err
	}

	newID, err := s.Create(ctx, in)
	if err != nil {
		return 0, err
	}

	parent, child := goalID, newID
	if dir == DirectionParents {
		parent, child = newID, goalID
	}
	if err := s.link(ctx, parent, child, true); err != nil {
		return 0, err
	}
	return newID, nil
}

// LinkPage lists every goal except the subject, sorted by name, with the
// checkbox state taken from the current relationships.
func (s *goalService) LinkPage(ctx context.Context, goalID int, dir Direction) (*LinkPage, error) {
	goals, rels, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var subject *Goal
	for i := range goals {
		if goals[i].ID == goalID {
			subject = &goals[i]
			break
		}
	}
	if subject == nil {
		return nil, apperror.NewNotFound(fmt.Sprintf("Goal id %d not found", goalID))
	}

	linked := make(map[int]bool)
	for _, r := range rels {
		if dir == DirectionParents && r.ChildID == goalID {
			linked[r.ParentID] = true
		}
		if dir == DirectionChildren && r.ParentID == goalID {
			linked[r.ChildID] = true
		}
	}

	page := &LinkPage{
		Goal:      GoalOption{ID: subject.ID, Name: subject.Name},
		Direction: dir,
	}
	for _, g := range goals {
		if g.ID == goalID {
			continue
		}
		page.Candidates = append(page.Candidates, LinkCandidate{ID: g.ID, Name: g.Name, Linked: linked[g.ID]})
	}
	slices.SortStableFunc(page.Candidates, func(a, b LinkCandidate) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return page, nil
}

// ReplaceLinks visits every other goal once and enables the link when the
// id was submitted, disables it otherwise. Only changed links are written.
func (s *goalService) ReplaceLinks(ctx context.Context, goalID int, dir Direction, submitted []int) error {
	goals, err := s.goals.List(ctx)
	if err != nil {
		return err
	}
	if !containsGoal(goals, goalID) {
		return apperror.NewNotFound(fmt.Sprintf("Goal id %d not found", goalID))
	}

	want := make(map[int]bool, len(submitted))
	for _, id := range submitted {
		want[id] = true
	}

	visited := make(map[int]bool, len(goals))
	for _, g := range goals {
		if g.ID == goalID || visited[g.ID] {
			continue
		}
		visited[g.ID] = true

		parent, child := goalID, g.ID
		if dir == DirectionParents {
			parent, child = g.ID, goalID
		}
		if err := s.link(ctx, parent, child, want[g.ID]); err != nil {
			return err
		}
	}
	return nil
}

// checkEndpoints validates a quick-link request.
func (s *goalService) checkEndpoints(ctx context.Context, goalID, otherID int, selfMessage string) error {
	goals, err := s.goals.List(ctx)
	if err != nil {
		return err
	}
	if !containsGoal(goals, goalID) || !containsGoal(goals, otherID) {
		return apperror.NewBadRequest("Invalid goal ID")
	}
	if goalID == otherID {
		return apperror.NewBadRequest(selfMessage)
	}
	return nil
}

// find returns the goal with id, or a 400 for an unknown id.
func (s *goalService) find(ctx context.Context, id int) (*Goal, error) {
	goals, err := s.goals.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if goals[i].ID == id {
			return &goals[i], nil
		}
	}
	return nil, apperror.NewBadRequest("Invalid goal ID")
}

// link toggles an edge and records it when the table changed.
func (s *goalService) link(ctx context.Context, parentID, childID int, enabled bool) error {
	changed, err := s.rels.Toggle(ctx, parentID, childID, enabled)
	if err != nil {
		return err
	}
	if changed {
		action := ActionLinkAdded
		if !enabled {
			action = ActionLinkRemoved
		}
		s.record(ctx, action, "relationship", childID, fmt.Sprintf("parent %d -> child %d", parentID, childID))
	}
	return nil
}

func (s *goalService) record(ctx context.Context, action, entityType string, id int, details string) {
	if s.recorder != nil {
		s.recorder.Record(ctx, action, entityType, id, details)
	}
}

// --- Helpers ---

// normalizeInput trims every provided field.
func normalizeInput(in GoalInput) GoalInput {
	in.Name = strings.TrimSpace(in.Name)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Description = strings.TrimSpace(in.Description)
	if in.Tags != nil {
		tags := strings.TrimSpace(*in.Tags)
		in.Tags = &tags
	}
	return in
}

// adjacency indexes edges both ways, skipping repeated edges.
func adjacency(rels []Relationship) (children, parents map[int][]int) {
	children = make(map[int][]int)
	parents = make(map[int][]int)
	seen := make(map[Relationship]bool, len(rels))
	for _, r := range rels {
		if seen[r] {
			continue
		}
		seen[r] = true
		children[r.ParentID] = append(children[r.ParentID], r.ChildID)
		parents[r.ChildID] = append(parents[r.ChildID], r.ParentID)
	}
	return children, parents
}

// linkedNames maps ids to non-empty names, sorted. Ids with no goal are
// dropped.
func linkedNames(ids []int, names map[int]string) []string {
	out := []string{}
	for _, id := range ids {
		if name, ok := names[id]; ok && name != "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// cleanDescription blanks the "nan" text spreadsheet exports leave behind.
func cleanDescription(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "nan") {
		return ""
	}
	return s
}

func containsGoal(goals []Goal, id int) bool {
	return slices.ContainsFunc(goals, func(g Goal) bool { return g.ID == id })
}
