package goals

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/keyxmakerx/roadmap/internal/apperror"
	"github.com/keyxmakerx/roadmap/internal/database"
)

// GoalRepository defines the data access contract for the goals table.
// Every method reads the table from the workbook; mutations rewrite it.
type GoalRepository interface {
	// List returns every goal with a valid id, in table order.
	List(ctx context.Context) ([]Goal, error)

	// Create appends a goal with id max(existing)+1 (1 for an empty table)
	// and returns the new id. Display defaults to visible, tags to "".
	Create(ctx context.Context, in GoalInput) (int, error)

	// Update replaces the goal's fields per GoalInput's rules.
	Update(ctx context.Context, id int, in GoalInput) error

	// Delete removes the goal's row.
	Delete(ctx context.Context, id int) error
}

// RelationshipRepository defines the data access contract for the
// relationships table. It does not check that endpoints exist.
type RelationshipRepository interface {
	// List returns every edge with two valid ids, in table order.
	List(ctx context.Context) ([]Relationship, error)

	// Toggle makes the edge parent → child exist (enabled) or not. It is
	// idempotent and reports whether the table changed.
	Toggle(ctx context.Context, parentID, childID int, enabled bool) (bool, error)
}

// goalRepository implements GoalRepository on the workbook.
type goalRepository struct {
	wb *database.Workbook
}

// NewGoalRepository creates a GoalRepository backed by the given workbook.
func NewGoalRepository(wb *database.Workbook) GoalRepository {
	return &goalRepository{wb: wb}
}

// List returns every goal row that has an id.
func (r *goalRepository) List(ctx context.Context) ([]Goal, error) {
	tbl, err := r.wb.ReadTable(ctx, database.GoalsSchema)
	if err != nil {
		return nil, fmt.Errorf("reading goals: %w", err)
	}

	goals := make([]Goal, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		id, ok := parseID(row.Get("id"))
		if !ok {
			continue
		}
		goals = append(goals, Goal{
			ID:          id,
			Name:        row.Get("name"),
			StartDate:   row.Get("start_date"),
			DueDate:     row.Get("due_date"),
			Description: row.Get("description"),
			Display:     ParseVisibility(row.Get("display")),
			Tags:        row.Get("tags"),
		})
	}
	return goals, nil
}

// Create appends a new goal row and returns its id.
func (r *goalRepository) Create(ctx context.Context, in GoalInput) (int, error) {
	var newID int
	err := r.wb.Update(ctx, database.GoalsSchema, func(tbl *database.Table) (bool, error) {
		maxID := 0
		for _, row := range tbl.Rows {
			if id, ok := parseID(row.Get("id")); ok && id > maxID {
				maxID = id
			}
		}
		newID = maxID + 1

		display := VisibilityVisible
		if in.Display != nil {
			display = *in.Display
		}
		tags := ""
		if in.Tags != nil {
			tags = *in.Tags
		}

		tbl.Append(database.Row{
			"id":          strconv.Itoa(newID),
			"name":        in.Name,
			"start_date":  database.NormalizeDate(in.StartDate),
			"due_date":    database.NormalizeDate(in.DueDate),
			"description": in.Description,
			"display":     display.cell(),
			"tags":        tags,
		})
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("creating goal: %w", err)
	}
	return newID, nil
}

// Update rewrites the goal's fields. Display and Tags change only when set.
func (r *goalRepository) Update(ctx context.Context, id int, in GoalInput) error {
	err := r.wb.Update(ctx, database.GoalsSchema, func(tbl *database.Table) (bool, error) {
		found := false
		for _, row := range tbl.Rows {
			if rowID, ok := parseID(row.Get("id")); !ok || rowID != id {
				continue
			}
			found = true
			row["name"] = in.Name
			row["start_date"] = database.NormalizeDate(in.StartDate)
			row["due_date"] = database.NormalizeDate(in.DueDate)
			row["description"] = in.Description
			if in.Display != nil {
				row["display"] = in.Display.cell()
			}
			if in.Tags != nil {
				row["tags"] = *in.Tags
			}
		}
		if !found {
			return false, apperror.NewBadRequest("Invalid goal ID")
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("updating goal %d: %w", id, err)
	}
	return nil
}

// Delete removes the goal's row entirely.
func (r *goalRepository) Delete(ctx context.Context, id int) error {
	err := r.wb.Update(ctx, database.GoalsSchema, func(tbl *database.Table) (bool, error) {
		removed := tbl.RemoveWhere(func(row database.Row) bool {
			rowID, ok := parseID(row.Get("id"))
			return ok && rowID == id
		})
		if removed == 0 {
			return false, apperror.NewBadRequest("Invalid goal ID")
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("deleting goal %d: %w", id, err)
	}
	return nil
}

// relationshipRepository implements RelationshipRepository on the workbook.
type relationshipRepository struct {
	wb *database.Workbook
}

// NewRelationshipRepository creates a RelationshipRepository backed by the
// given workbook.
func NewRelationshipRepository(wb *database.Workbook) RelationshipRepository {
	return &relationshipRepository{wb: wb}
}

// List returns every edge whose endpoints both parse as ids.
func (r *relationshipRepository) List(ctx context.Context) ([]Relationship, error) {
	tbl, err := r.wb.ReadTable(ctx, database.RelationshipsSchema)
	if err != nil {
		return nil, fmt.Errorf("reading relationships: %w", err)
	}

	rels := make([]Relationship, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		parent, okP := parseID(row.Get("parent_id"))
		child, okC := parseID(row.Get("child_id"))
		if okP && okC {
			rels = append(rels, Relationship{ParentID: parent, ChildID: child})
		}
	}
	return rels, nil
}

// Toggle adds the edge when enabled and absent, removes every copy of it
// when disabled and present, and otherwise leaves the table unwritten.
func (r *relationshipRepository) Toggle(ctx context.Context, parentID, childID int, enabled bool) (bool, error) {
	matches := func(row database.Row) bool {
		p, okP := parseID(row.Get("parent_id"))
		c, okC := parseID(row.Get("child_id"))
		return okP && okC && p == parentID && c == childID
	}

	var changed bool
	err := r.wb.Update(ctx, database.RelationshipsSchema, func(tbl *database.Table) (bool, error) {
		exists := false
		for _, row := range tbl.Rows {
			if matches(row) {
				exists = true
				break
			}
		}

		switch {
		case enabled && !exists:
			tbl.Append(database.Row{
				"parent_id": strconv.Itoa(parentID),
				"child_id":  strconv.Itoa(childID),
			})
			changed = true
		case !enabled && exists:
			tbl.RemoveWhere(matches)
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		return false, fmt.Errorf("toggling link %d -> %d: %w", parentID, childID, err)
	}
	return changed, nil
}

// parseID reads an id cell. Spreadsheet tools may store integers as
// floats ("3.0"); fractional, blank, non-numeric or out of range ids are
// rejected.
func parseID(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}
