// Package goals implements the roadmap's goal list: goals (tasks with dates,
// descriptions, tags and a visibility flag) and the parent/child
// relationships between them. Both are stored as tables in the roadmap
// workbook; this package shapes them into the list and link-editing views and
// enforces the rules the storage layer does not (required names, no deleting
// linked goals, valid link endpoints).
package goals

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Visibility is the tri-state display flag. Only an explicit Hidden keeps a
// goal out of the charts; Unset and Visible behave the same but are kept
// apart so a form can show "not explicitly set".
type Visibility int

const (
	VisibilityUnset Visibility = iota
	VisibilityHidden
	VisibilityVisible
)

// ParseVisibility reads a stored display cell. Numbers are truncated to
// integers; 0 is hidden, any other number is visible, and blank or
// non-numeric content is unset.
func ParseVisibility(raw string) Visibility {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return VisibilityUnset
	}
	if int64(f) == 0 {
		return VisibilityHidden
	}
	return VisibilityVisible
}

// Visible reports whether the goal belongs in the charts.
func (v Visibility) Visible() bool {
	return v != VisibilityHidden
}

// Label is the Yes/No text shown in the goal list.
func (v Visibility) Label() string {
	if v == VisibilityHidden {
		return "No"
	}
	return "Yes"
}

// Value is the 0/1 value pre-selected in edit forms.
func (v Visibility) Value() int {
	if v == VisibilityHidden {
		return 0
	}
	return 1
}

// cell is the stored representation: blank for unset.
func (v Visibility) cell() string {
	switch v {
	case VisibilityHidden:
		return "0"
	case VisibilityVisible:
		return "1"
	default:
		return ""
	}
}

// Goal is one row of the goals table.
type Goal struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	StartDate   string     `json:"start_date"`
	DueDate     string     `json:"due_date"`
	Description string     `json:"description"`
	Display     Visibility `json:"display"`
	Tags        string     `json:"tags"`
}

// Relationship is a directed parent → child edge between two goal ids.
type Relationship struct {
	ParentID int `json:"parent"`
	ChildID  int `json:"child"`
}

// Direction selects which side of a goal's links a page edits.
type Direction string

const (
	// DirectionChildren edits the goals the subject is a parent of.
	DirectionChildren Direction = "children"

	// DirectionParents edits the goals the subject is a child of.
	DirectionParents Direction = "parents"
)

// --- Request DTOs (bound from HTTP requests) ---

// GoalInput carries the editable fields of a goal. Name, description and
// the dates are always applied; Display and Tags are nil when the request
// did not provide them and are then left alone on update.
type GoalInput struct {
	Name        string
	StartDate   string
	DueDate     string
	Description string
	Display     *Visibility
	Tags        *string
}

var integerPattern = regexp.MustCompile(`^-?[0-9]+$`)

// ParseDisplayInput parses a submitted display value. Only an optionally
// negative integer counts as provided; anything else returns nil.
func ParseDisplayInput(raw string) *Visibility {
	raw = strings.TrimSpace(raw)
	if !integerPattern.MatchString(raw) {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	v := VisibilityVisible
	if n == 0 {
		v = VisibilityHidden
	}
	return &v
}

// --- View models ---

// GoalRow is one line of the goal list with its derived fields.
type GoalRow struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	StartDate        string   `json:"start_date"`
	StartDateDisplay string   `json:"start_date_disp"`
	DueDate          string   `json:"due_date"`
	DueDateDisplay   string   `json:"due_date_disp"`
	Description      string   `json:"description"`
	Display          string   `json:"display"`
	DisplayValue     int      `json:"display_value"`
	Tags             string   `json:"tags"`
	ChildrenNames    []string `json:"children_names"`
	ParentNames      []string `json:"parent_names"`
}

// GoalOption is a goal reference for pickers.
type GoalOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GoalList is the full goal listing plus every goal for the pickers.
type GoalList struct {
	Goals    []GoalRow    `json:"goals"`
	AllGoals []GoalOption `json:"all_goals"`
}

// LinkCandidate is one checkbox on a link-editing page.
type LinkCandidate struct {
	ID     int
	Name   string
	Linked bool
}

// LinkPage is the view model for editing a goal's children or parents.
type LinkPage struct {
	Goal       GoalOption
	Direction  Direction
	Candidates []LinkCandidate
}

// FieldName is the checkbox form field the page submits.
func (p *LinkPage) FieldName() string {
	if p.Direction == DirectionParents {
		return "parent_id"
	}
	return "child_id"
}
