// Package charts builds the payloads behind the mind-map, Gantt and Sankey
// views. Layout happens in the browser; this package only filters hidden
// goals and shapes goals and edges into the JSON each view consumes.
package charts

// ChartGoal is a goal as the chart views see it. Dates are YYYY-MM-DD or "".
type ChartGoal struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	Due   string `json:"due"`
	Tags  string `json:"tags"`
}

// Edge is a parent → child link between two charted goals.
type Edge struct {
	Parent int `json:"parent"`
	Child  int `json:"child"`
}

// MindMapPayload feeds the mind-map view.
type MindMapPayload struct {
	Goals []ChartGoal `json:"goals"`
	Edges []Edge      `json:"edges"`
}

// GanttIndex holds the adjacency indexes the Gantt view groups rows by.
// ParentByChild keeps one parent per child: the last edge listed wins.
type GanttIndex struct {
	ChildrenByParent map[int][]int `json:"children_by_parent"`
	ParentByChild    map[int]int   `json:"parent_by_child"`
}

// GanttPayload feeds the Gantt view.
type GanttPayload struct {
	Goals         []ChartGoal `json:"goals"`
	Relationships GanttIndex  `json:"relationships"`
}

// SankeyPayload feeds the Sankey view. Tags is the sorted distinct set of
// tags across the charted goals.
type SankeyPayload struct {
	Goals []ChartGoal `json:"goals"`
	Edges []Edge      `json:"edges"`
	Tags  []string    `json:"tags"`
}
