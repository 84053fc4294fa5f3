// Package changelog provides the roadmap's change history. Two sources feed
// the landing page: an append-only CSV log (one line per goal or link
// mutation, plus notes people add by hand) and the release notes kept in
// the workbook's changelog table.
//
// The log never touches the goal tables; it only records observations
// about changes made elsewhere.
package changelog

import "time"

// --- Action Constants ---
// Actions recorded by the goals plugin are defined there; this package only
// adds the one it writes itself.

const (
	// ActionNote is logged when someone adds a note from the landing page.
	ActionNote = "note"
)

// TimestampLayout is how entry timestamps are written: local time to the
// second.
const TimestampLayout = "2006-01-02T15:04:05"

// logColumns is the header of a log file this package creates.
var logColumns = []string{"timestamp", "action", "entity_type", "entity_id", "details"}

// Entry is one line of the log file.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`
}

// record renders the entry as a field map keyed by column name.
func (e Entry) record() map[string]string {
	return map[string]string{
		"timestamp":   e.Timestamp.Format(TimestampLayout),
		"action":      e.Action,
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"details":     e.Details,
	}
}

// Feed is the log read generically: whatever columns the file has
// (lowercased) and one map per row.
type Feed struct {
	Columns []string
	Rows    []map[string]string
}

// ReleaseNote is one row of the workbook's changelog table.
type ReleaseNote struct {
	Date    string `json:"date"`
	Version string `json:"version"`
	Note    string `json:"note"`
	Author  string `json:"author"`
}
