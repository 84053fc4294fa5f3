package changelog

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/keyxmakerx/roadmap/internal/apperror"
	"github.com/keyxmakerx/roadmap/internal/database"
)

// ChangelogService handles the change history shown on the landing page.
type ChangelogService interface {
	// Feed returns the log newest first: by timestamp, or by date when the
	// file has no timestamp column. Rows whose date does not parse go last.
	Feed(ctx context.Context) (*Feed, error)

	// ReleaseNotes returns the workbook release notes, newest date first.
	ReleaseNotes(ctx context.Context) ([]ReleaseNote, error)

	// AddNote appends a hand-written note.
	AddNote(ctx context.Context, note, author string) error

	// Record appends an entry for a mutation made elsewhere. Failures are
	// logged, never returned, so recording cannot fail the mutation.
	Record(ctx context.Context, action, entityType string, entityID int, details string)
}

// changelogService implements ChangelogService.
type changelogService struct {
	log   LogRepository
	notes ReleaseNoteRepository
	now   func() time.Time
}

// NewChangelogService creates a ChangelogService. notes may be nil when no
// workbook is available; ReleaseNotes then returns nothing.
func NewChangelogService(log LogRepository, notes ReleaseNoteRepository) ChangelogService {
	return &changelogService{log: log, notes: notes, now: time.Now}
}

// Feed reads and sorts the log.
func (s *changelogService) Feed(ctx context.Context) (*Feed, error) {
	feed, err := s.log.ReadFeed(ctx)
	if err != nil {
		return nil, err
	}

	sortCol := ""
	switch {
	case slices.Contains(feed.Columns, "timestamp"):
		sortCol = "timestamp"
	case slices.Contains(feed.Columns, "date"):
		sortCol = "date"
	}
	if sortCol != "" {
		sortNewestFirst(feed.Rows, func(row map[string]string) string { return row[sortCol] })
	}
	return feed, nil
}

// ReleaseNotes reads and sorts the release notes.
func (s *changelogService) ReleaseNotes(ctx context.Context) ([]ReleaseNote, error) {
	if s.notes == nil {
		return nil, nil
	}
	notes, err := s.notes.List(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(notes, func(n ReleaseNote) string { return n.Date })
	return notes, nil
}

// AddNote validates and appends a note. The author, when given, prefixes
// the details.
func (s *changelogService) AddNote(ctx context.Context, note, author string) error {
	note = strings.TrimSpace(note)
	author = strings.TrimSpace(author)
	if note == "" {
		return apperror.NewBadRequest("Note is required.")
	}

	details := note
	if author != "" {
		details = author + ": " + note
	}
	err := s.log.Append(ctx, Entry{
		Timestamp:  s.now(),
		Action:     ActionNote,
		EntityType: "roadmap",
		Details:    details,
	})
	if err != nil {
		return fmt.Errorf("adding note: %w", err)
	}
	return nil
}

// Record appends a mutation entry.
func (s *changelogService) Record(ctx context.Context, action, entityType string, entityID int, details string) {
	err := s.log.Append(ctx, Entry{
		Timestamp:  s.now(),
		Action:     action,
		EntityType: entityType,
		EntityID:   strconv.Itoa(entityID),
		Details:    details,
	})
	if err != nil {
		slog.Error("failed to write changelog entry",
			slog.String("action", action),
			slog.String("entity_type", entityType),
			slog.Int("entity_id", entityID),
			slog.Any("error", err),
		)
	}
}

// sortNewestFirst orders items by descending parsed date. Items whose date
// does not parse keep their relative order after all dated ones.
func sortNewestFirst[T any](items []T, date func(T) string) {
	keys := make(map[int]time.Time, len(items))
	idx := make([]int, len(items))
	for i, item := range items {
		idx[i] = i
		if t, ok := database.ParseDateTime(date(item)); ok {
			keys[i] = t
		}
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		ta, okA := keys[a]
		tb, okB := keys[b]
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return cmp.Compare(a, b)
		}
	})

	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}
