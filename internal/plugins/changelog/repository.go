package changelog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/keyxmakerx/roadmap/internal/database"
)

// LogRepository defines the data access contract for the log file.
type LogRepository interface {
	// ReadAll returns every entry in file order. A missing file is empty.
	ReadAll(ctx context.Context) ([]Entry, error)

	// Append adds one entry and rewrites the whole file. Columns the file
	// already has are kept; the standard columns are added if missing.
	Append(ctx context.Context, e Entry) error

	// ReadFeed returns the file with all of its columns, unsorted.
	ReadFeed(ctx context.Context) (*Feed, error)
}

// csvRepository implements LogRepository on a CSV file.
type csvRepository struct {
	path string

	// mu serializes appends within this process. Appends from other
	// processes can still race.
	mu sync.Mutex
}

// NewLogRepository creates a LogRepository for the CSV file at path. The
// file is created on the first append.
func NewLogRepository(path string) LogRepository {
	return &csvRepository{path: path}
}

// ReadAll parses the standard columns of every row.
func (r *csvRepository) ReadAll(ctx context.Context) ([]Entry, error) {
	feed, err := r.ReadFeed(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(feed.Rows))
	for _, row := range feed.Rows {
		ts, _ := database.ParseDateTime(row["timestamp"])
		entries = append(entries, Entry{
			Timestamp:  ts,
			Action:     row["action"],
			EntityType: row["entity_type"],
			EntityID:   row["entity_id"],
			Details:    row["details"],
		})
	}
	return entries, nil
}

// ReadFeed reads the file generically.
func (r *csvRepository) ReadFeed(ctx context.Context) (*Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	header, rows, err := r.load()
	if err != nil {
		return nil, err
	}

	feed := &Feed{Columns: header, Rows: make([]map[string]string, 0, len(rows))}
	for _, cells := range rows {
		feed.Rows = append(feed.Rows, zip(header, cells))
	}
	return feed, nil
}

// Append rewrites the file with e added at the end. The new content goes to
// a temporary file that then replaces the log, so a failed write leaves the
// previous log in place.
func (r *csvRepository) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	header, rows, err := r.load()
	if err != nil {
		return err
	}
	if len(header) == 0 {
		header = slices.Clone(logColumns)
	}
	for _, col := range logColumns {
		if !slices.Contains(header, col) {
			header = append(header, col)
		}
	}

	fields := e.record()
	line := make([]string, len(header))
	for i, col := range header {
		line[i] = fields[col]
	}

	return r.write(header, append(rows, line))
}

// load reads the header (lowercased) and the data rows. A missing or empty
// file yields no header and no rows.
func (r *csvRepository) load() ([]string, [][]string, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening changelog: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading changelog header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading changelog: %w", err)
	}
	return header, rows, nil
}

// write replaces the file with header and rows.
func (r *csvRepository) write(header []string, rows [][]string) error {
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".changelog-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp changelog: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing changelog header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing changelog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp changelog: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replacing changelog: %w", err)
	}
	return nil
}

// zip pairs header names with cells. Short rows get blanks; cells beyond
// the header are dropped.
func zip(header, cells []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		if i < len(cells) {
			row[col] = cells[i]
		} else {
			row[col] = ""
		}
	}
	return row
}

// ReleaseNoteRepository reads the release notes table of the workbook.
type ReleaseNoteRepository interface {
	List(ctx context.Context) ([]ReleaseNote, error)
}

type releaseNoteRepository struct {
	wb *database.Workbook
}

// NewReleaseNoteRepository creates a ReleaseNoteRepository on the workbook.
func NewReleaseNoteRepository(wb *database.Workbook) ReleaseNoteRepository {
	return &releaseNoteRepository{wb: wb}
}

// List returns the release notes in table order.
func (r *releaseNoteRepository) List(ctx context.Context) ([]ReleaseNote, error) {
	tbl, err := r.wb.ReadTable(ctx, database.ChangelogSchema)
	if err != nil {
		return nil, fmt.Errorf("reading release notes: %w", err)
	}

	notes := make([]ReleaseNote, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		notes = append(notes, ReleaseNote{
			Date:    database.NormalizeDate(row.Get("date")),
			Version: row.Get("version"),
			Note:    row.Get("note"),
			Author:  row.Get("author"),
		})
	}
	return notes, nil
}
