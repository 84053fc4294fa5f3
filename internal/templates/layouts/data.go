// data.go provides typed context helpers for passing layout data from
// middleware to the page templates. Only simple types are stored so the
// layouts package never imports plugin types.
//
// Data flow: Middleware → Echo Context → LayoutInjector → Go Context → page template
package layouts

import (
	"context"
	"strings"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyActivePath   ctxKey = "layout_active_path"
	keyWorkbookPath ctxKey = "layout_workbook_path"
	keyRequestID    ctxKey = "layout_request_id"
)

// NavItem is one entry of the top navigation bar.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// navLinks lists the pages reachable from every layout.
var navLinks = []NavItem{
	{Label: "Changelog", Href: "/"},
	{Label: "Goals", Href: "/goals"},
	{Label: "Mind map", Href: "/mindmap"},
	{Label: "Gantt", Href: "/gantt"},
	{Label: "Sankey", Href: "/sankey"},
}

// Data is the snapshot of layout values a page template reads.
type Data struct {
	ActivePath   string
	WorkbookPath string
	RequestID    string
	Nav          []NavItem
}

// FromContext collects the layout values stored in ctx. The nav entry
// matching the active path is marked active; link editors highlight Goals.
func FromContext(ctx context.Context) Data {
	d := Data{
		ActivePath:   GetActivePath(ctx),
		WorkbookPath: GetWorkbookPath(ctx),
		RequestID:    GetRequestID(ctx),
		Nav:          make([]NavItem, len(navLinks)),
	}
	copy(d.Nav, navLinks)
	for i := range d.Nav {
		d.Nav[i].Active = isActive(d.Nav[i].Href, d.ActivePath)
	}
	return d
}

func isActive(href, path string) bool {
	switch href {
	case "/":
		return path == "/"
	case "/goals":
		return path == "/goals" || strings.HasPrefix(path, "/links/")
	default:
		return path == href
	}
}

// --- Setters (called by the layout injector in app/routes.go) ---

// SetActivePath stores the current request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// SetWorkbookPath stores the absolute workbook location shown in the footer
// and on the locked page.
func SetWorkbookPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyWorkbookPath, path)
}

// SetRequestID stores the request id so error pages can quote it.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// --- Getters (called by page templates) ---

// GetActivePath returns the current request path for nav highlighting.
func GetActivePath(ctx context.Context) string {
	path, _ := ctx.Value(keyActivePath).(string)
	return path
}

// GetWorkbookPath returns the workbook location, or "".
func GetWorkbookPath(ctx context.Context) string {
	path, _ := ctx.Value(keyWorkbookPath).(string)
	return path
}

// GetRequestID returns the request id, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}
