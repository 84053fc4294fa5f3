// Package pages holds the HTML views. Each page is an html/template file
// embedded into the binary and paired with base.html; the exported
// constructors wrap them as templ components so handlers render every view
// through middleware.Render.
//
// Page data is accepted as `any` so this package never imports the plugins
// that render it.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/roadmap/internal/templates/layouts"
)

//go:embed html/*.html
var files embed.FS

var funcs = template.FuncMap{
	"join": strings.Join,
	// linkKinds names the quick-link sides, matching the add-<kind> and
	// create-and-link-<kind> endpoints.
	"linkKinds": func() []string { return []string{"parent", "child"} },
}

var (
	landingPage = parse("landing.html")
	goalsPage   = parse("goals.html")
	linksPage   = parse("links.html")
	mindMapPage = parse("mindmap.html")
	ganttPage   = parse("gantt.html")
	sankeyPage  = parse("sankey.html")
	lockedPage  = parse("locked.html")
	errorPage   = parse("error.html")
)

// parse builds a template set rooted at base.html with the page's "title"
// and "content" blocks.
func parse(page string) *template.Template {
	return template.Must(template.New("base.html").Funcs(funcs).
		ParseFS(files, "html/base.html", "html/"+page))
}

// view is the value every page template executes against.
type view struct {
	Layout layouts.Data
	Page   any
}

// component renders t with the layout data found in the render context.
func component(t *template.Template, page any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		data := view{Layout: layouts.FromContext(ctx), Page: page}
		return templ.FromGoHTML(t, data).Render(ctx, w)
	})
}

// LandingData is the landing page model: the change feed and the release
// notes kept in the workbook.
type LandingData struct {
	Columns      []string
	Rows         []map[string]string
	ReleaseNotes any
}

// Landing renders the change feed.
func Landing(data LandingData) templ.Component {
	return component(landingPage, data)
}

// Goals renders the goal list.
func Goals(list any) templ.Component {
	return component(goalsPage, list)
}

// Links renders a child or parent link editor.
func Links(page any) templ.Component {
	return component(linksPage, page)
}

// MindMap renders the mind-map view with its JSON payload.
func MindMap(payload any) templ.Component {
	return component(mindMapPage, payload)
}

// Gantt renders the Gantt view with its JSON payload.
func Gantt(payload any) templ.Component {
	return component(ganttPage, payload)
}

// SankeyData pairs the Sankey payload with the drawing height.
type SankeyData struct {
	Payload any
	Height  int
}

// Sankey renders the Sankey view.
func Sankey(payload any, height int) templ.Component {
	return component(sankeyPage, SankeyData{Payload: payload, Height: height})
}

// LockedData is the model of the "File Locked" page.
type LockedData struct {
	Message  string
	FileName string
}

// Locked renders the "File Locked" page shown with status 423 for the
// workbook file named file.
func Locked(message, file string) templ.Component {
	return component(lockedPage, LockedData{Message: message, FileName: file})
}

// ErrorData is the model of the generic error page.
type ErrorData struct {
	Status  int
	Message string
}

// Error renders a generic error page.
func Error(status int, message string) templ.Component {
	return component(errorPage, ErrorData{Status: status, Message: message})
}
