package app

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/middleware"
	"github.com/keyxmakerx/roadmap/internal/plugins/changelog"
	"github.com/keyxmakerx/roadmap/internal/plugins/goals"
	"github.com/keyxmakerx/roadmap/internal/templates/layouts"
	"github.com/keyxmakerx/roadmap/internal/widgets/charts"
)

// RegisterRoutes wires every plugin and widget and registers its routes.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Copy layout data into the render context for every templated page.
	workbookPath := a.Workbook.AbsPath()
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
		ctx = layouts.SetWorkbookPath(ctx, workbookPath)
		ctx = layouts.SetRequestID(ctx, middleware.RequestID(c))
		return ctx
	}

	// Health check endpoint.
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Changelog plugin (landing page) ---
	logRepo := changelog.NewLogRepository(a.Config.Changelog.Path)
	notesRepo := changelog.NewReleaseNoteRepository(a.Workbook)
	changelogSvc := changelog.NewChangelogService(logRepo, notesRepo)
	changelog.RegisterRoutes(e, changelog.NewHandler(changelogSvc))

	// --- Goals plugin ---
	var recorder goals.ChangeRecorder
	if a.Config.Changelog.RecordChanges {
		recorder = changelogSvc
	}
	goalSvc := goals.NewGoalService(
		goals.NewGoalRepository(a.Workbook),
		goals.NewRelationshipRepository(a.Workbook),
		recorder,
	)
	goals.RegisterRoutes(e, goals.NewHandler(goalSvc))

	// --- Chart widgets ---
	chartSvc := charts.NewChartService(goalSvc)
	charts.RegisterRoutes(e, charts.NewHandler(chartSvc, a.Config.Charts.SankeyHeight))
}
