// Package app is the application bootstrap and dependency injection root.
// It creates the shared infrastructure (workbook, Echo instance) and wires
// together all plugins and widgets.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/apperror"
	"github.com/keyxmakerx/roadmap/internal/config"
	"github.com/keyxmakerx/roadmap/internal/database"
	"github.com/keyxmakerx/roadmap/internal/middleware"
	"github.com/keyxmakerx/roadmap/internal/templates/pages"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Workbook is the spreadsheet shared by all plugins.
	Workbook *database.Workbook

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance for cfg and configures the Echo server
// with global middleware and error handling.
func New(cfg *config.Config) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config:   cfg,
		Workbook: database.NewWorkbook(cfg.Workbook.Path),
		Echo:     e,
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: the request logger is outermost so it sees the final
// status, including the 500 that Recovery turns a panic into.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.SecurityHeaders())

	// Recreate the workbook if it disappeared while the server runs.
	a.Echo.Use(middleware.EnsureWorkbook(a.Workbook))
}

// errorResponse is the failure body of every JSON endpoint.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// errorHandler is the custom Echo error handler. JSON-style requests get
// {ok:false, error}; browsers get the "File Locked" page for a locked
// workbook and the generic error page otherwise.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var message string

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
	case errors.As(err, &echoErr):
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	default:
		message = apperror.NewUnexpected(err).Message
	}

	attrs := []any{
		slog.Int("status", code),
		slog.String("path", c.Request().URL.Path),
		slog.String("request_id", middleware.RequestID(c)),
		slog.Any("error", err),
	}
	switch {
	case code == apperror.StatusLocked:
		slog.Warn("workbook locked", attrs...)
	case code >= http.StatusInternalServerError:
		slog.Error("request failed", attrs...)
	}

	if isJSONRequest(c) {
		if err := c.JSON(code, errorResponse{OK: false, Error: message}); err != nil {
			slog.Error("writing error response", slog.Any("error", err))
		}
		return
	}

	page := pages.Error(code, message)
	if code == apperror.StatusLocked {
		page = pages.Locked(message, a.Workbook.FileName())
	}
	if err := middleware.Render(c, code, page); err != nil {
		slog.Error("rendering error page", slog.Any("error", err))
	}
}

// isJSONRequest reports whether the failed request expects a JSON body:
// the inline /goals/... endpoints, or any client asking for JSON.
func isJSONRequest(c echo.Context) bool {
	req := c.Request()
	if req.Method == http.MethodPost && strings.HasPrefix(req.URL.Path, "/goals/") {
		return true
	}
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting roadmap server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("workbook", a.Workbook.AbsPath()),
	)
	return a.Echo.Start(addr)
}
