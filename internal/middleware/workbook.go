package middleware

import (
	"github.com/labstack/echo/v4"
)

// WorkbookEnsurer creates the backing document when it is missing.
type WorkbookEnsurer interface {
	Ensure() error
}

// EnsureWorkbook returns middleware that makes sure the workbook exists
// before any handler runs, so a document deleted while the server is up is
// recreated on the next request.
func EnsureWorkbook(wb WorkbookEnsurer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := wb.Ensure(); err != nil {
				return err
			}
			return next(c)
		}
	}
}
