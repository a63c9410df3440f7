package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ntria/backend/pkg/rag"
)

// App holds the process-lifetime handles every request shares. It is
// constructed once at startup and injected through the request context.
type App struct {
	Pipeline *rag.Pipeline
}

// AppContext wraps the echo context with the shared application handles.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the shared App into every request.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
