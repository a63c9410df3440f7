package server

import (
	"github.com/ntria/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api/v1")

	// Chat routes
	apiRoutes.POST("/chat", routes.ChatHandler)
	apiRoutes.POST("/chat/verified", routes.VerifiedChatHandler)

	// Tax calculator route
	apiRoutes.POST("/calculate", routes.CalculateHandler)

	// Knowledge graph routes
	apiRoutes.GET("/entities", routes.GetEntitiesHandler)
	apiRoutes.GET("/status", routes.GetStatusHandler)
}
