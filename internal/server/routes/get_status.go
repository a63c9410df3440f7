package routes

import (
	"net/http"
	"time"

	"github.com/ntria/backend/internal/server/middleware"
	"github.com/ntria/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

// GetStatusHandler reports component health and knowledge-store sizes.
func GetStatusHandler(c echo.Context) error {
	type statusResponse struct {
		API        string      `json:"api"`
		Providers  []string    `json:"providers"`
		Vector     string      `json:"vector_backend"`
		WebSearch  bool        `json:"web_search_configured"`
		GraphStats graph.Stats `json:"graph"`
		Timestamp  string      `json:"timestamp"`
	}

	pipeline := c.(*middleware.AppContext).App.Pipeline

	return c.JSON(http.StatusOK, statusResponse{
		API:        "healthy",
		Providers:  pipeline.Providers(),
		Vector:     pipeline.IndexName(),
		WebSearch:  pipeline.SearchConfigured(),
		GraphStats: pipeline.Graph().Stats(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
