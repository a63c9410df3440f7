package routes

import (
	"net/http"

	"github.com/ntria/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetEntitiesHandler lists the entities in the knowledge graph grouped by
// type, optionally filtered with ?type=.
func GetEntitiesHandler(c echo.Context) error {
	type entitiesResponse struct {
		Entities map[string][]string `json:"entities"`
	}

	graph := c.(*middleware.AppContext).App.Pipeline.Graph()
	typeFilter := c.QueryParam("type")

	entities := map[string][]string{}

	if typeFilter != "" {
		for _, node := range graph.NodesByType(typeFilter) {
			entities[typeFilter] = append(entities[typeFilter], nodeName(node.Properties, node.ID))
		}
		return c.JSON(http.StatusOK, entitiesResponse{Entities: entities})
	}

	stats := graph.Stats()
	for nodeType := range stats.NodeTypes {
		for _, node := range graph.NodesByType(nodeType) {
			entities[nodeType] = append(entities[nodeType], nodeName(node.Properties, node.ID))
		}
	}

	return c.JSON(http.StatusOK, entitiesResponse{Entities: entities})
}

func nodeName(properties map[string]any, fallback string) string {
	if name, ok := properties["name"].(string); ok && name != "" {
		return name
	}
	return fallback
}
