package routes

import (
	"net/http"

	"github.com/ntria/backend/internal/server/middleware"
	"github.com/ntria/backend/pkg/logger"
	"github.com/ntria/backend/pkg/rag"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type chatBody struct {
	Message             string                 `json:"message" validate:"required,min=2"`
	SessionID           string                 `json:"session_id"`
	ConversationHistory []rag.ConversationTurn `json:"conversation_history" validate:"dive"`
}

type chatResponse struct {
	Message string `json:"message,omitempty"`
	*rag.Response
	SessionID string `json:"session_id,omitempty"`
}

// ChatHandler answers a tax question through the full retrieval pipeline.
func ChatHandler(c echo.Context) error {
	return handleChat(c, false)
}

// VerifiedChatHandler answers like ChatHandler and additionally runs the
// second-pass fact check, attaching its judgment to the response.
func VerifiedChatHandler(c echo.Context) error {
	return handleChat(c, true)
}

func handleChat(c echo.Context, verify bool) error {
	data := new(chatBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, chatResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, chatResponse{
			Message: "Invalid request body",
		})
	}

	sessionID := data.SessionID
	if sessionID == "" {
		id, err := gonanoid.New()
		if err != nil {
			logger.Error("Failed to generate session id", "err", err)
			return c.JSON(http.StatusInternalServerError, chatResponse{
				Message: "Internal server error",
			})
		}
		sessionID = id
	}

	pipeline := c.(*middleware.AppContext).App.Pipeline
	ctx := c.Request().Context()

	response := pipeline.Answer(ctx, data.Message, data.ConversationHistory, verify)

	return c.JSON(http.StatusOK, chatResponse{
		Response:  response,
		SessionID: sessionID,
	})
}
