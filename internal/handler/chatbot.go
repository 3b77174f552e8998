package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/ai"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// ChatbotHandler proxies assistant conversations.  The API key stays
// server-side; clients send a message plus their recent history and get
// free text back.
type ChatbotHandler struct {
	AI *ai.Client
}

func NewChatbotHandler(client *ai.Client) *ChatbotHandler {
	return &ChatbotHandler{AI: client}
}

type chatReq struct {
	Message string       `json:"message"`
	History []ai.Message `json:"history"`
}

// Chat forwards one turn to the assistant.
func (h *ChatbotHandler) Chat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "message is required"))
	}
	if len(req.Message) > 2000 {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "message too long"))
	}

	reply, err := h.AI.Reply(c.Request().Context(), strings.TrimSpace(req.Message), req.History)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrTimeout):
			return c.JSON(http.StatusServiceUnavailable, utils.Fail(utils.CodeAITimeout, "assistant did not answer in time"))
		case errors.Is(err, ai.ErrNotConfigured):
			return c.JSON(http.StatusServiceUnavailable, utils.Fail(utils.CodeInternal, "assistant is not available"))
		default:
			return c.JSON(http.StatusBadGateway, utils.Fail(utils.CodeInternal, "assistant request failed"))
		}
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"reply": reply}))
}
