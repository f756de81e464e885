package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cerebro/internal/app"
	"cerebro/internal/transport/http/middleware"
	"cerebro/internal/transport/http/response"
)

type ChatHandler struct {
	agent *app.AgentService
}

func NewChatHandler(agent *app.AgentService) *ChatHandler {
	return &ChatHandler{agent: agent}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	reset, _ := strconv.ParseBool(c.Query("new_chat"))
	result, err := h.agent.Chat(c.Request.Context(), app.ChatInput{
		SessionID: middleware.SessionID(c),
		Query:     c.Query("ask"),
		Reset:     reset,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if result.Cleared {
		response.OK(c, gin.H{"status": "cleared"})
		return
	}
	response.OK(c, result)
}

// Export sends the most recent agent answer as a text attachment.
func (h *ChatHandler) Export(c *gin.Context) {
	answer, err := h.agent.LastAnswer(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	fileName := fmt.Sprintf("cerebro-answer-%s.txt", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(answer))
}

func (h *ChatHandler) Exchanges(c *gin.Context) {
	limit := 100
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	sessionID := middleware.SessionID(c)
	list, err := h.agent.Exchanges(c.Request.Context(), sessionID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{
		"session_id": sessionID,
		"count":      len(list),
		"exchanges":  list,
	})
}
