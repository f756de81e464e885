package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cerebro/internal/app"
)

type DiagnosticHandler struct {
	materials *app.MaterialService
}

func NewDiagnosticHandler(materials *app.MaterialService) *DiagnosticHandler {
	return &DiagnosticHandler{materials: materials}
}

// TestAI makes one round-trip to the model.
func (h *DiagnosticHandler) TestAI(c *gin.Context) {
	reply, err := h.materials.Ping(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "Connection Failed",
			"reason": err.Error(),
			"error":  err.Error(),
			"code":   gatewayCode(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "Cerebro is Alive",
		"message": reply,
	})
}
