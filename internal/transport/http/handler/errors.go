package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cerebro/internal/ai"
	"cerebro/internal/app"
	"cerebro/internal/transport/http/response"
)

// writeServiceError maps service and gateway failures onto HTTP statuses.
// Messages are surfaced verbatim; they never carry credentials.
func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ingestErr *app.IngestionError
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrHistoryEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeHistoryEmpty, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.As(err, &ingestErr):
		response.ErrorWithID(c, http.StatusInternalServerError, gatewayCode(err), err.Error(), ingestErr.MaterialID)
	case errors.Is(err, ai.ErrGateway):
		response.Error(c, http.StatusInternalServerError, gatewayCode(err), err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
	}
}

func gatewayCode(err error) int {
	switch {
	case errors.Is(err, ai.ErrGatewayTimeout):
		return response.CodeGatewayTimeout
	case errors.Is(err, ai.ErrGateway):
		return response.CodeGateway
	default:
		return response.CodeInternalServer
	}
}
