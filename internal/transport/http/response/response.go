package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest     = 40000
	CodeUploadTooLarge = 40001
	CodeHistoryEmpty   = 40002
	CodeNotFound       = 40400
	CodeInternalServer = 50000
	CodeGateway        = 50001
	CodeGatewayTimeout = 50002
)

// ErrorBody is the shape of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	ID    *uint  `json:"id,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, ErrorBody{
		Error: message,
		Code:  code,
	})
}

// ErrorWithID reports a failure that still produced a persisted record.
func ErrorWithID(c *gin.Context, httpStatus, code int, message string, id uint) {
	c.JSON(httpStatus, ErrorBody{
		Error: message,
		Code:  code,
		ID:    &id,
	})
}
