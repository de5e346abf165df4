package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartcity/internal/apperr"
	"smartcity/internal/pkg/pagination"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func Paginated[T any](c *gin.Context, items []T, p pagination.Params, total int64) {
	c.JSON(http.StatusOK, pagination.NewPage(items, p, total))
}

// Error writes {"error": message, "code": code} and aborts the chain.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error": message,
		"code":  code,
	})
}

// FromError maps a domain error onto its status and body. Internal failures are
// logged and recorded on the context; clients get a generic message.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		_ = c.Error(err)
		log.Printf("request_failed method=%s path=%s user_id=%s error=%q", c.Request.Method, c.FullPath(), c.GetString("user_id"), err.Error())
	}
	Error(c, apperr.HTTPStatus(kind), kind.Code(), apperr.Message(err))
}

// BindError reports a malformed or incomplete request body.
func BindError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), message)
}
