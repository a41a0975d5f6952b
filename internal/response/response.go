package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practice-scheduler/internal/apperr"
)

// Error writes {"error": message} with the status of the AppError behind err.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = apperr.ErrInternal
	}
	ae := apperr.From(err)
	status := ae.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := ae.Message
	if ae.Code == apperr.ErrInternal.Code {
		// never leak wrapped internals
		msg = apperr.ErrInternal.Message
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func JSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}
