package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scribe/internal/api/errors"
)

// ErrorHandler turns a panic inside a handler into a JSON internal error.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := GetRequestID(c)

		if apiErr, ok := recovered.(*errors.APIError); ok {
			apiErr.RequestID = requestID
			c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
			return
		}

		logger.Error("handler panicked",
			zap.Any("recovered", recovered),
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)

		apiErr := errors.NewInternalError("Internal server error")
		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as an API error. Pipeline errors are mapped by errors.FromDomain;
// state, when non-nil, is attached so the client can re-render.
func HandleError(c *gin.Context, err error, state interface{}) {
	if err == nil {
		return
	}

	apiErr := errors.FromDomain(err)
	apiErr.RequestID = GetRequestID(c)
	if state != nil {
		apiErr.State = state
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
