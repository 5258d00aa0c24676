package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/pkg/logger"
)

// Recovery turns a panic in a later handler into a logged 500 envelope.
// The panic value is returned to the client only when exposeErrors is set.
func Recovery(log *zap.Logger, exposeErrors bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rvr := recover(); rvr != nil {
				logger.WithContext(c.Request.Context(), log).Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				handler.AbortInternal(c, fmt.Sprint(rvr), exposeErrors)
			}
		}()

		c.Next()
	}
}
