package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
)

// ErrorHandler обрабатывает ошибки, добавленные через c.Error, если ответ ещё не отправлен.
// AppError отдаётся со своим кодом, остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		response.Error(c, err.Err)
	}
}

// Recovery превращает панику обработчика в ответ 500 с записью в лог.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Log.WithFields(logrus.Fields{
			"panic":  recovered,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("panic в обработчике")
		response.Internal(c)
		c.Abort()
	})
}
