package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
)

const WebhookTokenHeader = "X-Webhook-Token"

// WebhookToken сверяет заголовок X-Webhook-Token с bcrypt-хэшем из конфигурации.
// Пустой хэш выключает приём: все запросы отклоняются.
func WebhookToken(tokenHash string) gin.HandlerFunc {
	hash := []byte(tokenHash)
	return func(c *gin.Context) {
		token := c.GetHeader(WebhookTokenHeader)
		if len(hash) == 0 || token == "" || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			response.Unauthorized(c, "неверный токен вебхука")
			c.Abort()
			return
		}
		c.Next()
	}
}
