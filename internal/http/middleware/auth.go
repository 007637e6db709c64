package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextSubjectKey = "subject"
	ContextRoleKey    = "role"
)

// AuthMiddleware проверяет JWT access токен сотрудника.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		subject, role, err := tokens.ParseAccess(raw)
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		c.Set(ContextSubjectKey, subject)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// RequireRole пропускает только перечисленные роли. Ставится после AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "недостаточно прав")
		c.Abort()
	}
}
