package middleware

import (
	"net/http"
	"strings"

	"chirp/services"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware резолвит bearer-токен сессии в id пользователя через
// identity-провайдера. Без валидной сессии запрос обрывается с 401 до
// любых проверок квоты.
func AuthMiddleware(provider services.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: provide Authorization Bearer token"})
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := provider.VerifySession(c.Request.Context(), token)
		if err != nil || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuthMiddleware - то же самое, но без обрыва запроса: публичные
// эндпоинты могут знать вызывающего, если токен передан
func OptionalAuthMiddleware(provider services.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if userID, err := provider.VerifySession(c.Request.Context(), token); err == nil && userID != "" {
				c.Set("user_id", userID)
			}
		}
		c.Next()
	}
}
