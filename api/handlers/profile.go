package handlers

import (
	"net/http"

	"chirp/services"

	"github.com/gin-gonic/gin"
)

var identityProvider services.IdentityProvider

func SetIdentityProvider(provider services.IdentityProvider) {
	identityProvider = provider
}

// GetUserByUsername - профиль пользователя по username
func GetUserByUsername(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	user, err := identityProvider.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
