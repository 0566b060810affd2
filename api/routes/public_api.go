package routes

import (
	"chirp/api/handlers"
	"chirp/api/middleware"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine, provider services.IdentityProvider) *gin.RouterGroup {
	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.GET("posts", handlers.GetFeed)
		publicEndpoints.GET("posts/latest", handlers.GetLatestPost)
		publicEndpoints.GET("users/:user_id/posts", handlers.GetPostsByUser)
		publicEndpoints.GET("profile/:username", handlers.GetUserByUsername)
		// Лента публичная, но если токен передан - знаем подписчика
		publicEndpoints.GET("feed/ws", middleware.OptionalAuthMiddleware(provider), handlers.WSFeedHandler)
	}

	privateEndpoints := router.Group("/api/v1/", middleware.AuthMiddleware(provider))
	{
		privateEndpoints.POST("posts", handlers.CreatePost)
	}
	return publicEndpoints
}
