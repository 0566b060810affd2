package handlers

import (
	"errors"
	"log"
	"net/http"

	"chirp/api/middleware"
	"chirp/models"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

var postService *services.PostService

// SetPostService связывает хендлеры с сервисом постов (вызывается при
// старте сервера и в тестах)
func SetPostService(ps *services.PostService) {
	postService = ps
}

// respondError маппит классификацию ошибок сервиса в HTTP статусы.
// Внутренний класс (author/user not found) наружу не раскрывается:
// детали в логах, клиенту - generic 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, services.ErrTooManyRequests):
		middleware.RecordRateLimited()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Slow down! You are posting too fast"})
	default:
		if errors.Is(err, services.ErrAuthorNotFound) || errors.Is(err, services.ErrUserNotFound) {
			middleware.RecordJoinFailure()
		}
		log.Printf("ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// GetLatestPost возвращает самый свежий пост или null
func GetLatestPost(c *gin.Context) {
	post, err := postService.GetLatest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetFeed возвращает общую ленту с данными авторов
func GetFeed(c *gin.Context) {
	feed, err := postService.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.FeedResponse{Posts: feed})
}

// GetPostsByUser возвращает посты одного автора (страница профиля)
func GetPostsByUser(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	feed, err := postService.GetPostsByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.FeedResponse{Posts: feed})
}

// CreatePost создает новый пост от имени аутентифицированного вызывающего
func CreatePost(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "field": "content"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	post, err := postService.Create(c.Request.Context(), userID.(string), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.RecordPostCreated()
	c.JSON(http.StatusCreated, post)
}
