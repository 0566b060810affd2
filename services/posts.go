package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chirp/db"
	"chirp/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FeedPageSize    = 100 // максимум постов в общей ленте
	ProfilePageSize = 6   // максимум постов на странице профиля
)

type PostService struct {
	provider IdentityProvider
	limiter  Admitter
}

func NewPostService(provider IdentityProvider, limiter Admitter) *PostService {
	return &PostService{provider: provider, limiter: limiter}
}

// GetLatest возвращает самый свежий пост без джойна автора.
// Пустая база - nil без ошибки.
func (ps *PostService) GetLatest(ctx context.Context) (*models.Post, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).
		Order("created_at DESC, id DESC").
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest post: %w", err)
	}
	return &post, nil
}

// GetAll возвращает ленту: до 100 свежих постов с данными авторов,
// новые первыми
func (ps *PostService) GetAll(ctx context.Context) ([]models.FeedPost, error) {
	var posts []models.Post
	err := db.GetReadOnlyDB(ctx).
		Order("created_at DESC, id DESC").
		Limit(FeedPageSize).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}

	return ps.attachAuthors(ctx, posts, FeedPageSize)
}

// GetPostsByUserID - посты одного автора для страницы профиля
func (ps *PostService) GetPostsByUserID(ctx context.Context, userID string) ([]models.FeedPost, error) {
	var posts []models.Post
	err := db.GetReadOnlyDB(ctx).
		Where("author_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(ProfilePageSize).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get posts for user %s: %w", userID, err)
	}

	return ps.attachAuthors(ctx, posts, ProfilePageSize)
}

// attachAuthors джойнит страницу постов с identity-записями из
// провайдера. Порядок постов авторитетный, после джойна не пересортируем.
// Политика fail-fast: лента с неразрешимым автором - битый ответ,
// роняем весь запрос, а не отдельную строку.
func (ps *PostService) attachAuthors(ctx context.Context, posts []models.Post, limit int) ([]models.FeedPost, error) {
	feed := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return feed, nil
	}

	// Дубликаты id допустимы, провайдер обязан их переносить
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.AuthorID)
	}

	authors, err := ps.provider.GetUsersByID(ctx, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch authors: %w", err)
	}

	byID := make(map[string]models.Identity, len(authors))
	for _, author := range authors {
		byID[author.ID] = author
	}

	for _, post := range posts {
		author, ok := byID[post.AuthorID]
		if !ok {
			log.Printf("ERROR: author not found for post %s (author_id=%s)", post.ID, post.AuthorID)
			return nil, fmt.Errorf("%w: post %s", ErrAuthorNotFound, post.ID)
		}
		if err := resolveDisplayName(&author); err != nil {
			return nil, err
		}
		feed = append(feed, models.FeedPost{Post: post, Author: author})
	}
	return feed, nil
}

// resolveDisplayName гарантирует, что у автора есть отображаемое имя:
// основной username, иначе username привязанного внешнего аккаунта.
// Нет ни того ни другого - инвариант ленты нарушен.
func resolveDisplayName(author *models.Identity) error {
	if author.Name != "" {
		return nil
	}
	if author.ExternalUsername != nil && *author.ExternalUsername != "" {
		author.Name = *author.ExternalUsername
		return nil
	}
	log.Printf("ERROR: author %s has no resolvable display name", author.ID)
	return fmt.Errorf("%w: author %s has no display name", ErrAuthorNotFound, author.ID)
}

// Create добавляет новый пост. Порядок проверок: идентичность вызывающего,
// валидация контента, допуск лимитером. Отказ лимитера не оставляет
// побочных эффектов в хранилище.
func (ps *PostService) Create(ctx context.Context, authorID string, content string) (*models.Post, error) {
	if authorID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateEmojiContent(content); err != nil {
		return nil, err
	}

	ok, err := ps.limiter.Admit(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: author %s", ErrTooManyRequests, authorID)
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.GetWriteDB(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	// Живая лента: событие уходит best-effort, ошибки пуша не
	// роняют создание поста
	go publishCreated(context.Background(), post)

	return post, nil
}

// publishCreated отправляет событие о новом посте в RabbitMQ, при
// недоступности брокера - напрямую в WebSocket
func publishCreated(ctx context.Context, post *models.Post) {
	event := PostEvent{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}
	if err := PublishPostEvent(ctx, event); err != nil {
		log.Printf("DEBUG: RabbitMQ unavailable, pushing post %s over WebSocket directly: %v", post.ID, err)
		BroadcastPostEvent(event)
	}
}
