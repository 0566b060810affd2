package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chirp/api/middleware"
	"chirp/db"
	"chirp/models"
	"chirp/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeProvider struct {
	users map[string]models.Identity
}

func newFakeProvider(users ...models.Identity) *fakeProvider {
	fp := &fakeProvider{users: make(map[string]models.Identity)}
	for _, u := range users {
		fp.users[u.ID] = u
	}
	return fp
}

func (f *fakeProvider) GetUsersByID(_ context.Context, ids []string, _ int) ([]models.Identity, error) {
	seen := make(map[string]bool)
	var out []models.Identity
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetUserByUsername(_ context.Context, username string) (*models.Identity, error) {
	for _, u := range f.users {
		if u.Name == username {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", services.ErrUserNotFound, username)
}

func (f *fakeProvider) VerifySession(_ context.Context, token string) (string, error) {
	for id := range f.users {
		if token == "token_"+id {
			return id, nil
		}
	}
	return "", services.ErrUnauthorized
}

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&models.Post{}))

	prev := db.ORM
	db.ORM = gormDB
	t.Cleanup(func() { db.ORM = prev })
}

func setupRouter(t *testing.T, provider services.IdentityProvider, limiter services.Admitter) *gin.Engine {
	t.Helper()
	setupTestDB(t)

	SetPostService(services.NewPostService(provider, limiter))
	SetIdentityProvider(provider)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/posts", GetFeed)
	r.GET("/api/v1/posts/latest", GetLatestPost)
	r.GET("/api/v1/users/:user_id/posts", GetPostsByUser)
	r.GET("/api/v1/profile/:username", GetUserByUsername)
	r.POST("/api/v1/posts", middleware.AuthMiddleware(provider), CreatePost)
	return r
}

func doCreate(r *gin.Engine, token, content string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"content": content})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func insertPostRow(t *testing.T, authorID string, createdAt time.Time) models.Post {
	t.Helper()
	post := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   "🎉",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.ORM.Create(&post).Error)
	return post
}

func TestCreatePostEndpoint(t *testing.T) {
	provider := newFakeProvider(models.Identity{ID: "user_1", Name: "alice"})
	r := setupRouter(t, provider, services.NewMemoryLimiter(3, time.Minute))

	// без токена пишущий запрос обрывается до проверки квоты
	w := doCreate(r, "", "😀")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doCreate(r, "bad_token", "😀")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// не-эмодзи контент
	w = doCreate(r, "token_user_1", "hello")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// три поста в окне проходят
	for i := 0; i < 3; i++ {
		w = doCreate(r, "token_user_1", "😀")
		require.Equal(t, http.StatusCreated, w.Code)

		var post models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		require.Equal(t, "user_1", post.AuthorID)
		require.NotEmpty(t, post.ID)
	}

	// четвертый - отказ лимитера с отдельным статусом
	w = doCreate(r, "token_user_1", "😀")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGetFeedEndpoint(t *testing.T) {
	provider := newFakeProvider(
		models.Identity{ID: "user_1", Name: "alice"},
		models.Identity{ID: "user_2", Name: "bob"},
	)
	r := setupRouter(t, provider, services.NewMemoryLimiter(3, time.Minute))

	base := time.Now().UTC().Truncate(time.Second)
	insertPostRow(t, "user_1", base.Add(-time.Minute))
	insertPostRow(t, "user_2", base)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.FeedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 2)
	require.Equal(t, "bob", resp.Posts[0].Author.Name)
	for _, fp := range resp.Posts {
		require.Equal(t, fp.Post.AuthorID, fp.Author.ID)
	}
}

func TestGetFeedJoinFailureIsOpaque(t *testing.T) {
	provider := newFakeProvider(models.Identity{ID: "user_1", Name: "alice"})
	r := setupRouter(t, provider, services.NewMemoryLimiter(3, time.Minute))

	insertPostRow(t, "user_ghost", time.Now().UTC())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// внутренняя ошибка наружу не раскрывается
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestGetPostsByUserEndpoint(t *testing.T) {
	provider := newFakeProvider(models.Identity{ID: "user_1", Name: "alice"})
	r := setupRouter(t, provider, services.NewMemoryLimiter(3, time.Minute))

	base := time.Now().UTC()
	for i := 0; i < 8; i++ {
		insertPostRow(t, "user_1", base.Add(-time.Duration(i)*time.Second))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user_1/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.FeedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, services.ProfilePageSize)
}

func TestGetLatestEndpoint(t *testing.T) {
	provider := newFakeProvider()
	r := setupRouter(t, provider, services.NewMemoryLimiter(3, time.Minute))

	// пустая база - null, не ошибка
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/latest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "null", w.Body.String())

	newest := insertPostRow(t, "user_1", time.Now().UTC())
	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts/latest", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	require.Equal(t, newest.ID, post.ID)
}

func TestProfileEndpoint(t *testing.T) {
	provider := newFakeProvider(models.Identity{ID: "user_1", Name: "alice"})
	r := setupRouter(t, provider, services.NewMemoryLimiter(3, time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/alice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User models.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "user_1", resp.User.ID)

	// неизвестный username - внутренний класс ошибки, generic 500
	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile/ghost", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
