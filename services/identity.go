package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chirp/config"
	"chirp/models"
)

// IdentityProvider - узкий интерфейс к внешнему identity-сервису.
// Дубликаты id в батче допустимы, провайдер обязан их переносить.
type IdentityProvider interface {
	GetUsersByID(ctx context.Context, ids []string, limit int) ([]models.Identity, error)
	GetUserByUsername(ctx context.Context, username string) (*models.Identity, error)
	VerifySession(ctx context.Context, token string) (string, error)
}

// ProviderUser - сырая запись пользователя из API провайдера
type ProviderUser struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	ImageURL         string `json:"image_url"`
	ExternalAccounts []struct {
		Provider string `json:"provider"`
		Username string `json:"username"`
	} `json:"external_accounts"`
}

// FilterUserForClient приводит сырую запись провайдера к клиентскому
// виду. Чистая функция: отсутствующие поля дают нулевые значения,
// ошибок не бывает.
func FilterUserForClient(user ProviderUser) models.Identity {
	identity := models.Identity{
		ID:             user.ID,
		Name:           user.Username,
		ProfilePicture: user.ImageURL,
	}
	for _, acc := range user.ExternalAccounts {
		if acc.Provider == "github" && acc.Username != "" {
			username := acc.Username
			identity.ExternalUsername = &username
			break
		}
	}
	return identity
}

// HTTPIdentityProvider ходит в hosted REST API провайдера
type HTTPIdentityProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPIdentityProvider(baseURL, apiKey string, timeout time.Duration) *HTTPIdentityProvider {
	return &HTTPIdentityProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewIdentityProviderFromConfig собирает провайдера из загруженного конфига
func NewIdentityProviderFromConfig() (*HTTPIdentityProvider, error) {
	if config.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is not loaded")
	}
	conf := config.AppConfig.Identity
	if conf.BaseURL == "" {
		return nil, fmt.Errorf("identity provider base_url is missing")
	}
	return NewHTTPIdentityProvider(conf.BaseURL, conf.APIKey, config.AppConfig.IdentityTimeout()), nil
}

func (p *HTTPIdentityProvider) getUserList(ctx context.Context, params url.Values) ([]ProviderUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/users?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var users []ProviderUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode identity provider response: %w", err)
	}
	return users, nil
}

// GetUsersByID батчево получает пользователей по списку id
func (p *HTTPIdentityProvider) GetUsersByID(ctx context.Context, ids []string, limit int) ([]models.Identity, error) {
	if len(ids) == 0 {
		return []models.Identity{}, nil
	}
	params := url.Values{}
	for _, id := range ids {
		params.Add("user_id", id)
	}
	params.Set("limit", strconv.Itoa(limit))

	users, err := p.getUserList(ctx, params)
	if err != nil {
		return nil, err
	}

	identities := make([]models.Identity, 0, len(users))
	for _, user := range users {
		identities = append(identities, FilterUserForClient(user))
	}
	return identities, nil
}

// GetUserByUsername ищет пользователя по username. Ноль совпадений -
// ErrUserNotFound; при нескольких берем первое (провайдер может
// возвращать теневые аккаунты), но неоднозначность логируем выше.
func (p *HTTPIdentityProvider) GetUserByUsername(ctx context.Context, username string) (*models.Identity, error) {
	params := url.Values{}
	params.Add("username", username)

	users, err := p.getUserList(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if len(users) > 1 {
		// first-match-wins, но неоднозначность должна быть видна в логах
		log.Printf("WARN: username %q matched %d identities, taking the first", username, len(users))
	}
	identity := FilterUserForClient(users[0])
	return &identity, nil
}

// VerifySession резолвит bearer-токен сессии в id пользователя
func (p *HTTPIdentityProvider) VerifySession(ctx context.Context, token string) (string, error) {
	body := fmt.Sprintf(`{"token":%s}`, strconv.Quote(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/sessions/verify", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("session verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session verify returned status %d", resp.StatusCode)
	}

	var session struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.UserID == "" {
		return "", ErrUnauthorized
	}
	return session.UserID, nil
}
