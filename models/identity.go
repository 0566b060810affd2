package models

// Identity - минимальное клиентское представление пользователя из
// внешнего identity-провайдера. Локально не хранится, только джойнится
// к постам на время одного запроса.
type Identity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture"`
	// ExternalUsername - username привязанного GitHub-аккаунта, если есть.
	// Используется как fallback для отображаемого имени.
	ExternalUsername *string `json:"external_username,omitempty"`
}
