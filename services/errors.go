package services

import (
	"errors"
	"fmt"
)

// Классификация ошибок процедурного слоя. Хендлеры маппят их в HTTP
// статусы; внутренний класс (author/user not found) наружу отдается
// как generic internal error, детали остаются в логах.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTooManyRequests = errors.New("too many requests")
	ErrAuthorNotFound  = errors.New("author for post not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ValidationError - нарушение контракта входных данных, с указанием поля
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
