package models

import "time"

// Post - пост пользователя. Контент состоит только из эмодзи.
// Посты неизменяемы после создания: нет update/delete операций.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID  string    `gorm:"size:64;index" json:"author_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}

// FeedPost - пост вместе с данными автора, собирается только на чтении
type FeedPost struct {
	Post   Post     `json:"post"`
	Author Identity `json:"author"`
}

// FeedResponse - ответ API для ленты
type FeedResponse struct {
	Posts []FeedPost `json:"posts"`
}
