package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"chirp/config"
	"chirp/db"
	"chirp/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Dev-сидер: наполняет хранилище эмодзи-постами для указанных авторов.
// Авторы должны существовать в identity-провайдере, иначе лента будет
// падать на джойне (fail-fast by contract).
func main() {
	var configPath string
	var authorsFlag string
	var count int
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.StringVar(&authorsFlag, "authors", "", "Comma-separated list of author ids")
	flag.IntVar(&count, "n", 50, "Number of posts to create")
	flag.Parse()

	authors := strings.Split(authorsFlag, ",")
	if authorsFlag == "" || len(authors) == 0 {
		log.Fatal("at least one author id is required (-authors)")
	}

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if err := db.ConnectDB(); err != nil {
		log.Fatal("Failed to connect to the database: ", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		content := ""
		for j := 0; j < gofakeit.Number(1, 5); j++ {
			content += gofakeit.Emoji()
		}

		post := &models.Post{
			ID:       uuid.NewString(),
			AuthorID: authors[gofakeit.Number(0, len(authors)-1)],
			Content:  content,
			// разносим по времени, чтобы лента имела осмысленный порядок
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
		if err := db.GetWriteDB(ctx).Create(post).Error; err != nil {
			log.Fatal("Failed to create post: ", err)
		}
	}

	log.Printf("Seeded %d posts for %d authors", count, len(authors))
}
