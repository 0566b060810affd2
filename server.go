package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"chirp/api/handlers"
	"chirp/api/middleware"
	"chirp/api/routes"
	"chirp/config"
	"chirp/db"
	"chirp/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	if err := services.InitRedis(); err != nil {
		panic("Failed to connect to Redis: " + err.Error())
	}
	defer services.CloseRedis()

	provider, err := services.NewIdentityProviderFromConfig()
	if err != nil {
		panic("Failed to configure identity provider: " + err.Error())
	}

	limiter := services.NewRedisLimiter(
		services.RedisClient,
		config.AppConfig.RateLimit.Capacity,
		config.AppConfig.RateLimitWindow(),
	)

	handlers.SetPostService(services.NewPostService(provider, limiter))
	handlers.SetIdentityProvider(provider)

	// RabbitMQ опционален: без брокера live-лента работает через
	// прямой WebSocket-пуш
	if config.AppConfig.RabbitMQ.URL != "" {
		if err := services.InitRabbitMQ(); err != nil {
			log.Printf("WARN: RabbitMQ init failed, falling back to direct push: %v", err)
		} else {
			defer services.CloseRabbitMQ()
			if err := services.StartPostEventConsumer(context.Background(), "live_feed"); err != nil {
				log.Printf("WARN: Failed to start post event consumer: %v", err)
			}
		}
	}

	router := gin.Default()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware())

	routes.PublicApi(router, provider)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if config.AppConfig.Backend.Port == 0 {
		addr = ":8080"
	}

	// Start the server
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
