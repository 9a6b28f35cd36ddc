package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/flyMoon99/fysl/config"
	"github.com/flyMoon99/fysl/db"
	"github.com/flyMoon99/fysl/internal/routes"
)

func main() {
	// .env необязателен: в проде переменные приходят из окружения.
	if err := godotenv.Load(); err != nil {
		log.Println("[config] .env не найден, читаем переменные окружения")
	}

	cfg := config.NewConfig()

	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := config.NewRedisClient()
	defer redisClient.Close()

	router := routes.Setup(cfg, database, redisClient)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("🚀 Server starting on %s", serverAddress)
	log.Fatal(http.ListenAndServe(serverAddress, router))
}
