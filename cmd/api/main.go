package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masslaw-api/config"
	"masslaw-api/internal/handlers"
	"masslaw-api/internal/middleware"
	"masslaw-api/internal/repositories"
	"masslaw-api/internal/services"
	"masslaw-api/pkg/llm"
	"masslaw-api/pkg/memorydb"
	"masslaw-api/pkg/postgres"
	"masslaw-api/pkg/weaviate"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	envPaths := []string{
		"../../.env", // From cmd/api/ to repo root
		".env",       // Current directory
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded .env from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Initialize database
	db, err := postgres.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories and schemas
	repos := repositories.NewRepositories(db)
	if err := repos.InitSchemas(ctx); err != nil {
		log.Fatalf("Failed to initialize schemas: %v", err)
	}

	// Redis is an optional cache; the pipeline works without it
	var redisClient *memorydb.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = memorydb.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Printf("Failed to initialize Redis client: %v. Embedding cache disabled.", err)
			redisClient = nil
		}
	} else {
		log.Println("REDIS_URL not set. Embedding cache disabled.")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize Weaviate and ensure the chunk class exists
	weaviateClient := weaviate.NewWeaviateClient(cfg)
	if err := weaviateClient.EnsureClass(ctx, cfg.Weaviate.Class); err != nil {
		log.Fatalf("Failed to ensure Weaviate class: %v", err)
	}

	llmClient := llm.NewClient(cfg)

	// Assemble the service layer and the worker pool
	svcs := services.NewServices(cfg, db, redisClient, weaviateClient, llmClient, repos)
	svcs.Coordinator.Start(ctx)
	defer svcs.Coordinator.Stop()

	h := handlers.NewHandlers(svcs, repos)
	router := setupRouter(cfg, h)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.ErrorMiddleware())

	router.GET("/health", h.Health.Check())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/query", h.Query.Ask())
		v1.GET("/query-logs", h.Query.Logs())

		documents := v1.Group("/documents")
		{
			documents.POST("", h.Document.Upload())
			documents.GET("", h.Document.List())
			documents.GET("/:id", h.Document.Get())
			documents.DELETE("/:id", h.Document.Delete())
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", h.Job.List())
			jobs.GET("/:id", h.Job.Get())
			jobs.POST("/cleanup", h.Job.Cleanup())
		}
	}

	return router
}
