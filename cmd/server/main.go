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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prudhvinik1/homesync/internal/config"
	"github.com/prudhvinik1/homesync/internal/crypto"
	"github.com/prudhvinik1/homesync/internal/database"
	"github.com/prudhvinik1/homesync/internal/handlers"
	"github.com/prudhvinik1/homesync/internal/meross"
	"github.com/prudhvinik1/homesync/internal/repositories"
	"github.com/prudhvinik1/homesync/internal/services"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Credentials cannot be persisted without a sealing key; fail at startup,
	// not on the first connect.
	codec, err := crypto.NewCodec(cfg.TokenEncKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential codec: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Wire repositories and the connector service
	accountRepo, err := repositories.NewPostgresAccountRepository(postgresPool, codec)
	if err != nil {
		log.Fatalf("Failed to create account repository: %v", err)
	}
	eventRepo := repositories.NewPostgresConnectEventRepository(postgresPool)
	lockRepo := repositories.NewRedisConnectLockRepository(redisClient)

	engine := meross.NewLoginEngine(meross.NewHTTPClient())
	connector := services.NewConnectorService(engine, accountRepo, eventRepo, lockRepo, cfg.ConnectLockTTL)

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true,"service":"homesync"}`))
	})

	handlers.RegisterRoutes(router, handlers.NewConnectorHandler(connector), cfg.AdminKeyHash)

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
