package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bandroom/internal/api"
	"bandroom/internal/app/service"
	"bandroom/internal/common/security"
	"bandroom/internal/domain/repository"
	"bandroom/internal/platform/cache"
	"bandroom/internal/platform/config"
	"bandroom/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	log.Println("Configuration loaded")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()

	// 4. Initialize Redis (login throttle backend)
	cache.ConnectRedis()
	defer cache.CloseRedis()

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	bandRepo := repository.NewPgBandRepository(database.DB)
	memberRepo := repository.NewPgMembershipRepository(database.DB)

	// 6. Initialize Services
	throttle := service.NewLoginThrottle(cache.RDB, config.AppConfig.LoginAttemptLimit, config.AppConfig.LoginAttemptWindow)
	authService := service.NewAuthService(userRepo, throttle)
	bandService := service.NewBandService(bandRepo, memberRepo, userRepo, database.DB)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, bandService, userRepo, memberRepo)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully")
}
