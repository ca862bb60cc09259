package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trackoccupancy/internal/api"
	"trackoccupancy/internal/app"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "trackoccd ", log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		logger.Printf("no .env file loaded: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	logger.Printf("configuration loaded, backend %s", cfg.API.BaseURL)

	// Cancelling ctx stops live streams and in-flight backend calls.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialize: %v", err)
	}
	defer a.Close()
	logger.Printf("session restored, logged in: %t", a.Session.LoggedIn())

	states, unsubscribe := a.Session.Subscribe()
	defer unsubscribe()
	go func() {
		for state := range states {
			logger.Printf("session state: logged in = %t", state.LoggedIn)
		}
	}()

	handler := api.NewHandler(a.Session, a.Client, a.Occupancy, a.Poller, cfg.Server.Location, cfg.Snapshot.JPEGQuality)
	router := api.NewRouter(handler, cfg.Server)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
