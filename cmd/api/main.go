package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"go-ultrasound-inspector/internal/config"
	"go-ultrasound-inspector/internal/container"
	"go-ultrasound-inspector/internal/logger"
)

func main() {
	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup structured logging
	logger.Configure(cfg.LogLevel)
	if logger.Logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize dependency injection container
	c, err := container.NewContainer(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}

	// Create HTTP server with configurable timeouts
	server := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"address":  cfg.ServerAddress(),
			"timeout":  cfg.RequestTimeout,
			"provider": cfg.Provider.Type,
			"model":    cfg.Provider.Model(),
			"archive":  cfg.Archive.Enabled(),
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Requests are done; let queued archive writes finish
	if err := c.Close(); err != nil {
		logger.WithError(err).Error("Failed to drain archive")
	}

	logger.WithFields(logrus.Fields(c.Metrics().GetMetrics())).Info("Server exited")
}
