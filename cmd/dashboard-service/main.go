package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeluilo/hms-sub001/internal/dashboard"
	"github.com/zeluilo/hms-sub001/pkg/config"
	"github.com/zeluilo/hms-sub001/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize Dashboard Service
	service := dashboard.New(cfg, logger)

	// Start service in a goroutine
	go func() {
		if err := service.Start(service.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start Dashboard Service: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Dashboard Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Dashboard Service stopped")
}
