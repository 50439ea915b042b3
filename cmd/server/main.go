package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/api"
	"hoursandfuture.com/nexthours/internal/config"
	"hoursandfuture.com/nexthours/internal/core"
	"hoursandfuture.com/nexthours/internal/llm"
	"hoursandfuture.com/nexthours/internal/logger"
	"hoursandfuture.com/nexthours/internal/store"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	// Setup logging
	zl := logger.New(cfg.LogLevel, cfg.LogFile)
	defer zl.Sync()
	zl.Debug("service starting in DEBUG mode")

	ctx := context.Background()

	// Initialize record store
	kv, err := store.OpenKV(ctx, store.Options{
		Backend:       cfg.StoreBackend,
		DatabaseURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		zl.Fatal("failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	records := store.NewRecordStore(kv, zl.Named("store"))
	defer records.Close()

	sessions, err := core.NewSessionManager(ctx, records,
		core.WithLogger(zl.Named("session")),
		core.WithLoginDelay(cfg.LoginDelay),
	)
	if err != nil {
		zl.Fatal("failed to restore session", zap.Error(err))
	}

	// Initialize LLM client
	completer, err := llm.NewCompleter(ctx, cfg, zl.Named("llm"))
	if err != nil {
		zl.Fatal("failed to initialize llm client", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}
	defer completer.Close()

	chatService := core.NewChatService(sessions, completer, cfg.FreeChatLimit, zl.Named("chat"))

	apiHandler := api.NewAPIHandler(sessions, chatService, zl.Named("api"))
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zl.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zl.Info("server exited gracefully")
}
