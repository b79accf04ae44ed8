package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"leadpulse/api/internal/app"
	"leadpulse/api/internal/config"
	"leadpulse/api/internal/docstore"
	"leadpulse/api/internal/insight"
	"leadpulse/api/internal/search"
	"leadpulse/api/internal/session"
	"leadpulse/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	dataStore := store.NewPostgresStore(db)

	sessions, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer sessions.Close()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, sessions)

	var model insight.TextModel
	if strings.TrimSpace(cfg.GoogleAPIKey) != "" {
		gemini, err := insight.NewGeminiModel(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("WARNING: gemini unavailable, insights fall back to templates: %v", err)
		} else {
			model = gemini
		}
	} else {
		log.Printf("GOOGLE_API_KEY not set, insights use templates only")
	}
	insights := insight.NewGenerator(model, cfg.AITimeout)

	var signer *docstore.Client
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		signer, err = docstore.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.DownloadTTL)
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
	} else {
		log.Printf("MINIO_ENDPOINT not set, FDD downloads disabled")
	}

	var service *app.Service
	if signer != nil {
		service = app.New(cfg, dataStore, sessions, searchService, insights, signer)
	} else {
		service = app.New(cfg, dataStore, sessions, searchService, insights, nil)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("LeadPulse API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
