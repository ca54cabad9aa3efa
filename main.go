package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"goanova/app"
	"goanova/internal/anova"
	"goanova/internal/api"
	"goanova/internal/config"
	ingest "goanova/internal/dataset"
	"goanova/internal/session"
	"goanova/ui"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewStore(appConfig.Session.TTL)
	janitorDone := sessions.StartJanitor(ctx, appConfig.Session.SweepInterval)

	service := app.NewAnalysisService(
		sessions,
		ingest.NewLoader(appConfig.Data),
		anova.NewEngine(),
		appConfig.Analysis.MaxConcurrentFits,
		appConfig.Data.PreviewRows,
	)

	uiApp, err := ui.NewApp(service, ui.Config{
		MaxUploadBytes: appConfig.Data.MaxUploadBytes,
		SecureCookie:   appConfig.Server.SecureCookies,
	})
	if err != nil {
		log.Fatalf("Failed to initialize UI: %v", err)
	}
	apiEngine := api.NewRouter(service, appConfig.Data.MaxUploadBytes, appConfig.Server.GinMode)

	root := chi.NewRouter()
	root.Mount("/api", apiEngine)
	root.Handle("/metrics", apiEngine)
	root.Mount("/", uiApp)

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting goanova server on port %s", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	<-janitorDone
	log.Println("Server stopped")
}
