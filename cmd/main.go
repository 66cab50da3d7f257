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

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"fitbackend/clients"
	"fitbackend/clients/fitbit"
	"fitbackend/clients/garmin"
	"fitbackend/clients/oauth"
	"fitbackend/clients/strava"
	"fitbackend/config"
	"fitbackend/db"
	"fitbackend/handlers"
	"fitbackend/middleware"
	"fitbackend/models"
	integrationssvc "fitbackend/services/integrations"
	"fitbackend/services/synclogs"
	"fitbackend/services/txmanager"
	"fitbackend/services/users"
	syncusecase "fitbackend/usecases/sync"
	"fitbackend/usecases/webhooks"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackAlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "fitbackend",
		LogsURL:     cfg.ServerLogsURL,
	})

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	integrationsRepo := db.NewPostgresIntegrationsRepository(dbConn, cfg.DatabaseSchema)
	syncLogsRepo := db.NewPostgresSyncLogsRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	providerConfigs := map[models.ProviderType]config.ProviderConfig{
		models.ProviderStrava: cfg.StravaConfig,
		models.ProviderFitbit: cfg.FitbitConfig,
		models.ProviderGarmin: cfg.GarminConfig,
	}

	// The importer is where synced activities land; the logging importer
	// stands in until the workout domain provides a real one
	importer := clients.NewLoggingWorkoutImporter()
	providerClients := map[models.ProviderType]clients.ProviderSyncClient{
		models.ProviderStrava: strava.NewClient(importer),
		models.ProviderFitbit: fitbit.NewClient(importer),
		models.ProviderGarmin: garmin.NewClient(importer),
	}
	oauthClient := oauth.NewClient(providerConfigs, cfg.PublicBaseURL)

	usersService := users.NewUsersService(usersRepo)
	integrationsService := integrationssvc.NewIntegrationsService(integrationsRepo, oauthClient, providerClients)
	syncLogsService := synclogs.NewSyncLogsService(syncLogsRepo)

	syncUseCase := syncusecase.NewSyncUseCase(
		integrationsService,
		syncLogsService,
		oauthClient,
		providerClients,
		txManager,
	)
	webhooksUseCase := webhooks.NewWebhooksUseCase(
		integrationsService,
		syncUseCase,
		providerClients,
		providerConfigs,
		cfg.PublicBaseURL,
	)

	integrationsHandler := handlers.NewIntegrationsAPIHandler(integrationsService, syncLogsService, syncUseCase)
	integrationsHTTPHandler := handlers.NewIntegrationsHTTPHandler(integrationsHandler)
	webhooksHandler := handlers.NewWebhooksHandler(webhooksUseCase)
	authMiddleware := middleware.NewClerkAuthMiddleware(usersService, cfg.ClerkConfig.SecretKey)

	// Create a new router
	router := mux.NewRouter()

	// Setup endpoints with the new router
	integrationsHTTPHandler.SetupEndpoints(router, authMiddleware)
	webhooksHandler.SetupEndpoints(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Reap sync runs orphaned by crashed processes
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	reaperTicker := time.NewTicker(syncusecase.DefaultReaperInterval)
	go func() {
		defer reaperTicker.Stop()
		for {
			select {
			case <-reaperCtx.Done():
				return
			case <-reaperTicker.C:
				_ = alertMiddleware.WrapBackgroundTask("ReapAbandonedSyncRuns", func() error {
					_, err := syncUseCase.ReapAbandonedSyncRuns(reaperCtx)
					return err
				})()
			}
		}
	}()

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
