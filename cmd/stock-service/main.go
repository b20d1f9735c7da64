package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/internal/stock/events"
	"github.com/stockflow/stockflow-backend/internal/stock/handler"
	"github.com/stockflow/stockflow-backend/internal/stock/refdata"
	"github.com/stockflow/stockflow-backend/internal/stock/repository"
	"github.com/stockflow/stockflow-backend/internal/stock/service"
	"github.com/stockflow/stockflow-backend/internal/stock/validation"
	"github.com/stockflow/stockflow-backend/pkg/config"
	"github.com/stockflow/stockflow-backend/pkg/database"
	"github.com/stockflow/stockflow-backend/pkg/httputil"
	"github.com/stockflow/stockflow-backend/pkg/i18n"
	"github.com/stockflow/stockflow-backend/pkg/logger"
	"github.com/stockflow/stockflow-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("stock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("stock-service", cfg.Server.Environment)
	log.Info().Msg("starting Stock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewStockEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Reference data client
	refdataClient := refdata.NewHTTPClient(cfg.Services.ReferenceDataURL, cfg.Services.Timeout, log)

	var unpackReasonID uuid.UUID
	if cfg.Stock.UnpackReasonID != "" {
		unpackReasonID, err = uuid.Parse(cfg.Stock.UnpackReasonID)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid STOCKFLOW_STOCK_UNPACK_REASON_ID")
		}
	}

	// Initialize stores and services
	provider := repository.NewProvider(db)
	stores := provider.Stores()

	pipeline := validation.DefaultPipeline(log, stores.LineItems(), stores.Balances(), stores.Cards())
	contexts := service.NewContextBuilder(refdataClient, unpackReasonID)
	recalc := service.NewRecalculationService(log)

	processor := service.NewProcessor(provider, contexts, pipeline, recalc, publisher, log)
	cardService := service.NewStockCardService(provider, publisher, log)
	summaryService := service.NewSummaryService(provider, log)
	inventoryService := service.NewPhysicalInventoryService(provider, log)
	catalogService := service.NewCatalogService(provider, log)

	// Initialize handlers
	eventHandler := handler.NewStockEventHandler(processor, log)
	cardHandler := handler.NewStockCardHandler(cardService, summaryService, log)
	inventoryHandler := handler.NewPhysicalInventoryHandler(inventoryService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(i18n.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.AuthMiddleware(cfg.JWT.Secret))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "stock-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Post("/events", eventHandler.Create)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.Search)
			r.Get("/summaries", cardHandler.Summaries)
			r.Get("/{id}", cardHandler.Get)
			r.Put("/{id}/deactivate", cardHandler.Deactivate)
		})

		r.Route("/physical-inventories", func(r chi.Router) {
			r.Get("/draft", inventoryHandler.GetDraft)
			r.Put("/draft", inventoryHandler.SaveDraft)
			r.Delete("/draft", inventoryHandler.DeleteDraft)
		})

		r.Route("/reasons", func(r chi.Router) {
			r.Get("/", catalogHandler.ListReasons)
			r.Post("/", catalogHandler.CreateReason)
			r.Get("/{id}", catalogHandler.GetReason)
			r.Get("/valid", catalogHandler.ListValidReasons)
			r.Post("/valid", catalogHandler.AssignReason)
			r.Delete("/valid/{id}", catalogHandler.UnassignReason)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", catalogHandler.ListOrganizations)
			r.Post("/", catalogHandler.CreateOrganization)
		})

		r.Route("/valid-sources", func(r chi.Router) {
			r.Get("/", catalogHandler.ListValidSources)
			r.Post("/", catalogHandler.AssignSource)
		})
		r.Route("/valid-destinations", func(r chi.Router) {
			r.Get("/", catalogHandler.ListValidDestinations)
			r.Post("/", catalogHandler.AssignDestination)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
