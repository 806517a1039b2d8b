package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"

	"medianav/application"
	"medianav/database"
	"medianav/domain/contracts"
	"medianav/infrastructure/config"
	infrafactories "medianav/infrastructure/factories"
	"medianav/interfaces/web/handlers"
	"medianav/interfaces/web/presenters"
	"medianav/logging"
	"medianav/platform/events"
)

// sessionReapInterval is how often idle browse sessions are looked for.
const sessionReapInterval = time.Minute

func main() {
	// Create app-wide context for graceful shutdown
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Initialize configuration
	loadEnvironment()
	cfg, err := config.LoadAppConfigFromEnv()
	if err != nil {
		println("Invalid configuration:", err.Error())
		os.Exit(1)
	}

	// Initialize logging
	logger := initializeLogging(cfg)

	// Initialize database
	db := initializeDatabase(appCtx, cfg, logger)
	defer db.Close()

	// Build dependencies with app context
	deps := buildDependencies(appCtx, cfg, db, logger)
	go deps.Services.BrowseService.RunIdleReaper(appCtx, sessionReapInterval)

	// Setup routes and start server
	router := setupRoutes(deps, cfg)
	startServer(router, cfg.HTTPAddr, logger, deps, appCancel)
}

// ApplicationServices holds application services.
type ApplicationServices struct {
	BrowseService *application.BrowseService
	SourceFactory infrafactories.SourceFactory
}

// PresentationLayer groups all presentation components
type PresentationLayer struct {
	// Presenters
	WindowPresenter *presenters.WindowPresenter

	// Handlers
	BrowseHandlers *handlers.BrowseHandlers
	MediaHandlers  *handlers.MediaHandlers
	SSEManager     *handlers.SSEManager
}

// Dependencies holds all application dependencies organized by layer
type Dependencies struct {
	// Infrastructure
	DB     *database.Database
	Logger *logging.Logger

	// Repositories
	MediaRepo contracts.MediaRepository

	// Application Layer
	Services *ApplicationServices

	// Presentation Layer
	Presentation *PresentationLayer
}

func loadEnvironment() {
	if err := godotenv.Load(); err != nil {
		println("No .env file found, using environment variables")
	} else {
		println("Loaded configuration from .env file")
	}
}

func initializeLogging(cfg *config.AppConfig) *logging.Logger {
	logger := logging.NewLogger(cfg.Logging)
	logging.SetDefault(logger)

	logger.Info("Application starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format,
		"db_path", cfg.Database.Path,
		"source_kind", cfg.Source.Kind,
		"page_size", cfg.Paging.PageSize,
	)

	return logger
}

func initializeDatabase(ctx context.Context, cfg *config.AppConfig, logger *logging.Logger) *database.Database {
	db, err := database.New(ctx, *cfg.Database, logger.WithComponent("database"))
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	return db
}

// buildDependencies creates all application dependencies. The SSE manager is
// built first because sessions report their changes through it.
func buildDependencies(appCtx context.Context, cfg *config.AppConfig, db *database.Database, logger *logging.Logger) *Dependencies {
	repositoryFactory := infrafactories.NewRepositoryFactory(db)
	mediaRepo := repositoryFactory.CreateMediaRepository()

	sseManager := handlers.NewSSEManager(appCtx)
	notificationHandlers := events.NewNotificationEventHandlers(sseManager)

	sourceFactory := infrafactories.NewSourceFactory(cfg.Source, cfg.Paging.PageSize, mediaRepo)
	browseService := application.NewBrowseService(sourceFactory, *cfg.Paging, notificationHandlers, cfg.SessionIdleTimeout)

	windowPresenter := presenters.NewWindowPresenter(cfg.Paging.PageSize)
	browseHandlers := handlers.NewBrowseHandlers(browseService, windowPresenter)
	mediaHandlers := handlers.NewMediaHandlers(mediaRepo, cfg.Paging.PageSize)

	// Wire up window lookups for SSE broadcasts
	sseManager.SetWindowSource(browseHandlers)

	return &Dependencies{
		DB:        db,
		Logger:    logger,
		MediaRepo: mediaRepo,
		Services: &ApplicationServices{
			BrowseService: browseService,
			SourceFactory: sourceFactory,
		},
		Presentation: &PresentationLayer{
			WindowPresenter: windowPresenter,
			BrowseHandlers:  browseHandlers,
			MediaHandlers:   mediaHandlers,
			SSEManager:      sseManager,
		},
	}
}

func setupRoutes(deps *Dependencies, cfg *config.AppConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestIDContext)
	setupHTTPLogging(r, deps, cfg)
	r.Use(middleware.Recoverer)

	// System endpoints
	setupSystemRoutes(r, deps)

	// Catalog page API
	r.Get("/api/media", deps.Presentation.MediaHandlers.ListPage)

	// Browse sessions
	setupBrowseRoutes(r, deps)

	return r
}

// requestIDContext hands chi's request id to logging.Logger.WithContext.
func requestIDContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logging.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func setupHTTPLogging(r *chi.Mux, deps *Dependencies, cfg *config.AppConfig) {
	if cfg.HTTPLogPath == "" {
		// No HTTP logging configured, skip
		return
	}

	logFile, err := os.OpenFile(cfg.HTTPLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		deps.Logger.Error("Failed to open HTTP log file", "error", err, "path", cfg.HTTPLogPath)
		return
	}
	// Note: logFile is not closed here as it needs to stay open for the server lifetime

	httpLogger := httplog.NewLogger("medianav", httplog.Options{
		Writer: logFile,
		JSON:   true,
	})
	r.Use(httplog.RequestLogger(httpLogger))

	deps.Logger.Info("HTTP request logging enabled", "path", cfg.HTTPLogPath)
}

func setupSystemRoutes(r *chi.Mux, deps *Dependencies) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.DB.Health(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		response := map[string]interface{}{
			"status":   "ok",
			"database": stats,
			"sessions": deps.Services.BrowseService.Count(),
			"source":   deps.Services.SourceFactory.Kind(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	r.Get("/events", deps.Presentation.SSEManager.HandleSSEConnection)
}

func setupBrowseRoutes(r *chi.Mux, deps *Dependencies) {
	h := deps.Presentation.BrowseHandlers

	// Main page opens a fresh session
	r.Get("/", h.Home)

	r.Post("/browse", h.Create)
	r.Get("/browse/{sessionID}", h.Get)
	r.Post("/browse/{sessionID}/scroll", h.Scroll)
	r.Post("/browse/{sessionID}/jump/{page}", h.Jump)
	r.Delete("/browse/{sessionID}", h.Delete)
}

func startServer(router *chi.Mux, addr string, logger *logging.Logger, deps *Dependencies, appCancel context.CancelFunc) {
	server := &http.Server{Addr: addr, Handler: router}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sig
		logger.Info("Shutdown signal received")

		// Cancel app-wide context first to signal all services to shutdown
		logger.Info("Cancelling app context...")
		appCancel()

		// Close SSE connections immediately so Shutdown is not held by open streams
		logger.Info("Closing SSE connections...")
		deps.Presentation.SSEManager.CloseAll()

		logger.Info("Closing browse sessions...")
		deps.Services.BrowseService.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				logger.Error("Graceful shutdown timed out, forcing exit")
				os.Exit(1)
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
		serverStopCtx()
	}()

	logger.Info("Server starting", "address", addr)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-serverCtx.Done()
	logger.Info("Server stopped")
}
