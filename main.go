package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/config"
	"github.com/jrkphani/pipeline-pulse-sub003/src/database"
	"github.com/jrkphani/pipeline-pulse-sub003/src/handlers"
	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/processors"
	"github.com/jrkphani/pipeline-pulse-sub003/src/security"
	"github.com/jrkphani/pipeline-pulse-sub003/src/services"
	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == config.Cfg.CORSAllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Pipeline Pulse backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	alertService := services.NewAlertService()
	rateService := services.NewRateService(
		config.Cfg.RateAPIBaseURL, config.Cfg.ReportingCurrency,
		config.Cfg.RateStaleThreshold, alertService,
	)

	var crmService services.CRMService
	if config.Cfg.CRMBaseURL != "" && config.Cfg.CRMTokenURL != "" {
		crmService = services.NewCRMService(
			config.Cfg.CRMBaseURL, config.Cfg.CRMClientID, config.Cfg.CRMClientSecret,
			config.Cfg.CRMRefreshToken, config.Cfg.CRMTokenURL, config.Cfg.CRMPageSize,
		)
	} else {
		logger.L.Warn("CRM sync disabled: CRM_BASE_URL or CRM_TOKEN_URL not configured.")
	}

	resolver := processors.NewFieldResolver(config.Cfg.ReportingCurrency)
	converter := processors.NewCurrencyConverter(config.Cfg.ReportingCurrency)
	aggregator := processors.NewAggregator(converter)

	pipelineService := services.NewPipelineService(resolver, aggregator, rateService, crmService, reportCache)

	userHandler := handlers.NewUserHandler(authService, pipelineService)
	uploadHandler := handlers.NewUploadHandler(pipelineService)
	dashboardHandler := handlers.NewDashboardHandler(pipelineService)
	syncHandler := handlers.NewSyncHandler(pipelineService)
	ratesHandler := handlers.NewRatesHandler(rateService)
	filterHandler := handlers.NewFilterHandler()

	// Eager refresh at boot so the first dashboard render has rates, then
	// the cron schedule keeps the snapshot fresh. The engine itself never
	// triggers a refresh; it just reads whatever snapshot is current.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rateService.Refresh(ctx); err != nil {
			logger.L.Warn("Initial rate refresh failed; cache starts empty", "error", err)
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(config.Cfg.RateRefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rateService.Refresh(ctx); err != nil {
			logger.L.Warn("Scheduled rate refresh failed", "error", err)
		}
	}); err != nil {
		logger.L.Error("Invalid RATE_REFRESH_SCHEDULE", "schedule", config.Cfg.RateRefreshSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.L.Info("Rate refresh scheduled", "schedule", config.Cfg.RateRefreshSchedule)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes (no CSRF needed for these GETs)
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)

	// Auth actions router - POST routes generally need CSRF
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.HandleFunc("POST /logout", userHandler.LogoutUserHandler)

	// Apply CSRF to the entire authActionRouter group
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)(authActionRouter)))

	// CSRF and Auth middleware for protected API routes
	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("POST /api/upload", applyCsrfAndAuth(uploadHandler.HandleUpload))
	apiRouter.Handle("POST /api/sync", applyCsrfAndAuth(syncHandler.HandleSync))
	apiRouter.Handle("GET /api/dashboard", applyCsrfAndAuth(dashboardHandler.HandleGetDashboard))
	apiRouter.Handle("GET /api/deals", applyCsrfAndAuth(dashboardHandler.HandleGetDeals))
	apiRouter.Handle("DELETE /api/deals/all", applyCsrfAndAuth(dashboardHandler.HandleDeleteAllDeals))
	apiRouter.Handle("GET /api/filters", applyCsrfAndAuth(filterHandler.HandleGetFilterState))
	apiRouter.Handle("PUT /api/filters", applyCsrfAndAuth(filterHandler.HandlePutFilterState))
	apiRouter.Handle("GET /api/rates/status", applyCsrfAndAuth(ratesHandler.HandleGetRateStatus))
	apiRouter.Handle("POST /api/rates/refresh", applyCsrfAndAuth(ratesHandler.HandleRefreshRates))
	apiRouter.Handle("GET /api/user/has-data", applyCsrfAndAuth(userHandler.HandleCheckUserData))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Pipeline Pulse backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
