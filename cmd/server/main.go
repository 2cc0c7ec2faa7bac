package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"pustaka/pkg/auth"
	"pustaka/pkg/cache"
	"pustaka/pkg/common"
	"pustaka/pkg/common/adapters/database"
	adapterrouter "pustaka/pkg/common/adapters/router"
	"pustaka/pkg/config"
	"pustaka/pkg/dbmanager"
	"pustaka/pkg/errortracking"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/library"
	"pustaka/pkg/logger"
	"pustaka/pkg/metrics"
	"pustaka/pkg/middleware"
	"pustaka/pkg/models"
	"pustaka/pkg/settings"
	"pustaka/pkg/tracing"
)

func main() {
	cfgMgr := config.NewManager()
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := cfgMgr.GetConfig()
	if err != nil {
		log.Fatalf("Failed to get configuration: %v", err)
	}

	logger.Init(cfg.Logger.Dev)
	if cfg.Logger.Path != "" {
		logger.UpdateLoggerPath(cfg.Logger.Path, cfg.Logger.Dev)
	}
	logger.Info("Pustaka starting")

	tracker, err := errortracking.NewProviderFromConfig(cfg.ErrorTracking)
	if err != nil {
		logger.Warn("Error tracking disabled: %v", err)
	} else {
		logger.InitErrorTracking(tracker)
		defer func() {
			if cerr := logger.CloseErrorTracking(); cerr != nil {
				logger.Warn("Failed to close error tracking: %v", cerr)
			}
		}()
	}

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Endpoint:       cfg.Tracing.Endpoint,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Error("Failed to initialize tracing: %v", err)
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		metrics.SetProvider(metrics.NewPrometheusProvider(&metrics.Config{
			Enabled:   true,
			Namespace: cfg.Metrics.Namespace,
		}))
	}

	if err := setupCache(cfg); err != nil {
		logger.Error("Failed to initialize cache: %v", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil {
			logger.Warn("Failed to close cache: %v", cerr)
		}
	}()

	ctx := context.Background()
	dbMgr, err := dbmanager.NewManager(dbmanager.FromConfig(cfg.Database))
	if err != nil {
		logger.Error("Failed to create database manager: %v", err)
		os.Exit(1)
	}
	if err := dbMgr.Connect(ctx); err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer dbMgr.Close()

	bunDB, err := dbMgr.DB()
	if err != nil {
		logger.Error("Failed to get database handle: %v", err)
		os.Exit(1)
	}
	db := database.NewBunAdapter(bunDB)

	registry := jsonapi.NewRegistry()
	if err := models.RegisterAll(registry); err != nil {
		logger.Error("Failed to register resources: %v", err)
		os.Exit(1)
	}

	sessions := cache.GetDefaultCache()
	authService := auth.NewService(db, sessions, cfg.Auth.TokenTTL)
	authMw := auth.NewMiddleware(authService)

	apiHandler := jsonapi.NewHandler(db, registry)
	authHandler := auth.NewHandler(authService)
	settingsHandler := settings.NewHandler(settings.NewService(db, sessions, 0))
	circulationHandler := library.NewHandler(
		library.NewLoanService(db),
		library.NewVisitorService(db),
		registry,
	)

	muxRouter := mux.NewRouter()
	muxRouter.HandleFunc("/healthz", healthHandler(dbMgr)).Methods("GET")
	muxRouter.Handle("/metrics", metrics.GetProvider().Handler()).Methods("GET")

	router := adapterrouter.NewMuxAdapter(muxRouter)
	auth.RegisterRoutes(router, authHandler)
	registerProtectedRoutes(router, authMw, apiHandler, settingsHandler, circulationHandler)

	handler := buildMiddlewareChain(muxRouter, cfg)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Listening on %s", addr)
		if serr := server.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
			logger.Fatal("Server failed: %v", serr)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed: %v", err)
	}
}

func setupCache(cfg *config.Config) error {
	switch cfg.Cache.Provider {
	case "redis":
		return cache.UseRedis(&cache.RedisConfig{
			Host:     cfg.Cache.Redis.Host,
			Port:     cfg.Cache.Redis.Port,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	case "memcache":
		return cache.UseMemcache(&cache.MemcacheConfig{
			Servers:      cfg.Cache.Memcache.Servers,
			MaxIdleConns: cfg.Cache.Memcache.MaxIdleConns,
			Timeout:      cfg.Cache.Memcache.Timeout,
		})
	default:
		return cache.UseMemory(nil)
	}
}

// registerProtectedRoutes binds every resource endpoint behind the auth
// middleware. The specialized circulation and settings routes register
// before the generic {resource} patterns so they win the match.
func registerProtectedRoutes(
	router common.Router,
	authMw *auth.Middleware,
	api *jsonapi.Handler,
	settingsHandler *settings.Handler,
	circulation *library.Handler,
) {
	protect := authMw.Protect

	router.HandleFunc("/settings", protect(settingsHandler.HandleList)).Methods("GET")
	router.HandleFunc("/settings/{name}", protect(settingsHandler.HandleGet)).Methods("GET")
	router.HandleFunc("/settings/{name}", protect(settingsHandler.HandleUpdate)).Methods("PATCH", "PUT")

	router.HandleFunc("/loans", protect(circulation.HandleCheckout)).Methods("POST")
	router.HandleFunc("/loans/{id}/return", protect(circulation.HandleReturn)).Methods("POST")
	router.HandleFunc("/visitors", protect(circulation.HandleCheckIn)).Methods("POST")

	router.HandleFunc("/{resource}", protect(api.HandleList)).Methods("GET")
	router.HandleFunc("/{resource}", protect(api.HandleCreate)).Methods("POST")
	router.HandleFunc("/{resource}/search", protect(api.HandleSearch)).Methods("POST")
	router.HandleFunc("/{resource}/{id}", protect(api.HandleGet)).Methods("GET")
	router.HandleFunc("/{resource}/{id}", protect(api.HandleUpdate)).Methods("PATCH")
	router.HandleFunc("/{resource}/{id}", protect(api.HandleDelete)).Methods("DELETE")
}

// buildMiddlewareChain wraps the router with the HTTP-level middleware.
// Panic recovery sits outermost so nothing below can crash the server.
func buildMiddlewareChain(h http.Handler, cfg *config.Config) http.Handler {
	corsCfg := common.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:         cfg.CORS.MaxAge,
	}
	if len(corsCfg.AllowedOrigins) == 0 {
		corsCfg = common.DefaultCORSConfig()
	}
	h = corsMiddleware(h, corsCfg)

	if cfg.Middleware.Gzip {
		h = middleware.Gzip(h)
	}
	if cfg.Metrics.Enabled {
		if p, ok := metrics.GetProvider().(*metrics.PrometheusProvider); ok {
			h = p.Middleware(h)
		}
	}
	if cfg.Tracing.Enabled {
		h = tracing.Middleware(h)
	}
	if cfg.Middleware.MaxRequestSize > 0 {
		h = middleware.NewRequestSizeLimiter(cfg.Middleware.MaxRequestSize).Middleware(h)
	}
	if cfg.Middleware.RateLimitRPS > 0 {
		h = middleware.NewRateLimiter(cfg.Middleware.RateLimitRPS, cfg.Middleware.RateLimitBurst).Middleware(h)
	}
	return middleware.PanicRecovery(h)
}

func corsMiddleware(next http.Handler, cfg common.CORSConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, _ := common.WrapHTTPRequest(w, r)
		common.SetCORSHeaders(rw, cfg)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// healthHandler reports database and cache status.
func healthHandler(dbMgr *dbmanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "ok", "cache": "ok"}
		code := http.StatusOK

		if err := dbMgr.HealthCheck(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if _, err := cache.GetStats(r.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			logger.Warn("Failed to write health response: %v", err)
		}
	}
}
