package main

import (
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/fleetfolio/backend/src/config"
	"github.com/username/fleetfolio/backend/src/database"
	"github.com/username/fleetfolio/backend/src/handlers"
	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/model"
	"github.com/username/fleetfolio/backend/src/security"
	"github.com/username/fleetfolio/backend/src/services"
	"github.com/username/fleetfolio/backend/src/utils"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bootstrapAdmin creates the configured admin account on first start so the
// panel is reachable without touching the database by hand.
func bootstrapAdmin(db *sql.DB) {
	username := config.Cfg.AdminUsername
	password := config.Cfg.AdminPassword
	if username == "" || password == "" {
		logger.L.Debug("Admin bootstrap skipped: ADMIN_USERNAME/ADMIN_PASSWORD not set")
		return
	}

	if _, err := model.GetUserByUsername(db, username); err == nil {
		logger.L.Debug("Admin bootstrap skipped: user already exists", "username", username)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.L.Error("Admin bootstrap lookup failed", "error", err)
		return
	}

	admin := &model.User{Username: username, Role: model.RoleAdmin}
	if err := admin.HashPassword(password); err != nil {
		logger.L.Error("Admin bootstrap password hashing failed", "error", err)
		return
	}
	if err := admin.CreateUser(db); err != nil {
		logger.L.Error("Admin bootstrap insert failed", "error", err)
		return
	}
	logger.L.Info("Admin account created", "username", username)
}

// sessionCleanupLoop prunes expired sessions at boot and then hourly, so the
// sessions table does not grow without bound between restarts.
func sessionCleanupLoop(db *sql.DB) {
	for {
		if pruned, err := model.DeleteExpiredSessions(db); err != nil {
			logger.L.Error("Session cleanup failed", "error", err)
		} else if pruned > 0 {
			logger.L.Info("Expired sessions pruned", "count", pruned)
		}
		time.Sleep(time.Hour)
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		utils.SendJSONError(w, "Resource not found", http.StatusNotFound)
		return
	}
	http.NotFound(w, r)
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Fleetfolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	bootstrapAdmin(database.DB)
	go sessionCleanupLoop(database.DB)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	earningsService := services.NewEarningsService(database.DB, reportCache)
	uploadService := services.NewUploadService(database.DB, earningsService)
	boltClient := services.NewBoltAPIClient(
		config.Cfg.BoltClientID,
		config.Cfg.BoltClientSecret,
		config.Cfg.BoltAuthURL,
		config.Cfg.BoltAPIBaseURL,
	)

	userHandler := handlers.NewUserHandler(authService)
	driverHandler := handlers.NewDriverHandler(earningsService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	expenseHandler := handlers.NewExpenseHandler(earningsService)
	boltHandler := handlers.NewBoltHandler(boltClient)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Fleetfolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Get("/auth/csrf", handlers.GetCSRFToken)
		})

		// Authentication routes (CSRF protected)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Post("/auth/login", userHandler.LoginUserHandler)
			r.Post("/auth/refresh", userHandler.RefreshTokenHandler)
			r.With(userHandler.AuthMiddleware).Post("/auth/logout", userHandler.LogoutUserHandler)
		})

		// Protected routes (require authentication and CSRF)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Use(userHandler.AuthMiddleware)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(userHandler.AdminMiddleware)
				r.Get("/admin/drivers", driverHandler.HandleListDrivers)
				r.Post("/admin/drivers", driverHandler.HandleCreateDriver)
				r.Get("/admin/drivers/{driverID}/earnings", driverHandler.HandleDriverEarnings)
				r.Post("/admin/upload-csv", uploadHandler.HandleUpload)
				r.Post("/admin/expenses", expenseHandler.HandleCreateExpense)
				r.Get("/admin/bolt/orders", boltHandler.HandleGetFleetOrders)
			})

			// Driver routes
			r.Group(func(r chi.Router) {
				r.Use(userHandler.DriverMiddleware)
				r.Get("/driver/dashboard", driverHandler.HandleOwnDashboard)
			})
		})
	})

	r.NotFound(notFoundHandler)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
