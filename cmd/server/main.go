package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/foxcode/shorter/docs"
	"github.com/foxcode/shorter/internal/audit"
	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/database"
	"github.com/foxcode/shorter/internal/handlers"
	mW "github.com/foxcode/shorter/internal/middleware"
	"github.com/foxcode/shorter/internal/services"
	"github.com/foxcode/shorter/internal/store"
)

// @title Shorter API
// @version 1.0
// @description Paid URL shortener with a per-user wallet
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	issueFor := flag.String("issue-token", "", "print a signed token for this identity and exit")
	issueRole := flag.String("role", mW.RoleUser, "role for -issue-token (user or admin)")
	flag.Parse()

	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.url", "REDIS_URL")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.public_host", "PUBLIC_HOST")
	viper.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.public_host", "localhost:8080")
	viper.SetDefault("jwt.expiry_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	secret := []byte(viper.GetString("jwt.secret_key"))
	if len(secret) == 0 {
		log.Fatal("JWT_SECRET_KEY must be set")
	}

	if *issueFor != "" {
		ttl := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
		token, err := mW.IssueToken(secret, *issueFor, *issueRole, ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	cfg := config.LoadShortlinkConfig()

	// Initialize Swagger docs
	publicHost := viper.GetString("server.public_host")
	docs.SwaggerInfo.Host = publicHost

	var st store.Store
	switch driver := viper.GetString("storage.driver"); driver {
	case "memory":
		log.Println("[STORE] using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	case "postgres":
		st = store.NewPostgresStore(database.InitDatabase())
	default:
		log.Fatalf("Unknown STORAGE_DRIVER %q (want postgres or memory)", driver)
	}
	defer st.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditLogger := audit.NewLogger()
	ledgerService := services.NewLedgerService(st, auditLogger)
	registryService := services.NewRegistryService(st,
		services.NewRandomCodeGenerator(cfg.CodeAlphabet, cfg.CodeLength), cfg.MaxCodeAttempts)
	limiter := services.NewRateLimiter(redisClient, cfg.CreateRateLimit, cfg.RateLimitWindow)
	shortlinkService := services.NewShortlinkService(st, ledgerService, registryService, limiter, auditLogger, cfg)
	sessionService := services.NewSessionService(redisClient, cfg.SessionTTL)
	paymentService := services.NewPaymentService(st, ledgerService, auditLogger, cfg)

	var origins []string
	if raw := viper.GetString("cors.allowed_origins"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	r := handlers.NewRouter(handlers.RouterOptions{
		Accounts:       handlers.NewAccountHandler(ledgerService, cfg),
		Shortlinks:     handlers.NewShortlinkHandler(shortlinkService, cfg),
		Sessions:       handlers.NewSessionHandler(sessionService),
		Payments:       handlers.NewPaymentHandler(paymentService, cfg),
		Redis:          redisClient,
		JWTSecret:      secret,
		SwaggerURL:     "http://" + publicHost + "/swagger/doc.json",
		AllowedOrigins: origins,
		RequestTimeout: 60 * time.Second,
	})

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go shortlinkService.RunJanitor(janitorCtx, cfg.JanitorInterval)

	port := viper.GetString("server.port")

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopJanitor()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
