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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/simplebank/backend/docs"
	"github.com/simplebank/backend/internal/database"
	"github.com/simplebank/backend/internal/events"
	kafkaevents "github.com/simplebank/backend/internal/events/kafka"
	"github.com/simplebank/backend/internal/ledger"
	mW "github.com/simplebank/backend/internal/middleware"
	"github.com/simplebank/backend/internal/services"
	"github.com/simplebank/backend/internal/store"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Simple Bank API
// @version 1.0
// @description Ledger service: accounts, deposits, withdrawals, transfers, transaction history
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("notify.on_balance_read", "NOTIFY_ON_BALANCE_READ")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Simple Bank API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Infrastructure
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher events.Publisher
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		kp := kafkaevents.NewPublisher(brokers)
		defer kp.Close()
		publisher = kp
		log.Printf("Kafka publisher connected to %v", brokers)
	} else {
		log.Println("Kafka brokers not configured, events will only be logged")
	}

	// Ledger engine over the postgres store, with post-commit hooks for
	// the notification side channel. Hooks run after commit and never
	// gate it.
	engine := ledger.NewEngine(store.NewPostgres(db))
	engine.NotifyOnBalanceRead = viper.GetBool("notify.on_balance_read")

	engine.OnCommit(func(ctx context.Context, ev ledger.Event) {
		log.Printf("[NOTIFY] %s receipt: account %s amount %s balance %s",
			ev.Type, ev.AccountNumber, ev.Amount, ev.Balance)
	})
	if publisher != nil {
		notifier := services.NewOperationNotifier(db, publisher)
		engine.OnCommit(notifier.Hook())
	}

	// Services
	authService := services.NewAuthService(db, redisClient, publisher)
	accountService := services.NewAccountService(engine)
	transactionService := services.NewTransactionService(engine)
	qrService := services.NewQRService(engine, redisClient)

	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/auth/verify-email/{token}", authService.VerifyEmail)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			r.Post("/operations/deposit", accountService.Deposit)
			r.Post("/operations/withdraw", accountService.Withdraw)
			r.Post("/operations/transfer", accountService.Transfer)

			r.Get("/account/balance", accountService.Balance)
			r.Get("/account/receive-qr", qrService.ReceiveQR)

			r.Get("/transactions", transactionService.ListTransactions)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
