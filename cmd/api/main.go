package main

import (
	"beacon-api/internal/api"
	"beacon-api/internal/api/handlers"
	"beacon-api/internal/billing"
	"beacon-api/internal/config"
	"beacon-api/internal/database"
	"beacon-api/internal/repository"
	"beacon-api/internal/services"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Get underlying *sql.DB instance for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get underlying *sql.DB instance:", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	quotaConfig := config.NewQuotaConfig()

	// The cache is optional; product reads fail open to direct provider
	// fetches without it.
	var cacheService services.CacheService
	cacheConfig := config.NewCacheConfig()
	if redisCache, err := services.NewRedisCacheService(cacheConfig); err != nil {
		log.Printf("Warning: cache unavailable, product reads go straight to Stripe: %v", err)
	} else {
		cacheService = redisCache
	}

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Fatal("STRIPE_SECRET_KEY environment variable is required")
	}
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Fatal("STRIPE_WEBHOOK_SECRET environment variable is required")
	}
	internalSecret := os.Getenv("INTERNAL_API_SECRET")
	if internalSecret == "" {
		log.Fatal("INTERNAL_API_SECRET environment variable is required")
	}

	billingProvider := billing.NewStripeProvider(stripeKey)

	// Initialize repositories
	orgRepo := repository.NewOrganizationRepository(db)
	appRepo := repository.NewAppRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	tokenRepo := repository.NewAdminTokenRepository(db)
	attemptRepo := repository.NewAuthAttemptRepository(db)
	requestLogRepo := repository.NewRequestLogRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	// Initialize services
	tokenService := services.NewTokenService(tokenRepo)
	authService := services.NewAuthService(tokenService, attemptRepo, quotaConfig)
	productService := services.NewProductService(billingProvider, cacheService, cacheConfig.DefaultTTL)
	quotaService := services.NewQuotaService(subscriptionRepo, requestLogRepo, productService, quotaConfig)
	billingService := services.NewBillingService(orgRepo, subscriptionRepo, requestLogRepo, attemptRepo, productService, billingProvider, quotaConfig)
	appService := services.NewAppService(appRepo)
	messageService := services.NewMessageService(messageRepo)
	orgService := services.NewOrgService(orgRepo)
	requestLogService := services.NewRequestLogService(requestLogRepo)

	// Initialize router
	router := api.SetupRoutes(api.Deps{
		DB:                db,
		Cache:             cacheService,
		AuthService:       authService,
		AppService:        appService,
		QuotaService:      quotaService,
		RequestLogService: requestLogService,
		MessageHandler:    handlers.NewMessageHandler(messageService, appService),
		AppHandler:        handlers.NewAppHandler(appService),
		OrgHandler:        handlers.NewOrgHandler(orgService),
		TokenHandler:      handlers.NewTokenHandler(tokenService, appService),
		UsageHandler:      handlers.NewUsageHandler(quotaService, appService),
		StripeHandler:     handlers.NewStripeHandler(billingService, webhookSecret),
		OpsHandler:        handlers.NewOpsHandler(billingService, orgService, tokenService, internalSecret),
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	// Create server with timeouts
	srv := &http.Server{
		Handler:      corsMiddleware.Handler(router),
		Addr:         ":" + getPort(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start server
	log.Printf("Server starting on port %s...", getPort())
	log.Fatal(srv.ListenAndServe())
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
