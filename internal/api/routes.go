package api

import (
	"beacon-api/internal/api/handlers"
	"beacon-api/internal/middleware"
	"beacon-api/internal/models"
	"beacon-api/internal/services"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Deps struct {
	DB                *gorm.DB
	Cache             services.CacheService
	AuthService       services.AuthService
	AppService        services.AppService
	QuotaService      services.QuotaService
	RequestLogService services.RequestLogService
	MessageHandler    *handlers.MessageHandler
	AppHandler        *handlers.AppHandler
	OrgHandler        *handlers.OrgHandler
	TokenHandler      *handlers.TokenHandler
	UsageHandler      *handlers.UsageHandler
	StripeHandler     *handlers.StripeHandler
	OpsHandler        *handlers.OpsHandler
}

func SetupRoutes(deps Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", handlers.HealthCheckHandler(deps.DB, deps.Cache)).Methods("GET")

	// Public SDK surface: key-gated, quota-gated, request-logged.
	public := router.PathPrefix("/api/v1").Subrouter()
	public.Use(middleware.PublicKeyGate(deps.AppService, deps.QuotaService, deps.RequestLogService))
	public.HandleFunc("/messages", deps.MessageHandler.GetActiveMessages).Methods("GET")

	// Org-scoped admin surface.
	orgAdmin := router.PathPrefix("/admin/v1").Subrouter()
	orgAdmin.Use(middleware.AdminAuth(deps.AuthService, models.TokenClassOrg))
	orgAdmin.HandleFunc("/org", deps.OrgHandler.GetOrg).Methods("GET")
	orgAdmin.HandleFunc("/apps", deps.AppHandler.CreateApp).Methods("POST")
	orgAdmin.HandleFunc("/apps", deps.AppHandler.ListApps).Methods("GET")
	orgAdmin.HandleFunc("/apps/{appId}/key", deps.AppHandler.RotatePublicKey).Methods("POST")
	orgAdmin.HandleFunc("/apps/{appId}", deps.AppHandler.DeleteApp).Methods("DELETE")
	orgAdmin.HandleFunc("/apps/{appId}/usage", deps.UsageHandler.GetAppUsage).Methods("GET")
	orgAdmin.HandleFunc("/apps/{appId}/messages", deps.MessageHandler.CreateMessage).Methods("POST")
	orgAdmin.HandleFunc("/apps/{appId}/messages", deps.MessageHandler.ListMessages).Methods("GET")
	orgAdmin.HandleFunc("/apps/{appId}/messages/{id}", deps.MessageHandler.UpdateMessage).Methods("PATCH")
	orgAdmin.HandleFunc("/apps/{appId}/messages/{id}", deps.MessageHandler.DeleteMessage).Methods("DELETE")
	orgAdmin.HandleFunc("/tokens", deps.TokenHandler.CreateToken).Methods("POST")
	orgAdmin.HandleFunc("/tokens", deps.TokenHandler.ListTokens).Methods("GET")
	orgAdmin.HandleFunc("/tokens/{id}", deps.TokenHandler.RevokeToken).Methods("DELETE")

	// App-scoped admin surface: app tokens manage their own app's messages.
	appAdmin := router.PathPrefix("/app/v1").Subrouter()
	appAdmin.Use(middleware.AdminAuth(deps.AuthService, models.TokenClassApp))
	appAdmin.HandleFunc("/apps/{appId}/messages", deps.MessageHandler.CreateMessage).Methods("POST")
	appAdmin.HandleFunc("/apps/{appId}/messages", deps.MessageHandler.ListMessages).Methods("GET")
	appAdmin.HandleFunc("/apps/{appId}/messages/{id}", deps.MessageHandler.UpdateMessage).Methods("PATCH")
	appAdmin.HandleFunc("/apps/{appId}/messages/{id}", deps.MessageHandler.DeleteMessage).Methods("DELETE")

	// Billing provider callbacks and operator endpoints.
	router.HandleFunc("/webhooks/stripe", deps.StripeHandler.HandleStripeWebhook).Methods("POST")
	router.HandleFunc("/internal/usage/report", deps.OpsHandler.TriggerUsageSweep).Methods("POST")
	router.HandleFunc("/internal/orgs", deps.OpsHandler.BootstrapOrg).Methods("POST")

	return router
}
