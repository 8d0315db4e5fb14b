package services

import (
	"beacon-api/internal/models"
	"context"
)

type contextKey string

const (
	TokenContextKey contextKey = "token_identity"
	AppContextKey   contextKey = "app"
)

// Helper function to add the validated token identity to context
func WithTokenContext(ctx context.Context, identity *TokenIdentity) context.Context {
	return context.WithValue(ctx, TokenContextKey, identity)
}

// Helper function to get the token identity from context
func TokenFromContext(ctx context.Context) (*TokenIdentity, bool) {
	identity, ok := ctx.Value(TokenContextKey).(*TokenIdentity)
	return identity, ok
}

// Helper function to add the resolved app to context
func WithAppContext(ctx context.Context, app *models.App) context.Context {
	return context.WithValue(ctx, AppContextKey, app)
}

// Helper function to get the app from context
func AppFromContext(ctx context.Context) (*models.App, bool) {
	app, ok := ctx.Value(AppContextKey).(*models.App)
	return app, ok
}
