package handlers

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/models"
	"beacon-api/internal/services"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type TokenHandler struct {
	tokenService services.TokenService
	appService   services.AppService
}

func NewTokenHandler(tokenService services.TokenService, appService services.AppService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
		appService:   appService,
	}
}

type createTokenRequest struct {
	Class     string     `json:"class"`
	AppID     *uuid.UUID `json:"app_id"`
	Role      string     `json:"role"`
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type tokenResponse struct {
	*models.AdminToken
	// Token is only ever returned at creation time.
	Token string `json:"token"`
}

// CreateToken issues a new admin token. An org token can mint further org
// tokens for its own organization, or app tokens for apps it owns.
func (h *TokenHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	class := models.TokenClass(req.Class)
	var ownerID uuid.UUID

	switch class {
	case models.TokenClassOrg:
		ownerID = identity.OwnerID
	case models.TokenClassApp:
		if req.AppID == nil {
			http.Error(w, "app_id is required for app tokens", http.StatusBadRequest)
			return
		}
		app, err := h.appService.GetApp(r.Context(), *req.AppID)
		if err != nil || app.OrgID != identity.OwnerID {
			http.Error(w, "App not found", http.StatusNotFound)
			return
		}
		ownerID = app.ID
	default:
		http.Error(w, "Unknown token class", http.StatusBadRequest)
		return
	}

	token, err := h.tokenService.Issue(r.Context(), class, ownerID, req.Role, req.Label, req.ExpiresAt)
	if err != nil {
		http.Error(w, "Error creating token", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusCreated, tokenResponse{AdminToken: token, Token: token.Token})
}

// ListTokens returns every token the caller's organization can revoke: the
// org's own tokens plus the app tokens of each app it owns.
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tokens, err := h.tokenService.ListByOwner(r.Context(), models.TokenClassOrg, identity.OwnerID)
	if err != nil {
		http.Error(w, "Error fetching tokens", http.StatusInternalServerError)
		return
	}

	apps, err := h.appService.ListApps(r.Context(), identity.OwnerID)
	if err != nil {
		http.Error(w, "Error fetching tokens", http.StatusInternalServerError)
		return
	}
	for _, app := range apps {
		appTokens, err := h.tokenService.ListByOwner(r.Context(), models.TokenClassApp, app.ID)
		if err != nil {
			http.Error(w, "Error fetching tokens", http.StatusInternalServerError)
			return
		}
		tokens = append(tokens, appTokens...)
	}

	respondWithJSON(w, http.StatusOK, tokens)
}

func (h *TokenHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tokenID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid token id", http.StatusBadRequest)
		return
	}

	token, err := h.tokenService.Get(r.Context(), tokenID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			http.Error(w, "Token not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error revoking token", http.StatusInternalServerError)
		return
	}

	// Another organization's token is indistinguishable from a missing one.
	if !h.ownsToken(r.Context(), identity, token) {
		http.Error(w, "Token not found", http.StatusNotFound)
		return
	}

	if err := h.tokenService.Revoke(r.Context(), tokenID); err != nil {
		if err == apperrors.ErrNotFound {
			http.Error(w, "Token not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error revoking token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownsToken reports whether the calling organization owns the token: org
// tokens belong to the org directly, app tokens through the owning app.
func (h *TokenHandler) ownsToken(ctx context.Context, identity *services.TokenIdentity, token *models.AdminToken) bool {
	switch token.OwnerType {
	case models.TokenClassOrg:
		return token.OwnerID == identity.OwnerID
	case models.TokenClassApp:
		app, err := h.appService.GetApp(ctx, token.OwnerID)
		return err == nil && app.OrgID == identity.OwnerID
	}
	return false
}
