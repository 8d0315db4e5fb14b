package handlers

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/services"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppHandler struct {
	appService services.AppService
}

func NewAppHandler(appService services.AppService) *AppHandler {
	return &AppHandler{appService: appService}
}

func (h *AppHandler) CreateApp(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	app, err := h.appService.CreateApp(r.Context(), identity.OwnerID, req.Name)
	if err != nil {
		http.Error(w, "Error creating app", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusCreated, app)
}

func (h *AppHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	apps, err := h.appService.ListApps(r.Context(), identity.OwnerID)
	if err != nil {
		http.Error(w, "Error fetching apps", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, apps)
}

func (h *AppHandler) RotatePublicKey(w http.ResponseWriter, r *http.Request) {
	app, ok := h.ownedApp(w, r)
	if !ok {
		return
	}

	key, err := h.appService.RotatePublicKey(r.Context(), app)
	if err != nil {
		http.Error(w, "Error rotating public key", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"public_key": key})
}

func (h *AppHandler) DeleteApp(w http.ResponseWriter, r *http.Request) {
	app, ok := h.ownedApp(w, r)
	if !ok {
		return
	}

	if err := h.appService.DeleteApp(r.Context(), app); err != nil {
		http.Error(w, "Error deleting app", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AppHandler) ownedApp(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}

	appID, err := uuid.Parse(mux.Vars(r)["appId"])
	if err != nil {
		http.Error(w, "Invalid app id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	app, err := h.appService.GetApp(r.Context(), appID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			http.Error(w, "App not found", http.StatusNotFound)
			return uuid.Nil, false
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return uuid.Nil, false
	}

	if app.OrgID != identity.OwnerID {
		http.Error(w, "App does not belong to this organization", http.StatusForbidden)
		return uuid.Nil, false
	}

	return app.ID, true
}
