package handlers

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/models"
	"beacon-api/internal/services"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type MessageHandler struct {
	messageService services.MessageService
	appService     services.AppService
}

func NewMessageHandler(messageService services.MessageService, appService services.AppService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		appService:     appService,
	}
}

// GetActiveMessages serves the public messages endpoint. The app has already
// been resolved and quota-gated by the public key middleware.
func (h *MessageHandler) GetActiveMessages(w http.ResponseWriter, r *http.Request) {
	app, ok := services.AppFromContext(r.Context())
	if !ok {
		http.Error(w, "Unknown app", http.StatusNotFound)
		return
	}

	messages, err := h.messageService.ListActiveMessages(r.Context(), app.ID)
	if err != nil {
		http.Error(w, "Error fetching messages", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	app, ok := h.authorizedApp(w, r)
	if !ok {
		return
	}

	var req struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Active *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	message, err := h.messageService.CreateMessage(r.Context(), app.ID, req.Title, req.Body, active)
	if err != nil {
		http.Error(w, "Error creating message", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	app, ok := h.authorizedApp(w, r)
	if !ok {
		return
	}

	messages, err := h.messageService.ListMessages(r.Context(), app.ID)
	if err != nil {
		http.Error(w, "Error fetching messages", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	app, ok := h.authorizedApp(w, r)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid message id", http.StatusBadRequest)
		return
	}

	message, err := h.messageService.GetMessage(r.Context(), messageID)
	if err != nil || message.AppID != app.ID {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	var req struct {
		Title  *string `json:"title"`
		Body   *string `json:"body"`
		Active *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		message.Title = *req.Title
	}
	if req.Body != nil {
		message.Body = *req.Body
	}
	if req.Active != nil {
		message.Active = *req.Active
	}

	if err := h.messageService.UpdateMessage(r.Context(), message); err != nil {
		http.Error(w, "Error updating message", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, message)
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	app, ok := h.authorizedApp(w, r)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid message id", http.StatusBadRequest)
		return
	}

	message, err := h.messageService.GetMessage(r.Context(), messageID)
	if err != nil || message.AppID != app.ID {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	if err := h.messageService.DeleteMessage(r.Context(), messageID); err != nil {
		http.Error(w, "Error deleting message", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizedApp resolves the {appId} route variable and checks the caller's
// token owns it: an app token must match the app, an org token must own the
// app's organization.
func (h *MessageHandler) authorizedApp(w http.ResponseWriter, r *http.Request) (*models.App, bool) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	appID, err := uuid.Parse(mux.Vars(r)["appId"])
	if err != nil {
		http.Error(w, "Invalid app id", http.StatusBadRequest)
		return nil, false
	}

	app, err := h.appService.GetApp(r.Context(), appID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			http.Error(w, "App not found", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}

	switch identity.Class {
	case models.TokenClassApp:
		if identity.OwnerID != app.ID {
			http.Error(w, "Token does not belong to this app", http.StatusForbidden)
			return nil, false
		}
	case models.TokenClassOrg:
		if identity.OwnerID != app.OrgID {
			http.Error(w, "App does not belong to this organization", http.StatusForbidden)
			return nil, false
		}
	}

	return app, true
}
