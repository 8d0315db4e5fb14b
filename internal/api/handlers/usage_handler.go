package handlers

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/services"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type UsageHandler struct {
	quotaService services.QuotaService
	appService   services.AppService
}

func NewUsageHandler(quotaService services.QuotaService, appService services.AppService) *UsageHandler {
	return &UsageHandler{
		quotaService: quotaService,
		appService:   appService,
	}
}

// GetAppUsage returns the current counting-window usage for one of the
// organization's apps.
func (h *UsageHandler) GetAppUsage(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	appID, err := uuid.Parse(mux.Vars(r)["appId"])
	if err != nil {
		http.Error(w, "Invalid app id", http.StatusBadRequest)
		return
	}

	app, err := h.appService.GetApp(r.Context(), appID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			http.Error(w, "App not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if app.OrgID != identity.OwnerID {
		http.Error(w, "App does not belong to this organization", http.StatusForbidden)
		return
	}

	stats, err := h.quotaService.CurrentUsage(r.Context(), app)
	if err != nil {
		http.Error(w, "Error fetching usage", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
