package handlers

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/services"
	"net/http"
)

type OrgHandler struct {
	orgService services.OrgService
}

func NewOrgHandler(orgService services.OrgService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

func (h *OrgHandler) GetOrg(w http.ResponseWriter, r *http.Request) {
	identity, ok := services.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	org, err := h.orgService.GetOrg(r.Context(), identity.OwnerID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			http.Error(w, "Organization not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, org)
}
