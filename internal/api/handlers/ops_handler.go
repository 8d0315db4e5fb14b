package handlers

import (
	"beacon-api/internal/models"
	"beacon-api/internal/services"
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// OpsHandler exposes operator-only endpoints guarded by a shared secret.
// They are meant to be invoked by an external scheduler or an operator, not
// by end users.
type OpsHandler struct {
	billingService services.BillingService
	orgService     services.OrgService
	tokenService   services.TokenService
	internalSecret string
}

func NewOpsHandler(
	billingService services.BillingService,
	orgService services.OrgService,
	tokenService services.TokenService,
	internalSecret string,
) *OpsHandler {
	return &OpsHandler{
		billingService: billingService,
		orgService:     orgService,
		tokenService:   tokenService,
		internalSecret: internalSecret,
	}
}

func (h *OpsHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	secret := r.Header.Get("X-Internal-Secret")
	if h.internalSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.internalSecret)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// TriggerUsageSweep runs the usage-reporting sweep across all orgs plus
// retention pruning, and returns a per-run summary.
func (h *OpsHandler) TriggerUsageSweep(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	result, err := h.billingService.RunUsageSweep(r.Context())
	if err != nil {
		http.Error(w, "Usage sweep failed", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// BootstrapOrg creates an organization together with its first org token.
// Everything else is self-service through the admin API.
func (h *OpsHandler) BootstrapOrg(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	org, err := h.orgService.CreateOrg(r.Context(), req.Name)
	if err != nil {
		http.Error(w, "Error creating organization", http.StatusInternalServerError)
		return
	}

	token, err := h.tokenService.Issue(r.Context(), models.TokenClassOrg, org.ID, "owner", "bootstrap", nil)
	if err != nil {
		http.Error(w, "Error issuing token", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"organization": org,
		"token":        token.Token,
	})
}
