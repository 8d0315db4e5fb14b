package middleware

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/models"
	"beacon-api/internal/services"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeAuthService struct {
	identity *services.TokenIdentity
	err      error
	lastIP   string
}

func (f *fakeAuthService) Authenticate(ctx context.Context, ip, bearer string, class models.TokenClass) (*services.TokenIdentity, error) {
	f.lastIP = ip
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func (f *fakeAuthService) RetryAfter() time.Duration {
	return 24 * time.Hour
}

func adminRequest(t *testing.T, auth *fakeAuthService, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := services.TokenFromContext(r.Context()); !ok {
			http.Error(w, "no identity in context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := AdminAuth(auth, models.TokenClassOrg)(inner)

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/apps", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuthMissingHeader(t *testing.T) {
	auth := &fakeAuthService{}
	rec := adminRequest(t, auth, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthValidToken(t *testing.T) {
	auth := &fakeAuthService{identity: &services.TokenIdentity{
		Class:   models.TokenClassOrg,
		OwnerID: uuid.New(),
		Role:    "owner",
	}}
	rec := adminRequest(t, auth, "Bearer org_abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "198.51.100.7", auth.lastIP)
}

func TestAdminAuthInvalidToken(t *testing.T) {
	auth := &fakeAuthService{err: apperrors.ErrInvalidToken}
	rec := adminRequest(t, auth, "Bearer garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminAuthWrongClass(t *testing.T) {
	auth := &fakeAuthService{err: apperrors.ErrWrongTokenClass}
	rec := adminRequest(t, auth, "Bearer app_abc")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Wrong token class for this endpoint\n", rec.Body.String())
}

func TestAdminAuthThrottled(t *testing.T) {
	auth := &fakeAuthService{err: apperrors.ErrTooManyAttempts}
	rec := adminRequest(t, auth, "Bearer org_abc")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "86400", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	assert.Equal(t, "198.51.100.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " ")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
