package middleware

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/logger"
	"beacon-api/internal/services"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// PublicKeyGate validates the x-api-key header, applies the quota gate and,
// after the handler completes successfully, writes one request-log row. The
// log write happens only once the request is confirmed servable, so rejected
// requests never count against quota.
func PublicKeyGate(
	appService services.AppService,
	quotaService services.QuotaService,
	requestLogService services.RequestLogService,
) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("x-api-key")
			if key == "" {
				http.Error(w, "API key is required", http.StatusBadRequest)
				return
			}

			app, err := appService.GetAppByPublicKey(r.Context(), key)
			if err != nil {
				if err == apperrors.ErrNotFound {
					http.Error(w, "Unknown API key", http.StatusNotFound)
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if err := quotaService.Check(r.Context(), app); err != nil {
				if err == apperrors.ErrQuotaExceeded {
					http.Error(w, "Request limit reached. Please upgrade your subscription for higher limits.", http.StatusTooManyRequests)
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			ctx := services.WithAppContext(r.Context(), app)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.status >= 400 {
				return
			}

			if err := requestLogService.LogRequest(r.Context(), app.ID, ClientIP(r)); err != nil {
				logger.LogEvent(logrus.ErrorLevel, "Failed to log request", logrus.Fields{
					"app_id": app.ID,
					"error":  err,
				})
			}
		})
	}
}
