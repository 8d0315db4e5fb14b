package handlers

import (
	"beacon-api/internal/services"
	"net/http"

	"gorm.io/gorm"
)

type HealthCheckResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// HealthCheckHandler checks API health, database connection, and the cache
func HealthCheckHandler(db *gorm.DB, cache services.CacheService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthCheckResponse{
			Status: "API is running",
		}

		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			response.Database = "Database connection failed"
			respondWithJSON(w, http.StatusInternalServerError, response)
			return
		}
		response.Database = "Database connection is healthy"

		response.Cache = "Cache is healthy"
		if cache == nil {
			response.Cache = "Cache not configured"
		} else if err := cache.Ping(r.Context()); err != nil {
			response.Cache = "Cache unreachable"
		}

		respondWithJSON(w, http.StatusOK, response)
	}
}
