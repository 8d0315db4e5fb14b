package services

import (
	"beacon-api/internal/billing"
	"beacon-api/internal/logger"
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// ProductService reads billing-provider product metadata through an optional
// cache. Cache failures fail open to a direct provider fetch; the gate must
// never block on the cache.
type ProductService interface {
	GetProduct(ctx context.Context, productID string) (*billing.Product, error)
}

type productService struct {
	provider billing.Provider
	cache    CacheService
	ttl      time.Duration
}

func NewProductService(provider billing.Provider, cache CacheService, ttl time.Duration) ProductService {
	return &productService{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*billing.Product, error) {
	cacheKey := "product:" + productID

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var product billing.Product
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
		}
	}

	product, err := s.provider.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, product, s.ttl); err != nil {
			logger.LogEvent(logrus.WarnLevel, "Failed to cache product", logrus.Fields{
				"product_id": productID,
				"error":      err,
			})
		}
	}

	return product, nil
}
