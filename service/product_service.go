package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"fincentiva-api/domain"
	"fincentiva-api/repository"
)

var storeHosts = map[string]domain.Store{
	"amazon.com.mx":         domain.StoreAmazon,
	"mercadolibre.com.mx":   domain.StoreMercadoLibre,
	"liverpool.com.mx":      domain.StoreLiverpool,
	"walmart.com.mx":        domain.StoreWalmart,
	"elpalaciodehierro.com": domain.StorePalacioDeHierro,
}

// StoreFor maps a product URL to a supported store. Subdomains of a supported
// host (www., articulo.) are accepted.
func StoreFor(rawURL string) (domain.Store, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", fmt.Errorf("%w: url inválida", ErrInvalidInput)
	}
	host := strings.ToLower(u.Hostname())
	for suffix, store := range storeHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return store, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedStore, host)
}

type ProductService struct {
	provider repository.ProductInfoProvider
	cache    repository.CacheRepository
	logger   *slog.Logger
}

func NewProductService(
	provider repository.ProductInfoProvider,
	cache repository.CacheRepository,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Lookup returns price and title of a product from a supported store.
func (s *ProductService) Lookup(ctx context.Context, input domain.ProductInput) (domain.ProductInfo, error) {
	store, err := StoreFor(input.URL)
	if err != nil {
		return domain.ProductInfo{}, err
	}
	rawURL := strings.TrimSpace(input.URL)

	key := productCacheScope + ":" + rawURL
	if raw, ok := s.cache.Get(ctx, key); ok {
		var info domain.ProductInfo
		if err := json.Unmarshal([]byte(raw), &info); err == nil {
			return info, nil
		}
	}

	info, err := s.provider.Lookup(ctx, rawURL)
	if err != nil {
		s.logger.Warn("product lookup failed", "store", store, "url", rawURL, "error", err)
		return domain.ProductInfo{}, err
	}
	info.URL = rawURL
	info.Store = store

	if payload, err := json.Marshal(info); err == nil {
		if err := s.cache.Set(ctx, key, string(payload)); err != nil {
			s.logger.Warn("failed to cache product", "key", key, "error", err)
		}
	}
	return info, nil
}
