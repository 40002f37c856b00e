package repository

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fincentiva-api/domain"
)

var (
	ErrProductNotFound = errors.New("no se encontró el precio del producto")
	ErrUpstream        = errors.New("la tienda no respondió correctamente")
)

const maxProductPageBytes = 4 << 20

type ProductInfoProvider interface {
	Lookup(ctx context.Context, rawURL string) (domain.ProductInfo, error)
}

// HTTPProductProvider downloads a product page and reads price and title from
// its metadata.
type HTTPProductProvider struct {
	client    *http.Client
	userAgent string
}

func NewHTTPProductProvider(timeout time.Duration) *HTTPProductProvider {
	return &HTTPProductProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: "Mozilla/5.0 (compatible; FincentivaBot/1.0)",
	}
}

func (p *HTTPProductProvider) Lookup(ctx context.Context, rawURL string) (domain.ProductInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.ProductInfo{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ProductInfo{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ProductInfo{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProductPageBytes))
	if err != nil {
		return domain.ProductInfo{}, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	info, err := ParseProductPage(body)
	if err != nil {
		return domain.ProductInfo{}, err
	}
	info.URL = rawURL
	return info, nil
}

var (
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["'](?:product|og):price:amount["'][^>]*content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]*(?:property|name)=["'](?:product|og):price:amount["']`),
		regexp.MustCompile(`(?i)itemprop=["']price["'][^>]*content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)content=["']([^"']+)["'][^>]*itemprop=["']price["']`),
		regexp.MustCompile(`"price"\s*:\s*"?([0-9][0-9.,]*)"?`),
	}
	currencyPattern = regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["'](?:product|og):price:currency["'][^>]*content=["']([A-Za-z]{3})["']`)
	ogTitlePattern  = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:title["'][^>]*content=["']([^"']+)["']`)
	titlePattern    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	ogImagePattern  = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:image["'][^>]*content=["']([^"']+)["']`)
)

// ParseProductPage extracts the product metadata from an HTML page.
func ParseProductPage(page []byte) (domain.ProductInfo, error) {
	price, ok := findPrice(page)
	if !ok {
		return domain.ProductInfo{}, ErrProductNotFound
	}

	info := domain.ProductInfo{
		Price:    price,
		Currency: "MXN",
	}
	if m := currencyPattern.FindSubmatch(page); m != nil {
		info.Currency = strings.ToUpper(string(m[1]))
	}
	if m := ogTitlePattern.FindSubmatch(page); m != nil {
		info.Title = cleanText(m[1])
	} else if m := titlePattern.FindSubmatch(page); m != nil {
		info.Title = cleanText(m[1])
	}
	if m := ogImagePattern.FindSubmatch(page); m != nil {
		info.ImageURL = html.UnescapeString(string(m[1]))
	}
	return info, nil
}

func findPrice(page []byte) (decimal.Decimal, bool) {
	for _, pattern := range pricePatterns {
		for _, m := range pattern.FindAllSubmatch(page, -1) {
			if price, ok := parsePrice(string(m[1])); ok {
				return price, true
			}
		}
	}
	return decimal.Zero, false
}

// parsePrice accepts "$12,999.00", "12999" and similar. Commas are thousands
// separators.
func parsePrice(raw string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", "MXN", "").Replace(strings.TrimSpace(raw))
	price, err := decimal.NewFromString(cleaned)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price.Round(2), true
}

func cleanText(b []byte) string {
	return strings.Join(strings.Fields(html.UnescapeString(string(b))), " ")
}
