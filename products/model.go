// Package products implements the product catalog: a gateway that answers product
// searches from a PostgreSQL-backed cache and refreshes that cache from the external
// scraping service when it goes stale.
package products

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Defaults applied to search parameters the caller leaves unset.
const (
	DefaultMaxProducts = 10
	DefaultMaxWorkers  = 8
)

// Product is a single scraped product as stored and served by the catalog.
// The same shape is decoded from the scraping service, which does not set ID or timestamps.
type Product struct {
	ID           int64                  `json:"id,omitempty"`
	Name         string                 `json:"name"`
	Price        string                 `json:"price"`
	SKU          string                 `json:"sku"`
	Images       []string               `json:"images"`
	Specs        map[string]interface{} `json:"specs"`
	Availability string                 `json:"availability"`
	Estimate     string                 `json:"estimate"`
	StoreInfo    string                 `json:"store_info"`
	Warranty     string                 `json:"warranty"`
	Src          string                 `json:"src"` // URL the product was scraped from
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
	UpdatedAt    *time.Time             `json:"updated_at,omitempty"`
}

// SearchParams are the parameters of a product search. They are forwarded
// verbatim to the scraping service and are never persisted.
type SearchParams struct {
	SearchQuery string `json:"search_query" validate:"required"`
	MaxProducts int    `json:"max_products"`
	AllPages    bool   `json:"all_pages"`
	MaxWorkers  int    `json:"max_workers"` // concurrency hint for the scraper
}

// WithDefaults returns a copy with non-positive counts replaced by their defaults.
func (p SearchParams) WithDefaults() SearchParams {
	if p.MaxProducts <= 0 {
		p.MaxProducts = DefaultMaxProducts
	}
	if p.MaxWorkers <= 0 {
		p.MaxWorkers = DefaultMaxWorkers
	}
	return p
}

// Fingerprint identifies the result set a search would produce. The query is
// trimmed and lower-cased; MaxWorkers is left out because it only changes how fast
// the scraper works, not what it returns.
func (p SearchParams) Fingerprint() string {
	p = p.WithDefaults()
	normalized := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(p.SearchQuery)),
		strconv.Itoa(p.MaxProducts),
		strconv.FormatBool(p.AllPages),
	}, "|")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
