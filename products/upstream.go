package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/cariin-go/apperror"
)

// Scraper performs a live product search against the external scraping service.
type Scraper interface {
	Scrape(ctx context.Context, params SearchParams) ([]Product, error)
}

// HTTPScraper calls `POST {baseURL}/scrape` and decodes the JSON array it returns.
type HTTPScraper struct {
	baseURL string
	client  *http.Client
}

// NewHTTPScraper creates a scraper client. A non-positive timeout leaves the
// client without a deadline of its own; the request context still applies.
func NewHTTPScraper(baseURL string, timeout time.Duration) *HTTPScraper {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &HTTPScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type scrapeRequest struct {
	SearchQuery string `json:"search_query"`
	MaxProducts int    `json:"max_products"`
	AllPages    bool   `json:"all_pages"`
	MaxWorkers  int    `json:"max_workers"`
}

// Scrape runs one search. Every failure is an UpstreamError whose message says
// at which stage the call broke down.
func (s *HTTPScraper) Scrape(ctx context.Context, params SearchParams) ([]Product, error) {
	params = params.WithDefaults()
	body, err := json.Marshal(scrapeRequest{
		SearchQuery: params.SearchQuery,
		MaxProducts: params.MaxProducts,
		AllPages:    params.AllPages,
		MaxWorkers:  params.MaxWorkers,
	})
	if err != nil {
		return nil, apperror.NewUpstreamError("scraper request could not be constructed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, apperror.NewUpstreamError("scraper request could not be constructed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperror.NewUpstreamError("no response received from scraper", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperror.NewUpstreamError(
			fmt.Sprintf("error response received from scraper: status %d", resp.StatusCode),
			fmt.Errorf("body: %s", strings.TrimSpace(string(snippet))),
		)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, apperror.NewUpstreamError("malformed response from scraper", err)
	}
	// A null body decodes without error but is not the array the scraper promises.
	if products == nil {
		return nil, apperror.NewUpstreamError("malformed response from scraper", errors.New("response body is not a JSON array"))
	}
	return products, nil
}
