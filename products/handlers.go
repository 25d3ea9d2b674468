package products

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/user/cariin-go/apperror"
)

const (
	msgQueryRequired       = "search_query is required and must be a string"
	msgBodyQueryRequired   = "search_query is required"
	msgInvalidProductID    = "Invalid product ID"
	msgProductNotFound     = "Product not found"
	msgProductsRetrieved   = "Products retrieved successfully"
	msgProductsForced      = "Products force updated successfully"
	msgProductRetrieved    = "Product retrieved successfully"
	msgInvalidRequestBody  = "Invalid request payload"
	msgInvalidSearchNumber = "must be an integer"
)

// ProductListResponse is the body of a product search.
type ProductListResponse struct {
	Success bool      `json:"success" example:"true"`
	Data    []Product `json:"data"`
	Count   int       `json:"count" example:"2"`
	Message string    `json:"message" example:"Products retrieved successfully"`
}

// ProductResponse is the body of a single product lookup.
type ProductResponse struct {
	Success bool     `json:"success" example:"true"`
	Data    *Product `json:"data"`
	Message string   `json:"message" example:"Product retrieved successfully"`
}

// ProductHandlers serves the catalog endpoints on top of a Gateway.
type ProductHandlers struct {
	gateway  *Gateway
	validate *validator.Validate
}

// NewProductHandlers creates the catalog HTTP handlers.
func NewProductHandlers(gateway *Gateway) *ProductHandlers {
	return &ProductHandlers{gateway: gateway, validate: validator.New()}
}

// RegisterRoutes mounts the catalog endpoints under /api/product.
func (h *ProductHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/product", func(r chi.Router) {
		r.Get("/", h.HandleSearch())
		r.Post("/force-update", h.HandleForceUpdate())
		r.Get("/sku/{sku}", h.HandleGetBySKU())
		r.Get("/{id}", h.HandleGetByID())
	})
}

// HandleSearch godoc
// @Summary Search products
// @Description Returns stored products while they are fresh, otherwise fetches them from the scraping service and stores them.
// @Tags products
// @Produce json
// @Param search_query query string true "Search query"
// @Param max_products query int false "Maximum number of products" default(10)
// @Param all_pages query bool false "Scrape every result page" default(false)
// @Param max_workers query int false "Scraper worker count" default(8)
// @Success 200 {object} ProductListResponse
// @Failure 400 {object} apperror.ErrorResponse "Missing search_query or malformed number"
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/product [get]
func (h *ProductHandlers) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := searchParamsFromQuery(r)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		products := h.gateway.GetProducts(r.Context(), params)
		apperror.WriteJSON(w, http.StatusOK, ProductListResponse{
			Success: true,
			Data:    products,
			Count:   len(products),
			Message: msgProductsRetrieved,
		})
	}
}

// HandleForceUpdate godoc
// @Summary Search products with body parameters
// @Description Runs the same cache logic as the search endpoint with parameters taken from a JSON body.
// @Tags products
// @Accept json
// @Produce json
// @Param params body SearchParams true "Search parameters"
// @Success 200 {object} ProductListResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/product/force-update [post]
func (h *ProductHandlers) HandleForceUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var params SearchParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError(msgInvalidRequestBody, err))
			return
		}
		params.SearchQuery = strings.TrimSpace(params.SearchQuery)
		if err := h.validate.Struct(params); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError(msgBodyQueryRequired, err))
			return
		}

		products := h.gateway.GetProducts(r.Context(), params)
		apperror.WriteJSON(w, http.StatusOK, ProductListResponse{
			Success: true,
			Data:    products,
			Count:   len(products),
			Message: msgProductsForced,
		})
	}
}

// HandleGetByID godoc
// @Summary Get a product by ID
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid product ID"
// @Failure 404 {object} apperror.ErrorResponse "Product not found"
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/product/{id} [get]
func (h *ProductHandlers) HandleGetByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError(msgInvalidProductID, err))
			return
		}

		product, err := h.gateway.GetByID(r.Context(), id)
		writeLookup(w, product, err)
	}
}

// HandleGetBySKU godoc
// @Summary Get a product by SKU
// @Tags products
// @Produce json
// @Param sku path string true "Product SKU"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} apperror.ErrorResponse "Product not found"
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/product/sku/{sku} [get]
func (h *ProductHandlers) HandleGetBySKU() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.gateway.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
		writeLookup(w, product, err)
	}
}

func writeLookup(w http.ResponseWriter, product *Product, err error) {
	if err != nil {
		apperror.WriteError(w, err)
		return
	}
	if product == nil {
		apperror.WriteError(w, apperror.NewNotFoundError(msgProductNotFound, nil))
		return
	}
	apperror.WriteJSON(w, http.StatusOK, ProductResponse{
		Success: true,
		Data:    product,
		Message: msgProductRetrieved,
	})
}

// searchParamsFromQuery reads search parameters from the URL. Absent numbers
// fall back to their defaults; present but malformed ones are rejected.
func searchParamsFromQuery(r *http.Request) (SearchParams, error) {
	q := r.URL.Query()
	params := SearchParams{SearchQuery: strings.TrimSpace(q.Get("search_query"))}
	if params.SearchQuery == "" {
		return params, apperror.NewBadRequestError(msgQueryRequired, nil)
	}

	var err error
	if params.MaxProducts, err = optionalInt(q.Get("max_products")); err != nil {
		return params, apperror.NewValidationError("max_products "+msgInvalidSearchNumber,
			map[string]string{"max_products": msgInvalidSearchNumber})
	}
	if params.MaxWorkers, err = optionalInt(q.Get("max_workers")); err != nil {
		return params, apperror.NewValidationError("max_workers "+msgInvalidSearchNumber,
			map[string]string{"max_workers": msgInvalidSearchNumber})
	}
	if raw := q.Get("all_pages"); raw != "" {
		if params.AllPages, err = strconv.ParseBool(raw); err != nil {
			return params, apperror.NewValidationError("all_pages must be a boolean",
				map[string]string{"all_pages": "must be a boolean"})
		}
	}
	return params.WithDefaults(), nil
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
