package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Fomalhautarc/kucun/internal/blob"
	"github.com/Fomalhautarc/kucun/internal/services"
	"github.com/Fomalhautarc/kucun/internal/store"
	"github.com/Fomalhautarc/kucun/types"
	"github.com/go-chi/chi/v5"
)

const maxImageBytes = 10 << 20

// ProductHandler provides HTTP handlers for the product catalog.
type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ProductRouter registers product routes. Mutating routes sit behind
// the supplied admin gate; reads are public.
func ProductRouter(r chi.Router, products *services.ProductService, requireAdmin func(http.Handler) http.Handler) {
	handler := NewProductHandler(products)

	r.With(requireAdmin).Post("/", handler.Create)
	r.Get("/query", handler.Query)
	r.Route("/{productID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(requireAdmin).Put("/", handler.Update)
		r.With(requireAdmin).Put("/image", handler.UploadImage)
		r.Get("/image", handler.DownloadImage)
	})
}

type CreateProductRequest struct {
	Name       string   `json:"name" validate:"required"`
	Inventory  *int     `json:"inventory" validate:"required,gte=0"`
	Price      *float64 `json:"price" validate:"required,gte=0"`
	CategoryID *int     `json:"category_id"`
}

type UpdateProductRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1"`
	Inventory *int     `json:"inventory" validate:"omitempty,gte=0"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
}

// ProductListResponse wraps query results.
type ProductListResponse struct {
	Products []types.Product `json:"products"`
}

// ImageResponse reports where a product image was stored.
type ImageResponse struct {
	ObjectKey string `json:"object_key"`
}

// Create adds a product to the catalog.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.products.Create(r.Context(), types.Product{
		Name:       req.Name,
		Inventory:  *req.Inventory,
		Price:      *req.Price,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get retrieves one product by id.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Update applies a partial update. Fields absent from the body stay
// untouched; a body with no updatable fields is a validation error.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.products.UpdatePartial(r.Context(), id, types.ProductPatch{
		Name:      req.Name,
		Inventory: req.Inventory,
		Price:     req.Price,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoFieldsToUpdate):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "product not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Query lists products matching the supplied filter combination. Zero
// matches answer 404, the same shape as a single-resource miss.
func (h *ProductHandler) Query(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.products.Search(r.Context(), filter)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no products found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

// UploadImage stores a product image in the configured object store.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := http.MaxBytesReader(w, r.Body, maxImageBytes)
	defer body.Close()

	key, err := h.products.UploadImage(r.Context(), id, body, r.ContentLength, contentType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, blob.ErrNotConfigured):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, ImageResponse{ObjectKey: key})
}

// DownloadImage streams the stored product image.
func (h *ProductHandler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.products.OpenImage(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, blob.ErrNotConfigured) {
			writeError(w, http.StatusNotFound, "product image not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func parseProductFilter(r *http.Request) (types.ProductFilter, error) {
	query := r.URL.Query()
	filter := types.ProductFilter{
		Name:     strings.TrimSpace(query.Get("name")),
		Category: strings.TrimSpace(query.Get("category")),
	}

	if raw := strings.TrimSpace(query.Get("inventory")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return types.ProductFilter{}, errors.New("invalid inventory")
		}
		filter.MinInventory = &value
	}
	if raw := strings.TrimSpace(query.Get("price_min")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.ProductFilter{}, errors.New("invalid price_min")
		}
		filter.PriceMin = &value
	}
	if raw := strings.TrimSpace(query.Get("price_max")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.ProductFilter{}, errors.New("invalid price_max")
		}
		filter.PriceMax = &value
	}

	return filter, nil
}
