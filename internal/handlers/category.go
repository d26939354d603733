package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Fomalhautarc/kucun/internal/services"
	"github.com/Fomalhautarc/kucun/internal/store"
	"github.com/Fomalhautarc/kucun/types"
	"github.com/go-chi/chi/v5"
)

// CategoryHandler provides HTTP handlers for categories.
type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// CategoryRouter registers category routes on the given router.
func CategoryRouter(r chi.Router, categories *services.CategoryService) {
	handler := NewCategoryHandler(categories)

	r.Post("/", handler.Create)
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// Create adds a category. Duplicate names are rejected by the unique
// constraint and answer 400.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.categories.Create(r.Context(), types.Category{Name: req.Name})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "category already exists")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}
