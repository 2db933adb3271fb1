package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/season-swap/internal/service"
)

// ProductRequest - новый товар, владельцем становится автор запроса
type ProductRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Season      string  `json:"season" validate:"required,oneof=spring summer autumn winter"`
	Description string  `json:"description" validate:"required,max=1000"`
	ImageRef    *string `json:"imageRef,omitempty" validate:"omitempty,max=512"`
}

// CreateProductHandler обрабатывает POST /api/products
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		ownerID, ok := userID(w, r, logger)
		if !ok {
			return
		}

		var req ProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.CreateProduct(r.Context(), ownerID, service.ProductInput{
			Name:        req.Name,
			Season:      req.Season,
			Description: req.Description,
			ImageRef:    req.ImageRef,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, product)
	}
}

// ListProductsHandler обрабатывает GET /api/products и GET /api/products/{season}
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.ListProducts(r.Context(), chi.URLParam(r, "season"))
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, products)
	}
}
