package adaptor

import (
	"encoding/json"
	"net/http"

	"superbuy/internal/dto/request"
	"superbuy/internal/usecase"
	"superbuy/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	service usecase.ProductService
	log     *zap.Logger
}

func NewProductHandler(service usecase.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log,
	}
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ResponseBadRequest(w, utils.FormatValidationErrors(errs), errs)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "create product")
		return
	}

	utils.ResponseCreated(w, "Product created successfully", product)
}

// GetAllProducts handles GET /api/v1/products
func (h *ProductHandler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAllProducts(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "list products")
		return
	}

	utils.ResponseSuccess(w, "Products retrieved successfully", products)
}

// GetProductByID handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "get product")
		return
	}
	if product == nil {
		utils.ResponseNotFound(w, "Product not found")
		return
	}

	utils.ResponseSuccess(w, "Product retrieved successfully", product)
}

// UpdateProduct handles PATCH /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ResponseBadRequest(w, utils.FormatValidationErrors(errs), errs)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.log, err, "update product")
		return
	}
	if product == nil {
		utils.ResponseNotFound(w, "Product not found")
		return
	}

	utils.ResponseSuccess(w, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "delete product")
		return
	}
	if !deleted {
		utils.ResponseNotFound(w, "Product not found")
		return
	}

	utils.ResponseSuccess(w, "Product deleted successfully", nil)
}

// BulkImportProducts handles POST /api/v1/products/import
func (h *ProductHandler) BulkImportProducts(w http.ResponseWriter, r *http.Request) {
	var req request.BulkImportProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ResponseBadRequest(w, utils.FormatValidationErrors(errs), errs)
		return
	}

	count, err := h.service.BulkImportProducts(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "import products")
		return
	}

	utils.ResponseSuccess(w, "Products imported successfully", map[string]int{"imported": count})
}
