package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ecommerce-service/internal/catalog"
	"ecommerce-service/internal/domain"
	"ecommerce-service/internal/store"
)

// resolveCategoryRef looks up a category by the {slug} route parameter, which
// accepts either a slug or a numeric id.
func (h *HTTPHandler) resolveCategoryRef(ctx context.Context, ref string) (*domain.Category, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		return h.categoryStore.GetCategoryByID(ctx, id)
	}
	return h.categoryStore.GetCategoryBySlug(ctx, ref)
}

// --- Category Handlers ---

// GetCategoryTree returns the full nested category tree, root categories
// first with children embedded to the stored depth.
func (h *HTTPHandler) GetCategoryTree(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("ListCategories store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	respondWithJSON(w, http.StatusOK, catalog.BuildTree(categories))
}

// GetCategory returns a category together with its root-first breadcrumb
// path.
func (h *HTTPHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.resolveCategoryRef(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Str("slug", chi.URLParam(r, "slug")).Msg("category lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}

	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("ListCategories store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}
	breadcrumbs, err := catalog.Breadcrumb(categories, category.ID)
	if err != nil {
		h.logger.Error().Err(err).Int64("category_id", category.ID).Msg("breadcrumb resolution failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}

	respondWithJSON(w, http.StatusOK, struct {
		Category    *domain.Category `json:"category"`
		Breadcrumbs []catalog.Crumb  `json:"breadcrumbs"`
	}{Category: category, Breadcrumbs: breadcrumbs})
}

// ListCategoryProducts returns a paginated product listing drawn from the
// category and its whole descendant subtree.
func (h *HTTPHandler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	category, err := h.resolveCategoryRef(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Str("slug", chi.URLParam(r, "slug")).Msg("category lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("ListCategories store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	params, ok := h.productListParams(w, r)
	if !ok {
		return
	}
	params.CategoryIDs = catalog.DescendantIDs(categories, category.ID)

	h.respondProductPage(w, r, params)
}

// CategoryInput defines the expected input for creating or updating a
// category. The slug is always derived server-side from the name.
type CategoryInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	ParentID *int64  `json:"parent_id" validate:"omitempty,gt=0"`
	Icon     *string `json:"icon" validate:"omitempty,max=2048"`
	Image    *string `json:"image" validate:"omitempty,max=2048"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	slug := domain.Slugify(input.Name)
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "Category name must contain at least one word character")
		return
	}

	category := &domain.Category{
		Name:     input.Name,
		Slug:     slug,
		ParentID: input.ParentID,
		Icon:     input.Icon,
		Image:    input.Image,
	}
	created, err := h.categoryStore.CreateCategory(r.Context(), category)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCategorySlugExists):
			respondWithError(w, http.StatusConflict, store.ErrCategorySlugExists.Error())
		case errors.Is(err, store.ErrCategoryNotFound):
			respondWithError(w, http.StatusBadRequest, "Invalid parent_id: category does not exist")
		default:
			h.logger.Error().Err(err).Str("name", input.Name).Msg("CreateCategory store operation failed")
			respondWithError(w, http.StatusInternalServerError, "Failed to create category")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	existing, err := h.resolveCategoryRef(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Str("slug", chi.URLParam(r, "slug")).Msg("category lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	slug := domain.Slugify(input.Name)
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "Category name must contain at least one word character")
		return
	}

	// Re-parenting must not make the category its own ancestor.
	if input.ParentID != nil {
		categories, err := h.categoryStore.ListCategories(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("ListCategories store operation failed")
			respondWithError(w, http.StatusInternalServerError, "Failed to update category")
			return
		}
		if catalog.WouldCreateCycle(categories, existing.ID, *input.ParentID) {
			respondWithError(w, http.StatusBadRequest, "Category cannot be its own ancestor")
			return
		}
	}

	category := &domain.Category{
		ID:       existing.ID,
		Name:     input.Name,
		Slug:     slug,
		ParentID: input.ParentID,
		Icon:     input.Icon,
		Image:    input.Image,
	}
	updated, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCategorySlugExists):
			respondWithError(w, http.StatusConflict, store.ErrCategorySlugExists.Error())
		case errors.Is(err, store.ErrCategoryNotFound):
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		default:
			h.logger.Error().Err(err).Int64("category_id", existing.ID).Msg("UpdateCategory store operation failed")
			respondWithError(w, http.StatusInternalServerError, "Failed to update category")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.resolveCategoryRef(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Str("slug", chi.URLParam(r, "slug")).Msg("category lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	if err := h.categoryStore.DeleteCategory(r.Context(), category.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNotEmpty):
			respondWithError(w, http.StatusConflict, store.ErrCategoryNotEmpty.Error())
		case errors.Is(err, store.ErrCategoryNotFound):
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		default:
			h.logger.Error().Err(err).Int64("category_id", category.ID).Msg("DeleteCategory store operation failed")
			respondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		}
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Product Handlers ---

// productListParams parses the shared product filter query parameters.
// Reports false after writing an error response if a parameter is malformed.
func (h *HTTPHandler) productListParams(w http.ResponseWriter, r *http.Request) (store.ListProductsParams, bool) {
	_, limit, offset := parsePagination(r)
	params := store.ListProductsParams{Limit: limit, Offset: offset}

	qParams := r.URL.Query()
	if q := qParams.Get("search"); q != "" {
		params.SearchQuery = &q
	}
	// Price filters accept both spellings: minPrice/maxPrice is the documented
	// form, min_price/max_price matches the other snake_case parameters.
	priceParam := func(camel, snake string) string {
		if v := qParams.Get(camel); v != "" {
			return v
		}
		return qParams.Get(snake)
	}
	if priceStr := priceParam("minPrice", "min_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid minPrice format")
			return params, false
		}
		params.MinPrice = &price
	}
	if priceStr := priceParam("maxPrice", "max_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid maxPrice format")
			return params, false
		}
		params.MaxPrice = &price
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		respondWithError(w, http.StatusBadRequest, "minPrice cannot exceed maxPrice")
		return params, false
	}
	return params, true
}

// respondProductPage runs the product listing and writes the data+pagination
// envelope.
func (h *HTTPHandler) respondProductPage(w http.ResponseWriter, r *http.Request, params store.ListProductsParams) {
	page, limit, _ := parsePagination(r)

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		h.logger.Error().Err(err).Msg("ListProducts store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	respondWithJSON(w, http.StatusOK, struct {
		Data       []domain.Product `json:"data"`
		Pagination paginationInfo   `json:"pagination"`
	}{Data: products, Pagination: newPaginationInfo(page, limit, totalCount)})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, ok := h.productListParams(w, r)
	if !ok {
		return
	}
	h.respondProductPage(w, r, params)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlParamInt64(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("product_id", productID).Msg("GetProductByID store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

// ProductInput defines the expected input for creating or updating a product.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int32   `json:"stock" validate:"gte=0"`
	CategoryID  *int64  `json:"category_id" validate:"omitempty,gt=0"`
	Image       *string `json:"image" validate:"omitempty,max=2048"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		Image:       input.Image,
	}
	created, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id: category does not exist")
			return
		}
		h.logger.Error().Err(err).Str("name", input.Name).Msg("CreateProduct store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlParamInt64(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := &domain.Product{
		ID:          productID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		Image:       input.Image,
	}
	updated, err := h.productStore.UpdateProduct(r.Context(), product)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrProductNotFound):
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		case errors.Is(err, store.ErrCategoryNotFound):
			respondWithError(w, http.StatusBadRequest, "Invalid category_id: category does not exist")
		default:
			h.logger.Error().Err(err).Int64("product_id", productID).Msg("UpdateProduct store operation failed")
			respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlParamInt64(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.productStore.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("product_id", productID).Msg("DeleteProduct store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}
