package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/database"
)

// MenuAdminStore defines the database methods needed by menu management
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type MenuAdminStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	SoftDeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	SoftDeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListVariantsByItem(ctx context.Context, menuItemID uuid.UUID) ([]database.MenuVariant, error)
	CreateVariant(ctx context.Context, arg database.CreateVariantParams) (database.MenuVariant, error)
	UpdateVariant(ctx context.Context, arg database.UpdateVariantParams) (database.MenuVariant, error)
	SoftDeleteVariant(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuAdminHandler handles the back-office catalog CRUD.
type MenuAdminHandler struct {
	store MenuAdminStore
}

// NewMenuAdminHandler creates a new MenuAdminHandler.
func NewMenuAdminHandler(store MenuAdminStore) *MenuAdminHandler {
	return &MenuAdminHandler{store: store}
}

// RegisterRoutes registers the menu management endpoints.
// Expected to be mounted inside an authenticated subrouter: /admin/menu
func (h *MenuAdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Put("/{id}", h.UpdateItem)
		r.Patch("/{id}/availability", h.SetAvailability)
		r.Delete("/{id}", h.DeleteItem)
		r.Get("/{id}/variants", h.ListVariants)
		r.Post("/{id}/variants", h.CreateVariant)
	})
	r.Route("/variants", func(r chi.Router) {
		r.Put("/{id}", h.UpdateVariant)
		r.Delete("/{id}", h.DeleteVariant)
	})
}

// --- Categories ---

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int32  `json:"sort_order"`
}

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SortOrder   int32     `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *MenuAdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": resp})
}

func (h *MenuAdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:        req.Name,
		Description: optionalText(req.Description),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *MenuAdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.store.UpdateCategory(r.Context(), database.UpdateCategoryParams{
		ID:          id,
		Name:        req.Name,
		Description: optionalText(req.Description),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: update category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (h *MenuAdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}
	if _, err := h.store.SoftDeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: delete category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Menu items ---

type menuItemRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Price is omitted or empty for items priced only through variants.
	Price     string `json:"price"`
	IsVeg     bool   `json:"is_veg"`
	ImageUrl  string `json:"image_url"`
	SortOrder int32  `json:"sort_order"`
}

type adminMenuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       *string   `json:"price"`
	IsVeg       bool      `json:"is_veg"`
	ImageUrl    *string   `json:"image_url"`
	IsAvailable bool      `json:"is_available"`
	SortOrder   int32     `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

func (h *MenuAdminHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]adminMenuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toAdminMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": resp})
}

func (h *MenuAdminHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeMenuItem(w, r)
	if !ok {
		return
	}
	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		CategoryID:  params.CategoryID,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		IsVeg:       params.IsVeg,
		ImageUrl:    params.ImageUrl,
		SortOrder:   params.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toAdminMenuItemResponse(item))
}

func (h *MenuAdminHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	params, ok := h.decodeMenuItem(w, r)
	if !ok {
		return
	}
	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		CategoryID:  params.CategoryID,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		IsVeg:       params.IsVeg,
		ImageUrl:    params.ImageUrl,
		SortOrder:   params.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toAdminMenuItemResponse(item))
}

// SetAvailability handles the sold-out toggle without touching the rest of
// the item.
func (h *MenuAdminHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:          id,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: set menu item availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toAdminMenuItemResponse(item))
}

func (h *MenuAdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	if _, err := h.store.SoftDeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Variants ---

type variantRequest struct {
	Label     string `json:"label"`
	Price     string `json:"price"`
	IsVeg     bool   `json:"is_veg"`
	SortOrder int32  `json:"sort_order"`
}

type variantResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Label      string    `json:"label"`
	Price      string    `json:"price"`
	IsVeg      bool      `json:"is_veg"`
	SortOrder  int32     `json:"sort_order"`
}

func (h *MenuAdminHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	variants, err := h.store.ListVariantsByItem(r.Context(), itemID)
	if err != nil {
		log.Printf("ERROR: list variants: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]variantResponse, len(variants))
	for i, v := range variants {
		resp[i] = toVariantResponse(v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"variants": resp})
}

func (h *MenuAdminHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	req, price, ok := h.decodeVariant(w, r)
	if !ok {
		return
	}
	variant, err := h.store.CreateVariant(r.Context(), database.CreateVariantParams{
		MenuItemID: itemID,
		Label:      req.Label,
		Price:      decimalToNumeric(price),
		IsVeg:      req.IsVeg,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create variant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toVariantResponse(variant))
}

func (h *MenuAdminHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant ID"})
		return
	}
	req, price, ok := h.decodeVariant(w, r)
	if !ok {
		return
	}
	variant, err := h.store.UpdateVariant(r.Context(), database.UpdateVariantParams{
		ID:        id,
		Label:     req.Label,
		Price:     decimalToNumeric(price),
		IsVeg:     req.IsVeg,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "variant not found"})
			return
		}
		log.Printf("ERROR: update variant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVariantResponse(variant))
}

func (h *MenuAdminHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant ID"})
		return
	}
	if _, err := h.store.SoftDeleteVariant(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "variant not found"})
			return
		}
		log.Printf("ERROR: delete variant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *MenuAdminHandler) decodeMenuItem(w http.ResponseWriter, r *http.Request) (database.UpdateMenuItemParams, bool) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return database.UpdateMenuItemParams{}, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return database.UpdateMenuItemParams{}, false
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
		return database.UpdateMenuItemParams{}, false
	}

	var price pgtype.Numeric
	if req.Price != "" {
		d, err := decimal.NewFromString(req.Price)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative amount"})
			return database.UpdateMenuItemParams{}, false
		}
		price = decimalToNumeric(d)
	}

	return database.UpdateMenuItemParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: optionalText(req.Description),
		Price:       price,
		IsVeg:       req.IsVeg,
		ImageUrl:    optionalText(req.ImageUrl),
		SortOrder:   req.SortOrder,
	}, true
}

func (h *MenuAdminHandler) decodeVariant(w http.ResponseWriter, r *http.Request) (variantRequest, decimal.Decimal, bool) {
	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, decimal.Zero, false
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return req, decimal.Zero, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative amount"})
		return req, decimal.Zero, false
	}
	return req, price, true
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toCategoryResponse(c database.Category) categoryResponse {
	resp := categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
	}
	if c.Description.Valid {
		resp.Description = &c.Description.String
	}
	return resp
}

func toAdminMenuItemResponse(m database.MenuItem) adminMenuItemResponse {
	resp := adminMenuItemResponse{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		IsVeg:       m.IsVeg,
		IsAvailable: m.IsAvailable,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
	}
	if m.Description.Valid {
		resp.Description = &m.Description.String
	}
	if m.Price.Valid {
		s := numericToString(m.Price)
		resp.Price = &s
	}
	if m.ImageUrl.Valid {
		resp.ImageUrl = &m.ImageUrl.String
	}
	return resp
}

func toVariantResponse(v database.MenuVariant) variantResponse {
	return variantResponse{
		ID:         v.ID,
		MenuItemID: v.MenuItemID,
		Label:      v.Label,
		Price:      numericToString(v.Price),
		IsVeg:      v.IsVeg,
		SortOrder:  v.SortOrder,
	}
}
