package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spicegarden/api/internal/catalog"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
)

// MenuStore defines the database methods needed by the public menu handler.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListAllVariants(ctx context.Context) ([]database.MenuVariant, error)
}

// MenuHandler serves the storefront menu.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers the public menu endpoint.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

// --- Response types ---

type menuResponse struct {
	DietaryMode string                 `json:"dietary_mode"`
	Categories  []menuCategoryResponse `json:"categories"`
}

type menuCategoryResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	SortOrder int32              `json:"sort_order"`
	Items     []menuItemResponse `json:"items"`
}

type menuItemResponse struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	ImageUrl    *string       `json:"image_url"`
	IsVeg       bool          `json:"is_veg"`
	IsAvailable bool          `json:"is_available"`
	CreatedAt   time.Time     `json:"created_at"`
	// Resolution is "auto" when a single SKU was resolved (no selector
	// needed) or "prompt" when the shopper must pick a variant.
	Resolution string        `json:"resolution"`
	Sku        *skuResponse  `json:"sku,omitempty"`
	Choices    []skuResponse `json:"choices,omitempty"`
}

type skuResponse struct {
	Sku   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price"`
	IsVeg bool   `json:"is_veg"`
}

// --- Handlers ---

// Get handles GET /menu?dietary=all|veg|non_veg.
// Items are resolved against the dietary mode: hidden items are omitted,
// single-match items carry a ready-to-add SKU, multi-match items carry the
// variant choices.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	mode := parseDietaryMode(r.URL.Query().Get("dietary"))
	if mode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dietary mode"})
		return
	}

	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	variants, err := h.store.ListAllVariants(r.Context())
	if err != nil {
		log.Printf("ERROR: list variants: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	variantsByItem := make(map[uuid.UUID][]database.MenuVariant)
	for _, v := range variants {
		variantsByItem[v.MenuItemID] = append(variantsByItem[v.MenuItemID], v)
	}

	resolved := catalog.ResolveAll(items, variantsByItem, mode)
	byCategory := make(map[uuid.UUID][]menuItemResponse)
	for _, res := range resolved {
		byCategory[res.Item.CategoryID] = append(byCategory[res.Item.CategoryID], toMenuItemResponse(res))
	}

	resp := menuResponse{DietaryMode: mode}
	for _, c := range categories {
		catItems := byCategory[c.ID]
		if len(catItems) == 0 {
			continue
		}
		resp.Categories = append(resp.Categories, menuCategoryResponse{
			ID:        c.ID,
			Name:      c.Name,
			SortOrder: c.SortOrder,
			Items:     catItems,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func parseDietaryMode(s string) string {
	switch strings.ToUpper(s) {
	case "", "ALL":
		return enum.DietaryModeAll
	case "VEG":
		return enum.DietaryModeVeg
	case "NON_VEG", "NONVEG", "NON-VEG":
		return enum.DietaryModeNonVeg
	}
	return ""
}

func toMenuItemResponse(res catalog.Resolved) menuItemResponse {
	item := res.Item
	resp := menuItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		IsVeg:       item.IsVeg,
		IsAvailable: item.IsAvailable,
		CreatedAt:   item.CreatedAt,
	}
	if item.Description.Valid {
		resp.Description = &item.Description.String
	}
	if item.ImageUrl.Valid {
		resp.ImageUrl = &item.ImageUrl.String
	}

	switch res.Resolution {
	case catalog.AutoResolved:
		resp.Resolution = "auto"
		sku := toSkuResponse(*res.SKU)
		resp.Sku = &sku
	case catalog.Prompt:
		resp.Resolution = "prompt"
		resp.Choices = make([]skuResponse, len(res.Choices))
		for i, s := range res.Choices {
			resp.Choices[i] = toSkuResponse(s)
		}
	}
	return resp
}

func toSkuResponse(s catalog.SKU) skuResponse {
	return skuResponse{
		Sku:   s.ID,
		Name:  s.Name,
		Price: s.Price.StringFixed(2),
		IsVeg: s.IsVeg,
	}
}
