package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/handler"
)

// --- Mock MenuStore ---

type mockMenuStore struct {
	categories []database.Category
	items      []database.MenuItem
	variants   []database.MenuVariant
}

func (m *mockMenuStore) ListCategories(ctx context.Context) ([]database.Category, error) {
	return m.categories, nil
}

func (m *mockMenuStore) ListMenuItems(ctx context.Context) ([]database.MenuItem, error) {
	return m.items, nil
}

func (m *mockMenuStore) ListAllVariants(ctx context.Context) ([]database.MenuVariant, error) {
	return m.variants, nil
}

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	r := chi.NewRouter()
	h := handler.NewMenuHandler(store)
	r.Route("/menu", h.RegisterRoutes)
	return r
}

type menuTestResponse struct {
	DietaryMode string `json:"dietary_mode"`
	Categories  []struct {
		Name  string `json:"name"`
		Items []struct {
			Name       string `json:"name"`
			Resolution string `json:"resolution"`
			Sku        *struct {
				Sku   string `json:"sku"`
				Name  string `json:"name"`
				Price string `json:"price"`
			} `json:"sku"`
			Choices []struct {
				Name  string `json:"name"`
				Price string `json:"price"`
			} `json:"choices"`
		} `json:"items"`
	} `json:"categories"`
}

func testMenuStore() (*mockMenuStore, uuid.UUID) {
	mains := database.Category{ID: uuid.New(), Name: "Main Course", SortOrder: 1, IsActive: true}
	desserts := database.Category{ID: uuid.New(), Name: "Desserts", SortOrder: 2, IsActive: true}

	paneer := database.MenuItem{
		ID: uuid.New(), CategoryID: mains.ID, Name: "Paneer Tikka",
		Price: testNumeric("280.00"), IsVeg: true, IsAvailable: true, IsActive: true,
	}
	biryani := database.MenuItem{
		ID: uuid.New(), CategoryID: mains.ID, Name: "Biryani",
		IsVeg: false, IsAvailable: true, IsActive: true, // variant priced, no base price
	}
	chicken65 := database.MenuItem{
		ID: uuid.New(), CategoryID: mains.ID, Name: "Chicken 65",
		Price: testNumeric("320.00"), IsVeg: false, IsAvailable: true, IsActive: true,
	}

	store := &mockMenuStore{
		categories: []database.Category{mains, desserts},
		items:      []database.MenuItem{paneer, biryani, chicken65},
		variants: []database.MenuVariant{
			{ID: uuid.New(), MenuItemID: biryani.ID, Label: "Veg", Price: testNumeric("220.00"), IsVeg: true, IsActive: true},
			{ID: uuid.New(), MenuItemID: biryani.ID, Label: "Chicken", Price: testNumeric("300.00"), IsVeg: false, IsActive: true},
		},
	}
	return store, biryani.ID
}

func decodeMenu(t *testing.T, body *json.Decoder) menuTestResponse {
	t.Helper()
	var resp menuTestResponse
	if err := body.Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestMenuAllMode(t *testing.T) {
	store, _ := testMenuStore()
	router := setupMenuRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/menu", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeMenu(t, json.NewDecoder(rr.Body))
	if resp.DietaryMode != "ALL" {
		t.Errorf("dietary_mode = %q, want ALL", resp.DietaryMode)
	}
	// empty dessert category is omitted
	if len(resp.Categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(resp.Categories))
	}
	if len(resp.Categories[0].Items) != 3 {
		t.Fatalf("items = %d, want 3", len(resp.Categories[0].Items))
	}

	for _, item := range resp.Categories[0].Items {
		switch item.Name {
		case "Biryani":
			if item.Resolution != "prompt" {
				t.Errorf("Biryani resolution = %q, want prompt", item.Resolution)
			}
			if len(item.Choices) != 2 {
				t.Errorf("Biryani choices = %d, want 2", len(item.Choices))
			}
		case "Paneer Tikka", "Chicken 65":
			if item.Resolution != "auto" {
				t.Errorf("%s resolution = %q, want auto", item.Name, item.Resolution)
			}
			if item.Sku == nil {
				t.Errorf("%s has no sku", item.Name)
			}
		}
	}
}

func TestMenuVegModeAutoResolvesBiryani(t *testing.T) {
	store, biryaniID := testMenuStore()
	router := setupMenuRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/menu?dietary=veg", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeMenu(t, json.NewDecoder(rr.Body))
	if len(resp.Categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(resp.Categories))
	}

	names := make(map[string]string)
	for _, item := range resp.Categories[0].Items {
		names[item.Name] = item.Resolution
		if item.Name == "Biryani" {
			if item.Sku == nil {
				t.Fatal("Biryani should auto-resolve in veg mode")
			}
			if item.Sku.Name != "Biryani (Veg)" {
				t.Errorf("sku name = %q", item.Sku.Name)
			}
			if item.Sku.Price != "220.00" {
				t.Errorf("sku price = %q, want 220.00", item.Sku.Price)
			}
			wantSkuPrefix := biryaniID.String() + ":"
			if len(item.Sku.Sku) <= len(wantSkuPrefix) || item.Sku.Sku[:len(wantSkuPrefix)] != wantSkuPrefix {
				t.Errorf("sku id = %q, want %q prefix", item.Sku.Sku, wantSkuPrefix)
			}
		}
	}

	if _, ok := names["Chicken 65"]; ok {
		t.Error("Chicken 65 should be hidden in veg mode")
	}
	if names["Biryani"] != "auto" {
		t.Errorf("Biryani resolution = %q, want auto", names["Biryani"])
	}
}

func TestMenuNonVegMode(t *testing.T) {
	store, _ := testMenuStore()
	router := setupMenuRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/menu?dietary=non_veg", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeMenu(t, json.NewDecoder(rr.Body))
	names := make(map[string]bool)
	for _, item := range resp.Categories[0].Items {
		names[item.Name] = true
	}
	if names["Paneer Tikka"] {
		t.Error("Paneer Tikka should be hidden in non-veg mode")
	}
	if !names["Biryani"] || !names["Chicken 65"] {
		t.Errorf("missing non-veg items: %v", names)
	}
}

func TestMenuInvalidDietaryMode(t *testing.T) {
	store, _ := testMenuStore()
	router := setupMenuRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/menu?dietary=vegan", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
