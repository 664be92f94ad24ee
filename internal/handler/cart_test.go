package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
	"github.com/spicegarden/api/internal/handler"
)

// --- Mock CartCatalogStore ---

type mockCartCatalog struct {
	items    map[uuid.UUID]database.MenuItem
	variants map[uuid.UUID]database.MenuVariant
	zones    map[uuid.UUID]database.DeliveryZone
}

func (m *mockCartCatalog) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	item, ok := m.items[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *mockCartCatalog) GetVariant(ctx context.Context, id uuid.UUID) (database.MenuVariant, error) {
	v, ok := m.variants[id]
	if !ok {
		return database.MenuVariant{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockCartCatalog) GetZone(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error) {
	z, ok := m.zones[id]
	if !ok {
		return database.DeliveryZone{}, pgx.ErrNoRows
	}
	return z, nil
}

type cartFixture struct {
	router  *chi.Mux
	repo    *cart.MemoryRepository
	itemID  uuid.UUID
	zoneID  uuid.UUID
	catalog *mockCartCatalog
}

func setupCartRouter(t *testing.T) *cartFixture {
	t.Helper()
	itemID := uuid.New()
	zoneID := uuid.New()
	catalog := &mockCartCatalog{
		items: map[uuid.UUID]database.MenuItem{
			itemID: {ID: itemID, Name: "Paneer Tikka", Price: testNumeric("280.00"), IsVeg: true, IsAvailable: true},
		},
		variants: map[uuid.UUID]database.MenuVariant{},
		zones: map[uuid.UUID]database.DeliveryZone{
			zoneID: {ID: zoneID, ZoneName: "Koramangala", DeliveryFee: testNumeric("40.00"), IsActive: true},
		},
	}
	repo := cart.NewMemoryRepository()
	h := handler.NewCartHandler(repo, catalog)
	r := chi.NewRouter()
	r.Route("/cart", h.RegisterRoutes)
	return &cartFixture{router: r, repo: repo, itemID: itemID, zoneID: zoneID, catalog: catalog}
}

func doCartRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("X-Cart-Token", token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

type cartTestResponse struct {
	CartToken string `json:"cart_token"`
	OrderType string `json:"order_type"`
	Lines     []struct {
		Sku       string `json:"sku"`
		Quantity  int32  `json:"quantity"`
		Notes     string `json:"notes"`
		LineTotal string `json:"line_total"`
	} `json:"lines"`
	Subtotal    string `json:"subtotal"`
	Gst         string `json:"gst"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
}

func decodeCart(t *testing.T, rr *httptest.ResponseRecorder) cartTestResponse {
	t.Helper()
	var resp cartTestResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestAddItemIssuesToken(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{
		"sku": f.itemID.String(),
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	token := rr.Header().Get("X-Cart-Token")
	if token == "" {
		t.Fatal("no cart token issued")
	}

	resp := decodeCart(t, rr)
	if resp.CartToken != token {
		t.Errorf("body token %q != header token %q", resp.CartToken, token)
	}
	if len(resp.Lines) != 1 || resp.Lines[0].Quantity != 1 {
		t.Errorf("lines = %+v", resp.Lines)
	}
	if resp.Subtotal != "280.00" {
		t.Errorf("subtotal = %q", resp.Subtotal)
	}
}

func TestAddItemTwiceMerges(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	rr = doCartRequest(t, f.router, http.MethodPost, "/cart/items", token, map[string]string{"sku": f.itemID.String()})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeCart(t, rr)
	if len(resp.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(resp.Lines))
	}
	if resp.Lines[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", resp.Lines[0].Quantity)
	}
	if resp.Lines[0].LineTotal != "560.00" {
		t.Errorf("line_total = %q, want 560.00", resp.Lines[0].LineTotal)
	}
}

func TestAddUnknownItem(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{
		"sku": uuid.NewString(),
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAddVariantPricedItemWithoutVariant(t *testing.T) {
	f := setupCartRouter(t)
	biryaniID := uuid.New()
	f.catalog.items[biryaniID] = database.MenuItem{ID: biryaniID, Name: "Biryani", IsAvailable: true}

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{
		"sku": biryaniID.String(),
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAddVariantSKU(t *testing.T) {
	f := setupCartRouter(t)
	biryaniID := uuid.New()
	variantID := uuid.New()
	f.catalog.items[biryaniID] = database.MenuItem{ID: biryaniID, Name: "Biryani", IsAvailable: true}
	f.catalog.variants[variantID] = database.MenuVariant{
		ID: variantID, MenuItemID: biryaniID, Label: "Chicken", Price: testNumeric("300.00"),
	}

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{
		"sku": biryaniID.String() + ":" + variantID.String(),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeCart(t, rr)
	if resp.Subtotal != "300.00" {
		t.Errorf("subtotal = %q, want 300.00", resp.Subtotal)
	}
}

func TestVariantOfDifferentItemRejected(t *testing.T) {
	f := setupCartRouter(t)
	variantID := uuid.New()
	f.catalog.variants[variantID] = database.MenuVariant{
		ID: variantID, MenuItemID: uuid.New(), Label: "Chicken", Price: testNumeric("300.00"),
	}

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{
		"sku": f.itemID.String() + ":" + variantID.String(),
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpdateQuantityToZeroRemoves(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	rr = doCartRequest(t, f.router, http.MethodPatch, "/cart/items/"+f.itemID.String(), token,
		map[string]int32{"quantity": 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeCart(t, rr)
	if len(resp.Lines) != 0 {
		t.Errorf("lines = %d, want 0", len(resp.Lines))
	}
	if resp.Total != "0.00" {
		t.Errorf("total = %q, want 0.00", resp.Total)
	}
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	rr = doCartRequest(t, f.router, http.MethodPatch, "/cart/items/"+uuid.NewString(), token,
		map[string]int32{"quantity": 2})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestUpdateNotes(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	rr = doCartRequest(t, f.router, http.MethodPatch, "/cart/items/"+f.itemID.String()+"/notes", token,
		map[string]string{"notes": "less spicy"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeCart(t, rr)
	if resp.Lines[0].Notes != "less spicy" {
		t.Errorf("notes = %q", resp.Lines[0].Notes)
	}
}

func TestSetOrderTypeDeliveryAddsFee(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	rr = doCartRequest(t, f.router, http.MethodPut, "/cart/order-type", token, map[string]string{
		"order_type":       enum.OrderTypeDelivery,
		"delivery_zone_id": f.zoneID.String(),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeCart(t, rr)
	if resp.DeliveryFee != "40.00" {
		t.Errorf("delivery_fee = %q, want 40.00", resp.DeliveryFee)
	}
	// 280 + 14 GST + 40 fee
	if resp.Total != "334.00" {
		t.Errorf("total = %q, want 334.00", resp.Total)
	}
}

func TestSetOrderTypeDeliveryRequiresZone(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPut, "/cart/order-type", "", map[string]string{
		"order_type": enum.OrderTypeDelivery,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSwitchBackToPickupDropsFee(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	doCartRequest(t, f.router, http.MethodPut, "/cart/order-type", token, map[string]string{
		"order_type":       enum.OrderTypeDelivery,
		"delivery_zone_id": f.zoneID.String(),
	})
	rr = doCartRequest(t, f.router, http.MethodPut, "/cart/order-type", token, map[string]string{
		"order_type": enum.OrderTypePickup,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeCart(t, rr)
	if resp.DeliveryFee != "0.00" {
		t.Errorf("delivery_fee = %q, want 0.00", resp.DeliveryFee)
	}
	if resp.Total != "294.00" {
		t.Errorf("total = %q, want 294.00", resp.Total)
	}
}

func TestGetUnknownTokenReturnsEmptyCart(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodGet, "/cart", "no-such-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeCart(t, rr)
	if len(resp.Lines) != 0 {
		t.Errorf("lines = %d, want 0", len(resp.Lines))
	}
	// Nothing was persisted, so no token may be handed out.
	if resp.CartToken != "" {
		t.Errorf("cart_token = %q, want empty for unsaved cart", resp.CartToken)
	}
	if got := rr.Header().Get("X-Cart-Token"); got != "" {
		t.Errorf("X-Cart-Token header = %q, want unset", got)
	}
}

func TestGetWithoutTokenIssuesNoToken(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodGet, "/cart", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeCart(t, rr)
	if resp.CartToken != "" {
		t.Errorf("cart_token = %q, want empty", resp.CartToken)
	}
}

func TestClearCart(t *testing.T) {
	f := setupCartRouter(t)

	rr := doCartRequest(t, f.router, http.MethodPost, "/cart/items", "", map[string]string{"sku": f.itemID.String()})
	token := rr.Header().Get("X-Cart-Token")

	rr = doCartRequest(t, f.router, http.MethodDelete, "/cart", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	if _, err := f.repo.Load(context.Background(), token); err != cart.ErrNotFound {
		t.Errorf("cart should be deleted, got %v", err)
	}
}
