package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/catalog"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
)

// cartTokenHeader carries the opaque cart session token. The server issues
// one on the first write and the storefront echoes it back afterwards.
const cartTokenHeader = "X-Cart-Token"

// CartCatalogStore defines the catalog lookups the cart handler needs to
// resolve SKUs. Satisfied by *database.Queries.
type CartCatalogStore interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetVariant(ctx context.Context, id uuid.UUID) (database.MenuVariant, error)
	GetZone(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error)
}

// CartHandler handles cart endpoints.
type CartHandler struct {
	repo  cart.Repository
	store CartCatalogStore
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(repo cart.Repository, store CartCatalogStore) *CartHandler {
	return &CartHandler{repo: repo, store: store}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{sku}", h.UpdateQuantity)
	r.Patch("/items/{sku}/notes", h.UpdateNotes)
	r.Delete("/items/{sku}", h.RemoveItem)
	r.Put("/order-type", h.SetOrderType)
}

// --- Request / Response types ---

type addItemRequest struct {
	Sku string `json:"sku"`
}

type updateQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

type setOrderTypeRequest struct {
	OrderType      string `json:"order_type"`
	DeliveryZoneID string `json:"delivery_zone_id"`
}

type cartLineResponse struct {
	Sku       string `json:"sku"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int32  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	LineTotal string `json:"line_total"`
}

type cartResponse struct {
	CartToken      string             `json:"cart_token"`
	OrderType      string             `json:"order_type"`
	DeliveryZoneID *string            `json:"delivery_zone_id"`
	Lines          []cartLineResponse `json:"lines"`
	Subtotal       string             `json:"subtotal"`
	Gst            string             `json:"gst"`
	DeliveryFee    string             `json:"delivery_fee"`
	Total          string             `json:"total"`
}

// --- Handlers ---

// Get handles GET /cart. A missing or unknown token returns an empty cart
// with no token: tokens are only issued once a write persists the cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, created, err := h.loadOrNew(r)
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if created {
		c.Token = ""
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// AddItem handles POST /cart/items. The SKU is validated against the live
// catalog and priced from it; one unit is added per call.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Sku == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sku is required"})
		return
	}

	line, err := h.resolveSku(r.Context(), req.Sku)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errSkuStoreFailure) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	c, created, err := h.loadOrNew(r)
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	c.AddItem(*line)
	if err := h.repo.Save(r.Context(), c); err != nil {
		log.Printf("ERROR: save cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set(cartTokenHeader, c.Token)
	writeJSON(w, status, toCartResponse(c))
}

// UpdateQuantity handles PATCH /cart/items/{sku}. A quantity of zero or
// below removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.mutateLine(w, r, func(c *cart.Cart, sku string) error {
		return c.UpdateQuantity(sku, req.Quantity)
	})
}

// UpdateNotes handles PATCH /cart/items/{sku}/notes.
func (h *CartHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.mutateLine(w, r, func(c *cart.Cart, sku string) error {
		return c.UpdateItemNotes(sku, req.Notes)
	})
}

// RemoveItem handles DELETE /cart/items/{sku}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(c *cart.Cart, sku string) error {
		return c.RemoveItem(sku)
	})
}

// SetOrderType handles PUT /cart/order-type. Delivery requires a zone;
// switching away from delivery drops it, zeroing the fee.
func (h *CartHandler) SetOrderType(w http.ResponseWriter, r *http.Request) {
	var req setOrderTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	switch req.OrderType {
	case enum.OrderTypeDelivery, enum.OrderTypePickup, enum.OrderTypeDineIn:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_type"})
		return
	}

	c, created, err := h.loadOrNew(r)
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	c.SetOrderType(req.OrderType)
	if req.OrderType == enum.OrderTypeDelivery {
		if req.DeliveryZoneID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery_zone_id is required for delivery orders"})
			return
		}
		zoneID, err := uuid.Parse(req.DeliveryZoneID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delivery_zone_id"})
			return
		}
		zone, err := h.store.GetZone(r.Context(), zoneID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery zone not found"})
				return
			}
			log.Printf("ERROR: get delivery zone: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		c.SetDeliveryZone(zone.ID, numericToDecimal(zone.DeliveryFee))
	}

	if err := h.repo.Save(r.Context(), c); err != nil {
		log.Printf("ERROR: save cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set(cartTokenHeader, c.Token)
	writeJSON(w, status, toCartResponse(c))
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(cartTokenHeader)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := h.repo.Delete(r.Context(), token); err != nil {
		log.Printf("ERROR: delete cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helpers ---

var errSkuStoreFailure = errors.New("internal server error")

// resolveSku validates a SKU id against the catalog and builds a priced line.
func (h *CartHandler) resolveSku(ctx context.Context, sku string) (*cart.Line, error) {
	itemPart, variantPart, hasVariant := strings.Cut(sku, ":")

	itemID, err := uuid.Parse(itemPart)
	if err != nil {
		return nil, errors.New("invalid sku")
	}

	item, err := h.store.GetMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("menu item not found")
		}
		log.Printf("ERROR: get menu item: %v", err)
		return nil, errSkuStoreFailure
	}
	if !item.IsAvailable {
		return nil, errors.New("menu item is currently unavailable")
	}

	if !hasVariant {
		if !item.Price.Valid {
			return nil, errors.New("menu item requires a variant selection")
		}
		return &cart.Line{
			SKU:        catalog.SKUID(item.ID, nil),
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      numericToDecimal(item.Price),
		}, nil
	}

	variantID, err := uuid.Parse(variantPart)
	if err != nil {
		return nil, errors.New("invalid sku")
	}
	variant, err := h.store.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("variant not found")
		}
		log.Printf("ERROR: get variant: %v", err)
		return nil, errSkuStoreFailure
	}
	if variant.MenuItemID != item.ID {
		return nil, errors.New("variant does not belong to menu item")
	}

	vid := variant.ID
	return &cart.Line{
		SKU:        catalog.SKUID(item.ID, &vid),
		MenuItemID: item.ID,
		VariantID:  &vid,
		Name:       item.Name + " (" + variant.Label + ")",
		Price:      numericToDecimal(variant.Price),
	}, nil
}

// loadOrNew loads the cart for the request token, or creates a fresh one.
// The bool reports whether a new cart (and token) was created.
func (h *CartHandler) loadOrNew(r *http.Request) (*cart.Cart, bool, error) {
	token := r.Header.Get(cartTokenHeader)
	if token == "" {
		return cart.New(uuid.NewString()), true, nil
	}
	c, err := h.repo.Load(r.Context(), token)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return cart.New(token), true, nil
		}
		return nil, false, err
	}
	return c, false, nil
}

// mutateLine applies fn to the cart line named in the URL and saves.
func (h *CartHandler) mutateLine(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart, sku string) error) {
	token := r.Header.Get(cartTokenHeader)
	if token == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return
	}

	c, err := h.repo.Load(r.Context(), token)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
			return
		}
		log.Printf("ERROR: load cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := fn(c, chi.URLParam(r, "sku")); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart line not found"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.repo.Save(r.Context(), c); err != nil {
		log.Printf("ERROR: save cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set(cartTokenHeader, c.Token)
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func toCartResponse(c *cart.Cart) cartResponse {
	totals := c.OrderTotals()
	resp := cartResponse{
		CartToken:   c.Token,
		OrderType:   c.OrderType,
		Subtotal:    totals.Subtotal.StringFixed(2),
		Gst:         totals.Gst.StringFixed(2),
		DeliveryFee: totals.DeliveryFee.StringFixed(2),
		Total:       totals.Total.StringFixed(2),
	}
	if c.DeliveryZoneID != nil {
		s := c.DeliveryZoneID.String()
		resp.DeliveryZoneID = &s
	}
	resp.Lines = make([]cartLineResponse, len(c.Lines))
	for i, l := range c.Lines {
		resp.Lines[i] = cartLineResponse{
			Sku:       l.SKU,
			Name:      l.Name,
			Price:     l.Price.StringFixed(2),
			Quantity:  l.Quantity,
			Notes:     l.Notes,
			LineTotal: l.Price.Mul(decimal.NewFromInt32(l.Quantity)).StringFixed(2),
		}
	}
	return resp
}
