package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
	"github.com/spicegarden/api/internal/razorpay"
	"github.com/spicegarden/api/internal/service"
	"github.com/spicegarden/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// Broadcaster pushes order events to websocket rooms.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(topic string, event ws.Event)
}

// OrderHandler handles checkout and order tracking endpoints.
type OrderHandler struct {
	svc       OrderServicer
	store     OrderStore
	repo      cart.Repository
	hub       Broadcaster
	keySecret string
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, repo cart.Repository, hub Broadcaster, keySecret string) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, repo: repo, hub: hub, keySecret: keySecret}
}

// RegisterRoutes registers the public order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

// RegisterAdminRoutes registers the staff order-board endpoints.
// Expected to be mounted inside an authenticated subrouter: /admin/orders
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	CartToken         string `json:"cart_token"`
	CustomerName      string `json:"customer_name"`
	CustomerPhone     string `json:"customer_phone"`
	DeliveryAddress   string `json:"delivery_address"`
	TableNumber       string `json:"table_number"`
	PaymentMethod     string `json:"payment_method"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type orderResponse struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"order_number"`
	CustomerName      string              `json:"customer_name"`
	CustomerPhone     string              `json:"customer_phone"`
	DeliveryAddress   *string             `json:"delivery_address"`
	TableNumber       *string             `json:"table_number"`
	OrderType         string              `json:"order_type"`
	Status            string              `json:"status"`
	PaymentMethod     string              `json:"payment_method"`
	PaymentStatus     string              `json:"payment_status"`
	RazorpayOrderID   *string             `json:"razorpay_order_id"`
	RazorpayPaymentID *string             `json:"razorpay_payment_id"`
	Subtotal          string              `json:"subtotal"`
	Gst               string              `json:"gst"`
	DeliveryFee       string              `json:"delivery_fee"`
	Total             string              `json:"total"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Items             []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int32     `json:"quantity"`
	Notes     *string   `json:"notes"`
	LineTotal string    `json:"line_total"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /orders, persisting a completed checkout. Online
// payments re-verify the Razorpay signature here before any row is written;
// COD skips the gateway and is only allowed for delivery orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CartToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart_token is required"})
		return
	}

	switch req.PaymentMethod {
	case enum.PaymentMethodRazorpay, enum.PaymentMethodCOD:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	if req.PaymentMethod == enum.PaymentMethodRazorpay {
		if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing payment proof"})
			return
		}
		if h.keySecret == "" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "payment gateway is not configured"})
			return
		}
		if !razorpay.VerifySignature(h.keySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment signature"})
			return
		}
	}

	c, err := h.repo.Load(r.Context(), req.CartToken)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart not found"})
			return
		}
		log.Printf("ERROR: load cart for checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		Cart:              c,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		DeliveryAddress:   req.DeliveryAddress,
		TableNumber:       req.TableNumber,
		PaymentMethod:     req.PaymentMethod,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		// A verified payment with no order row is a reconciliation gap the
		// guest has to chase manually; say so instead of a generic failure.
		if req.PaymentMethod == enum.PaymentMethodRazorpay {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "payment verified but order creation failed, please contact support",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Checkout complete: the cart is done. A failed delete only means a
	// stale cart row, not a broken order.
	if err := h.repo.Delete(r.Context(), req.CartToken); err != nil {
		log.Printf("ERROR: clear cart after checkout: %v", err)
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.broadcastOrder("order_created", result.Order, result.Items)
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /orders/{id}, the snapshot fetched before the tracking
// socket attaches.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// List handles GET /admin/orders, the poll target for the live board.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("type"); s != "" {
		params.OrderType = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// UpdateStatus handles PATCH /admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := validateStatusTransition(current, req.Status); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     req.Status,
		PrevStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Status changed between our read and write
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.broadcastOrder("order_updated", updated, nil)
	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}

// --- Helpers ---

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrMissingName) ||
		errors.Is(err, service.ErrInvalidPhone) ||
		errors.Is(err, service.ErrMissingAddress) ||
		errors.Is(err, service.ErrMissingTable) ||
		errors.Is(err, service.ErrMissingZone) ||
		errors.Is(err, service.ErrCODNotDelivery) ||
		errors.Is(err, service.ErrItemNotFound) ||
		errors.Is(err, service.ErrItemUnavailable) ||
		errors.Is(err, service.ErrVariantNotFound) ||
		errors.Is(err, service.ErrVariantMismatch) ||
		errors.Is(err, service.ErrZoneNotFound)
}

// broadcastOrder pushes the order to its tracking room and the admin board.
func (h *OrderHandler) broadcastOrder(eventType string, order database.Order, items []database.OrderItem) {
	payload, err := json.Marshal(toOrderResponse(order, items))
	if err != nil {
		log.Printf("ERROR: marshal order event: %v", err)
		return
	}
	event := ws.Event{Type: eventType, Payload: payload}
	h.hub.Broadcast(ws.OrderTopic(order.ID), event)
	h.hub.Broadcast(ws.AdminOrdersTopic, event)
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		OrderType:     o.OrderType,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Subtotal:      numericToString(o.Subtotal),
		Gst:           numericToString(o.Gst),
		DeliveryFee:   numericToString(o.DeliveryFee),
		Total:         numericToString(o.Total),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.TableNumber.Valid {
		resp.TableNumber = &o.TableNumber.String
	}
	if o.RazorpayOrderID.Valid {
		resp.RazorpayOrderID = &o.RazorpayOrderID.String
	}
	if o.RazorpayPaymentID.Valid {
		resp.RazorpayPaymentID = &o.RazorpayPaymentID.String
	}

	if items != nil {
		resp.Items = make([]orderItemResponse, len(items))
		for i, item := range items {
			resp.Items[i] = toOrderItemResponse(item)
		}
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: numericToString(item.UnitPrice),
		Quantity:  item.Quantity,
		LineTotal: numericToString(item.LineTotal),
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// isValidOrderStatus checks if the given status is a valid order status.
func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusNew,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusOutForDelivery,
		enum.OrderStatusCompleted,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusNew:            {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing:      {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:          {enum.OrderStatusOutForDelivery, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusOutForDelivery: {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

// validateStatusTransition checks if the transition from the order's current
// status to next is allowed. OUT_FOR_DELIVERY only exists for delivery orders.
func validateStatusTransition(order database.Order, next string) error {
	if next == enum.OrderStatusOutForDelivery && order.OrderType != enum.OrderTypeDelivery {
		return fmt.Errorf("only delivery orders can be out for delivery")
	}
	allowed, ok := allowedTransitions[order.Status]
	if !ok {
		return fmt.Errorf("cannot transition from %s", order.Status)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", order.Status, next)
}
