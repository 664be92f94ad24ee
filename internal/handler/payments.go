package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/razorpay"
)

// Gateway is the slice of the Razorpay client the payment handler uses.
// Satisfied by *razorpay.Client; narrow interface for testability.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*razorpay.GatewayOrder, error)
	KeyID() string
	Configured() bool
}

// PaymentHandler handles gateway order creation and callback verification.
type PaymentHandler struct {
	gateway   Gateway
	repo      cart.Repository
	keySecret string
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(gateway Gateway, repo cart.Repository, keySecret string) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, repo: repo, keySecret: keySecret}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.CreateGatewayOrder)
	r.Post("/verify", h.Verify)
}

// --- Request / Response types ---

type createGatewayOrderRequest struct {
	CartToken string  `json:"cart_token"`
	Amount    float64 `json:"amount"`
}

type createGatewayOrderResponse struct {
	OrderID string `json:"order_id"`
	Key     string `json:"key"`
	Amount  string `json:"amount"`
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// --- Handlers ---

// CreateGatewayOrder handles POST /payments/orders. The client-sent amount
// is bound to the stored cart: the server recomputes the cart total and
// rejects any mismatch, so the figure charged at the gateway can never
// drift from the cart contents.
func (h *PaymentHandler) CreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	if !h.gateway.Configured() {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "payment gateway is not configured"})
		return
	}

	var req createGatewayOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}
	if req.CartToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart_token is required"})
		return
	}

	c, err := h.repo.Load(r.Context(), req.CartToken)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart not found"})
			return
		}
		log.Printf("ERROR: load cart for payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(c.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}

	total := c.OrderTotals().Total
	if !decimal.NewFromFloat(req.Amount).Round(2).Equal(total) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount does not match cart total"})
		return
	}

	order, err := h.gateway.CreateOrder(r.Context(), total, c.Token)
	if err != nil {
		log.Printf("ERROR: create gateway order: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to create payment order"})
		return
	}

	writeJSON(w, http.StatusOK, createGatewayOrderResponse{
		OrderID: order.ID,
		Key:     h.gateway.KeyID(),
		Amount:  total.StringFixed(2),
	})
}

// Verify handles POST /payments/verify. The signature check is a hard gate:
// a mismatch is a 400 and nothing is persisted.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.keySecret == "" {
		writeJSON(w, http.StatusInternalServerError, verifyResponse{Success: false, Error: "payment gateway is not configured"})
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Success: false, Error: "invalid request body"})
		return
	}

	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Success: false, Error: "missing payment parameters"})
		return
	}

	if !razorpay.VerifySignature(h.keySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Success: false, Error: "invalid payment signature"})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{Success: true})
}
