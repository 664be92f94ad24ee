// Package razorpay is a minimal client for the Razorpay Orders API plus the
// payment signature check. Only the server ever sees the key secret; handlers
// hand the publishable key id to the storefront.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.razorpay.com"

// Client calls the Razorpay REST API.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewClient creates a Client for the given key pair.
func NewClient(keyID, keySecret string) *Client {
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API host, for tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// KeyID returns the publishable key identifier, safe to expose to clients.
func (c *Client) KeyID() string {
	return c.keyID
}

// Configured reports whether a key pair is present.
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// GatewayOrder is the subset of the Razorpay order object we use.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder creates a gateway order for the given rupee amount. Razorpay
// takes amounts in paise, so the amount is shifted to minor units here.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount.Shift(2).Round(0).IntPart(),
		Currency: "INR",
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	return &order, nil
}

// Sign computes the hex HMAC-SHA256 of "orderID|paymentID" with the key
// secret, matching the signature Razorpay attaches to a payment callback.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the callback signature and compares it in
// constant time. This is the hard gate before any order row is written.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
