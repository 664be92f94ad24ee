// Package cart holds the shopping cart state and its pricing rules.
// A cart is keyed by an opaque session token and persisted through a
// Repository so the handler layer never touches storage directly.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/enum"
)

// GST is a flat 5% of the subtotal.
var gstRate = decimal.NewFromFloat(0.05)

var (
	ErrNotFound     = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")
)

// Line is one resolved SKU in the cart. SKU is the menu item id, or
// "itemID:variantID" when a variant was resolved.
type Line struct {
	SKU        string          `json:"sku"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	VariantID  *uuid.UUID      `json:"variant_id,omitempty"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int32           `json:"quantity"`
	Notes      string          `json:"notes,omitempty"`
}

// Cart is the full cart state for one session.
type Cart struct {
	Token          string
	OrderType      string
	DeliveryZoneID *uuid.UUID
	ZoneFee        decimal.Decimal
	Lines          []Line
}

// Repository is the persistence boundary for carts.
type Repository interface {
	Load(ctx context.Context, token string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, token string) error
}

// New creates an empty pickup cart for the given token.
func New(token string) *Cart {
	return &Cart{Token: token, OrderType: enum.OrderTypePickup}
}

// AddItem adds one unit of the given SKU. An existing line for the same SKU
// has its quantity incremented; otherwise a new line is appended.
func (c *Cart) AddItem(line Line) {
	for i := range c.Lines {
		if c.Lines[i].SKU == line.SKU {
			c.Lines[i].Quantity++
			return
		}
	}
	line.Quantity = 1
	c.Lines = append(c.Lines, line)
}

// UpdateQuantity sets the quantity for a SKU. A quantity <= 0 removes the
// line entirely.
func (c *Cart) UpdateQuantity(sku string, quantity int32) error {
	for i := range c.Lines {
		if c.Lines[i].SKU == sku {
			if quantity <= 0 {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			} else {
				c.Lines[i].Quantity = quantity
			}
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveItem deletes the line for a SKU.
func (c *Cart) RemoveItem(sku string) error {
	return c.UpdateQuantity(sku, 0)
}

// UpdateItemNotes replaces the notes on the line for a SKU.
func (c *Cart) UpdateItemNotes(sku, notes string) error {
	for i := range c.Lines {
		if c.Lines[i].SKU == sku {
			c.Lines[i].Notes = notes
			return nil
		}
	}
	return ErrLineNotFound
}

// SetDeliveryZone records the chosen zone and its fee snapshot.
func (c *Cart) SetDeliveryZone(zoneID uuid.UUID, fee decimal.Decimal) {
	c.DeliveryZoneID = &zoneID
	c.ZoneFee = fee
}

// SetOrderType switches the order type. Leaving DELIVERY drops the zone,
// which zeroes the fee.
func (c *Cart) SetOrderType(orderType string) {
	c.OrderType = orderType
	if orderType != enum.OrderTypeDelivery {
		c.DeliveryZoneID = nil
		c.ZoneFee = decimal.Zero
	}
}

// Clear empties the cart and resets the delivery fee.
func (c *Cart) Clear() {
	c.Lines = nil
	c.DeliveryZoneID = nil
	c.ZoneFee = decimal.Zero
}

// Subtotal is Σ(price × quantity) over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return sum
}

// GST is subtotal × 5%, unrounded. Rounding happens once, at order creation.
func (c *Cart) GST() decimal.Decimal {
	return c.Subtotal().Mul(gstRate)
}

// DeliveryFee is the zone fee for delivery orders and zero otherwise.
func (c *Cart) DeliveryFee() decimal.Decimal {
	if c.OrderType != enum.OrderTypeDelivery {
		return decimal.Zero
	}
	return c.ZoneFee
}

// Total is subtotal + GST + delivery fee.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.GST()).Add(c.DeliveryFee())
}

// Totals are the figures persisted on an order: gst = round(subtotal×0.05, 2)
// and total = round(subtotal+gst+fee, 2). The order service recomputes these
// from catalog prices; this form exists for display parity.
type Totals struct {
	Subtotal    decimal.Decimal
	Gst         decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// OrderTotals computes the rounded figures for order persistence.
func (c *Cart) OrderTotals() Totals {
	subtotal := c.Subtotal()
	gst := subtotal.Mul(gstRate).Round(2)
	fee := c.DeliveryFee()
	return Totals{
		Subtotal:    subtotal,
		Gst:         gst,
		DeliveryFee: fee,
		Total:       subtotal.Add(gst).Add(fee).Round(2),
	}
}
