package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
)

const maxOrderNumberRetries = 3

var gstRate = decimal.NewFromFloat(0.05)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Errors returned by the order service.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidOrderType = errors.New("invalid order_type")
	ErrMissingName      = errors.New("customer_name is required")
	ErrInvalidPhone     = errors.New("customer_phone must be 10 digits")
	ErrMissingAddress   = errors.New("delivery_address is required for delivery orders")
	ErrMissingTable     = errors.New("table_number is required for dine-in orders")
	ErrMissingZone      = errors.New("delivery zone is required for delivery orders")
	ErrCODNotDelivery   = errors.New("cash on delivery is only available for delivery orders")
	ErrItemNotFound     = errors.New("menu item no longer available")
	ErrItemUnavailable  = errors.New("menu item is currently unavailable")
	ErrVariantNotFound  = errors.New("variant no longer available")
	ErrVariantMismatch  = errors.New("variant does not belong to menu item")
	ErrZoneNotFound     = errors.New("delivery zone not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetVariant(ctx context.Context, id uuid.UUID) (database.MenuVariant, error)
	GetZone(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for persisting a checkout.
// Payment proof must already be signature-verified by the caller for
// RAZORPAY orders.
type CreateOrderRequest struct {
	Cart              *cart.Cart
	CustomerName      string
	CustomerPhone     string
	DeliveryAddress   string
	TableNumber       string
	PaymentMethod     string
	RazorpayOrderID   string
	RazorpayPaymentID string
}

// CreateOrderResult is the persisted order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService persists checkouts.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates the checkout, recomputes all money figures
// server-side from catalog prices (client-held line prices are never
// trusted), and inserts the Order and OrderItem rows atomically. Retries on
// order_number unique violations.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func validateCheckout(req CreateOrderRequest) error {
	if req.Cart == nil || len(req.Cart.Lines) == 0 {
		return ErrEmptyCart
	}
	switch req.Cart.OrderType {
	case enum.OrderTypeDelivery, enum.OrderTypePickup, enum.OrderTypeDineIn:
	default:
		return ErrInvalidOrderType
	}
	if req.CustomerName == "" {
		return ErrMissingName
	}
	if !phonePattern.MatchString(req.CustomerPhone) {
		return ErrInvalidPhone
	}
	if req.Cart.OrderType == enum.OrderTypeDelivery {
		if req.DeliveryAddress == "" {
			return ErrMissingAddress
		}
		if req.Cart.DeliveryZoneID == nil {
			return ErrMissingZone
		}
	}
	if req.Cart.OrderType == enum.OrderTypeDineIn && req.TableNumber == "" {
		return ErrMissingTable
	}
	if req.PaymentMethod == enum.PaymentMethodCOD && req.Cart.OrderType != enum.OrderTypeDelivery {
		return ErrCODNotDelivery
	}
	return nil
}

// isOrderNumberConflict checks for a unique violation on order_number
// (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("SG-%03d", nextNum)

	// Recompute each line against the live catalog.
	subtotal := decimal.Zero
	var itemParams []database.CreateOrderItemParams
	for i, line := range req.Cart.Lines {
		item, err := store.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !item.IsAvailable {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrItemUnavailable)
		}

		name := item.Name
		unitPrice := numericToDecimal(item.Price)
		variantID := pgtype.UUID{}
		if line.VariantID != nil {
			variant, err := store.GetVariant(ctx, *line.VariantID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("items[%d]: %w", i, ErrVariantNotFound)
				}
				return nil, fmt.Errorf("items[%d]: get variant: %w", i, err)
			}
			if variant.MenuItemID != item.ID {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrVariantMismatch)
			}
			name = item.Name + " (" + variant.Label + ")"
			unitPrice = numericToDecimal(variant.Price)
			variantID = pgtype.UUID{Bytes: *line.VariantID, Valid: true}
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt32(line.Quantity))
		subtotal = subtotal.Add(lineTotal)

		notes := pgtype.Text{}
		if line.Notes != "" {
			notes = pgtype.Text{String: line.Notes, Valid: true}
		}

		itemParams = append(itemParams, database.CreateOrderItemParams{
			MenuItemID: item.ID,
			VariantID:  variantID,
			Name:       name,
			UnitPrice:  decimalToNumeric(unitPrice),
			Quantity:   line.Quantity,
			Notes:      notes,
			LineTotal:  decimalToNumeric(lineTotal),
		})
	}

	// gst = round(subtotal × 5%, 2); fee only for delivery; total rounded once.
	gst := subtotal.Mul(gstRate).Round(2)
	deliveryFee := decimal.Zero
	if req.Cart.OrderType == enum.OrderTypeDelivery {
		zone, err := store.GetZone(ctx, *req.Cart.DeliveryZoneID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrZoneNotFound
			}
			return nil, fmt.Errorf("get delivery zone: %w", err)
		}
		deliveryFee = numericToDecimal(zone.DeliveryFee)
	}
	total := subtotal.Add(gst).Add(deliveryFee).Round(2)

	paymentStatus := enum.PaymentStatusPending
	razorpayOrderID := pgtype.Text{}
	razorpayPaymentID := pgtype.Text{}
	if req.PaymentMethod == enum.PaymentMethodRazorpay {
		paymentStatus = enum.PaymentStatusPaid
		razorpayOrderID = pgtype.Text{String: req.RazorpayOrderID, Valid: true}
		razorpayPaymentID = pgtype.Text{String: req.RazorpayPaymentID, Valid: true}
	}

	deliveryAddress := pgtype.Text{}
	if req.Cart.OrderType == enum.OrderTypeDelivery {
		deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
	}
	tableNumber := pgtype.Text{}
	if req.Cart.OrderType == enum.OrderTypeDineIn {
		tableNumber = pgtype.Text{String: req.TableNumber, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:       orderNumber,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		DeliveryAddress:   deliveryAddress,
		TableNumber:       tableNumber,
		OrderType:         req.Cart.OrderType,
		Status:            enum.OrderStatusNew,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     paymentStatus,
		RazorpayOrderID:   razorpayOrderID,
		RazorpayPaymentID: razorpayPaymentID,
		Subtotal:          decimalToNumeric(subtotal),
		Gst:               decimalToNumeric(gst),
		DeliveryFee:       decimalToNumeric(deliveryFee),
		Total:             decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, params := range itemParams {
		params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// --- Helpers ---

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

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
