package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Digits start at position 4: "SG-" is three characters. The sequence is
// global, matching the global UNIQUE constraint on order_number.
const getNextOrderNumber = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 4) AS INTEGER)), 0) + 1
FROM orders
`

// GetNextOrderNumber returns the next order sequence number. Concurrent
// transactions can read the same MAX; the unique constraint on order_number
// catches the loser, which retries with a fresh read.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderNumber).Scan(&n)
	return n, err
}

const orderColumns = `id, order_number, customer_name, customer_phone, delivery_address, table_number,
	order_type, status, payment_method, payment_status, razorpay_order_id, razorpay_payment_id,
	subtotal, gst, delivery_fee, total, created_at, updated_at`

const createOrder = `
INSERT INTO orders (order_number, customer_name, customer_phone, delivery_address, table_number,
	order_type, status, payment_method, payment_status, razorpay_order_id, razorpay_payment_id,
	subtotal, gst, delivery_fee, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, order_number, customer_name, customer_phone, delivery_address, table_number,
	order_type, status, payment_method, payment_status, razorpay_order_id, razorpay_payment_id,
	subtotal, gst, delivery_fee, total, created_at, updated_at
`

type CreateOrderParams struct {
	OrderNumber       string
	CustomerName      string
	CustomerPhone     string
	DeliveryAddress   pgtype.Text
	TableNumber       pgtype.Text
	OrderType         string
	Status            string
	PaymentMethod     string
	PaymentStatus     string
	RazorpayOrderID   pgtype.Text
	RazorpayPaymentID pgtype.Text
	Subtotal          pgtype.Numeric
	Gst               pgtype.Numeric
	DeliveryFee       pgtype.Numeric
	Total             pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	var o Order
	err := scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.CustomerName, arg.CustomerPhone, arg.DeliveryAddress, arg.TableNumber,
		arg.OrderType, arg.Status, arg.PaymentMethod, arg.PaymentStatus,
		arg.RazorpayOrderID, arg.RazorpayPaymentID,
		arg.Subtotal, arg.Gst, arg.DeliveryFee, arg.Total), &o)
	return o, err
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, variant_id, name, unit_price, quantity, notes, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, menu_item_id, variant_id, name, unit_price, quantity, notes, line_total
`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	VariantID  pgtype.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Notes      pgtype.Text
	LineTotal  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var oi OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuItemID, arg.VariantID, arg.Name, arg.UnitPrice, arg.Quantity, arg.Notes, arg.LineTotal).
		Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.VariantID, &oi.Name, &oi.UnitPrice, &oi.Quantity, &oi.Notes, &oi.LineTotal)
	return oi, err
}

const getOrder = `
SELECT id, order_number, customer_name, customer_phone, delivery_address, table_number,
	order_type, status, payment_method, payment_status, razorpay_order_id, razorpay_payment_id,
	subtotal, gst, delivery_fee, total, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	err := scanOrder(q.db.QueryRow(ctx, getOrder, id), &o)
	return o, err
}

const listOrders = `
SELECT id, order_number, customer_name, customer_phone, delivery_address, table_number,
	order_type, status, payment_method, payment_status, razorpay_order_id, razorpay_payment_id,
	subtotal, gst, delivery_fee, total, created_at, updated_at
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR order_type = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status    pgtype.Text
	OrderType pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status, arg.OrderType, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, variant_id, name, unit_price, quantity, notes, line_total
FROM order_items
WHERE order_id = $1
ORDER BY name
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var oi OrderItem
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.VariantID, &oi.Name,
			&oi.UnitPrice, &oi.Quantity, &oi.Notes, &oi.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, oi)
	}
	return items, rows.Err()
}

// UpdateOrderStatus is a compare-and-set: the row only updates if it still
// holds the status the caller read. No rows means a concurrent change won.
const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, order_number, customer_name, customer_phone, delivery_address, table_number,
	order_type, status, payment_method, payment_status, razorpay_order_id, razorpay_payment_id,
	subtotal, gst, delivery_fee, total, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	PrevStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	var o Order
	err := scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.PrevStatus), &o)
	return o, err
}

func scanOrder(row scannable, o *Order) error {
	return row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone,
		&o.DeliveryAddress, &o.TableNumber, &o.OrderType, &o.Status,
		&o.PaymentMethod, &o.PaymentStatus, &o.RazorpayOrderID, &o.RazorpayPaymentID,
		&o.Subtotal, &o.Gst, &o.DeliveryFee, &o.Total, &o.CreatedAt, &o.UpdatedAt)
}
