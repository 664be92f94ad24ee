package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Report queries exclude CANCELLED orders throughout.

const getDailySales = `
SELECT created_at::date AS sale_date,
       COUNT(*) AS order_count,
       COALESCE(SUM(subtotal), 0) AS subtotal,
       COALESCE(SUM(gst), 0) AS gst,
       COALESCE(SUM(delivery_fee), 0) AS delivery_fee,
       COALESCE(SUM(total), 0) AS total_revenue
FROM orders
WHERE status != 'CANCELLED'
  AND created_at >= $1 AND created_at < $2
GROUP BY created_at::date
ORDER BY sale_date
`

type GetDailySalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetDailySalesRow struct {
	SaleDate     pgtype.Date
	OrderCount   int64
	Subtotal     pgtype.Numeric
	Gst          pgtype.Numeric
	DeliveryFee  pgtype.Numeric
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]GetDailySalesRow, error) {
	rows, err := q.db.Query(ctx, getDailySales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetDailySalesRow
	for rows.Next() {
		var r GetDailySalesRow
		if err := rows.Scan(&r.SaleDate, &r.OrderCount, &r.Subtotal, &r.Gst, &r.DeliveryFee, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getItemSales = `
SELECT oi.menu_item_id,
       oi.name AS item_name,
       COALESCE(SUM(oi.quantity), 0) AS quantity_sold,
       COALESCE(SUM(oi.line_total), 0) AS total_revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status != 'CANCELLED'
  AND o.created_at >= $1 AND o.created_at < $2
GROUP BY oi.menu_item_id, oi.name
ORDER BY quantity_sold DESC
`

type GetItemSalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetItemSalesRow struct {
	MenuItemID   uuid.UUID
	ItemName     string
	QuantitySold int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetItemSales(ctx context.Context, arg GetItemSalesParams) ([]GetItemSalesRow, error) {
	rows, err := q.db.Query(ctx, getItemSales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetItemSalesRow
	for rows.Next() {
		var r GetItemSalesRow
		if err := rows.Scan(&r.MenuItemID, &r.ItemName, &r.QuantitySold, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getHourlySales = `
SELECT EXTRACT(HOUR FROM created_at)::int AS hour,
       COUNT(*) AS order_count,
       COALESCE(SUM(total), 0) AS total_revenue
FROM orders
WHERE status != 'CANCELLED'
  AND created_at >= $1 AND created_at < $2
GROUP BY hour
ORDER BY hour
`

type GetHourlySalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetHourlySalesRow struct {
	Hour         int32
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetHourlySales(ctx context.Context, arg GetHourlySalesParams) ([]GetHourlySalesRow, error) {
	rows, err := q.db.Query(ctx, getHourlySales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetHourlySalesRow
	for rows.Next() {
		var r GetHourlySalesRow
		if err := rows.Scan(&r.Hour, &r.OrderCount, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getOrderTypeSummary = `
SELECT order_type,
       COUNT(*) AS order_count,
       COALESCE(SUM(total), 0) AS total_revenue
FROM orders
WHERE status != 'CANCELLED'
  AND created_at >= $1 AND created_at < $2
GROUP BY order_type
ORDER BY order_type
`

type GetOrderTypeSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetOrderTypeSummaryRow struct {
	OrderType    string
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetOrderTypeSummary(ctx context.Context, arg GetOrderTypeSummaryParams) ([]GetOrderTypeSummaryRow, error) {
	rows, err := q.db.Query(ctx, getOrderTypeSummary, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetOrderTypeSummaryRow
	for rows.Next() {
		var r GetOrderTypeSummaryRow
		if err := rows.Scan(&r.OrderType, &r.OrderCount, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
