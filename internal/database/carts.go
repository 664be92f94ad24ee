package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getCart = `
SELECT token, order_type, delivery_zone_id, lines, updated_at
FROM carts
WHERE token = $1
`

func (q *Queries) GetCart(ctx context.Context, token string) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, getCart, token).
		Scan(&c.Token, &c.OrderType, &c.DeliveryZoneID, &c.Lines, &c.UpdatedAt)
	return c, err
}

const upsertCart = `
INSERT INTO carts (token, order_type, delivery_zone_id, lines, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (token) DO UPDATE
SET order_type = EXCLUDED.order_type,
    delivery_zone_id = EXCLUDED.delivery_zone_id,
    lines = EXCLUDED.lines,
    updated_at = now()
`

type UpsertCartParams struct {
	Token          string
	OrderType      string
	DeliveryZoneID pgtype.UUID
	Lines          []byte
}

func (q *Queries) UpsertCart(ctx context.Context, arg UpsertCartParams) error {
	_, err := q.db.Exec(ctx, upsertCart, arg.Token, arg.OrderType, arg.DeliveryZoneID, arg.Lines)
	return err
}

const deleteCart = `
DELETE FROM carts WHERE token = $1
`

func (q *Queries) DeleteCart(ctx context.Context, token string) error {
	_, err := q.db.Exec(ctx, deleteCart, token)
	return err
}
