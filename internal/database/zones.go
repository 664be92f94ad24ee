package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listActiveZones = `
SELECT id, zone_name, delivery_fee, is_active
FROM delivery_zones
WHERE is_active = true
ORDER BY zone_name
`

func (q *Queries) ListActiveZones(ctx context.Context) ([]DeliveryZone, error) {
	rows, err := q.db.Query(ctx, listActiveZones)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var zones []DeliveryZone
	for rows.Next() {
		var z DeliveryZone
		if err := rows.Scan(&z.ID, &z.ZoneName, &z.DeliveryFee, &z.IsActive); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

const getZone = `
SELECT id, zone_name, delivery_fee, is_active
FROM delivery_zones
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetZone(ctx context.Context, id uuid.UUID) (DeliveryZone, error) {
	var z DeliveryZone
	err := q.db.QueryRow(ctx, getZone, id).Scan(&z.ID, &z.ZoneName, &z.DeliveryFee, &z.IsActive)
	return z, err
}

const createZone = `
INSERT INTO delivery_zones (zone_name, delivery_fee)
VALUES ($1, $2)
RETURNING id, zone_name, delivery_fee, is_active
`

type CreateZoneParams struct {
	ZoneName    string
	DeliveryFee pgtype.Numeric
}

func (q *Queries) CreateZone(ctx context.Context, arg CreateZoneParams) (DeliveryZone, error) {
	var z DeliveryZone
	err := q.db.QueryRow(ctx, createZone, arg.ZoneName, arg.DeliveryFee).
		Scan(&z.ID, &z.ZoneName, &z.DeliveryFee, &z.IsActive)
	return z, err
}

const updateZone = `
UPDATE delivery_zones
SET zone_name = $2, delivery_fee = $3
WHERE id = $1 AND is_active = true
RETURNING id, zone_name, delivery_fee, is_active
`

type UpdateZoneParams struct {
	ID          uuid.UUID
	ZoneName    string
	DeliveryFee pgtype.Numeric
}

func (q *Queries) UpdateZone(ctx context.Context, arg UpdateZoneParams) (DeliveryZone, error) {
	var z DeliveryZone
	err := q.db.QueryRow(ctx, updateZone, arg.ID, arg.ZoneName, arg.DeliveryFee).
		Scan(&z.ID, &z.ZoneName, &z.DeliveryFee, &z.IsActive)
	return z, err
}

const softDeleteZone = `
UPDATE delivery_zones SET is_active = false WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteZone(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteZone, id).Scan(&out)
	return out, err
}
