package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createReservation = `
INSERT INTO reservations (name, phone, email, date, time, party_size, status, special_requests)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, name, phone, email, date, time, party_size, status, special_requests, created_at, updated_at
`

type CreateReservationParams struct {
	Name            string
	Phone           string
	Email           pgtype.Text
	Date            pgtype.Date
	Time            string
	PartySize       int32
	Status          string
	SpecialRequests pgtype.Text
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	var res Reservation
	err := scanReservation(q.db.QueryRow(ctx, createReservation,
		arg.Name, arg.Phone, arg.Email, arg.Date, arg.Time, arg.PartySize, arg.Status, arg.SpecialRequests), &res)
	return res, err
}

const getReservation = `
SELECT id, name, phone, email, date, time, party_size, status, special_requests, created_at, updated_at
FROM reservations
WHERE id = $1
`

func (q *Queries) GetReservation(ctx context.Context, id uuid.UUID) (Reservation, error) {
	var res Reservation
	err := scanReservation(q.db.QueryRow(ctx, getReservation, id), &res)
	return res, err
}

const listReservations = `
SELECT id, name, phone, email, date, time, party_size, status, special_requests, created_at, updated_at
FROM reservations
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::date IS NULL OR date = $2)
ORDER BY date DESC, time DESC
LIMIT $3 OFFSET $4
`

type ListReservationsParams struct {
	Status pgtype.Text
	Date   pgtype.Date
	Limit  int32
	Offset int32
}

func (q *Queries) ListReservations(ctx context.Context, arg ListReservationsParams) ([]Reservation, error) {
	rows, err := q.db.Query(ctx, listReservations, arg.Status, arg.Date, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reservations []Reservation
	for rows.Next() {
		var res Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// UpdateReservationStatus is a compare-and-set on the current status,
// mirroring the order status update.
const updateReservationStatus = `
UPDATE reservations
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, name, phone, email, date, time, party_size, status, special_requests, created_at, updated_at
`

type UpdateReservationStatusParams struct {
	ID         uuid.UUID
	Status     string
	PrevStatus string
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	var res Reservation
	err := scanReservation(q.db.QueryRow(ctx, updateReservationStatus, arg.ID, arg.Status, arg.PrevStatus), &res)
	return res, err
}

func scanReservation(row scannable, res *Reservation) error {
	return row.Scan(&res.ID, &res.Name, &res.Phone, &res.Email, &res.Date, &res.Time,
		&res.PartySize, &res.Status, &res.SpecialRequests, &res.CreatedAt, &res.UpdatedAt)
}
