package database

import (
	"context"

	"github.com/google/uuid"
)

const getUserByEmail = `
SELECT id, full_name, email, hashed_password, role, created_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT id, full_name, email, hashed_password, role, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByID, id).
		Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const createUser = `
INSERT INTO users (full_name, email, hashed_password, role)
VALUES ($1, $2, $3, $4)
RETURNING id, full_name, email, hashed_password, role, created_at
`

type CreateUserParams struct {
	FullName       string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUser, arg.FullName, arg.Email, arg.HashedPassword, arg.Role).
		Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}
