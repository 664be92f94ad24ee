package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/database"
)

// cartDoc is the JSONB document stored per cart. The zone fee is snapshotted
// so loading a cart does not need a zone lookup.
type cartDoc struct {
	Lines   []Line          `json:"lines"`
	ZoneFee decimal.Decimal `json:"zone_fee"`
}

// PostgresRepository persists carts in the carts table.
type PostgresRepository struct {
	q *database.Queries
}

func NewPostgresRepository(q *database.Queries) *PostgresRepository {
	return &PostgresRepository{q: q}
}

func (r *PostgresRepository) Load(ctx context.Context, token string) (*Cart, error) {
	row, err := r.q.GetCart(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var doc cartDoc
	if err := json.Unmarshal(row.Lines, &doc); err != nil {
		return nil, fmt.Errorf("decode cart lines: %w", err)
	}

	c := &Cart{
		Token:     row.Token,
		OrderType: row.OrderType,
		ZoneFee:   doc.ZoneFee,
		Lines:     doc.Lines,
	}
	if row.DeliveryZoneID.Valid {
		id := uuid.UUID(row.DeliveryZoneID.Bytes)
		c.DeliveryZoneID = &id
	}
	return c, nil
}

func (r *PostgresRepository) Save(ctx context.Context, c *Cart) error {
	doc, err := json.Marshal(cartDoc{Lines: c.Lines, ZoneFee: c.ZoneFee})
	if err != nil {
		return fmt.Errorf("encode cart lines: %w", err)
	}

	zoneID := pgtype.UUID{}
	if c.DeliveryZoneID != nil {
		zoneID = pgtype.UUID{Bytes: *c.DeliveryZoneID, Valid: true}
	}

	return r.q.UpsertCart(ctx, database.UpsertCartParams{
		Token:          c.Token,
		OrderType:      c.OrderType,
		DeliveryZoneID: zoneID,
		Lines:          doc,
	})
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	return r.q.DeleteCart(ctx, token)
}

// MemoryRepository is an in-process Repository used by tests.
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]*Cart)}
}

func (r *MemoryRepository) Load(_ context.Context, token string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp, nil
}

func (r *MemoryRepository) Save(_ context.Context, c *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	r.carts[c.Token] = &cp
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, token)
	return nil
}
