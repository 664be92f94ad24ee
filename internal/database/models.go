package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	SortOrder   int32
	IsActive    bool
	CreatedAt   time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	// Price is NULL for items sold only through their variants.
	Price       pgtype.Numeric
	IsVeg       bool
	ImageUrl    pgtype.Text
	IsAvailable bool
	SortOrder   int32
	IsActive    bool
	CreatedAt   time.Time
}

type MenuVariant struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	Label      string
	Price      pgtype.Numeric
	IsVeg      bool
	SortOrder  int32
	IsActive   bool
}

type Order struct {
	ID                uuid.UUID
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
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	VariantID  pgtype.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Notes      pgtype.Text
	LineTotal  pgtype.Numeric
}

type Reservation struct {
	ID              uuid.UUID
	Name            string
	Phone           string
	Email           pgtype.Text
	Date            pgtype.Date
	Time            string
	PartySize       int32
	Status          string
	SpecialRequests pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type DeliveryZone struct {
	ID          uuid.UUID
	ZoneName    string
	DeliveryFee pgtype.Numeric
	IsActive    bool
}

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

// Cart is the persisted shopping cart for one storefront session.
// Lines are stored as a JSONB document; the cart package owns their shape.
type Cart struct {
	Token          string
	OrderType      string
	DeliveryZoneID pgtype.UUID
	Lines          []byte
	UpdatedAt      time.Time
}
