package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusNew            = "NEW"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusReady          = "READY"
	OrderStatusOutForDelivery = "OUT_FOR_DELIVERY"
	OrderStatusCompleted      = "COMPLETED"
	OrderStatusCancelled      = "CANCELLED"
)

const (
	OrderTypeDelivery = "DELIVERY"
	OrderTypePickup   = "PICKUP"
	OrderTypeDineIn   = "DINE_IN"
)

const (
	PaymentMethodRazorpay = "RAZORPAY"
	PaymentMethodCOD      = "COD"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

// ── Reservations ──

const (
	ReservationStatusPending   = "PENDING"
	ReservationStatusConfirmed = "CONFIRMED"
	ReservationStatusCancelled = "CANCELLED"
	ReservationStatusCompleted = "COMPLETED"
	ReservationStatusNoShow    = "NO_SHOW"
)

// ── Back-office roles ──

const (
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

// ── Menu browsing ──

// Dietary modes filter the catalog globally: All shows everything, Veg and
// NonVeg narrow both items and their variants.
const (
	DietaryModeAll    = "ALL"
	DietaryModeVeg    = "VEG"
	DietaryModeNonVeg = "NON_VEG"
)
