package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	getNextOrderNumberFn func(ctx context.Context) (int32, error)
	getMenuItemFn        func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	getVariantFn         func(ctx context.Context, id uuid.UUID) (database.MenuVariant, error)
	getZoneFn            func(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error)
	createOrderFn        func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn    func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

func (m *mockOrderStore) GetNextOrderNumber(ctx context.Context) (int32, error) {
	return m.getNextOrderNumberFn(ctx)
}
func (m *mockOrderStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}
func (m *mockOrderStore) GetVariant(ctx context.Context, id uuid.UUID) (database.MenuVariant, error) {
	return m.getVariantFn(ctx, id)
}
func (m *mockOrderStore) GetZone(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error) {
	return m.getZoneFn(ctx, id)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func newTestService(store *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, newStore), tx
}

// defaultStore returns a mockOrderStore preloaded with one available 280.00
// veg item. Individual tests override the functions they care about.
func defaultStore(itemID uuid.UUID) *mockOrderStore {
	return &mockOrderStore{
		getNextOrderNumberFn: func(ctx context.Context) (int32, error) { return 1, nil },
		getMenuItemFn: func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
			if id != itemID {
				return database.MenuItem{}, pgx.ErrNoRows
			}
			return database.MenuItem{
				ID:          itemID,
				Name:        "Paneer Tikka",
				Price:       makeNumeric("280.00"),
				IsVeg:       true,
				IsAvailable: true,
			}, nil
		},
		getVariantFn: func(ctx context.Context, id uuid.UUID) (database.MenuVariant, error) {
			return database.MenuVariant{}, pgx.ErrNoRows
		},
		getZoneFn: func(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error) {
			return database.DeliveryZone{}, pgx.ErrNoRows
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:          uuid.New(),
				OrderNumber: arg.OrderNumber,
				OrderType:   arg.OrderType,
				Status:      arg.Status,
				Subtotal:    arg.Subtotal,
				Gst:         arg.Gst,
				DeliveryFee: arg.DeliveryFee,
				Total:       arg.Total,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:        uuid.New(),
				OrderID:   arg.OrderID,
				Name:      arg.Name,
				UnitPrice: arg.UnitPrice,
				Quantity:  arg.Quantity,
				LineTotal: arg.LineTotal,
			}, nil
		},
	}
}

func pickupCart(itemID uuid.UUID, qty int32) *cart.Cart {
	c := cart.New("tok")
	c.Lines = []cart.Line{{
		SKU:        itemID.String(),
		MenuItemID: itemID,
		Name:       "Paneer Tikka",
		Price:      decimal.RequireFromString("280.00"),
		Quantity:   qty,
	}}
	return c
}

func validRequest(c *cart.Cart) CreateOrderRequest {
	return CreateOrderRequest{
		Cart:          c,
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		PaymentMethod: enum.PaymentMethodRazorpay,
	}
}

// --- Validation tests ---

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, _ := newTestService(nil)

	req := validRequest(cart.New("tok"))
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCreateOrderMissingName(t *testing.T) {
	svc, _ := newTestService(nil)

	req := validRequest(pickupCart(uuid.New(), 1))
	req.CustomerName = ""
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestCreateOrderBadPhone(t *testing.T) {
	svc, _ := newTestService(nil)

	for _, phone := range []string{"", "12345", "98765432101", "98765abcde"} {
		req := validRequest(pickupCart(uuid.New(), 1))
		req.CustomerPhone = phone
		_, err := svc.CreateOrder(context.Background(), req)
		if !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("phone %q: expected ErrInvalidPhone, got %v", phone, err)
		}
	}
}

func TestCreateOrderDeliveryNeedsAddressAndZone(t *testing.T) {
	svc, _ := newTestService(nil)

	c := pickupCart(uuid.New(), 1)
	c.SetOrderType(enum.OrderTypeDelivery)
	req := validRequest(c)
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected ErrMissingAddress, got %v", err)
	}

	req.DeliveryAddress = "12 MG Road"
	_, err = svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrMissingZone) {
		t.Fatalf("expected ErrMissingZone, got %v", err)
	}
}

func TestCreateOrderDineInNeedsTable(t *testing.T) {
	svc, _ := newTestService(nil)

	c := pickupCart(uuid.New(), 1)
	c.SetOrderType(enum.OrderTypeDineIn)
	req := validRequest(c)
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestCreateOrderCODRequiresDelivery(t *testing.T) {
	svc, _ := newTestService(nil)

	req := validRequest(pickupCart(uuid.New(), 1))
	req.PaymentMethod = enum.PaymentMethodCOD
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrCODNotDelivery) {
		t.Fatalf("expected ErrCODNotDelivery, got %v", err)
	}
}

// --- Pricing tests ---

func TestCreateOrderRecomputesFromCatalog(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(itemID)
	svc, tx := newTestService(store)

	c := pickupCart(itemID, 2)
	// client-held price is stale; the catalog says 280.00
	c.Lines[0].Price = decimal.RequireFromString("1.00")

	result, err := svc.CreateOrder(context.Background(), validRequest(c))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !numericEquals(result.Order.Subtotal, "560.00") {
		t.Errorf("subtotal = %v, want 560.00", numericToDecimal(result.Order.Subtotal))
	}
	if !numericEquals(result.Order.Gst, "28.00") {
		t.Errorf("gst = %v, want 28.00", numericToDecimal(result.Order.Gst))
	}
	if !numericEquals(result.Order.DeliveryFee, "0.00") {
		t.Errorf("delivery fee = %v, want 0.00", numericToDecimal(result.Order.DeliveryFee))
	}
	if !numericEquals(result.Order.Total, "588.00") {
		t.Errorf("total = %v, want 588.00", numericToDecimal(result.Order.Total))
	}
	if tx.commits != 1 {
		t.Errorf("commits = %d, want 1", tx.commits)
	}
}

func TestCreateOrderDeliveryAddsZoneFee(t *testing.T) {
	itemID := uuid.New()
	zoneID := uuid.New()
	store := defaultStore(itemID)
	store.getZoneFn = func(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error) {
		if id != zoneID {
			return database.DeliveryZone{}, pgx.ErrNoRows
		}
		return database.DeliveryZone{ID: zoneID, ZoneName: "Koramangala", DeliveryFee: makeNumeric("40.00")}, nil
	}
	svc, _ := newTestService(store)

	c := pickupCart(itemID, 1)
	c.SetOrderType(enum.OrderTypeDelivery)
	c.SetDeliveryZone(zoneID, decimal.RequireFromString("40.00"))
	req := validRequest(c)
	req.DeliveryAddress = "12 MG Road"

	result, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 280 + 14 GST + 40 fee
	if !numericEquals(result.Order.Total, "334.00") {
		t.Errorf("total = %v, want 334.00", numericToDecimal(result.Order.Total))
	}
}

func TestCreateOrderVariantPricing(t *testing.T) {
	itemID := uuid.New()
	variantID := uuid.New()
	store := defaultStore(itemID)
	store.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		// variant-priced item: base price is NULL
		return database.MenuItem{ID: itemID, Name: "Biryani", IsAvailable: true}, nil
	}
	store.getVariantFn = func(ctx context.Context, id uuid.UUID) (database.MenuVariant, error) {
		if id != variantID {
			return database.MenuVariant{}, pgx.ErrNoRows
		}
		return database.MenuVariant{ID: variantID, MenuItemID: itemID, Label: "Chicken", Price: makeNumeric("300.00")}, nil
	}

	var itemName string
	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		itemName = arg.Name
		return database.OrderItem{ID: uuid.New(), OrderID: arg.OrderID, Name: arg.Name}, nil
	}
	svc, _ := newTestService(store)

	c := pickupCart(itemID, 1)
	c.Lines[0].VariantID = &variantID

	result, err := svc.CreateOrder(context.Background(), validRequest(c))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if itemName != "Biryani (Chicken)" {
		t.Errorf("item name = %q, want %q", itemName, "Biryani (Chicken)")
	}
	if !numericEquals(result.Order.Subtotal, "300.00") {
		t.Errorf("subtotal = %v, want 300.00", numericToDecimal(result.Order.Subtotal))
	}
}

func TestCreateOrderVariantOwnershipCheck(t *testing.T) {
	itemID := uuid.New()
	variantID := uuid.New()
	store := defaultStore(itemID)
	store.getVariantFn = func(ctx context.Context, id uuid.UUID) (database.MenuVariant, error) {
		// variant exists but belongs to another item
		return database.MenuVariant{ID: variantID, MenuItemID: uuid.New(), Price: makeNumeric("300.00")}, nil
	}
	svc, _ := newTestService(store)

	c := pickupCart(itemID, 1)
	c.Lines[0].VariantID = &variantID

	_, err := svc.CreateOrder(context.Background(), validRequest(c))
	if !errors.Is(err, ErrVariantMismatch) {
		t.Fatalf("expected ErrVariantMismatch, got %v", err)
	}
}

func TestCreateOrderUnavailableItem(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(itemID)
	store.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return database.MenuItem{ID: itemID, Name: "Paneer Tikka", Price: makeNumeric("280.00"), IsAvailable: false}, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), validRequest(pickupCart(itemID, 1)))
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
}

func TestCreateOrderPaymentStatusByMethod(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(itemID)
	var gotParams database.CreateOrderParams
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		gotParams = arg
		return database.Order{ID: uuid.New(), OrderNumber: arg.OrderNumber}, nil
	}
	svc, _ := newTestService(store)

	req := validRequest(pickupCart(itemID, 1))
	req.RazorpayOrderID = "order_abc"
	req.RazorpayPaymentID = "pay_xyz"
	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotParams.PaymentStatus != enum.PaymentStatusPaid {
		t.Errorf("razorpay payment status = %q, want PAID", gotParams.PaymentStatus)
	}
	if !gotParams.RazorpayOrderID.Valid || gotParams.RazorpayOrderID.String != "order_abc" {
		t.Errorf("razorpay order id not persisted: %+v", gotParams.RazorpayOrderID)
	}

	zoneID := uuid.New()
	store.getZoneFn = func(ctx context.Context, id uuid.UUID) (database.DeliveryZone, error) {
		return database.DeliveryZone{ID: zoneID, DeliveryFee: makeNumeric("40.00")}, nil
	}
	c := pickupCart(itemID, 1)
	c.SetOrderType(enum.OrderTypeDelivery)
	c.SetDeliveryZone(zoneID, decimal.RequireFromString("40.00"))
	codReq := validRequest(c)
	codReq.PaymentMethod = enum.PaymentMethodCOD
	codReq.DeliveryAddress = "12 MG Road"
	if _, err := svc.CreateOrder(context.Background(), codReq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotParams.PaymentStatus != enum.PaymentStatusPending {
		t.Errorf("cod payment status = %q, want PENDING", gotParams.PaymentStatus)
	}
}

func TestCreateOrderNumberFormat(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(itemID)
	store.getNextOrderNumberFn = func(ctx context.Context) (int32, error) { return 42, nil }
	svc, _ := newTestService(store)

	result, err := svc.CreateOrder(context.Background(), validRequest(pickupCart(itemID, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.OrderNumber != "SG-042" {
		t.Errorf("order number = %q, want SG-042", result.Order.OrderNumber)
	}
}

func TestCreateOrderRetriesOnNumberConflict(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(itemID)

	// Each attempt must re-read the sequence so the retry picks up the
	// number that won the race instead of re-inserting the stale one.
	seq := int32(41)
	store.getNextOrderNumberFn = func(ctx context.Context) (int32, error) {
		seq++
		return seq, nil
	}

	calls := 0
	var attempted []string
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		calls++
		attempted = append(attempted, arg.OrderNumber)
		if calls == 1 {
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
		}
		return database.Order{ID: uuid.New(), OrderNumber: arg.OrderNumber}, nil
	}
	svc, _ := newTestService(store)

	result, err := svc.CreateOrder(context.Background(), validRequest(pickupCart(itemID, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempted) != 2 || attempted[0] != "SG-042" || attempted[1] != "SG-043" {
		t.Errorf("attempted numbers = %v, want [SG-042 SG-043]", attempted)
	}
	if result.Order.OrderNumber != "SG-043" {
		t.Errorf("order number = %q, want SG-043", result.Order.OrderNumber)
	}
	if calls != 2 {
		t.Errorf("createOrder calls = %d, want 2", calls)
	}
}

func TestCreateOrderDoesNotRetryOtherErrors(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(itemID)

	calls := 0
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		calls++
		return database.Order{}, errors.New("connection lost")
	}
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), validRequest(pickupCart(itemID, 1)))
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("createOrder calls = %d, want 1", calls)
	}
}
