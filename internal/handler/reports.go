package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spicegarden/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	GetDailySales(ctx context.Context, arg database.GetDailySalesParams) ([]database.GetDailySalesRow, error)
	GetItemSales(ctx context.Context, arg database.GetItemSalesParams) ([]database.GetItemSalesRow, error)
	GetHourlySales(ctx context.Context, arg database.GetHourlySalesParams) ([]database.GetHourlySalesRow, error)
	GetOrderTypeSummary(ctx context.Context, arg database.GetOrderTypeSummaryParams) ([]database.GetOrderTypeSummaryRow, error)
}

// ReportHandler handles the admin analytics endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers the report endpoints.
// Expected to be mounted inside an authenticated subrouter: /admin/reports
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/item-sales", h.ItemSales)
	r.Get("/hourly-sales", h.HourlySales)
	r.Get("/order-type-summary", h.OrderTypeSummary)
}

type dailySalesRow struct {
	Date         string `json:"date"`
	OrderCount   int64  `json:"order_count"`
	Subtotal     string `json:"subtotal"`
	Gst          string `json:"gst"`
	DeliveryFee  string `json:"delivery_fee"`
	TotalRevenue string `json:"total_revenue"`
}

type itemSalesRow struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	Name         string    `json:"name"`
	QuantitySold int64     `json:"quantity_sold"`
	TotalRevenue string    `json:"total_revenue"`
}

type hourlySalesRow struct {
	Hour         int32  `json:"hour"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

type orderTypeSummaryRow struct {
	OrderType    string `json:"order_type"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

// DailySales handles GET /admin/reports/daily-sales.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetDailySales(r.Context(), database.GetDailySalesParams{StartDate: start, EndDate: end})
	if err != nil {
		log.Printf("ERROR: daily sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailySalesRow, len(rows))
	for i, row := range rows {
		resp[i] = dailySalesRow{
			Date:         row.SaleDate.Time.Format("2006-01-02"),
			OrderCount:   row.OrderCount,
			Subtotal:     numericToString(row.Subtotal),
			Gst:          numericToString(row.Gst),
			DeliveryFee:  numericToString(row.DeliveryFee),
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"daily_sales": resp})
}

// ItemSales handles GET /admin/reports/item-sales.
func (h *ReportHandler) ItemSales(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetItemSales(r.Context(), database.GetItemSalesParams{StartDate: start, EndDate: end})
	if err != nil {
		log.Printf("ERROR: item sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemSalesRow, len(rows))
	for i, row := range rows {
		resp[i] = itemSalesRow{
			MenuItemID:   row.MenuItemID,
			Name:         row.ItemName,
			QuantitySold: row.QuantitySold,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"item_sales": resp})
}

// HourlySales handles GET /admin/reports/hourly-sales.
func (h *ReportHandler) HourlySales(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetHourlySales(r.Context(), database.GetHourlySalesParams{StartDate: start, EndDate: end})
	if err != nil {
		log.Printf("ERROR: hourly sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]hourlySalesRow, len(rows))
	for i, row := range rows {
		resp[i] = hourlySalesRow{
			Hour:         row.Hour,
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hourly_sales": resp})
}

// OrderTypeSummary handles GET /admin/reports/order-type-summary.
func (h *ReportHandler) OrderTypeSummary(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetOrderTypeSummary(r.Context(), database.GetOrderTypeSummaryParams{StartDate: start, EndDate: end})
	if err != nil {
		log.Printf("ERROR: order type summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderTypeSummaryRow, len(rows))
	for i, row := range rows {
		resp[i] = orderTypeSummaryRow{
			OrderType:    row.OrderType,
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"order_type_summary": resp})
}

// parseDateRange reads start_date and end_date query params and returns a
// half-open [start, end) range. Defaults to the last 7 days; end_date is
// bumped by one day so a same-day range covers the whole day.
func parseDateRange(w http.ResponseWriter, r *http.Request) (pgtype.Timestamptz, pgtype.Timestamptz, bool) {
	now := time.Now()
	start := now.AddDate(0, 0, -7).Truncate(24 * time.Hour)
	end := now

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return pgtype.Timestamptz{}, pgtype.Timestamptz{}, false
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return pgtype.Timestamptz{}, pgtype.Timestamptz{}, false
		}
		end = t.AddDate(0, 0, 1)
	}

	if end.Before(start) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must not be before start_date"})
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}, false
	}

	return pgtype.Timestamptz{Time: start, Valid: true}, pgtype.Timestamptz{Time: end, Valid: true}, true
}
