package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/database"
)

// ZoneStore defines the database methods needed by delivery zone handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ZoneStore interface {
	ListActiveZones(ctx context.Context) ([]database.DeliveryZone, error)
	CreateZone(ctx context.Context, arg database.CreateZoneParams) (database.DeliveryZone, error)
	UpdateZone(ctx context.Context, arg database.UpdateZoneParams) (database.DeliveryZone, error)
	SoftDeleteZone(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ZoneHandler handles delivery zone endpoints.
type ZoneHandler struct {
	store ZoneStore
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(store ZoneStore) *ZoneHandler {
	return &ZoneHandler{store: store}
}

// RegisterRoutes registers the public zone listing.
func (h *ZoneHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterAdminRoutes registers the zone management endpoints.
// Expected to be mounted inside an authenticated subrouter: /admin/zones
func (h *ZoneHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type zoneRequest struct {
	ZoneName    string `json:"zone_name"`
	DeliveryFee string `json:"delivery_fee"`
}

type zoneResponse struct {
	ID          uuid.UUID `json:"id"`
	ZoneName    string    `json:"zone_name"`
	DeliveryFee string    `json:"delivery_fee"`
}

// List handles GET /zones. The storefront uses it to populate the delivery
// zone picker; the admin panel reuses it for zone management.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.store.ListActiveZones(r.Context())
	if err != nil {
		log.Printf("ERROR: list zones: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]zoneResponse, len(zones))
	for i, z := range zones {
		resp[i] = toZoneResponse(z)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"zones": resp})
}

// Create handles POST /admin/zones.
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, fee, ok := h.decodeZone(w, r)
	if !ok {
		return
	}

	zone, err := h.store.CreateZone(r.Context(), database.CreateZoneParams{
		ZoneName:    req.ZoneName,
		DeliveryFee: decimalToNumeric(fee),
	})
	if err != nil {
		log.Printf("ERROR: create zone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toZoneResponse(zone))
}

// Update handles PUT /admin/zones/{id}.
func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid zone ID"})
		return
	}

	req, fee, ok := h.decodeZone(w, r)
	if !ok {
		return
	}

	zone, err := h.store.UpdateZone(r.Context(), database.UpdateZoneParams{
		ID:          id,
		ZoneName:    req.ZoneName,
		DeliveryFee: decimalToNumeric(fee),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "zone not found"})
			return
		}
		log.Printf("ERROR: update zone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toZoneResponse(zone))
}

// Delete handles DELETE /admin/zones/{id}. Zones are soft deleted so past
// orders keep their fee history.
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid zone ID"})
		return
	}

	if _, err := h.store.SoftDeleteZone(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "zone not found"})
			return
		}
		log.Printf("ERROR: delete zone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ZoneHandler) decodeZone(w http.ResponseWriter, r *http.Request) (zoneRequest, decimal.Decimal, bool) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, decimal.Zero, false
	}
	if req.ZoneName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "zone_name is required"})
		return req, decimal.Zero, false
	}
	fee, err := decimal.NewFromString(req.DeliveryFee)
	if err != nil || fee.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery_fee must be a non-negative amount"})
		return req, decimal.Zero, false
	}
	return req, fee, true
}

func toZoneResponse(z database.DeliveryZone) zoneResponse {
	return zoneResponse{
		ID:          z.ID,
		ZoneName:    z.ZoneName,
		DeliveryFee: numericToString(z.DeliveryFee),
	}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}
	}
	return n
}
