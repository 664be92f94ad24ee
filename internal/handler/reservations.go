package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
)

// ReservationStore defines the database methods needed by reservation handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReservationStore interface {
	CreateReservation(ctx context.Context, arg database.CreateReservationParams) (database.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (database.Reservation, error)
	ListReservations(ctx context.Context, arg database.ListReservationsParams) ([]database.Reservation, error)
	UpdateReservationStatus(ctx context.Context, arg database.UpdateReservationStatusParams) (database.Reservation, error)
}

// ReservationHandler handles table reservation endpoints.
type ReservationHandler struct {
	store ReservationStore
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(store ReservationStore) *ReservationHandler {
	return &ReservationHandler{store: store}
}

// RegisterRoutes registers the public reservation endpoints.
func (h *ReservationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

// RegisterAdminRoutes registers the staff reservation endpoints.
// Expected to be mounted inside an authenticated subrouter: /admin/reservations
func (h *ReservationHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{id}/status", h.UpdateStatus)
}

var reservationPhonePattern = regexp.MustCompile(`^\d{10}$`)

const maxPartySize = 20

type createReservationRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int32  `json:"party_size"`
	SpecialRequests string `json:"special_requests"`
}

type reservationResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            *string   `json:"email"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PartySize        int32     `json:"party_size"`
	Status           string    `json:"status"`
	SpecialRequests  *string   `json:"special_requests"`
	AvailableActions []string  `json:"available_actions"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type updateReservationStatusRequest struct {
	Status string `json:"status"`
}

// Create handles POST /reservations from the public site.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !reservationPhonePattern.MatchString(req.Phone) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone must be 10 digits"})
		return
	}
	if req.PartySize < 1 || req.PartySize > maxPartySize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "party_size must be between 1 and 20"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}
	// Compare calendar dates in local time; Truncate works in UTC and
	// mislabels the boundary hours for timezones ahead of it.
	if req.Date < time.Now().Format("2006-01-02") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date cannot be in the past"})
		return
	}

	if _, err := time.Parse("15:04", req.Time); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid time format, use HH:MM"})
		return
	}

	params := database.CreateReservationParams{
		Name:      req.Name,
		Phone:     req.Phone,
		Date:      pgtype.Date{Time: date, Valid: true},
		Time:      req.Time,
		PartySize: req.PartySize,
		Status:    enum.ReservationStatusPending,
	}
	if req.Email != "" {
		params.Email = pgtype.Text{String: req.Email, Valid: true}
	}
	if req.SpecialRequests != "" {
		params.SpecialRequests = pgtype.Text{String: req.SpecialRequests, Valid: true}
	}

	res, err := h.store.CreateReservation(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create reservation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

// List handles GET /admin/reservations.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListReservationsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidReservationStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
		params.Date = pgtype.Date{Time: t, Valid: true}
	}

	reservations, err := h.store.ListReservations(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list reservations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reservationResponse, len(reservations))
	for i, res := range reservations {
		resp[i] = toReservationResponse(res)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": resp,
		"limit":        limit,
		"offset":       offset,
	})
}

// UpdateStatus handles PATCH /admin/reservations/{id}/status.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation ID"})
		return
	}

	var req updateReservationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidReservationStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetReservation(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "reservation not found"})
			return
		}
		log.Printf("ERROR: get reservation for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !reservationTransitionAllowed(current.Status, req.Status) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "cannot transition from " + current.Status + " to " + req.Status,
		})
		return
	}

	updated, err := h.store.UpdateReservationStatus(r.Context(), database.UpdateReservationStatusParams{
		ID:         id,
		Status:     req.Status,
		PrevStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "reservation status changed, please retry"})
			return
		}
		log.Printf("ERROR: update reservation status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(updated))
}

// reservationActions defines which statuses a reservation can move to from
// its current one. Cancelled, completed and no-show are terminal.
var reservationActions = map[string][]string{
	enum.ReservationStatusPending:   {enum.ReservationStatusConfirmed, enum.ReservationStatusCancelled},
	enum.ReservationStatusConfirmed: {enum.ReservationStatusCompleted, enum.ReservationStatusNoShow, enum.ReservationStatusCancelled},
}

func reservationTransitionAllowed(current, next string) bool {
	for _, s := range reservationActions[current] {
		if s == next {
			return true
		}
	}
	return false
}

func isValidReservationStatus(s string) bool {
	switch s {
	case enum.ReservationStatusPending,
		enum.ReservationStatusConfirmed,
		enum.ReservationStatusCancelled,
		enum.ReservationStatusCompleted,
		enum.ReservationStatusNoShow:
		return true
	}
	return false
}

func toReservationResponse(res database.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:               res.ID,
		Name:             res.Name,
		Phone:            res.Phone,
		Date:             res.Date.Time.Format("2006-01-02"),
		Time:             res.Time,
		PartySize:        res.PartySize,
		Status:           res.Status,
		AvailableActions: availableReservationActions(res.Status),
		CreatedAt:        res.CreatedAt,
		UpdatedAt:        res.UpdatedAt,
	}
	if res.Email.Valid {
		resp.Email = &res.Email.String
	}
	if res.SpecialRequests.Valid {
		resp.SpecialRequests = &res.SpecialRequests.String
	}
	return resp
}

// availableReservationActions returns a non-nil slice so terminal statuses
// serialize as [] rather than null.
func availableReservationActions(status string) []string {
	actions := reservationActions[status]
	if actions == nil {
		return []string{}
	}
	return actions
}
