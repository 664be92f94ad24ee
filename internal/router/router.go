package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spicegarden/api/internal/cart"
	"github.com/spicegarden/api/internal/config"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
	"github.com/spicegarden/api/internal/handler"
	mw "github.com/spicegarden/api/internal/middleware"
	"github.com/spicegarden/api/internal/razorpay"
	"github.com/spicegarden/api/internal/service"
	"github.com/spicegarden/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Storefront routes are public; the back office sits behind JWT auth with
// role checks.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Cart-Token"},
		ExposedHeaders:   []string{"X-Cart-Token"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Storefront menu
	menuHandler := handler.NewMenuHandler(queries)
	r.Route("/menu", menuHandler.RegisterRoutes)

	// Cart (token in X-Cart-Token header, no account needed)
	cartRepo := cart.NewPostgresRepository(queries)
	cartHandler := handler.NewCartHandler(cartRepo, queries)
	r.Route("/cart", cartHandler.RegisterRoutes)

	// Delivery zones
	zoneHandler := handler.NewZoneHandler(queries)
	r.Route("/zones", zoneHandler.RegisterRoutes)

	// Razorpay gateway orders and signature verification
	gateway := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	paymentHandler := handler.NewPaymentHandler(gateway, cartRepo, cfg.RazorpayKeySecret)
	r.Route("/payments", paymentHandler.RegisterRoutes)

	// Checkout and order tracking
	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)
	orderHandler := handler.NewOrderHandler(orderService, queries, cartRepo, hub, cfg.RazorpayKeySecret)
	r.Route("/orders", orderHandler.RegisterRoutes)

	// Reservations (public creation)
	reservationHandler := handler.NewReservationHandler(queries)
	r.Route("/reservations", reservationHandler.RegisterRoutes)

	// WebSocket routes (tracking socket is open, admin socket checks the
	// token query param internally)
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrderWS(hub, w, r)
	})
	r.Get("/ws/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeAdminWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Staff routes: the live order board and the reservation book
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff))
			r.Route("/orders", orderHandler.RegisterAdminRoutes)
			r.Route("/reservations", reservationHandler.RegisterAdminRoutes)
		})

		// Admin-only routes: catalog, zones, analytics
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			menuAdminHandler := handler.NewMenuAdminHandler(queries)
			r.Route("/menu", menuAdminHandler.RegisterRoutes)

			r.Route("/zones", zoneHandler.RegisterAdminRoutes)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
