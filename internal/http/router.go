package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/litverse/server/internal/auth"
	"github.com/litverse/server/internal/http/handlers"
	"github.com/litverse/server/internal/middleware"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	catalogHandler *handlers.CatalogHandler,
	purchaseHandler *handlers.PurchaseHandler,
	jwtService *auth.JWTService,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register/send-otp", authHandler.HandleRegisterSendOTP)
		r.Post("/register/verify-otp", authHandler.HandleRegisterVerifyOTP)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/login/send-otp", authHandler.HandleLoginSendOTP)
		r.Post("/login/verify-otp", authHandler.HandleLoginVerifyOTP)
		r.Post("/oauth/google", authHandler.HandleGoogleLogin)
		r.Post("/oauth/facebook", authHandler.HandleFacebookLogin)
		r.Post("/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/reset-password", authHandler.HandleResetPassword)
	})

	// Public catalog
	r.Get("/books", catalogHandler.HandleListBooks)
	r.Get("/books/{id}", catalogHandler.HandleGetBook)
	r.Get("/tests", catalogHandler.HandleListTests)

	// Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtService))
		r.Get("/me", authHandler.HandleMe)
		r.Post("/purchases", purchaseHandler.HandleCreatePurchase)
		r.Get("/purchases", purchaseHandler.HandleListMyPurchases)
		r.Post("/tests/{id}/results", purchaseHandler.HandleSubmitResult)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.HandleLogin)

		// Everything else requires an admin token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtService))
			r.Use(middleware.RequireAdmin)

			r.Get("/dashboard/stats", adminHandler.HandleDashboardStats)

			r.Get("/users", adminHandler.HandleListUsers)
			r.Put("/users/{id}", adminHandler.HandleUpdateUser)
			r.Delete("/users/{id}", adminHandler.HandleDeleteUser)

			r.Get("/books", catalogHandler.HandleListBooks)
			r.Post("/books", catalogHandler.HandleCreateBook)
			r.Put("/books/{id}", catalogHandler.HandleUpdateBook)
			r.Delete("/books/{id}", catalogHandler.HandleDeleteBook)

			r.Get("/tests", catalogHandler.HandleAdminListTests)
			r.Post("/tests", catalogHandler.HandleCreateTest)
			r.Put("/tests/{id}", catalogHandler.HandleUpdateTest)
			r.Delete("/tests/{id}", catalogHandler.HandleDeleteTest)

			r.Get("/purchases", adminHandler.HandleListPurchases)
		})
	})

	return r
}
