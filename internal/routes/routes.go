package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/buildhive/buildhive-backend/internal/handlers"
	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/services"
)

func SetupRoutes(r *chi.Mux, tokens *services.TokenService) {
	// Public auth routes
	r.Post("/api/auth/register", handlers.Register)
	r.Post("/api/auth/login", handlers.Login)
	r.Post("/api/auth/verify-email", handlers.VerifyEmail)

	// Stripe calls this directly; signature verification is the auth.
	r.Post("/api/payments/webhook", handlers.StripeWebhook)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))

		r.Get("/api/auth/me", handlers.Me)
		r.Put("/api/auth/profile", handlers.UpdateProfile)
		r.Put("/api/auth/password", handlers.ChangePassword)

		// Projects
		r.Post("/api/projects", handlers.CreateProject)
		r.Get("/api/projects", handlers.ListProjects)
		r.Get("/api/projects/{id}", handlers.GetProject)
		r.Put("/api/projects/{id}", handlers.UpdateProject)
		r.Delete("/api/projects/{id}", handlers.DeleteProject)
		r.Put("/api/projects/{id}/status", handlers.TransitionStatus)
		r.Put("/api/projects/{id}/assign", handlers.AssignDeveloper)
		r.Post("/api/projects/{id}/features/suggest", handlers.SuggestProjectFeatures)

		// Project thread
		r.Get("/api/projects/{id}/messages", handlers.ListMessages)
		r.Post("/api/projects/{id}/messages", handlers.PostMessage)
		r.Put("/api/projects/{id}/messages/{entryID}/read", handlers.MarkMessageRead)
		r.Get("/api/projects/{id}/messages/unread-count", handlers.UnreadCount)

		// Attachments
		r.Post("/api/upload", handlers.UploadAttachment)

		// Payments
		r.Post("/api/payments/intent", handlers.CreateIntent)
		r.Get("/api/payments/intent/{intentID}", handlers.GetIntent)
		r.Post("/api/payments/subscription", handlers.CreateSubscription)

		// Admin dashboard
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/api/admin/stats", handlers.GetAdminStats)
			r.Get("/api/admin/users", handlers.GetUsers)
			r.Get("/api/admin/projects", handlers.GetAllProjects)
			r.Put("/api/admin/users/role", handlers.UpdateUserRole)
			r.Post("/api/admin/unblock-ip", handlers.UnblockIP)
		})
	})

	// WebSocket endpoint for the realtime project thread (token via header or query)
	r.Get("/ws/projects", handlers.ProjectChatWebSocket)
}
