package web

import (
	"github.com/faceguard/faceguard/internal/web/handlers"
	"github.com/faceguard/faceguard/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes() {
	syncHandler := handlers.NewSyncHandler(s.store)
	assetsHandler := handlers.NewAssetsHandler(s.assets)
	adminHandler := handlers.NewAdminHandler(s.store)

	// Health check (no actor required)
	s.router.Get("/api/health", handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		// Snapshot exchange used by the device sync loops
		r.Get("/sync", syncHandler.Get)
		r.Post("/sync", syncHandler.Post)

		// Binary asset uploads from device sweeps
		r.Post("/assets", assetsHandler.Upload)

		// Roster and reporting
		r.Get("/identities", adminHandler.ListIdentities)
		r.Get("/report", adminHandler.Report)

		// Destructive operations require the admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Delete("/identities/{id}", adminHandler.DeleteIdentity)
			r.Post("/wipe", adminHandler.Wipe)
		})
	})

	// Stored assets are served straight from the asset store
	s.router.Get("/assets/{kind}/{id}", assetsHandler.Serve)
}
