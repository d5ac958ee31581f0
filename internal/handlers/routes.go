package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the admin-gated account routes.
func RegisterRoutes(router chi.Router, handler *ConnectorHandler, adminKeyHash string) {
	router.Route("/accounts", func(r chi.Router) {
		r.Use(RequireAdminKey(adminKeyHash))
		r.Post("/", handler.CreateAccount)
		r.Post("/{accountID}/sync", handler.SyncDevices)
		r.Get("/{accountID}/devices", handler.GetDevices)
	})
}
