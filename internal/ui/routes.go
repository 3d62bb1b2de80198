package ui

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the dashboard routes on r.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Get("/", ui.HandleDashboard)

	r.Route("/ui", func(r chi.Router) {
		r.Post("/processes", ui.HandleAddProcess)
		r.Post("/reset", ui.HandleReset)
		r.Get("/run", ui.HandleRun)
	})
}
