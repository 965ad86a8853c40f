// Package examples provides the example picker for the UI.
package examples

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/notifier"
)

// SetupRoutes configures routes for the examples feature.
func SetupRoutes(router chi.Router, eng *engine.Engine, notify *notifier.Notifier) error {
	handlers := NewHandlers(eng, notify)

	router.Get("/api/examples", handlers.List)
	router.Post("/examples/{name}", handlers.Load)

	return nil
}
