// Package history provides the compile history page.
package history

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapshader/internal/engine"
)

// SetupRoutes configures routes for the history feature.
func SetupRoutes(router chi.Router, eng *engine.Engine, isDev bool) error {
	handlers := NewHandlers(eng, isDev)

	router.Get("/history", handlers.HistoryPage)
	router.Get("/api/history", handlers.HistoryJSON)

	return nil
}
