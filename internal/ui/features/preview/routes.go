// Package preview provides the live shader workbench: editor, diagnostics
// and the WebGL preview.
package preview

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/notifier"
)

// SetupRoutes configures routes for the preview feature.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	isDev bool,
) error {
	handlers := NewHandlers(eng, sessionStore, notify, isDev)

	router.Get("/", handlers.PreviewPage)
	router.Get("/updates", handlers.Updates)

	router.Post("/edit", handlers.Edit)
	router.Post("/stage/{stage}", handlers.SwitchStage)
	router.Post("/settings", handlers.UpdateSettings)
	router.Post("/render-error", handlers.RenderError)
	router.Post("/save", handlers.Save)

	router.Get("/api/state", handlers.State)
	router.Get("/api/material", handlers.Material)

	return nil
}
