// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/notifier"
	examplesFeature "github.com/leapstack-labs/leapshader/internal/ui/features/examples"
	historyFeature "github.com/leapstack-labs/leapshader/internal/ui/features/history"
	previewFeature "github.com/leapstack-labs/leapshader/internal/ui/features/preview"
	"github.com/leapstack-labs/leapshader/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server. notify is pinged
// when the editor text changes outside the browser.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	isDev bool,
) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := previewFeature.SetupRoutes(router, eng, sessionStore, notify, isDev); err != nil {
		return err
	}

	if err := examplesFeature.SetupRoutes(router, eng, notify); err != nil {
		return err
	}

	if err := historyFeature.SetupRoutes(router, eng, isDev); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
