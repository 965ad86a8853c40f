package examples

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/notifier"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Handlers provides HTTP handlers for the examples feature.
type Handlers struct {
	engine   *engine.Engine
	notifier *notifier.Notifier
}

// NewHandlers creates a new Handlers instance. notify is pinged after an
// example replaces the editor text.
func NewHandlers(eng *engine.Engine, notify *notifier.Notifier) *Handlers {
	return &Handlers{engine: eng, notifier: notify}
}

// List returns the catalog as JSON.
func (h *Handlers) List(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.engine.Catalog().List()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Load replaces the session source with the named example. The load status
// is LOADING until the example's validation is applied.
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sess := h.engine.Session()

	if _, err := h.engine.Catalog().Get(name); err != nil {
		if errors.Is(err, examples.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := sess.SetLoadStatus(core.LoadStatusLoading); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := h.engine.LoadExample(name); err != nil {
		_ = sess.SetLoadStatus(core.LoadStatusIdle)
		_ = sse.ConsoleError(err)
		return
	}
	h.notifier.Broadcast()

	snap, err := sess.Snapshot()
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	_ = sse.PatchElementTempl(Menu(h.engine.Catalog().List(), snap.Load))
}
