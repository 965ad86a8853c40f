package history

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/ui/features/common"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// DefaultLimit is the number of attempts shown when no limit is given.
const DefaultLimit = 100

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	engine *engine.Engine
	isDev  bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, isDev bool) *Handlers {
	return &Handlers{engine: eng, isDev: isDev}
}

// HistoryPage renders the most recent compile attempts.
func (h *Handlers) HistoryPage(w http.ResponseWriter, r *http.Request) {
	attempts, enabled, err := h.attempts(limitParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	shell := common.ShellData{Title: "History", CurrentPath: "/history", IsDev: h.isDev}
	if err := common.Page(shell, AttemptTable(attempts, enabled)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HistoryJSON returns the most recent compile attempts as JSON.
func (h *Handlers) HistoryJSON(w http.ResponseWriter, r *http.Request) {
	attempts, enabled, err := h.attempts(limitParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !enabled {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}
	if attempts == nil {
		attempts = []*core.CompileAttempt{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(attempts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) attempts(limit int) ([]*core.CompileAttempt, bool, error) {
	store := h.engine.GetStateStore()
	if store == nil {
		return nil, false, nil
	}
	attempts, err := store.ListAttempts(limit)
	return attempts, true, err
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return DefaultLimit
	}
	return n
}
