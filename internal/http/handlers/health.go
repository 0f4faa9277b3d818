package handlers

import (
	"net/http"
	"sort"
)

// Root serves the service banner with the supported frameworks.
func (a *App) Root(w http.ResponseWriter, r *http.Request) {
	frameworks := a.Builder.Catalog().Names()
	sort.Strings(frameworks)
	a.json(w, http.StatusOK, map[string]any{
		"service":    "codefusion-api",
		"status":     "running",
		"frameworks": frameworks,
	})
}

// Healthz reports liveness.
func (a *App) Healthz(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"status": "ok"})
}
