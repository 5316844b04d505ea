package registry

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes wires up the read-only repository registry endpoints.
func RegisterRoutes(r chi.Router, store *Store) {
	h := &routeHandler{store: store}
	r.Route("/api/repositories", func(r chi.Router) {
		r.Get("/", h.listRepos)
		r.Get("/{name}", h.getRepo)
	})
}

type routeHandler struct {
	store *Store
}

func (h *routeHandler) listRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.store.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("listing repos: %v", err)})
		return
	}
	if repos == nil {
		repos = []Repository{}
	}
	writeJSON(w, http.StatusOK, repos)
}

func (h *routeHandler) getRepo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	repo, err := h.store.Get(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("getting repo: %v", err)})
		return
	}
	if repo == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("repository %q not found", name)})
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
