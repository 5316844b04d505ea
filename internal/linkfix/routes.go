package linkfix

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/axiomloom/loom/internal/workspace"
)

// RegisterRoutes wires up the link check and repair endpoints.
func RegisterRoutes(r chi.Router, ws *workspace.Workspace, fixer *Fixer) {
	h := &routeHandler{ws: ws, fixer: fixer}
	r.Route("/api/links", func(r chi.Router) {
		r.Get("/{repo}", h.check)
		r.Post("/{repo}/fix", h.fix)
	})
}

type routeHandler struct {
	ws    *workspace.Workspace
	fixer *Fixer
}

func (h *routeHandler) check(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	report, err := h.fixer.Check(r.Context(), repo)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *routeHandler) fix(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	fixer := h.fixer
	if r.URL.Query().Get("dryRun") == "true" {
		dry := *h.fixer
		dry.DryRun = true
		fixer = &dry
	}
	report, err := fixer.Fix(r.Context(), repo)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *routeHandler) lookup(w http.ResponseWriter, r *http.Request) (workspace.Repository, bool) {
	repo, err := h.ws.Get(chi.URLParam(r, "repo"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, workspace.ErrRepositoryNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return workspace.Repository{}, false
	}
	return repo, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
