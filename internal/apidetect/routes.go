package apidetect

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/axiomloom/loom/internal/workspace"
)

// RegisterRoutes wires up the API detection endpoints.
func RegisterRoutes(r chi.Router, ws *workspace.Workspace, d *Detector) {
	h := &routeHandler{ws: ws, detector: d}
	r.Get("/api/detect-apis", h.detectAll)
	r.Get("/api/detect-apis/{repo}", h.detect)
	r.Get("/api/api-buttons/{repo}", h.buttons)
}

type routeHandler struct {
	ws       *workspace.Workspace
	detector *Detector
}

func (h *routeHandler) detect(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *routeHandler) buttons(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Buttons(res))
}

func (h *routeHandler) detectAll(w http.ResponseWriter, r *http.Request) {
	repos, err := h.ws.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	results := h.detector.DetectAll(r.Context(), repos)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"repositories": results,
		"total":        len(results),
	})
}

func (h *routeHandler) run(w http.ResponseWriter, r *http.Request) (*Result, bool) {
	name := chi.URLParam(r, "repo")
	repo, err := h.ws.Get(name)
	if err == nil {
		var res *Result
		res, err = h.detector.Detect(r.Context(), repo)
		if err == nil {
			return res, true
		}
	}
	if errors.Is(err, workspace.ErrRepositoryNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "repository not found: " + name})
		return nil, false
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to detect APIs: " + err.Error()})
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
