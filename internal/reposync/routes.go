package reposync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes wires up the sync endpoints.
func RegisterRoutes(r chi.Router, svc *Service) {
	h := &routeHandler{svc: svc}
	r.Route("/api/sync", func(r chi.Router) {
		r.Post("/", h.startSync)
		r.Get("/status", h.status)
		r.Get("/history", h.history)
		r.Post("/{name}", h.syncOne)
	})
}

type routeHandler struct {
	svc *Service
}

func (h *routeHandler) startSync(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request.
	err := h.svc.Start(context.WithoutCancel(r.Context()), nil)
	if errors.Is(err, ErrSyncInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "sync started"})
}

func (h *routeHandler) status(w http.ResponseWriter, r *http.Request) {
	last, err := h.svc.LastSync()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   h.svc.state().Status(),
		"lastSync": last,
	})
}

func (h *routeHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.svc.Store == nil {
		writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	runs, err := h.svc.Store.ListSyncRuns(r.Context(), 20)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *routeHandler) syncOne(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.SyncOne(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case rec == nil && err != nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error(), "repository": rec})
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
