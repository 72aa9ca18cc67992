package queue

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ember-dating/engine/internal/server"
)

// Registrar ties the discovery queue into the HTTP server.
type Registrar struct {
	manager *Manager
}

// NewRegistrar creates a new Registrar around the queue manager.
func NewRegistrar(manager *Manager) *Registrar {
	return &Registrar{manager: manager}
}

// Register attaches the queue routes to the router.
func (r *Registrar) Register(router *mux.Router) {
	router.HandleFunc("/users/{id}/queue", r.handleEntries).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/queue/focus", r.handleFocus).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/queue/resolve", r.handleResolve).Methods(http.MethodPost)
}

func (r *Registrar) handleEntries(w http.ResponseWriter, req *http.Request) {
	viewerID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	entries, err := r.manager.ForViewer(viewerID).Entries(req.Context())
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type focusRequest struct {
	CandidateID uint64 `json:"candidate_id"`
}

func (r *Registrar) handleFocus(w http.ResponseWriter, req *http.Request) {
	viewerID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	var body focusRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	r.manager.ForViewer(viewerID).SetFocus(body.CandidateID)
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "focused"})
}

type resolveRequest struct {
	CandidateID uint64 `json:"candidate_id"`
	Confirmed   bool   `json:"confirmed"`
}

func (r *Registrar) handleResolve(w http.ResponseWriter, req *http.Request) {
	viewerID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	var body resolveRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	r.manager.ForViewer(viewerID).Resolve(body.CandidateID, body.Confirmed)
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
