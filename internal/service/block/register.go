package block

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/server"
)

// Registrar ties the block service into the HTTP server. Block/unblock are
// part of the privileged admin surface as well as the end-user one; callers
// are authenticated upstream.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the block service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Service exposes the underlying service for wiring into other components.
func (r *Registrar) Service() *Service { return r.svc }

// Register attaches the block routes to the router.
func (r *Registrar) Register(router *mux.Router) {
	router.HandleFunc("/blocks", r.handleBlock).Methods(http.MethodPost)
	router.HandleFunc("/blocks", r.handleUnblock).Methods(http.MethodDelete)
	router.HandleFunc("/users/{id}/blocked", r.handleBlockedSet).Methods(http.MethodGet)
}

type blockRequest struct {
	BlockerID uint64  `json:"blocker_id"`
	BlockedID uint64  `json:"blocked_id"`
	Reason    *string `json:"reason,omitempty"`
}

func (r *Registrar) handleBlock(w http.ResponseWriter, req *http.Request) {
	var body blockRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.Block(req.Context(), body.BlockerID, body.BlockedID, body.Reason); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

func (r *Registrar) handleUnblock(w http.ResponseWriter, req *http.Request) {
	var body blockRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.Unblock(req.Context(), body.BlockerID, body.BlockedID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

func (r *Registrar) handleBlockedSet(w http.ResponseWriter, req *http.Request) {
	userID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	set, err := r.svc.BlockedSet(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"blocked_user_ids": ids})
}
