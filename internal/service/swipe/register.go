package swipe

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/queue"
	"github.com/ember-dating/engine/internal/server"
)

// Registrar ties the swipe service into the HTTP server and keeps the actor's
// discovery queue in step with their swipes.
type Registrar struct {
	svc    *Service
	queues *queue.Manager
}

// NewRegistrar creates a new Registrar for the swipe service.
func NewRegistrar(appCtx *app.AppContext, queues *queue.Manager) *Registrar {
	return &Registrar{svc: NewService(appCtx), queues: queues}
}

// Service exposes the underlying service for wiring into other components.
func (r *Registrar) Service() *Service { return r.svc }

// Register attaches the swipe routes to the router.
func (r *Registrar) Register(router *mux.Router) {
	router.HandleFunc("/swipes", r.handleRecordSwipe).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/likes/count", r.handleCountLikes).Methods(http.MethodGet)
	router.HandleFunc("/matches/{id}/unmatch", r.handleUnmatch).Methods(http.MethodPost)
}

type swipeRequest struct {
	FromUserID uint64 `json:"from_user_id"`
	ToUserID   uint64 `json:"to_user_id"`
	Action     string `json:"action"`
}

func (r *Registrar) handleRecordSwipe(w http.ResponseWriter, req *http.Request) {
	var body swipeRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}

	// hide the candidate from the actor's queue while the write is in
	// flight; a failed write puts them back
	var q *queue.Queue
	if body.FromUserID != 0 && body.ToUserID != 0 {
		q = r.queues.ForViewer(body.FromUserID)
		q.MarkPending(body.ToUserID)
	}

	res, err := r.svc.RecordSwipe(req.Context(), body.FromUserID, body.ToUserID, body.Action)
	if q != nil {
		q.Resolve(body.ToUserID, err == nil)
	}
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"decision_id":   res.Decision.ID,
		"match":         res.Match,
		"chat":          res.Chat,
		"match_created": res.MatchCreated,
	})
}

func (r *Registrar) handleCountLikes(w http.ResponseWriter, req *http.Request) {
	userID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	count, err := r.svc.CountIncomingLikes(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

type unmatchRequest struct {
	UserID uint64 `json:"user_id"`
}

func (r *Registrar) handleUnmatch(w http.ResponseWriter, req *http.Request) {
	matchID := mux.Vars(req)["id"]
	var body unmatchRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.Unmatch(req.Context(), matchID, body.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "unmatched"})
}
