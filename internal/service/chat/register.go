package chat

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ember-dating/engine/internal/app"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/server"
	"github.com/ember-dating/engine/internal/service/block"
)

var errValidationUserID = svcErr.Validation("user_id must be a valid user id")

// Registrar ties the chat service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the chat service.
func NewRegistrar(appCtx *app.AppContext, blocks *block.Service) *Registrar {
	return &Registrar{svc: NewService(appCtx, blocks)}
}

// Service exposes the underlying service for wiring into other components.
func (r *Registrar) Service() *Service { return r.svc }

// Register attaches the chat routes to the router.
func (r *Registrar) Register(router *mux.Router) {
	router.HandleFunc("/chats", r.handleStartRestricted).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/chats", r.handleListChats).Methods(http.MethodGet)
	router.HandleFunc("/chats/{id}/messages", r.handleSendMessage).Methods(http.MethodPost)
	router.HandleFunc("/chats/{id}/messages", r.handleListMessages).Methods(http.MethodGet)
	router.HandleFunc("/chats/{id}/read", r.handleMarkRead).Methods(http.MethodPost)
	router.HandleFunc("/messages/{id}/reactions", r.handleReact).Methods(http.MethodPost)
	router.HandleFunc("/messages/{id}/delete", r.handleDeleteForUser).Methods(http.MethodPost)
}

type startChatRequest struct {
	FromUserID uint64 `json:"from_user_id"`
	ToUserID   uint64 `json:"to_user_id"`
}

func (r *Registrar) handleStartRestricted(w http.ResponseWriter, req *http.Request) {
	var body startChatRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	c, err := r.svc.StartRestricted(req.Context(), body.FromUserID, body.ToUserID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, c)
}

func (r *Registrar) handleListChats(w http.ResponseWriter, req *http.Request) {
	userID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	chats, err := r.svc.ListChats(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

type sendMessageRequest struct {
	SenderID uint64 `json:"sender_id"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

func (r *Registrar) handleSendMessage(w http.ResponseWriter, req *http.Request) {
	chatID := mux.Vars(req)["id"]
	var body sendMessageRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	msg, err := r.svc.SendMessage(req.Context(), chatID, body.SenderID, body.Type, body.Content)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, msg)
}

func (r *Registrar) handleListMessages(w http.ResponseWriter, req *http.Request) {
	chatID := mux.Vars(req)["id"]
	viewerID, err := strconv.ParseUint(req.URL.Query().Get("user_id"), 10, 64)
	if err != nil || viewerID == 0 {
		server.WriteError(w, errValidationUserID)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	messages, err := r.svc.VisibleMessages(req.Context(), chatID, viewerID, limit)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type markReadRequest struct {
	UserID uint64 `json:"user_id"`
}

func (r *Registrar) handleMarkRead(w http.ResponseWriter, req *http.Request) {
	chatID := mux.Vars(req)["id"]
	var body markReadRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.MarkRead(req.Context(), chatID, body.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

type reactRequest struct {
	UserID uint64 `json:"user_id"`
	Emoji  string `json:"emoji"`
}

func (r *Registrar) handleReact(w http.ResponseWriter, req *http.Request) {
	messageID := mux.Vars(req)["id"]
	var body reactRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	msg, err := r.svc.React(req.Context(), messageID, body.UserID, body.Emoji)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, msg)
}

func (r *Registrar) handleDeleteForUser(w http.ResponseWriter, req *http.Request) {
	messageID := mux.Vars(req)["id"]
	var body markReadRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.DeleteForUser(req.Context(), messageID, body.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
