package moderation

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ember-dating/engine/internal/app"
	"github.com/ember-dating/engine/internal/server"
)

// Registrar ties the moderation service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the moderation service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Service exposes the underlying service for wiring into other components.
func (r *Registrar) Service() *Service { return r.svc }

// Register attaches the moderation routes to the router. The lift route is
// part of the privileged admin surface.
func (r *Registrar) Register(router *mux.Router) {
	router.HandleFunc("/reports", r.handleSubmitReport).Methods(http.MethodPost)
	router.HandleFunc("/admin/users/{id}/suspension/lift", r.handleLift).Methods(http.MethodPost)
}

type reportRequest struct {
	ReporterID  uint64   `json:"reporter_id"`
	ReportedID  uint64   `json:"reported_id"`
	Reason      string   `json:"reason"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence,omitempty"`
}

func (r *Registrar) handleSubmitReport(w http.ResponseWriter, req *http.Request) {
	var body reportRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	report, err := r.svc.SubmitReport(req.Context(),
		body.ReporterID, body.ReportedID, body.Reason, body.Description, body.Evidence)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"report_id": report.ID})
}

type liftRequest struct {
	AdminID uint64 `json:"admin_id"`
}

func (r *Registrar) handleLift(w http.ResponseWriter, req *http.Request) {
	targetID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	var body liftRequest
	if err := server.DecodeJSON(req, &body); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.LiftSuspension(req.Context(), targetID, body.AdminID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "lifted"})
}
