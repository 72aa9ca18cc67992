package liveness

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ember-dating/engine/internal/app"
	svcErr "github.com/ember-dating/engine/internal/errors"
	"github.com/ember-dating/engine/internal/repository"
	"github.com/ember-dating/engine/internal/server"
)

// uploads are selfies, a few MB at most
const maxUploadBytes = 10 << 20

// Registrar ties the liveness gate into the HTTP server.
type Registrar struct {
	client   *Client
	profiles *repository.ProfileRepository
}

// NewRegistrar creates a Registrar around the face service client.
func NewRegistrar(appCtx *app.AppContext, client *Client) *Registrar {
	return &Registrar{
		client:   client,
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// Register attaches the liveness routes to the router.
func (r *Registrar) Register(router *mux.Router) {
	router.HandleFunc("/profiles/{id}/liveness", r.handleVerify).Methods(http.MethodPost)
}

func (r *Registrar) handleVerify(w http.ResponseWriter, req *http.Request) {
	userID, err := server.PathUserID(mux.Vars(req), "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	file, header, err := req.FormFile("image")
	if err != nil {
		server.WriteError(w, svcErr.Validation("image upload is required"))
		return
	}
	defer file.Close()

	result, err := r.client.DetectFace(req.Context(), header.Filename, file)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	if err := r.profiles.SetLivenessPassed(req.Context(), userID, result.Accepted()); err != nil {
		server.WriteError(w, svcErr.Map(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"passed":      result.Accepted(),
		"decision":    result.Decision,
		"faces_count": result.FacesCount,
		"message":     result.Message,
	})
}
