package server

import (
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/ember-dating/engine/internal/errors"
)

// Registrar is a common interface for all HTTP service registrars
type Registrar interface {
	Register(r *mux.Router)
}

// PathUserID parses a user id path variable.
func PathUserID(vars map[string]string, key string) (uint64, error) {
	id, err := strconv.ParseUint(vars[key], 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.Validation("%s must be a valid user id", key)
	}
	return id, nil
}
