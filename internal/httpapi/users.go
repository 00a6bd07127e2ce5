package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goliatone/go-user-cache/users"
)

const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid user id")

func (r *Router) handleCreateUser(w http.ResponseWriter, req *http.Request) {
	payload, ok := r.decodeRequest(w, req)
	if !ok {
		return
	}

	resp, err := r.users.CreateUser(req.Context(), payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}

	w.Header().Set("Location", "/users/"+strconv.FormatInt(resp.ID, 10))
	r.writeJSON(w, http.StatusCreated, resp)
}

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	all, err := r.users.GetAllUsers(req.Context())
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if all == nil {
		all = []users.Response{}
	}
	r.writeJSON(w, http.StatusOK, all)
}

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := r.users.GetUserByID(req.Context(), id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	r.writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, ok := r.decodeRequest(w, req)
	if !ok {
		return
	}

	resp, err := r.users.UpdateUser(req.Context(), id, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	r.writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.users.DeleteUser(req.Context(), id); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRequest reads and validates a users.Request. It writes the 400
// response itself and reports false when the body is unusable.
func (r *Router) decodeRequest(w http.ResponseWriter, req *http.Request) (users.Request, bool) {
	var payload users.Request
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return users.Request{}, false
	}
	if err := validateRequest(payload); err != nil {
		r.writeValidationError(w, err)
		return users.Request{}, false
	}
	return payload, true
}

func parseID(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(req.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
