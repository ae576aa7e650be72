package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"example.com/meetup/internal/auth"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/projection"
)

type UserRequest struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

func (u UserRequest) user() domain.User {
	return domain.User{
		ID:        u.ID,
		Login:     u.Login,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
	}
}

func errNewID(kind string) error {
	return fmt.Errorf("%w: a new %s cannot already have an id", domain.ErrValidation, kind)
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), auth.Login(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := projection.Profile(*profile)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListUsers(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(h, w, r, p, projection.Infallible(projection.User))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUserByLogin(r.Context(), mux.Vars(r)["login"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.User(*u))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.service.CreateUser(r.Context(), req.user())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projection.User(*u))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, id int64) {
	var req UserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.service.UpdateUser(r.Context(), id, req.user())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.User(*u))
}

func (h *Handler) patchUser(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.UserPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.service.PatchUser(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.User(*u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}
