package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/projection"
)

// TotalCountHeader carries the row count of a paged listing.
const TotalCountHeader = "X-Total-Count"

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// fail maps domain sentinels onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	default:
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func decode(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing body", domain.ErrValidation)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: unable to parse body: %v", domain.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, raw)
	}
	return id, nil
}

// pageRequest reads page, size and repeated sort parameters.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	var page domain.PageRequest
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, fmt.Errorf("%w: invalid page %q", domain.ErrValidation, raw)
		}
		page.Page = n
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return page, fmt.Errorf("%w: invalid size %q", domain.ErrValidation, raw)
		}
		page.Size = n
	}
	sort, err := domain.ParseSort(q["sort"])
	if err != nil {
		return page, err
	}
	page.Sort = sort
	return page.Normalize(), nil
}

// writePage renders the items of p as a JSON array and sets the total count.
func writePage[T, V any](h *Handler, w http.ResponseWriter, r *http.Request, p domain.Page[T], fn func(T) (V, error)) {
	items, err := projection.List(p.Items, fn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set(TotalCountHeader, strconv.FormatInt(p.Total, 10))
	writeJSON(w, http.StatusOK, items)
}

// withPage parses paging parameters and hands them to fn.
func (h *Handler) withPage(fn func(w http.ResponseWriter, r *http.Request, page domain.PageRequest)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageRequest(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		fn(w, r, page)
	}
}

// withID parses the {id} path variable and hands it to fn.
func (h *Handler) withID(fn func(w http.ResponseWriter, r *http.Request, id int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		fn(w, r, id)
	}
}
