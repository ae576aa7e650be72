package api

import (
	"net/http"
	"time"

	"example.com/meetup/internal/auth"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/projection"
)

// ActivityRequest is the body of POST and PUT /api/activities.
type ActivityRequest struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Address     string    `json:"address"`
	Maximum     int       `json:"maximum"`
	Tags        []idRef   `json:"tags"`
}

func activityOwner(a domain.Activity) []int64 { return []int64{a.OwnerID} }

func activityView(a domain.Activity, users projection.Users) (projection.ActivityView, error) {
	return projection.Activity(a, users)
}

func (h *Handler) renderActivity(w http.ResponseWriter, r *http.Request, status int, a *domain.Activity) {
	render(h, w, r, status, activityOwner(*a), func(users projection.Users) (projection.ActivityView, error) {
		return projection.Activity(*a, users)
	})
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ID != 0 {
		h.fail(w, r, errNewID("activity"))
		return
	}
	activity, err := h.service.CreateActivity(r.Context(), auth.Login(r.Context()), domain.CreateActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Address:     req.Address,
		Maximum:     req.Maximum,
		TagIDs:      refIDs(req.Tags),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderActivity(w, r, http.StatusCreated, activity)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListActivities(r.Context(), auth.Login(r.Context()), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, activityOwner, activityView)
}

// filterActivities takes the list of tags to match as its body.
func (h *Handler) filterActivities(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	var tags []idRef
	if err := decode(r, &tags); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.service.FilterActivities(r.Context(), auth.Login(r.Context()), refIDs(tags), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, activityOwner, activityView)
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id int64) {
	details, err := h.service.ActivityDetails(r.Context(), auth.Login(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := projection.ActivityDetails(*details)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id int64) {
	var req ActivityRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	activity, err := h.service.UpdateActivity(r.Context(), id, domain.Activity{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Address:     req.Address,
		Maximum:     req.Maximum,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderActivity(w, r, http.StatusOK, activity)
}

func (h *Handler) patchActivity(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.ActivityPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	activity, err := h.service.PatchActivity(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderActivity(w, r, http.StatusOK, activity)
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteActivity(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}
