package api

import (
	"net/http"

	"example.com/meetup/internal/auth"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/projection"
)

type TagRequest struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ActivityTagRequest attaches a tag to an activity. UserID is ignored on create;
// the caller becomes the creator.
type ActivityTagRequest struct {
	ID         int64 `json:"id"`
	ActivityID int64 `json:"activity_id"`
	TagID      int64 `json:"tag_id"`
	UserID     int64 `json:"user_id"`
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	tag, err := h.service.CreateTag(r.Context(), domain.Tag{ID: req.ID, Title: req.Title})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projection.Tag(*tag))
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListTags(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(h, w, r, p, projection.Infallible(projection.Tag))
}

func (h *Handler) getTag(w http.ResponseWriter, r *http.Request, id int64) {
	tag, err := h.service.GetTag(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.Tag(*tag))
}

func (h *Handler) updateTag(w http.ResponseWriter, r *http.Request, id int64) {
	var req TagRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	tag, err := h.service.UpdateTag(r.Context(), id, domain.Tag{ID: req.ID, Title: req.Title})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.Tag(*tag))
}

func (h *Handler) patchTag(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.TagPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	tag, err := h.service.PatchTag(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.Tag(*tag))
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteTag(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) createActivityTag(w http.ResponseWriter, r *http.Request) {
	var req ActivityTagRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	at, err := h.service.CreateActivityTag(r.Context(), auth.Login(r.Context()), domain.ActivityTag{
		ID:         req.ID,
		ActivityID: req.ActivityID,
		TagID:      req.TagID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projection.ActivityTag(*at))
}

func (h *Handler) listActivityTags(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListActivityTags(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(h, w, r, p, projection.Infallible(projection.ActivityTag))
}

func (h *Handler) getActivityTag(w http.ResponseWriter, r *http.Request, id int64) {
	at, err := h.service.GetActivityTag(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.ActivityTag(*at))
}

func (h *Handler) updateActivityTag(w http.ResponseWriter, r *http.Request, id int64) {
	var req ActivityTagRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	at, err := h.service.UpdateActivityTag(r.Context(), id, domain.ActivityTag{
		ID:         req.ID,
		ActivityID: req.ActivityID,
		TagID:      req.TagID,
		UserID:     req.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.ActivityTag(*at))
}

func (h *Handler) patchActivityTag(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.ActivityTagPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	at, err := h.service.PatchActivityTag(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.ActivityTag(*at))
}

func (h *Handler) deleteActivityTag(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteActivityTag(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}
