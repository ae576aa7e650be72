package api

import (
	"net/http"

	"example.com/meetup/internal/auth"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/projection"
)

// ParticipantRequest is the body of participant writes. On POST only
// activity_id is read; the caller joins.
type ParticipantRequest struct {
	ID         int64 `json:"id"`
	ActivityID int64 `json:"activity_id"`
	UserID     int64 `json:"user_id"`
}

type MeetRequest struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Enabled     *bool  `json:"is_enabled"`
}

// RequestRequest is the body of request writes. On POST only meet_id is read.
type RequestRequest struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	MeetID int64 `json:"meet_id"`
}

// OpenConversationRequest names the user to talk to.
type OpenConversationRequest struct {
	Login string `json:"login"`
}

type ConversationRequest struct {
	ID      int64   `json:"id"`
	UserIDs []int64 `json:"user_ids"`
}

func participantUser(p domain.Participant) []int64 { return []int64{p.UserID} }
func meetOwner(m domain.Meet) []int64              { return []int64{m.OwnerID} }
func requestUser(rq domain.Request) []int64        { return []int64{rq.UserID} }
func conversationUsers(c domain.Conversation) []int64 {
	return c.UserIDs
}

func (h *Handler) renderParticipant(w http.ResponseWriter, r *http.Request, status int, p *domain.Participant) {
	render(h, w, r, status, participantUser(*p), func(users projection.Users) (projection.ParticipantView, error) {
		return projection.Participant(*p, users)
	})
}

func (h *Handler) joinActivity(w http.ResponseWriter, r *http.Request) {
	var req ParticipantRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ID != 0 {
		h.fail(w, r, errNewID("participant"))
		return
	}
	p, err := h.service.JoinActivity(r.Context(), auth.Login(r.Context()), req.ActivityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParticipant(w, r, http.StatusCreated, p)
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListParticipants(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, participantUser, projection.Participant)
}

func (h *Handler) participantsOfActivity(w http.ResponseWriter, r *http.Request, id int64) {
	page, err := pageRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.service.ParticipantsOfActivity(r.Context(), id, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, participantUser, projection.Participant)
}

func (h *Handler) getParticipant(w http.ResponseWriter, r *http.Request, id int64) {
	p, err := h.service.GetParticipant(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParticipant(w, r, http.StatusOK, p)
}

func (h *Handler) updateParticipant(w http.ResponseWriter, r *http.Request, id int64) {
	var req ParticipantRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.service.UpdateParticipant(r.Context(), id, domain.Participant{
		ID:         req.ID,
		ActivityID: req.ActivityID,
		UserID:     req.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParticipant(w, r, http.StatusOK, p)
}

func (h *Handler) patchParticipant(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.ParticipantPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.service.PatchParticipant(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParticipant(w, r, http.StatusOK, p)
}

func (h *Handler) deleteParticipant(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteParticipant(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) renderMeet(w http.ResponseWriter, r *http.Request, status int, m *domain.Meet) {
	render(h, w, r, status, meetOwner(*m), func(users projection.Users) (projection.MeetView, error) {
		return projection.Meet(*m, users)
	})
}

func (h *Handler) createMeet(w http.ResponseWriter, r *http.Request) {
	var req MeetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ID != 0 {
		h.fail(w, r, errNewID("meet"))
		return
	}
	m, err := h.service.CreateMeet(r.Context(), auth.Login(r.Context()), domain.CreateMeetInput{
		Description: req.Description,
		Enabled:     req.Enabled,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderMeet(w, r, http.StatusCreated, m)
}

func (h *Handler) listMeets(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListMeets(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, meetOwner, projection.Meet)
}

func (h *Handler) meetsExcludingCaller(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.MeetsExcludingCaller(r.Context(), auth.Login(r.Context()), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, meetOwner, projection.Meet)
}

func (h *Handler) getMeet(w http.ResponseWriter, r *http.Request, id int64) {
	m, err := h.service.GetMeet(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderMeet(w, r, http.StatusOK, m)
}

// updateMeet replaces the description and flag. An omitted flag disables the meet.
func (h *Handler) updateMeet(w http.ResponseWriter, r *http.Request, id int64) {
	var req MeetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.service.UpdateMeet(r.Context(), id, domain.Meet{
		ID:          req.ID,
		Description: req.Description,
		Enabled:     req.Enabled != nil && *req.Enabled,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderMeet(w, r, http.StatusOK, m)
}

func (h *Handler) patchMeet(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.MeetPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.service.PatchMeet(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderMeet(w, r, http.StatusOK, m)
}

func (h *Handler) deleteMeet(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteMeet(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) renderRequest(w http.ResponseWriter, r *http.Request, status int, rq *domain.Request) {
	render(h, w, r, status, requestUser(*rq), func(users projection.Users) (projection.RequestView, error) {
		return projection.Request(*rq, users)
	})
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var req RequestRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ID != 0 {
		h.fail(w, r, errNewID("request"))
		return
	}
	rq, err := h.service.CreateRequest(r.Context(), auth.Login(r.Context()), req.MeetID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderRequest(w, r, http.StatusCreated, rq)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListRequests(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, requestUser, projection.Request)
}

func (h *Handler) receivedRequests(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ReceivedRequests(r.Context(), auth.Login(r.Context()), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, requestUser, projection.Request)
}

func (h *Handler) countReceivedRequests(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountReceivedRequests(r.Context(), auth.Login(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request, id int64) {
	rq, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderRequest(w, r, http.StatusOK, rq)
}

func (h *Handler) updateRequest(w http.ResponseWriter, r *http.Request, id int64) {
	var req RequestRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rq, err := h.service.UpdateRequest(r.Context(), id, domain.Request{ID: req.ID, UserID: req.UserID, MeetID: req.MeetID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderRequest(w, r, http.StatusOK, rq)
}

func (h *Handler) patchRequest(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.RequestPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	rq, err := h.service.PatchRequest(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderRequest(w, r, http.StatusOK, rq)
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteRequest(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) renderConversation(w http.ResponseWriter, r *http.Request, status int, c *domain.Conversation) {
	render(h, w, r, status, conversationUsers(*c), func(users projection.Users) (projection.ConversationView, error) {
		return projection.Conversation(*c, users)
	})
}

// openConversation answers 201 when the pair is new and 200 when it already existed.
func (h *Handler) openConversation(w http.ResponseWriter, r *http.Request) {
	var req OpenConversationRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, created, err := h.service.OpenConversation(r.Context(), auth.Login(r.Context()), req.Login)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.renderConversation(w, r, status, c)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ListConversations(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderPage(h, w, r, p, conversationUsers, projection.Conversation)
}

func (h *Handler) conversationsForCaller(w http.ResponseWriter, r *http.Request, page domain.PageRequest) {
	p, err := h.service.ConversationsForCaller(r.Context(), auth.Login(r.Context()), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(h, w, r, p, projection.Infallible(projection.ConversationPartner))
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request, id int64) {
	c, err := h.service.GetConversation(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderConversation(w, r, http.StatusOK, c)
}

func (h *Handler) updateConversation(w http.ResponseWriter, r *http.Request, id int64) {
	var req ConversationRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.service.UpdateConversation(r.Context(), id, domain.Conversation{ID: req.ID, UserIDs: req.UserIDs})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderConversation(w, r, http.StatusOK, c)
}

func (h *Handler) patchConversation(w http.ResponseWriter, r *http.Request, id int64) {
	var patch domain.ConversationPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.service.PatchConversation(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderConversation(w, r, http.StatusOK, c)
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.DeleteConversation(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}
