// Package api exposes the HTTP handlers of the meetup service.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"example.com/meetup/internal/auth"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/projection"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires every endpoint onto r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	})

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/activities", h.createActivity).Methods(http.MethodPost)
	api.HandleFunc("/activities", h.withPage(h.listActivities)).Methods(http.MethodGet)
	api.HandleFunc("/activities/filter", h.withPage(h.filterActivities)).Methods(http.MethodPost)
	api.HandleFunc("/activities/{id:[0-9]+}", h.withID(h.getActivity)).Methods(http.MethodGet)
	api.HandleFunc("/activities/{id:[0-9]+}", h.withID(h.updateActivity)).Methods(http.MethodPut)
	api.HandleFunc("/activities/{id:[0-9]+}", h.withID(h.patchActivity)).Methods(http.MethodPatch)
	api.HandleFunc("/activities/{id:[0-9]+}", h.withID(h.deleteActivity)).Methods(http.MethodDelete)

	api.HandleFunc("/tags", h.createTag).Methods(http.MethodPost)
	api.HandleFunc("/tags", h.withPage(h.listTags)).Methods(http.MethodGet)
	api.HandleFunc("/tags/{id:[0-9]+}", h.withID(h.getTag)).Methods(http.MethodGet)
	api.HandleFunc("/tags/{id:[0-9]+}", h.withID(h.updateTag)).Methods(http.MethodPut)
	api.HandleFunc("/tags/{id:[0-9]+}", h.withID(h.patchTag)).Methods(http.MethodPatch)
	api.HandleFunc("/tags/{id:[0-9]+}", h.withID(h.deleteTag)).Methods(http.MethodDelete)

	api.HandleFunc("/activity-tags", h.createActivityTag).Methods(http.MethodPost)
	api.HandleFunc("/activity-tags", h.withPage(h.listActivityTags)).Methods(http.MethodGet)
	api.HandleFunc("/activity-tags/{id:[0-9]+}", h.withID(h.getActivityTag)).Methods(http.MethodGet)
	api.HandleFunc("/activity-tags/{id:[0-9]+}", h.withID(h.updateActivityTag)).Methods(http.MethodPut)
	api.HandleFunc("/activity-tags/{id:[0-9]+}", h.withID(h.patchActivityTag)).Methods(http.MethodPatch)
	api.HandleFunc("/activity-tags/{id:[0-9]+}", h.withID(h.deleteActivityTag)).Methods(http.MethodDelete)

	api.HandleFunc("/participants", h.joinActivity).Methods(http.MethodPost)
	api.HandleFunc("/participants", h.withPage(h.listParticipants)).Methods(http.MethodGet)
	api.HandleFunc("/participants/activity/{id:[0-9]+}", h.withID(h.participantsOfActivity)).Methods(http.MethodGet)
	api.HandleFunc("/participants/{id:[0-9]+}", h.withID(h.getParticipant)).Methods(http.MethodGet)
	api.HandleFunc("/participants/{id:[0-9]+}", h.withID(h.updateParticipant)).Methods(http.MethodPut)
	api.HandleFunc("/participants/{id:[0-9]+}", h.withID(h.patchParticipant)).Methods(http.MethodPatch)
	api.HandleFunc("/participants/{id:[0-9]+}", h.withID(h.deleteParticipant)).Methods(http.MethodDelete)

	api.HandleFunc("/meets", h.createMeet).Methods(http.MethodPost)
	api.HandleFunc("/meets", h.withPage(h.listMeets)).Methods(http.MethodGet)
	api.HandleFunc("/meets/exclude-user-meets", h.withPage(h.meetsExcludingCaller)).Methods(http.MethodGet)
	api.HandleFunc("/meets/{id:[0-9]+}", h.withID(h.getMeet)).Methods(http.MethodGet)
	api.HandleFunc("/meets/{id:[0-9]+}", h.withID(h.updateMeet)).Methods(http.MethodPut)
	api.HandleFunc("/meets/{id:[0-9]+}", h.withID(h.patchMeet)).Methods(http.MethodPatch)
	api.HandleFunc("/meets/{id:[0-9]+}", h.withID(h.deleteMeet)).Methods(http.MethodDelete)

	api.HandleFunc("/requests", h.createRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests", h.withPage(h.listRequests)).Methods(http.MethodGet)
	api.HandleFunc("/requests/received", h.withPage(h.receivedRequests)).Methods(http.MethodGet)
	api.HandleFunc("/requests/received/count", h.countReceivedRequests).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id:[0-9]+}", h.withID(h.getRequest)).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id:[0-9]+}", h.withID(h.updateRequest)).Methods(http.MethodPut)
	api.HandleFunc("/requests/{id:[0-9]+}", h.withID(h.patchRequest)).Methods(http.MethodPatch)
	api.HandleFunc("/requests/{id:[0-9]+}", h.withID(h.deleteRequest)).Methods(http.MethodDelete)

	api.HandleFunc("/conversations", h.openConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations", h.withPage(h.listConversations)).Methods(http.MethodGet)
	api.HandleFunc("/conversations/users", h.withPage(h.conversationsForCaller)).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id:[0-9]+}", h.withID(h.getConversation)).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id:[0-9]+}", h.withID(h.updateConversation)).Methods(http.MethodPut)
	api.HandleFunc("/conversations/{id:[0-9]+}", h.withID(h.patchConversation)).Methods(http.MethodPatch)
	api.HandleFunc("/conversations/{id:[0-9]+}", h.withID(h.deleteConversation)).Methods(http.MethodDelete)

	api.HandleFunc("/account", h.account).Methods(http.MethodGet)
	api.HandleFunc("/users", h.withPage(h.listUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/{login}", h.getUser).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireScope(auth.ScopeUsersAdmin))
	admin.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id:[0-9]+}", h.withID(h.updateUser)).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id:[0-9]+}", h.withID(h.patchUser)).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{id:[0-9]+}", h.withID(h.deleteUser)).Methods(http.MethodDelete)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) users(ctx context.Context, ids []int64) (projection.Users, error) {
	users, err := h.service.UsersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return projection.Users(users), nil
}

// render projects a single entity whose view joins the given users.
func render[V any](h *Handler, w http.ResponseWriter, r *http.Request, status int, ids []int64, fn func(projection.Users) (V, error)) {
	users, err := h.users(r.Context(), ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := fn(users)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, view)
}

// renderPage loads the users referenced by every item once, then projects the page.
func renderPage[T, V any](h *Handler, w http.ResponseWriter, r *http.Request, p domain.Page[T], refs func(T) []int64, fn func(T, projection.Users) (V, error)) {
	var ids []int64
	for _, item := range p.Items {
		ids = append(ids, refs(item)...)
	}
	users, err := h.users(r.Context(), ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(h, w, r, p, func(item T) (V, error) { return fn(item, users) })
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// idRef is the {"id": n} shape used to reference another entity in a body.
type idRef struct {
	ID int64 `json:"id"`
}

func refIDs(refs []idRef) []int64 {
	out := make([]int64, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.ID)
	}
	return out
}
