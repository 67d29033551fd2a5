package events

import (
	"net/http"
	"time"

	eventdomain "booknook-go/internal/domain/event"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type createEventRequest struct {
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type eventResponse struct {
	ID        string    `json:"id"`
	ClubID    string    `json:"club_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

var eventRules = commonhandler.Rules(commonhandler.ClubPolicy, []commonhandler.Rule{
	{Match: commonhandler.Is(eventdomain.ErrEventNotFound), Status: http.StatusNotFound, Code: "event_not_found"},
	{Match: commonhandler.Is(eventdomain.ErrNotCreator), Status: http.StatusForbidden, Code: "not_creator"},
	{Match: commonhandler.As[eventdomain.ValidationError](), Status: http.StatusBadRequest, Code: "invalid_request"},
})

func toEventResponse(event eventdomain.Event) eventResponse {
	return eventResponse{
		ID:        event.ID,
		ClubID:    event.ClubID,
		UserID:    event.UserID,
		Title:     event.Title,
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		CreatedAt: event.CreatedAt,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	commonhandler.Fail(w, h.log, op, err, eventRules, args...)
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	from, err := commonhandler.ParseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_from", "invalid from")
		return
	}
	to, err := commonhandler.ParseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_to", "invalid to")
		return
	}

	events, err := h.Events.ListEvents(r.Context(), user.ID, clubID, eventdomain.Range{From: from, To: to})
	if err != nil {
		h.fail(w, "events.list: list events failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}

	response := make([]eventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, toEventResponse(event))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	event, err := h.Events.CreateEvent(r.Context(), eventdomain.CreateEventInput{
		UserID:    user.ID,
		ClubID:    clubID,
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.fail(w, "events.create: create event failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	eventID := chi.URLParam(r, "event_id")

	if err := h.Events.DeleteEvent(r.Context(), user.ID, clubID, eventID); err != nil {
		h.fail(w, "events.delete: delete event failed", err, "user_id", user.ID, "club_id", clubID, "event_id", eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
