package notifications

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	notificationdomain "booknook-go/internal/domain/notification"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	"booknook-go/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type notificationResponse struct {
	ID          string    `json:"id"`
	ClubID      *string   `json:"club_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type pageResponse struct {
	Items  []notificationResponse `json:"items"`
	Total  int64                  `json:"total"`
	Unread int64                  `json:"unread"`
}

var notificationRules = []commonhandler.Rule{
	{Match: commonhandler.Is(notificationdomain.ErrNotificationNotFound), Status: http.StatusNotFound, Code: "notification_not_found"},
	{Match: commonhandler.Is(notificationdomain.ErrRealtimeUnavailable), Status: http.StatusServiceUnavailable, Code: "realtime_unavailable"},
}

func toNotificationResponse(item notificationdomain.Notification) notificationResponse {
	return notificationResponse{
		ID:          item.ID,
		ClubID:      item.ClubID,
		Title:       item.Title,
		Description: item.Description,
		Type:        item.Type,
		IsRead:      item.IsRead,
		CreatedAt:   item.CreatedAt,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	commonhandler.Fail(w, h.log, op, err, notificationRules, args...)
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	limit, err := commonhandler.ParseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", "invalid limit")
		return
	}
	offset, err := commonhandler.ParseIntParam(r.URL.Query().Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_offset", "invalid offset")
		return
	}

	page, err := h.Notifications.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.fail(w, "notifications.list: list notifications failed", err, "user_id", user.ID)
		return
	}

	items := make([]notificationResponse, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, toNotificationResponse(item))
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Items:  items,
		Total:  page.Total,
		Unread: page.Unread,
	})
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	notificationID := chi.URLParam(r, "notification_id")

	if err := h.Notifications.MarkRead(r.Context(), user.ID, notificationID); err != nil {
		h.fail(w, "notifications.read: mark read failed", err, "user_id", user.ID, "notification_id", notificationID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	updated, err := h.Notifications.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "notifications.read_all: mark all read failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Stream pushes new notifications to the caller as server-sent events until
// the client disconnects.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	ctx := r.Context()
	updates, err := h.Notifications.Subscribe(ctx, user.ID)
	if err != nil {
		h.fail(w, "notifications.stream: subscribe failed", err, "user_id", user.ID)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case item, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(toNotificationResponse(item))
			if err != nil {
				logger.FromContext(ctx, h.log).InternalError("notifications.stream: encode failed", err, "notification_id", item.ID)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", item.ID, payload)
			flusher.Flush()
		}
	}
}
