package discussions

import (
	"net/http"
	"time"

	discussiondomain "booknook-go/internal/domain/discussion"
	"booknook-go/internal/domain/media"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type createDiscussionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateDiscussionRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type createCommentRequest struct {
	Content string `json:"content"`
}

type authorResponse struct {
	UserID   string  `json:"user_id"`
	Username *string `json:"username"`
	PhotoURL *string `json:"photo_url"`
}

type discussionResponse struct {
	ID           string         `json:"id"`
	ClubID       string         `json:"club_id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	ImageURL     *string        `json:"image_url"`
	Author       authorResponse `json:"author"`
	CommentCount int64          `json:"comment_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type commentResponse struct {
	ID           string         `json:"id"`
	DiscussionID string         `json:"discussion_id"`
	Content      string         `json:"content"`
	Author       authorResponse `json:"author"`
	CreatedAt    time.Time      `json:"created_at"`
}

type discussionDetailResponse struct {
	discussionResponse
	Comments []commentResponse `json:"comments"`
}

var discussionRules = commonhandler.Rules(commonhandler.ClubPolicy, commonhandler.MediaRules, []commonhandler.Rule{
	{Match: commonhandler.Is(discussiondomain.ErrDiscussionNotFound), Status: http.StatusNotFound, Code: "discussion_not_found"},
	{Match: commonhandler.Is(discussiondomain.ErrCommentNotFound), Status: http.StatusNotFound, Code: "comment_not_found"},
	{Match: commonhandler.Is(discussiondomain.ErrNotAuthor), Status: http.StatusForbidden, Code: "not_author"},
	{Match: commonhandler.As[discussiondomain.ValidationError](), Status: http.StatusBadRequest, Code: "invalid_request"},
})

func toAuthor(author discussiondomain.Author) authorResponse {
	return authorResponse{UserID: author.UserID, Username: author.Username, PhotoURL: author.PhotoURL}
}

func toDiscussionResponse(view discussiondomain.DiscussionView) discussionResponse {
	item := view.Discussion
	return discussionResponse{
		ID:           item.ID,
		ClubID:       item.ClubID,
		Title:        item.Title,
		Content:      item.Content,
		ImageURL:     item.ImageURL,
		Author:       toAuthor(view.Author),
		CommentCount: view.CommentCount,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func toCommentResponse(view discussiondomain.CommentView) commentResponse {
	return commentResponse{
		ID:           view.Comment.ID,
		DiscussionID: view.Comment.DiscussionID,
		Content:      view.Comment.Content,
		Author:       toAuthor(view.Author),
		CreatedAt:    view.Comment.CreatedAt,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	commonhandler.Fail(w, h.log, op, err, discussionRules, args...)
}

func (h *Handlers) ListDiscussions(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	views, err := h.Discussions.ListDiscussions(r.Context(), user.ID, clubID)
	if err != nil {
		h.fail(w, "discussions.list: list discussions failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}

	response := make([]discussionResponse, 0, len(views))
	for _, view := range views {
		response = append(response, toDiscussionResponse(view))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetDiscussion(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	discussionID := chi.URLParam(r, "discussion_id")

	detail, err := h.Discussions.GetDiscussion(r.Context(), user.ID, clubID, discussionID)
	if err != nil {
		h.fail(w, "discussions.get: get discussion failed", err, "user_id", user.ID, "club_id", clubID, "discussion_id", discussionID)
		return
	}

	comments := make([]commentResponse, 0, len(detail.Comments))
	for _, comment := range detail.Comments {
		comments = append(comments, toCommentResponse(comment))
	}
	writeJSON(w, http.StatusOK, discussionDetailResponse{
		discussionResponse: toDiscussionResponse(detail.DiscussionView),
		Comments:           comments,
	})
}

// CreateDiscussion accepts JSON, or multipart with title, content and an
// optional "image" file.
func (h *Handlers) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	input := discussiondomain.CreateDiscussionInput{UserID: user.ID, ClubID: clubID}
	if commonhandler.IsMultipart(r) {
		var image *media.Upload
		image, ok = commonhandler.ReadUpload(w, r, "image", false, h.maxUploadBytes)
		if !ok {
			return
		}
		input.Title = r.FormValue("title")
		input.Content = r.FormValue("content")
		input.Image = image
	} else {
		var req createDiscussionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
			return
		}
		input.Title = req.Title
		input.Content = req.Content
	}

	discussion, err := h.Discussions.CreateDiscussion(r.Context(), input)
	if err != nil {
		h.fail(w, "discussions.create: create discussion failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}
	writeJSON(w, http.StatusCreated, toDiscussionResponse(discussiondomain.DiscussionView{
		Discussion: *discussion,
		Author:     discussiondomain.Author{UserID: user.ID},
	}))
}

func (h *Handlers) UpdateDiscussion(w http.ResponseWriter, r *http.Request) {
	var req updateDiscussionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	discussionID := chi.URLParam(r, "discussion_id")

	discussion, err := h.Discussions.UpdateDiscussion(r.Context(), user.ID, clubID, discussionID, discussiondomain.UpdateDiscussionInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.fail(w, "discussions.update: update discussion failed", err, "user_id", user.ID, "club_id", clubID, "discussion_id", discussionID)
		return
	}
	writeJSON(w, http.StatusOK, toDiscussionResponse(discussiondomain.DiscussionView{
		Discussion: *discussion,
		Author:     discussiondomain.Author{UserID: discussion.UserID},
	}))
}

func (h *Handlers) DeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	discussionID := chi.URLParam(r, "discussion_id")

	if err := h.Discussions.DeleteDiscussion(r.Context(), user.ID, clubID, discussionID); err != nil {
		h.fail(w, "discussions.delete: delete discussion failed", err, "user_id", user.ID, "club_id", clubID, "discussion_id", discussionID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	discussionID := chi.URLParam(r, "discussion_id")

	comment, err := h.Discussions.AddComment(r.Context(), user.ID, clubID, discussionID, req.Content)
	if err != nil {
		h.fail(w, "discussions.comment: add comment failed", err, "user_id", user.ID, "club_id", clubID, "discussion_id", discussionID)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(discussiondomain.CommentView{
		Comment: *comment,
		Author:  discussiondomain.Author{UserID: user.ID},
	}))
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	commentID := chi.URLParam(r, "comment_id")

	if err := h.Discussions.DeleteComment(r.Context(), user.ID, clubID, commentID); err != nil {
		h.fail(w, "discussions.delete_comment: delete comment failed", err, "user_id", user.ID, "club_id", clubID, "comment_id", commentID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
