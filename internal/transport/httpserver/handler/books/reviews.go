package books

import (
	"net/http"
	"time"

	reviewdomain "booknook-go/internal/domain/review"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type createReviewRequest struct {
	ReviewText string `json:"review_text"`
	Rating     int    `json:"rating"`
}

type updateReviewRequest struct {
	ReviewText *string `json:"review_text"`
	Rating     *int    `json:"rating"`
}

type reviewCommentRequest struct {
	Content string `json:"content"`
}

type authorResponse struct {
	UserID   string  `json:"user_id"`
	Username *string `json:"username"`
	PhotoURL *string `json:"photo_url"`
}

type reviewCommentResponse struct {
	ID        string         `json:"id"`
	ReviewID  string         `json:"review_id"`
	Content   string         `json:"content"`
	Author    authorResponse `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
}

type reviewResponse struct {
	ID         string                  `json:"id"`
	BookID     string                  `json:"book_id"`
	ClubID     string                  `json:"club_id"`
	ReviewText string                  `json:"review_text"`
	Rating     int                     `json:"rating"`
	Author     authorResponse          `json:"author"`
	Comments   []reviewCommentResponse `json:"comments"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

type shelfEntryResponse struct {
	ClubBookID    string           `json:"club_book_id"`
	Book          bookResponse     `json:"book"`
	AddedAt       time.Time        `json:"added_at"`
	AverageRating float64          `json:"average_rating"`
	ReviewCount   int              `json:"review_count"`
	Reviews       []reviewResponse `json:"reviews"`
}

var reviewRules = commonhandler.Rules(commonhandler.ClubPolicy, []commonhandler.Rule{
	{Match: commonhandler.Is(reviewdomain.ErrReviewNotFound), Status: http.StatusNotFound, Code: "review_not_found"},
	{Match: commonhandler.Is(reviewdomain.ErrCommentNotFound), Status: http.StatusNotFound, Code: "comment_not_found"},
	{Match: commonhandler.Is(reviewdomain.ErrAlreadyReviewed), Status: http.StatusConflict, Code: "already_reviewed"},
	{Match: commonhandler.Is(reviewdomain.ErrBookNotOnShelf), Status: http.StatusNotFound, Code: "book_not_on_shelf"},
	{Match: commonhandler.Is(reviewdomain.ErrNotAuthor), Status: http.StatusForbidden, Code: "not_author"},
	{Match: commonhandler.As[reviewdomain.ValidationError](), Status: http.StatusBadRequest, Code: "invalid_request"},
})

func toReviewAuthor(author reviewdomain.Author) authorResponse {
	return authorResponse{UserID: author.UserID, Username: author.Username, PhotoURL: author.PhotoURL}
}

func toReviewResponse(review reviewdomain.Review, author reviewdomain.Author, comments []reviewdomain.CommentView) reviewResponse {
	response := reviewResponse{
		ID:         review.ID,
		BookID:     review.BookID,
		ClubID:     review.ClubID,
		ReviewText: review.ReviewText,
		Rating:     review.Rating,
		Author:     toReviewAuthor(author),
		Comments:   make([]reviewCommentResponse, 0, len(comments)),
		CreatedAt:  review.CreatedAt,
		UpdatedAt:  review.UpdatedAt,
	}
	for _, comment := range comments {
		response.Comments = append(response.Comments, toReviewCommentResponse(comment))
	}
	return response
}

func toReviewCommentResponse(view reviewdomain.CommentView) reviewCommentResponse {
	return reviewCommentResponse{
		ID:        view.Comment.ID,
		ReviewID:  view.Comment.ReviewID,
		Content:   view.Comment.Content,
		Author:    toReviewAuthor(view.Author),
		CreatedAt: view.Comment.CreatedAt,
	}
}

func (h *Handlers) failReview(w http.ResponseWriter, op string, err error, args ...any) {
	commonhandler.Fail(w, h.log, op, err, reviewRules, args...)
}

// ListShelf returns the club's books with their reviews and ratings.
func (h *Handlers) ListShelf(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	shelf, err := h.Reviews.ListShelf(r.Context(), user.ID, clubID)
	if err != nil {
		h.failReview(w, "reviews.shelf: list shelf failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}

	response := make([]shelfEntryResponse, 0, len(shelf))
	for _, entry := range shelf {
		reviews := make([]reviewResponse, 0, len(entry.Reviews))
		for _, view := range entry.Reviews {
			reviews = append(reviews, toReviewResponse(view.Review, view.Author, view.Comments))
		}
		response = append(response, shelfEntryResponse{
			ClubBookID:    entry.Shelf.ClubBookID,
			Book:          toBookResponse(entry.Shelf.Book),
			AddedAt:       entry.Shelf.AddedAt,
			AverageRating: entry.AverageRating,
			ReviewCount:   entry.ReviewCount,
			Reviews:       reviews,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	bookID := chi.URLParam(r, "book_id")

	review, err := h.Reviews.CreateReview(r.Context(), reviewdomain.CreateReviewInput{
		UserID: user.ID,
		ClubID: clubID,
		BookID: bookID,
		Text:   req.ReviewText,
		Rating: req.Rating,
	})
	if err != nil {
		h.failReview(w, "reviews.create: create review failed", err, "user_id", user.ID, "club_id", clubID, "book_id", bookID)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(*review, reviewdomain.Author{UserID: user.ID}, nil))
}

func (h *Handlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	reviewID := chi.URLParam(r, "review_id")

	review, err := h.Reviews.UpdateReview(r.Context(), user.ID, clubID, reviewID, reviewdomain.UpdateReviewInput{
		Text:   req.ReviewText,
		Rating: req.Rating,
	})
	if err != nil {
		h.failReview(w, "reviews.update: update review failed", err, "user_id", user.ID, "club_id", clubID, "review_id", reviewID)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(*review, reviewdomain.Author{UserID: user.ID}, nil))
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	reviewID := chi.URLParam(r, "review_id")

	if err := h.Reviews.DeleteReview(r.Context(), user.ID, clubID, reviewID); err != nil {
		h.failReview(w, "reviews.delete: delete review failed", err, "user_id", user.ID, "club_id", clubID, "review_id", reviewID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddReviewComment(w http.ResponseWriter, r *http.Request) {
	var req reviewCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	reviewID := chi.URLParam(r, "review_id")

	comment, err := h.Reviews.AddComment(r.Context(), user.ID, clubID, reviewID, req.Content)
	if err != nil {
		h.failReview(w, "reviews.comment: add comment failed", err, "user_id", user.ID, "club_id", clubID, "review_id", reviewID)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewCommentResponse(reviewdomain.CommentView{
		Comment: *comment,
		Author:  reviewdomain.Author{UserID: user.ID},
	}))
}

func (h *Handlers) DeleteReviewComment(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	commentID := chi.URLParam(r, "comment_id")

	if err := h.Reviews.DeleteComment(r.Context(), user.ID, clubID, commentID); err != nil {
		h.failReview(w, "reviews.delete_comment: delete comment failed", err, "user_id", user.ID, "club_id", clubID, "comment_id", commentID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
