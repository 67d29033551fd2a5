package review

import (
	"context"

	"booknook-go/internal/domain/book"
	"booknook-go/internal/domain/club"
)

type Repository interface {
	GetReview(ctx context.Context, clubID, reviewID string) (*Review, error)
	HasReviewed(ctx context.Context, clubID, bookID, userID string) (bool, error)
	// CreateReview returns ErrAlreadyReviewed when the user already reviewed the book in the club.
	CreateReview(ctx context.Context, review *Review) error
	UpdateReview(ctx context.Context, review *Review) error
	DeleteReview(ctx context.Context, reviewID string) error
	ListReviews(ctx context.Context, clubID string) ([]ReviewView, error)
	ListComments(ctx context.Context, reviewIDs []string) ([]CommentView, error)
	GetComment(ctx context.Context, clubID, commentID string) (*Comment, error)
	CreateComment(ctx context.Context, comment *Comment) error
	DeleteComment(ctx context.Context, commentID string) error
}

// Shelf is the club book list reviews hang off.
type Shelf interface {
	ListClubBooks(ctx context.Context, clubID string) ([]book.ClubBookView, error)
	IsBookInClub(ctx context.Context, clubID, bookID string) (bool, error)
}

type Membership interface {
	RequireMember(ctx context.Context, clubID, userID string) (club.Role, error)
}
