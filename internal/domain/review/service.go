package review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"booknook-go/internal/domain/club"
	"github.com/google/uuid"
)

const (
	minRating              = 1
	maxRating              = 5
	maxReviewLength        = 2000
	maxReviewCommentLength = 800
)

type Service struct {
	repo  Repository
	shelf Shelf
	clubs Membership
}

func NewService(repo Repository, shelf Shelf, clubs Membership) *Service {
	return &Service{repo: repo, shelf: shelf, clubs: clubs}
}

// ListShelf returns every book on the club shelf with its reviews (newest
// first), their comments and the average rating.
func (s *Service) ListShelf(ctx context.Context, userID, clubID string) ([]BookWithReviews, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	books, err := s.shelf.ListClubBooks(ctx, clubID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, clubID)
	if err != nil {
		return nil, err
	}

	reviewIDs := make([]string, 0, len(reviews))
	for _, item := range reviews {
		reviewIDs = append(reviewIDs, item.Review.ID)
	}
	comments, err := s.repo.ListComments(ctx, reviewIDs)
	if err != nil {
		return nil, err
	}

	commentsByReview := make(map[string][]CommentView, len(reviews))
	for _, comment := range comments {
		commentsByReview[comment.Comment.ReviewID] = append(commentsByReview[comment.Comment.ReviewID], comment)
	}
	reviewsByBook := make(map[string][]ReviewView, len(books))
	for _, item := range reviews {
		item.Comments = commentsByReview[item.Review.ID]
		if item.Comments == nil {
			item.Comments = []CommentView{}
		}
		reviewsByBook[item.Review.BookID] = append(reviewsByBook[item.Review.BookID], item)
	}

	result := make([]BookWithReviews, 0, len(books))
	for _, shelfBook := range books {
		bookReviews := reviewsByBook[shelfBook.Book.ID]
		if bookReviews == nil {
			bookReviews = []ReviewView{}
		}
		result = append(result, BookWithReviews{
			Shelf:         shelfBook,
			AverageRating: averageRating(bookReviews),
			ReviewCount:   len(bookReviews),
			Reviews:       bookReviews,
		})
	}
	return result, nil
}

func (s *Service) CreateReview(ctx context.Context, input CreateReviewInput) (*Review, error) {
	text := strings.TrimSpace(input.Text)
	if err := validateReview(text, input.Rating); err != nil {
		return nil, err
	}
	if _, err := s.clubs.RequireMember(ctx, input.ClubID, input.UserID); err != nil {
		return nil, err
	}

	onShelf, err := s.shelf.IsBookInClub(ctx, input.ClubID, input.BookID)
	if err != nil {
		return nil, err
	}
	if !onShelf {
		return nil, ErrBookNotOnShelf
	}

	reviewed, err := s.repo.HasReviewed(ctx, input.ClubID, input.BookID, input.UserID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	review := Review{
		ID:         uuid.NewString(),
		BookID:     input.BookID,
		ClubID:     input.ClubID,
		UserID:     input.UserID,
		ReviewText: text,
		Rating:     input.Rating,
	}
	if err := s.repo.CreateReview(ctx, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *Service) UpdateReview(ctx context.Context, userID, clubID, reviewID string, input UpdateReviewInput) (*Review, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	review, err := s.repo.GetReview(ctx, clubID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrNotAuthor
	}

	if input.Text != nil {
		review.ReviewText = strings.TrimSpace(*input.Text)
	}
	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if err := validateReview(review.ReviewText, review.Rating); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) DeleteReview(ctx context.Context, userID, clubID, reviewID string) error {
	role, err := s.clubs.RequireMember(ctx, clubID, userID)
	if err != nil {
		return err
	}

	review, err := s.repo.GetReview(ctx, clubID, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID && !role.AtLeast(club.RoleAdmin) {
		return ErrNotAuthor
	}
	return s.repo.DeleteReview(ctx, reviewID)
}

func (s *Service) AddComment(ctx context.Context, userID, clubID, reviewID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ValidationError{Message: "comment is required"}
	}
	if utf8.RuneCountInString(content) > maxReviewCommentLength {
		return nil, ValidationError{Message: fmt.Sprintf("comment must be at most %d characters", maxReviewCommentLength)}
	}
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetReview(ctx, clubID, reviewID); err != nil {
		return nil, err
	}

	comment := Comment{
		ID:       uuid.NewString(),
		ReviewID: reviewID,
		UserID:   userID,
		Content:  content,
	}
	if err := s.repo.CreateComment(ctx, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, userID, clubID, commentID string) error {
	role, err := s.clubs.RequireMember(ctx, clubID, userID)
	if err != nil {
		return err
	}

	comment, err := s.repo.GetComment(ctx, clubID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !role.AtLeast(club.RoleAdmin) {
		return ErrNotAuthor
	}
	return s.repo.DeleteComment(ctx, commentID)
}

func validateReview(text string, rating int) error {
	if rating < minRating || rating > maxRating {
		return ValidationError{Message: fmt.Sprintf("rating must be between %d and %d", minRating, maxRating)}
	}
	if text == "" {
		return ValidationError{Message: "review text is required"}
	}
	if utf8.RuneCountInString(text) > maxReviewLength {
		return ValidationError{Message: fmt.Sprintf("review must be at most %d characters", maxReviewLength)}
	}
	return nil
}

func averageRating(reviews []ReviewView) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, item := range reviews {
		total += item.Review.Rating
	}
	return math.Round(float64(total)/float64(len(reviews))*10) / 10
}
