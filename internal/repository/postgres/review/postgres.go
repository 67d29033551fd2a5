package review

import (
	"context"
	"errors"
	"time"

	domain "booknook-go/internal/domain/review"
	"booknook-go/internal/repository/postgres/pgerr"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type authorColumns struct {
	Username *string `gorm:"column:username"`
	PhotoURL *string `gorm:"column:photo_url"`
}

func (r *PostgresRepository) GetReview(ctx context.Context, clubID, reviewID string) (*domain.Review, error) {
	var review domain.Review
	if err := r.db.WithContext(ctx).Where("id = ? AND c_id = ?", reviewID, clubID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *PostgresRepository) HasReviewed(ctx context.Context, clubID, bookID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("c_id = ? AND book_id = ? AND user_id = ?", clubID, bookID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateReview(ctx context.Context, review *domain.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return domain.ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) UpdateReview(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{
			"review_text": review.ReviewText,
			"rating":      review.Rating,
			"updated_at":  review.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteReview(ctx context.Context, reviewID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reviews_id = ?", reviewID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Review{}, "id = ?", reviewID).Error
	})
}

func (r *PostgresRepository) ListReviews(ctx context.Context, clubID string) ([]domain.ReviewView, error) {
	type reviewRow struct {
		domain.Review
		authorColumns
	}

	var rows []reviewRow
	if err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, profiles.username, profiles.photo_url").
		Joins("left join profiles on profiles.id = reviews.user_id").
		Where("reviews.c_id = ?", clubID).
		Order("reviews.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]domain.ReviewView, 0, len(rows))
	for _, row := range rows {
		views = append(views, domain.ReviewView{
			Review: row.Review,
			Author: domain.Author{UserID: row.UserID, Username: row.Username, PhotoURL: row.PhotoURL},
		})
	}
	return views, nil
}

func (r *PostgresRepository) ListComments(ctx context.Context, reviewIDs []string) ([]domain.CommentView, error) {
	if len(reviewIDs) == 0 {
		return []domain.CommentView{}, nil
	}

	type commentRow struct {
		domain.Comment
		authorColumns
	}

	var rows []commentRow
	if err := r.db.WithContext(ctx).
		Table("review_comments").
		Select("review_comments.*, profiles.username, profiles.photo_url").
		Joins("left join profiles on profiles.id = review_comments.user_id").
		Where("review_comments.reviews_id IN ?", reviewIDs).
		Order("review_comments.created_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]domain.CommentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, domain.CommentView{
			Comment: row.Comment,
			Author:  domain.Author{UserID: row.UserID, Username: row.Username, PhotoURL: row.PhotoURL},
		})
	}
	return views, nil
}

func (r *PostgresRepository) GetComment(ctx context.Context, clubID, commentID string) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.WithContext(ctx).
		Joins("join reviews on reviews.id = review_comments.reviews_id").
		Where("review_comments.id = ? AND reviews.c_id = ?", commentID, clubID).
		First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *PostgresRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *PostgresRepository) DeleteComment(ctx context.Context, commentID string) error {
	return r.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", commentID).Error
}
