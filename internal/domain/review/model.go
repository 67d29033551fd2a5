package review

import (
	"time"

	"booknook-go/internal/domain/book"
)

type Review struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	BookID     string    `gorm:"not null"`
	ClubID     string    `gorm:"column:c_id;type:uuid;not null"`
	UserID     string    `gorm:"type:uuid;not null"`
	ReviewText string    `gorm:"not null"`
	Rating     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Comment struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ReviewID  string    `gorm:"column:reviews_id;type:uuid;not null"`
	UserID    string    `gorm:"type:uuid;not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Comment) TableName() string {
	return "review_comments"
}

type Author struct {
	UserID   string
	Username *string
	PhotoURL *string
}

type CommentView struct {
	Comment Comment
	Author  Author
}

type ReviewView struct {
	Review   Review
	Author   Author
	Comments []CommentView
}

type BookWithReviews struct {
	Shelf         book.ClubBookView
	AverageRating float64
	ReviewCount   int
	Reviews       []ReviewView
}

type CreateReviewInput struct {
	UserID string
	ClubID string
	BookID string
	Text   string
	Rating int
}

type UpdateReviewInput struct {
	Text   *string
	Rating *int
}
