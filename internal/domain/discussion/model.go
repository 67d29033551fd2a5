package discussion

import (
	"time"

	"booknook-go/internal/domain/media"
)

type Discussion struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ClubID    string    `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"type:uuid;not null"`
	Title     string    `gorm:"size:100;not null"`
	Content   string    `gorm:"not null"`
	ImageURL  *string   `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type Comment struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	DiscussionID string    `gorm:"type:uuid;not null;index"`
	UserID       string    `gorm:"type:uuid;not null"`
	Content      string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// Author is the denormalized profile shown next to posts.
type Author struct {
	UserID   string
	Username *string
	PhotoURL *string
}

type DiscussionView struct {
	Discussion   Discussion
	Author       Author
	CommentCount int64
}

type CommentView struct {
	Comment Comment
	Author  Author
}

type DiscussionDetail struct {
	DiscussionView
	Comments []CommentView
}

type CreateDiscussionInput struct {
	UserID  string
	ClubID  string
	Title   string
	Content string
	Image   *media.Upload
}

type UpdateDiscussionInput struct {
	Title   *string
	Content *string
}
