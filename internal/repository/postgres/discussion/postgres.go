package discussion

import (
	"context"
	"errors"
	"time"

	domain "booknook-go/internal/domain/discussion"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

type discussionRow struct {
	domain.Discussion
	Username     *string `gorm:"column:username"`
	PhotoURL     *string `gorm:"column:photo_url"`
	CommentCount int64   `gorm:"column:comment_count"`
}

func (row discussionRow) view() domain.DiscussionView {
	return domain.DiscussionView{
		Discussion:   row.Discussion,
		Author:       domain.Author{UserID: row.UserID, Username: row.Username, PhotoURL: row.PhotoURL},
		CommentCount: row.CommentCount,
	}
}

func (r *PostgresRepository) discussionViews(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("discussions").
		Select("discussions.*, profiles.username, profiles.photo_url, " +
			"(SELECT COUNT(*) FROM comments WHERE comments.discussion_id = discussions.id) AS comment_count").
		Joins("left join profiles on profiles.id = discussions.user_id")
}

func (r *PostgresRepository) ListDiscussions(ctx context.Context, clubID string) ([]domain.DiscussionView, error) {
	var rows []discussionRow
	if err := r.discussionViews(ctx).
		Where("discussions.club_id = ?", clubID).
		Order("discussions.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]domain.DiscussionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

func (r *PostgresRepository) GetDiscussion(ctx context.Context, clubID, discussionID string) (*domain.Discussion, error) {
	var discussion domain.Discussion
	if err := r.db.WithContext(ctx).Where("id = ? AND club_id = ?", discussionID, clubID).First(&discussion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDiscussionNotFound
		}
		return nil, err
	}
	return &discussion, nil
}

func (r *PostgresRepository) GetDiscussionView(ctx context.Context, clubID, discussionID string) (*domain.DiscussionView, error) {
	var rows []discussionRow
	if err := r.discussionViews(ctx).
		Where("discussions.id = ? AND discussions.club_id = ?", discussionID, clubID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrDiscussionNotFound
	}
	view := rows[0].view()
	return &view, nil
}

func (r *PostgresRepository) CreateDiscussion(ctx context.Context, discussion *domain.Discussion) error {
	return r.db.WithContext(ctx).Create(discussion).Error
}

func (r *PostgresRepository) UpdateDiscussion(ctx context.Context, discussion *domain.Discussion) error {
	discussion.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Discussion{}).
		Where("id = ?", discussion.ID).
		Updates(map[string]interface{}{
			"title":      discussion.Title,
			"content":    discussion.Content,
			"updated_at": discussion.UpdatedAt,
		}).Error
}

func (r *PostgresRepository) DeleteDiscussion(ctx context.Context, discussionID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("discussion_id = ?", discussionID).Delete(&domain.Comment{}).Error; err != nil {
		return err
	}
	return db.Delete(&domain.Discussion{}, "id = ?", discussionID).Error
}

func (r *PostgresRepository) ListComments(ctx context.Context, discussionID string) ([]domain.CommentView, error) {
	type commentRow struct {
		domain.Comment
		Username *string `gorm:"column:username"`
		PhotoURL *string `gorm:"column:photo_url"`
	}

	var rows []commentRow
	if err := r.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, profiles.username, profiles.photo_url").
		Joins("left join profiles on profiles.id = comments.user_id").
		Where("comments.discussion_id = ?", discussionID).
		Order("comments.created_at asc").
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
		Joins("join discussions on discussions.id = comments.discussion_id").
		Where("comments.id = ? AND discussions.club_id = ?", commentID, clubID).
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
