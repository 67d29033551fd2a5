package discussion

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"booknook-go/internal/domain/club"
	"booknook-go/internal/domain/media"
	"booknook-go/internal/domain/notification"
	"github.com/google/uuid"
)

const (
	maxTitleLength   = 100
	maxContentLength = 1000
	maxCommentLength = 500
)

type Service struct {
	repo      Repository
	clubs     Membership
	announcer notification.Announcer
	images    media.Bucket
	now       func() time.Time
}

func NewService(repo Repository, clubs Membership, announcer notification.Announcer, images media.Bucket) *Service {
	if announcer == nil {
		announcer = notification.NopAnnouncer()
	}
	return &Service{
		repo:      repo,
		clubs:     clubs,
		announcer: announcer,
		images:    images,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListDiscussions(ctx context.Context, userID, clubID string) ([]DiscussionView, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListDiscussions(ctx, clubID)
}

func (s *Service) GetDiscussion(ctx context.Context, userID, clubID, discussionID string) (*DiscussionDetail, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	view, err := s.repo.GetDiscussionView(ctx, clubID, discussionID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, discussionID)
	if err != nil {
		return nil, err
	}

	view.CommentCount = int64(len(comments))
	return &DiscussionDetail{DiscussionView: *view, Comments: comments}, nil
}

func (s *Service) CreateDiscussion(ctx context.Context, input CreateDiscussionInput) (*Discussion, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if err := validatePost(title, content); err != nil {
		return nil, err
	}
	if _, err := s.clubs.RequireMember(ctx, input.ClubID, input.UserID); err != nil {
		return nil, err
	}

	discussion := Discussion{
		ID:      uuid.NewString(),
		ClubID:  input.ClubID,
		UserID:  input.UserID,
		Title:   title,
		Content: content,
	}
	if input.Image != nil {
		url, err := s.images.Put(ctx, input.UserID, *input.Image, s.now())
		if err != nil {
			return nil, err
		}
		discussion.ImageURL = &url
	}

	if err := s.repo.CreateDiscussion(ctx, &discussion); err != nil {
		return nil, err
	}

	s.announcer.Announce(ctx, notification.Announcement{
		ClubID:      discussion.ClubID,
		Type:        notification.TypeDiscussionCreated,
		SourceID:    discussion.ID,
		Title:       "New Discussion",
		Description: fmt.Sprintf("New discussion, \"%s\", posted! Come share your thoughts", discussion.Title),
	})

	return &discussion, nil
}

func (s *Service) UpdateDiscussion(ctx context.Context, userID, clubID, discussionID string, input UpdateDiscussionInput) (*Discussion, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	discussion, err := s.repo.GetDiscussion(ctx, clubID, discussionID)
	if err != nil {
		return nil, err
	}
	if discussion.UserID != userID {
		return nil, ErrNotAuthor
	}

	if input.Title != nil {
		discussion.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		discussion.Content = strings.TrimSpace(*input.Content)
	}
	if err := validatePost(discussion.Title, discussion.Content); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDiscussion(ctx, discussion); err != nil {
		return nil, err
	}
	return discussion, nil
}

func (s *Service) DeleteDiscussion(ctx context.Context, userID, clubID, discussionID string) error {
	role, err := s.clubs.RequireMember(ctx, clubID, userID)
	if err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		discussion, err := tx.GetDiscussion(ctx, clubID, discussionID)
		if err != nil {
			return err
		}
		if discussion.UserID != userID && !role.AtLeast(club.RoleAdmin) {
			return ErrNotAuthor
		}
		return tx.DeleteDiscussion(ctx, discussionID)
	})
}

func (s *Service) AddComment(ctx context.Context, userID, clubID, discussionID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ValidationError{Message: "comment is required"}
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, ValidationError{Message: fmt.Sprintf("comment must be at most %d characters", maxCommentLength)}
	}
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDiscussion(ctx, clubID, discussionID); err != nil {
		return nil, err
	}

	comment := Comment{
		ID:           uuid.NewString(),
		DiscussionID: discussionID,
		UserID:       userID,
		Content:      content,
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

func validatePost(title, content string) error {
	if title == "" {
		return ValidationError{Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ValidationError{Message: fmt.Sprintf("title must be at most %d characters", maxTitleLength)}
	}
	if content == "" {
		return ValidationError{Message: "content is required"}
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return ValidationError{Message: fmt.Sprintf("content must be at most %d characters", maxContentLength)}
	}
	return nil
}
