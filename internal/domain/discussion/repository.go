package discussion

import (
	"context"

	"booknook-go/internal/domain/club"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListDiscussions(ctx context.Context, clubID string) ([]DiscussionView, error)
	GetDiscussion(ctx context.Context, clubID, discussionID string) (*Discussion, error)
	GetDiscussionView(ctx context.Context, clubID, discussionID string) (*DiscussionView, error)
	CreateDiscussion(ctx context.Context, discussion *Discussion) error
	UpdateDiscussion(ctx context.Context, discussion *Discussion) error
	DeleteDiscussion(ctx context.Context, discussionID string) error
	ListComments(ctx context.Context, discussionID string) ([]CommentView, error)
	GetComment(ctx context.Context, clubID, commentID string) (*Comment, error)
	CreateComment(ctx context.Context, comment *Comment) error
	DeleteComment(ctx context.Context, commentID string) error
}

type Membership interface {
	RequireMember(ctx context.Context, clubID, userID string) (club.Role, error)
}
