package event

import (
	"context"

	"booknook-go/internal/domain/club"
)

type Repository interface {
	ListEvents(ctx context.Context, clubID string, window Range) ([]Event, error)
	GetEvent(ctx context.Context, clubID, eventID string) (*Event, error)
	CreateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, clubID, eventID string) error
}

type Membership interface {
	RequireMember(ctx context.Context, clubID, userID string) (club.Role, error)
	ClubName(ctx context.Context, clubID string) (string, error)
}
