package event

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"booknook-go/internal/domain/club"
	"booknook-go/internal/domain/notification"
	"github.com/google/uuid"
)

const maxTitleLength = 100

type Service struct {
	repo      Repository
	clubs     Membership
	announcer notification.Announcer
}

func NewService(repo Repository, clubs Membership, announcer notification.Announcer) *Service {
	if announcer == nil {
		announcer = notification.NopAnnouncer()
	}
	return &Service{repo: repo, clubs: clubs, announcer: announcer}
}

func (s *Service) ListEvents(ctx context.Context, userID, clubID string, window Range) ([]Event, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	if window.From != nil && window.To != nil && window.To.Before(*window.From) {
		return nil, ValidationError{Message: "to must not be before from"}
	}
	return s.repo.ListEvents(ctx, clubID, window)
}

func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ValidationError{Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, ValidationError{Message: fmt.Sprintf("title must be at most %d characters", maxTitleLength)}
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, ValidationError{Message: "start and end dates are required"}
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, ValidationError{Message: "end date must not be before start date"}
	}
	if _, err := s.clubs.RequireMember(ctx, input.ClubID, input.UserID); err != nil {
		return nil, err
	}

	event := Event{
		ID:        uuid.NewString(),
		ClubID:    input.ClubID,
		UserID:    input.UserID,
		Title:     title,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.repo.CreateEvent(ctx, &event); err != nil {
		return nil, err
	}

	if name, err := s.clubs.ClubName(ctx, input.ClubID); err == nil {
		s.announcer.Announce(ctx, notification.Announcement{
			ClubID:      input.ClubID,
			Type:        notification.TypeEventCreated,
			SourceID:    event.ID,
			Title:       "New Calendar Event",
			Description: fmt.Sprintf("%s: \"%s\" scheduled for %s", name, title, FormatSchedule(input.StartDate)),
		})
	}

	return &event, nil
}

// DeleteEvent removes the event and only then tells the club it was cancelled.
func (s *Service) DeleteEvent(ctx context.Context, userID, clubID, eventID string) error {
	role, err := s.clubs.RequireMember(ctx, clubID, userID)
	if err != nil {
		return err
	}

	event, err := s.repo.GetEvent(ctx, clubID, eventID)
	if err != nil {
		return err
	}
	if event.UserID != userID && !role.AtLeast(club.RoleAdmin) {
		return ErrNotCreator
	}

	if err := s.repo.DeleteEvent(ctx, clubID, eventID); err != nil {
		return err
	}

	if name, err := s.clubs.ClubName(ctx, clubID); err == nil {
		s.announcer.Announce(ctx, notification.Announcement{
			ClubID:      clubID,
			Type:        notification.TypeEventCancelled,
			SourceID:    event.ID,
			Title:       "Event Canceled",
			Description: fmt.Sprintf("%s: \"%s\" was cancelled!", name, event.Title),
		})
	}
	return nil
}

// FormatSchedule renders t like "March 3rd 2025, 7:30 PM".
func FormatSchedule(t time.Time) string {
	return fmt.Sprintf("%s %d%s %s", t.Format("January"), t.Day(), ordinalSuffix(t.Day()), t.Format("2006, 3:04 PM"))
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
