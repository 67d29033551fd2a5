package user

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"booknook-go/internal/domain/media"
)

const (
	maxUsernameLength = 50
	maxBioLength      = 500
)

type Service struct {
	repo    Repository
	avatars media.Bucket
	now     func() time.Time
}

func NewService(repo Repository, avatars media.Bucket) *Service {
	return &Service{
		repo:    repo,
		avatars: avatars,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// UpsertProfile records a signed-in user. Username falls back to the email
// local part and is only set on first insert.
func (s *Service) UpsertProfile(ctx context.Context, userID, email, username string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = strings.TrimSpace(email)
	}
	if username == "" {
		username = userID
	}
	username = truncate(username, maxUsernameLength)

	profile := Profile{ID: userID, Username: username}
	if email != "" {
		profile.Email = &email
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ValidationError{Message: "username is required"}
		}
		if utf8.RuneCountInString(username) > maxUsernameLength {
			return nil, ValidationError{Message: fmt.Sprintf("username must be at most %d characters", maxUsernameLength)}
		}
		profile.Username = username
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" && !strings.Contains(email, "@") {
			return nil, ValidationError{Message: "email is invalid"}
		}
		profile.Email = optional(email)
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, ValidationError{Message: fmt.Sprintf("bio must be at most %d characters", maxBioLength)}
		}
		profile.Bio = optional(bio)
	}
	if input.ClubURL != nil {
		profile.ClubURL = optional(strings.TrimSpace(*input.ClubURL))
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdatePhoto stores the image in the avatars bucket and saves its public URL.
func (s *Service) UpdatePhoto(ctx context.Context, userID string, upload media.Upload) (*Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.Put(ctx, userID, upload, s.now())
	if err != nil {
		return nil, err
	}

	profile.PhotoURL = &url
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func truncate(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	return string([]rune(value)[:max])
}
