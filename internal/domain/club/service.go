package club

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"booknook-go/internal/domain/notification"
	"github.com/google/uuid"
)

const (
	joinCodeLength   = 6
	joinCodeAttempts = 10
	joinCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	maxNameLength        = 100
	maxDescriptionLength = 1000
	maxURLLength         = 2048
)

type Service struct {
	repo      Repository
	announcer notification.Announcer
}

func NewService(repo Repository, announcer notification.Announcer) *Service {
	if announcer == nil {
		announcer = notification.NopAnnouncer()
	}
	return &Service{repo: repo, announcer: announcer}
}

// RequireMember returns the caller's role in the club or ErrNotMember.
func (s *Service) RequireMember(ctx context.Context, clubID, userID string) (Role, error) {
	return memberRole(ctx, s.repo, clubID, userID)
}

// RequireRole is RequireMember plus a minimum role check.
func (s *Service) RequireRole(ctx context.Context, clubID, userID string, min Role) (Role, error) {
	role, err := s.RequireMember(ctx, clubID, userID)
	if err != nil {
		return "", err
	}
	if !role.AtLeast(min) {
		return role, ErrForbidden
	}
	return role, nil
}

func (s *Service) ClubName(ctx context.Context, clubID string) (string, error) {
	club, err := s.repo.GetClub(ctx, clubID)
	if err != nil {
		return "", err
	}
	return club.Name, nil
}

func (s *Service) CreateClub(ctx context.Context, userID, name, description string) (*Club, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	var result Club
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		code, err := generateUniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		club := Club{
			ID:          uuid.NewString(),
			Name:        name,
			Description: description,
			JoinCode:    code,
		}
		if err := tx.CreateClub(ctx, &club); err != nil {
			return err
		}

		owner := Member{
			ClubID: club.ID,
			UserID: userID,
			Role:   RoleOwner,
		}
		if err := tx.AddMember(ctx, &owner); err != nil {
			return err
		}

		result = club
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) JoinClub(ctx context.Context, userID, code string) (*Club, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ValidationError{Message: "join code is required"}
	}

	var result Club
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		club, err := tx.GetClubByCode(ctx, code)
		if err != nil {
			return err
		}

		if _, err := tx.GetMember(ctx, club.ID, userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return err
		}

		member := Member{
			ClubID: club.ID,
			UserID: userID,
			Role:   RoleMember,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = *club
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announcer.Announce(ctx, notification.Announcement{
		ClubID:      result.ID,
		Type:        notification.TypeMemberJoined,
		SourceID:    userID + ":" + uuid.NewString(),
		Title:       "New Member",
		Description: fmt.Sprintf("%s: A new member has joined the club", result.Name),
	})

	return &result, nil
}

// LeaveClub removes the caller's membership. A sole owner leaving deletes the club.
func (s *Service) LeaveClub(ctx context.Context, userID, clubID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := tx.GetMember(ctx, clubID, userID)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				return ErrNotMember
			}
			return err
		}

		if member.Role == RoleOwner {
			count, err := tx.CountMembers(ctx, clubID)
			if err != nil {
				return err
			}
			if count > 1 {
				return ErrOwnerMustTransfer
			}
			return tx.DeleteClubCascade(ctx, clubID)
		}

		return tx.DeleteMember(ctx, clubID, userID)
	})
}

func (s *Service) DeleteClub(ctx context.Context, userID, clubID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireRole(ctx, tx, clubID, userID, RoleOwner); err != nil {
			return err
		}
		return tx.DeleteClubCascade(ctx, clubID)
	})
}

// TransferOwnership demotes the caller to admin and promotes newOwnerID in one transaction.
func (s *Service) TransferOwnership(ctx context.Context, userID, clubID, newOwnerID string) error {
	newOwnerID = strings.TrimSpace(newOwnerID)
	if newOwnerID == "" {
		return ValidationError{Message: "new owner is required"}
	}
	if newOwnerID == userID {
		return ErrCannotTargetSelf
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireRole(ctx, tx, clubID, userID, RoleOwner); err != nil {
			return err
		}
		if _, err := tx.GetMember(ctx, clubID, newOwnerID); err != nil {
			return err
		}

		if err := tx.UpdateMemberRole(ctx, clubID, userID, RoleAdmin); err != nil {
			return err
		}
		return tx.UpdateMemberRole(ctx, clubID, newOwnerID, RoleOwner)
	})
}

func (s *Service) SetMemberRole(ctx context.Context, userID, clubID, targetID string, role Role) error {
	if role != RoleAdmin && role != RoleMember {
		return ErrInvalidRole
	}
	if targetID == userID {
		return ErrCannotTargetSelf
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireRole(ctx, tx, clubID, userID, RoleOwner); err != nil {
			return err
		}
		target, err := tx.GetMember(ctx, clubID, targetID)
		if err != nil {
			return err
		}
		if target.Role == RoleOwner {
			return ErrCannotRemoveOwner
		}
		if target.Role == role {
			return nil
		}
		return tx.UpdateMemberRole(ctx, clubID, targetID, role)
	})
}

func (s *Service) RemoveMember(ctx context.Context, userID, clubID, targetID string) error {
	if targetID == userID {
		return ErrCannotTargetSelf
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		actorRole, err := memberRole(ctx, tx, clubID, userID)
		if err != nil {
			return err
		}
		if !actorRole.AtLeast(RoleAdmin) {
			return ErrForbidden
		}

		target, err := tx.GetMember(ctx, clubID, targetID)
		if err != nil {
			return err
		}
		if target.Role == RoleOwner {
			return ErrCannotRemoveOwner
		}
		if actorRole == RoleAdmin && target.Role != RoleMember {
			return ErrForbidden
		}

		return tx.DeleteMember(ctx, clubID, targetID)
	})
}

func (s *Service) UpdateClub(ctx context.Context, userID, clubID string, input UpdateClubInput) (*Club, error) {
	var (
		result     Club
		urlChanged bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireRole(ctx, tx, clubID, userID, RoleAdmin); err != nil {
			return err
		}
		club, err := tx.GetClub(ctx, clubID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if err := validateName(name); err != nil {
				return err
			}
			club.Name = name
		}
		if input.Description != nil {
			description := strings.TrimSpace(*input.Description)
			if err := validateDescription(description); err != nil {
				return err
			}
			club.Description = description
		}
		if input.URL != nil {
			next, err := normalizeURL(*input.URL)
			if err != nil {
				return err
			}
			urlChanged = !sameURL(club.URL, next)
			club.URL = next
		}

		if err := tx.UpdateClub(ctx, club); err != nil {
			return err
		}
		result = *club
		return nil
	})
	if err != nil {
		return nil, err
	}

	if urlChanged && result.URL != nil {
		s.announcer.Announce(ctx, notification.Announcement{
			ClubID:      result.ID,
			Type:        notification.TypeURLChanged,
			SourceID:    uuid.NewString(),
			Title:       "Meeting URL Updated",
			Description: fmt.Sprintf("%s: The club meeting URL has been changed to: %s", result.Name, *result.URL),
		})
	}

	return &result, nil
}

func (s *Service) GetClub(ctx context.Context, userID, clubID string) (*ClubDetails, error) {
	role, err := s.RequireMember(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}

	club, err := s.repo.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	owner, err := s.repo.GetOwner(ctx, clubID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountMembers(ctx, clubID)
	if err != nil {
		return nil, err
	}

	return &ClubDetails{
		Club:        *club,
		Role:        role,
		OwnerID:     owner.UserID,
		MemberCount: count,
	}, nil
}

func (s *Service) ListClubsForUser(ctx context.Context, userID string) ([]ClubSummary, error) {
	return s.repo.ListClubsForUser(ctx, userID)
}

func (s *Service) ListMembers(ctx context.Context, userID, clubID string) ([]MemberProfile, error) {
	if _, err := s.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembersWithProfiles(ctx, clubID)
}

func memberRole(ctx context.Context, repo Repository, clubID, userID string) (Role, error) {
	member, err := repo.GetMember(ctx, clubID, userID)
	if err == nil {
		return member.Role, nil
	}
	if !errors.Is(err, ErrMemberNotFound) {
		return "", err
	}
	if _, err := repo.GetClub(ctx, clubID); err != nil {
		return "", err
	}
	return "", ErrNotMember
}

func requireRole(ctx context.Context, repo Repository, clubID, userID string, min Role) error {
	role, err := memberRole(ctx, repo, clubID, userID)
	if err != nil {
		return err
	}
	if !role.AtLeast(min) {
		return ErrForbidden
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return ValidationError{Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ValidationError{Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return ValidationError{Message: fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)}
	}
	return nil
}

func normalizeURL(value string) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if len(value) > maxURLLength {
		return nil, ValidationError{Message: "url is too long"}
	}
	return &value, nil
}

func sameURL(current, next *string) bool {
	if current == nil || next == nil {
		return current == nil && next == nil
	}
	return *current == *next
}

func generateUniqueCode(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := generateCode(joinCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := repo.IsCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationFailed
}

func generateCode(length int) (string, error) {
	max := big.NewInt(int64(len(joinCodeAlphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(joinCodeAlphabet[n.Int64()])
	}

	return builder.String(), nil
}
