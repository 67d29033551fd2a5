package club

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetClub(ctx context.Context, clubID string) (*Club, error)
	GetClubByCode(ctx context.Context, code string) (*Club, error)
	GetMember(ctx context.Context, clubID, userID string) (*Member, error)
	GetOwner(ctx context.Context, clubID string) (*Member, error)
	ListMembersWithProfiles(ctx context.Context, clubID string) ([]MemberProfile, error)
	ListClubsForUser(ctx context.Context, userID string) ([]ClubSummary, error)
	CreateClub(ctx context.Context, club *Club) error
	AddMember(ctx context.Context, member *Member) error
	UpdateClub(ctx context.Context, club *Club) error
	UpdateMemberRole(ctx context.Context, clubID, userID string, role Role) error
	DeleteMember(ctx context.Context, clubID, userID string) error
	DeleteClubCascade(ctx context.Context, clubID string) error
	CountMembers(ctx context.Context, clubID string) (int64, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)
}
