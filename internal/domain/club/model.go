package club

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants every permission of min.
func (r Role) AtLeast(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

func (r Role) Valid() bool {
	return r.rank() > 0
}

// ParseRole accepts the stored role names plus the legacy "host" alias.
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "owner", "host":
		return RoleOwner, true
	case "admin":
		return RoleAdmin, true
	case "member":
		return RoleMember, true
	default:
		return "", false
	}
}

type Club struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	JoinCode    string    `gorm:"size:6;not null;uniqueIndex"`
	URL         *string   `gorm:"column:url"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type Member struct {
	ClubID   string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"type:uuid;primaryKey"`
	Role     Role      `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (Member) TableName() string {
	return "club_members"
}

type MemberProfile struct {
	UserID   string
	Role     Role
	JoinedAt time.Time
	Username *string
	Email    *string
	PhotoURL *string
}

type DiscussionPreview struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

type ClubSummary struct {
	Club             Club
	Role             Role
	MemberCount      int64
	LatestDiscussion *DiscussionPreview
}

type ClubDetails struct {
	Club        Club
	Role        Role
	OwnerID     string
	MemberCount int64
}

type UpdateClubInput struct {
	Name        *string
	Description *string
	URL         *string
}

// CanSeeJoinCode reports whether role may read the club join code.
func CanSeeJoinCode(role Role) bool {
	return role.AtLeast(RoleAdmin)
}
