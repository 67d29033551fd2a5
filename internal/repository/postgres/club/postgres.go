package club

import (
	"context"
	"errors"
	"time"

	clubdomain "booknook-go/internal/domain/club"
	"booknook-go/internal/repository/postgres/pgerr"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(clubdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetClub(ctx context.Context, clubID string) (*clubdomain.Club, error) {
	var club clubdomain.Club
	if err := r.db.WithContext(ctx).Where("id = ?", clubID).First(&club).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clubdomain.ErrClubNotFound
		}
		return nil, err
	}
	return &club, nil
}

func (r *PostgresRepository) GetClubByCode(ctx context.Context, code string) (*clubdomain.Club, error) {
	var club clubdomain.Club
	if err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&club).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clubdomain.ErrInvalidJoinCode
		}
		return nil, err
	}
	return &club, nil
}

func (r *PostgresRepository) GetMember(ctx context.Context, clubID, userID string) (*clubdomain.Member, error) {
	var member clubdomain.Member
	if err := r.db.WithContext(ctx).Where("club_id = ? AND user_id = ?", clubID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clubdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) GetOwner(ctx context.Context, clubID string) (*clubdomain.Member, error) {
	var member clubdomain.Member
	if err := r.db.WithContext(ctx).Where("club_id = ? AND role = ?", clubID, clubdomain.RoleOwner).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clubdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembersWithProfiles(ctx context.Context, clubID string) ([]clubdomain.MemberProfile, error) {
	type memberRow struct {
		UserID   string    `gorm:"column:user_id"`
		Role     string    `gorm:"column:role"`
		JoinedAt time.Time `gorm:"column:joined_at"`
		Username *string   `gorm:"column:username"`
		Email    *string   `gorm:"column:email"`
		PhotoURL *string   `gorm:"column:photo_url"`
	}

	var rows []memberRow
	if err := r.db.WithContext(ctx).
		Table("club_members").
		Select("club_members.user_id, club_members.role, club_members.joined_at, profiles.username, profiles.email, profiles.photo_url").
		Joins("left join profiles on profiles.id = club_members.user_id").
		Where("club_members.club_id = ?", clubID).
		Order("club_members.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]clubdomain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		members = append(members, clubdomain.MemberProfile{
			UserID:   row.UserID,
			Role:     clubdomain.Role(row.Role),
			JoinedAt: row.JoinedAt,
			Username: row.Username,
			Email:    row.Email,
			PhotoURL: row.PhotoURL,
		})
	}
	return members, nil
}

func (r *PostgresRepository) ListClubsForUser(ctx context.Context, userID string) ([]clubdomain.ClubSummary, error) {
	type clubRow struct {
		clubdomain.Club
		Role string `gorm:"column:role"`
	}

	var rows []clubRow
	if err := r.db.WithContext(ctx).
		Table("clubs").
		Select("clubs.*, club_members.role").
		Joins("join club_members on club_members.club_id = clubs.id").
		Where("club_members.user_id = ?", userID).
		Order("club_members.joined_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []clubdomain.ClubSummary{}, nil
	}

	clubIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		clubIDs = append(clubIDs, row.ID)
	}

	counts, err := r.memberCounts(ctx, clubIDs)
	if err != nil {
		return nil, err
	}
	latest, err := r.latestDiscussions(ctx, clubIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]clubdomain.ClubSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, clubdomain.ClubSummary{
			Club:             row.Club,
			Role:             clubdomain.Role(row.Role),
			MemberCount:      counts[row.ID],
			LatestDiscussion: latest[row.ID],
		})
	}
	return summaries, nil
}

func (r *PostgresRepository) memberCounts(ctx context.Context, clubIDs []string) (map[string]int64, error) {
	type countRow struct {
		ClubID string `gorm:"column:club_id"`
		Count  int64  `gorm:"column:count"`
	}

	var rows []countRow
	if err := r.db.WithContext(ctx).
		Table("club_members").
		Select("club_id, count(*) as count").
		Where("club_id IN ?", clubIDs).
		Group("club_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ClubID] = row.Count
	}
	return counts, nil
}

func (r *PostgresRepository) latestDiscussions(ctx context.Context, clubIDs []string) (map[string]*clubdomain.DiscussionPreview, error) {
	type discussionRow struct {
		ID        string    `gorm:"column:id"`
		ClubID    string    `gorm:"column:club_id"`
		Title     string    `gorm:"column:title"`
		CreatedAt time.Time `gorm:"column:created_at"`
	}

	var rows []discussionRow
	if err := r.db.WithContext(ctx).
		Table("discussions").
		Select("id, club_id, title, created_at").
		Where("club_id IN ?", clubIDs).
		Order("created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	latest := make(map[string]*clubdomain.DiscussionPreview, len(clubIDs))
	for _, row := range rows {
		if _, ok := latest[row.ClubID]; ok {
			continue
		}
		latest[row.ClubID] = &clubdomain.DiscussionPreview{ID: row.ID, Title: row.Title, CreatedAt: row.CreatedAt}
	}
	return latest, nil
}

func (r *PostgresRepository) CreateClub(ctx context.Context, club *clubdomain.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *clubdomain.Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if pgerr.IsUniqueViolation(err) {
		return clubdomain.ErrAlreadyMember
	}
	return err
}

func (r *PostgresRepository) UpdateClub(ctx context.Context, club *clubdomain.Club) error {
	club.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&clubdomain.Club{}).
		Where("id = ?", club.ID).
		Updates(map[string]interface{}{
			"name":        club.Name,
			"description": club.Description,
			"url":         club.URL,
			"updated_at":  club.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clubdomain.ErrClubNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateMemberRole(ctx context.Context, clubID, userID string, role clubdomain.Role) error {
	result := r.db.WithContext(ctx).Model(&clubdomain.Member{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clubdomain.ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, clubID, userID string) error {
	return r.db.WithContext(ctx).Delete(&clubdomain.Member{}, "club_id = ? AND user_id = ?", clubID, userID).Error
}

// DeleteClubCascade removes the club and every row that belongs to it.
// Notifications survive with their club reference cleared.
func (r *PostgresRepository) DeleteClubCascade(ctx context.Context, clubID string) error {
	db := r.db.WithContext(ctx)
	statements := []string{
		"DELETE FROM review_comments WHERE reviews_id IN (SELECT id FROM reviews WHERE c_id = ?)",
		"DELETE FROM reviews WHERE c_id = ?",
		"DELETE FROM comments WHERE discussion_id IN (SELECT id FROM discussions WHERE club_id = ?)",
		"DELETE FROM discussions WHERE club_id = ?",
		"DELETE FROM club_books WHERE club_id = ?",
		"DELETE FROM event WHERE club_id = ?",
		"DELETE FROM club_members WHERE club_id = ?",
		"UPDATE notifications SET club_id = NULL WHERE club_id = ?",
	}
	for _, statement := range statements {
		if err := db.Exec(statement, clubID).Error; err != nil {
			return err
		}
	}

	result := db.Delete(&clubdomain.Club{}, "id = ?", clubID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clubdomain.ErrClubNotFound
	}
	return nil
}

func (r *PostgresRepository) CountMembers(ctx context.Context, clubID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&clubdomain.Member{}).Where("club_id = ?", clubID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&clubdomain.Club{}).Where("join_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
