package user

import (
	"context"
	"errors"
	"time"

	domain "booknook-go/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertProfile inserts the profile or refreshes its email. Username, bio and
// photo chosen by the user are never overwritten here.
func (r *PostgresRepository) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if profile.Email != nil {
		updates["email"] = profile.Email
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(profile).Error
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"username":   profile.Username,
			"email":      profile.Email,
			"bio":        profile.Bio,
			"photo_url":  profile.PhotoURL,
			"club_url":   profile.ClubURL,
			"updated_at": profile.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
