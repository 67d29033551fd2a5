package notification

import (
	"context"
	"errors"
	"time"

	domain "booknook-go/internal/domain/notification"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateJob(ctx context.Context, job *domain.Job) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(job)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimDueJobs locks due pending jobs, skipping rows other workers hold, and
// marks them processing before the transaction commits.
func (r *PostgresRepository) ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]domain.Job, error) {
	var jobs []domain.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", domain.JobStatusPending).
			Where("(next_attempt_at IS NULL OR next_attempt_at <= ?)", now).
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]string, len(jobs))
		for i := range jobs {
			ids[i] = jobs[i].ID
			jobs[i].Status = domain.JobStatusProcessing
		}
		return tx.Model(&domain.Job{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     domain.JobStatusProcessing,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *PostgresRepository) ResetStuckJobs(ctx context.Context, startedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("status = ?", domain.JobStatusProcessing).
		Where("updated_at < ?", startedBefore).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusPending,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) CompleteJob(ctx context.Context, jobID string) error {
	return r.updateJob(ctx, jobID, map[string]interface{}{
		"status":          domain.JobStatusCompleted,
		"next_attempt_at": nil,
		"last_error":      nil,
	})
}

func (r *PostgresRepository) RetryJob(ctx context.Context, jobID string, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.updateJob(ctx, jobID, map[string]interface{}{
		"status":          domain.JobStatusPending,
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt,
		"last_error":      lastError,
	})
}

func (r *PostgresRepository) FailJob(ctx context.Context, jobID string, attempts int, lastError string) error {
	return r.updateJob(ctx, jobID, map[string]interface{}{
		"status":          domain.JobStatusFailed,
		"attempts":        attempts,
		"next_attempt_at": nil,
		"last_error":      lastError,
	})
}

func (r *PostgresRepository) updateJob(ctx context.Context, jobID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", jobID).Updates(updates).Error
}

func (r *PostgresRepository) ListRecipients(ctx context.Context, clubID string) ([]domain.Recipient, error) {
	type recipientRow struct {
		UserID string  `gorm:"column:user_id"`
		Email  *string `gorm:"column:email"`
	}

	var rows []recipientRow
	if err := r.db.WithContext(ctx).
		Table("club_members").
		Select("club_members.user_id, profiles.email").
		Joins("left join profiles on profiles.id = club_members.user_id").
		Where("club_members.club_id = ?", clubID).
		Order("club_members.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	recipients := make([]domain.Recipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, domain.Recipient{UserID: row.UserID, Email: row.Email})
	}
	return recipients, nil
}

func (r *PostgresRepository) InsertNotifications(ctx context.Context, rows []domain.Notification) ([]domain.Notification, error) {
	if len(rows) == 0 {
		return []domain.Notification{}, nil
	}

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	var inserted []domain.Notification
	if err := db.Where("id IN ?", ids).Order("created_at asc").Find(&inserted).Error; err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	var items []domain.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	var item domain.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if item.IsRead {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
