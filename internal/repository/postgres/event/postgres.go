package event

import (
	"context"
	"errors"

	domain "booknook-go/internal/domain/event"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListEvents(ctx context.Context, clubID string, window domain.Range) ([]domain.Event, error) {
	query := r.db.WithContext(ctx).Where("club_id = ?", clubID)
	if window.From != nil {
		query = query.Where("end_date >= ?", window.From.UTC())
	}
	if window.To != nil {
		query = query.Where("start_date <= ?", window.To.UTC())
	}

	var events []domain.Event
	if err := query.Order("start_date asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresRepository) GetEvent(ctx context.Context, clubID, eventID string) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.WithContext(ctx).Where("id = ? AND club_id = ?", eventID, clubID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) CreateEvent(ctx context.Context, event *domain.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *PostgresRepository) DeleteEvent(ctx context.Context, clubID, eventID string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Event{}, "id = ? AND club_id = ?", eventID, clubID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
