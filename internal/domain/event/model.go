package event

import "time"

type Event struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ClubID    string    `gorm:"type:uuid;not null"`
	UserID    string    `gorm:"type:uuid;not null"`
	Title     string    `gorm:"not null"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Event) TableName() string {
	return "event"
}

type CreateEventInput struct {
	UserID    string
	ClubID    string
	Title     string
	StartDate time.Time
	EndDate   time.Time
}

// Range bounds a calendar query. Nil ends are open.
type Range struct {
	From *time.Time
	To   *time.Time
}
