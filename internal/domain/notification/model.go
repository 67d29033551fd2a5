package notification

import "time"

const (
	TypeEventCreated      = "event_created"
	TypeEventCancelled    = "event_cancelled"
	TypeDiscussionCreated = "discussion_created"
	TypeBookAdded         = "book_added"
	TypeURLChanged        = "url_changed"
	TypeMemberJoined      = "member_joined"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type Notification struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"type:uuid;not null;index"`
	ClubID      *string   `gorm:"type:uuid"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Type        string    `gorm:"type:varchar(32);not null"`
	IsRead      bool      `gorm:"not null"`
	DedupKey    string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Job is one fan-out of an announcement to every member of a club.
type Job struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	ClubID        string `gorm:"type:uuid;not null"`
	Title         string `gorm:"not null"`
	Description   string `gorm:"not null"`
	Type          string `gorm:"type:varchar(32);not null"`
	DedupKey      string `gorm:"not null;uniqueIndex"`
	Status        string `gorm:"type:varchar(16);not null"`
	Attempts      int    `gorm:"not null"`
	MaxAttempts   int    `gorm:"not null"`
	NextAttemptAt *time.Time
	LastError     *string
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Job) TableName() string {
	return "notification_jobs"
}

type Announcement struct {
	ClubID      string
	Type        string
	SourceID    string
	Title       string
	Description string
}

// DedupKey identifies the announcement across retries and repeated calls.
func (a Announcement) DedupKey() string {
	return a.Type + ":" + a.SourceID
}

type Recipient struct {
	UserID string
	Email  *string
}

type Page struct {
	Items  []Notification
	Total  int64
	Unread int64
}
