package user

import "time"

type Profile struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"not null"`
	Email     *string   `gorm:"type:text"`
	Bio       *string   `gorm:"type:text"`
	PhotoURL  *string   `gorm:"type:text"`
	ClubURL   *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type UpdateProfileInput struct {
	Username *string
	Email    *string
	Bio      *string
	ClubURL  *string
}
