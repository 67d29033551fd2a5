package book

import "time"

const UnknownAuthor = "Unknown Author"

// Book is a catalog entry keyed by its external volume id.
type Book struct {
	ID        string    `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	Author    string    `gorm:"not null"`
	Thumbnail string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type ClubBook struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ClubID    string    `gorm:"type:uuid;not null"`
	BookID    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ClubBook) TableName() string {
	return "club_books"
}

type ClubBookView struct {
	ClubBookID string
	Book       Book
	AddedAt    time.Time
}

type SearchResult struct {
	ID        string
	Title     string
	Author    string
	Authors   []string
	Thumbnail string
}

type BookInput struct {
	ID        string
	Title     string
	Authors   []string
	Thumbnail string
}
