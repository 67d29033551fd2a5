package book

import (
	"context"

	"booknook-go/internal/domain/club"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetBook(ctx context.Context, bookID string) (*Book, error)
	// CreateBook ignores a book that already exists.
	CreateBook(ctx context.Context, book *Book) error
	// AddClubBook returns ErrBookAlreadyInClub on a duplicate pair.
	AddClubBook(ctx context.Context, clubBook *ClubBook) error
	ListClubBooks(ctx context.Context, clubID string) ([]ClubBookView, error)
	IsBookInClub(ctx context.Context, clubID, bookID string) (bool, error)
	RemoveClubBook(ctx context.Context, clubID, bookID string) error
}

type Catalog interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

type Membership interface {
	RequireMember(ctx context.Context, clubID, userID string) (club.Role, error)
	RequireRole(ctx context.Context, clubID, userID string, min club.Role) (club.Role, error)
	ClubName(ctx context.Context, clubID string) (string, error)
}

type Recorder interface {
	CatalogRequest(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CatalogRequest(string) {}
