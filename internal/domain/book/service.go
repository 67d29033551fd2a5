package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booknook-go/internal/domain/club"
	"booknook-go/internal/domain/notification"
	"github.com/google/uuid"
)

const defaultMaxResults = 5

type Service struct {
	repo       Repository
	catalog    Catalog
	clubs      Membership
	announcer  notification.Announcer
	recorder   Recorder
	cache      Cache
	cacheTTL   time.Duration
	maxResults int
}

func NewService(repo Repository, catalog Catalog, clubs Membership, announcer notification.Announcer, maxResults int) *Service {
	if announcer == nil {
		announcer = notification.NopAnnouncer()
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Service{
		repo:       repo,
		catalog:    catalog,
		clubs:      clubs,
		announcer:  announcer,
		recorder:   nopRecorder{},
		cache:      noopCache{},
		maxResults: maxResults,
	}
}

func (s *Service) SetRecorder(recorder Recorder) {
	if recorder != nil {
		s.recorder = recorder
	}
}

// SetCache enables search result caching. A non-positive ttl disables it.
func (s *Service) SetCache(cache Cache, ttl time.Duration) {
	if cache == nil || ttl <= 0 {
		s.cache = noopCache{}
		s.cacheTTL = 0
		return
	}
	s.cache = cache
	s.cacheTTL = ttl
}

func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	key := strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		s.recorder.CatalogRequest("cache_hit")
		return cached, nil
	}

	results, err := s.catalog.Search(ctx, query, s.maxResults)
	if err != nil {
		s.recorder.CatalogRequest("error")
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	s.recorder.CatalogRequest("ok")
	if results == nil {
		results = []SearchResult{}
	}
	s.cache.Set(key, results, s.cacheTTL)
	return results, nil
}

// AddToClub stores the book if the catalog entry is new and puts it on the
// club shelf. A book already on the shelf yields ErrBookAlreadyInClub.
func (s *Service) AddToClub(ctx context.Context, userID, clubID string, input BookInput) (*ClubBook, error) {
	input.ID = strings.TrimSpace(input.ID)
	clubID = strings.TrimSpace(clubID)
	if clubID == "" || input.ID == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	var (
		added ClubBook
		title string
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.GetBook(ctx, input.ID)
		switch {
		case err == nil:
			title = existing.Title
		case errors.Is(err, ErrBookNotFound):
			book := newBook(input)
			if err := tx.CreateBook(ctx, &book); err != nil {
				return err
			}
			title = book.Title
		default:
			return err
		}

		added = ClubBook{
			ID:     uuid.NewString(),
			ClubID: clubID,
			BookID: input.ID,
		}
		return tx.AddClubBook(ctx, &added)
	})
	if err != nil {
		return nil, err
	}

	if name, err := s.clubs.ClubName(ctx, clubID); err == nil {
		s.announcer.Announce(ctx, notification.Announcement{
			ClubID:      clubID,
			Type:        notification.TypeBookAdded,
			SourceID:    added.ID,
			Title:       "New Book Added",
			Description: fmt.Sprintf("%s: \"%s\" was added to the bookshelf", name, title),
		})
	}

	return &added, nil
}

func (s *Service) ListClubBooks(ctx context.Context, userID, clubID string) ([]ClubBookView, error) {
	if _, err := s.clubs.RequireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListClubBooks(ctx, clubID)
}

func (s *Service) RemoveFromClub(ctx context.Context, userID, clubID, bookID string) error {
	if _, err := s.clubs.RequireRole(ctx, clubID, userID, club.RoleAdmin); err != nil {
		return err
	}
	return s.repo.RemoveClubBook(ctx, clubID, bookID)
}

func newBook(input BookInput) Book {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled"
	}
	return Book{
		ID:        input.ID,
		Title:     title,
		Author:    JoinAuthors(input.Authors),
		Thumbnail: strings.TrimSpace(input.Thumbnail),
	}
}

// JoinAuthors renders an author list the way the shelf displays it.
func JoinAuthors(authors []string) string {
	cleaned := make([]string, 0, len(authors))
	for _, author := range authors {
		if author = strings.TrimSpace(author); author != "" {
			cleaned = append(cleaned, author)
		}
	}
	if len(cleaned) == 0 {
		return UnknownAuthor
	}
	return strings.Join(cleaned, ", ")
}
