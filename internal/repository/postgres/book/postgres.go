package book

import (
	"context"
	"errors"
	"time"

	domain "booknook-go/internal/domain/book"
	"booknook-go/internal/repository/postgres/pgerr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	var book domain.Book
	if err := r.db.WithContext(ctx).Where("id = ?", bookID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (r *PostgresRepository) CreateBook(ctx context.Context, book *domain.Book) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(book).Error
}

func (r *PostgresRepository) AddClubBook(ctx context.Context, clubBook *domain.ClubBook) error {
	err := r.db.WithContext(ctx).Create(clubBook).Error
	if pgerr.IsUniqueViolation(err) {
		return domain.ErrBookAlreadyInClub
	}
	return err
}

func (r *PostgresRepository) ListClubBooks(ctx context.Context, clubID string) ([]domain.ClubBookView, error) {
	type shelfRow struct {
		ClubBookID string    `gorm:"column:club_book_id"`
		AddedAt    time.Time `gorm:"column:added_at"`
		ID         string    `gorm:"column:id"`
		Title      string    `gorm:"column:title"`
		Author     string    `gorm:"column:author"`
		Thumbnail  string    `gorm:"column:thumbnail"`
		CreatedAt  time.Time `gorm:"column:created_at"`
	}

	var rows []shelfRow
	if err := r.db.WithContext(ctx).
		Table("club_books").
		Select("club_books.id AS club_book_id, club_books.created_at AS added_at, books.id, books.title, books.author, books.thumbnail, books.created_at").
		Joins("join books on books.id = club_books.book_id").
		Where("club_books.club_id = ?", clubID).
		Order("club_books.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]domain.ClubBookView, 0, len(rows))
	for _, row := range rows {
		views = append(views, domain.ClubBookView{
			ClubBookID: row.ClubBookID,
			AddedAt:    row.AddedAt,
			Book: domain.Book{
				ID:        row.ID,
				Title:     row.Title,
				Author:    row.Author,
				Thumbnail: row.Thumbnail,
				CreatedAt: row.CreatedAt,
			},
		})
	}
	return views, nil
}

func (r *PostgresRepository) IsBookInClub(ctx context.Context, clubID, bookID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ClubBook{}).
		Where("club_id = ? AND book_id = ?", clubID, bookID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveClubBook takes the book off the shelf along with the club's reviews of it.
func (r *PostgresRepository) RemoveClubBook(ctx context.Context, clubID, bookID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.ClubBook{}, "club_id = ? AND book_id = ?", clubID, bookID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrBookNotFound
		}

		if err := tx.Exec(
			"DELETE FROM review_comments WHERE reviews_id IN (SELECT id FROM reviews WHERE c_id = ? AND book_id = ?)",
			clubID, bookID,
		).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM reviews WHERE c_id = ? AND book_id = ?", clubID, bookID).Error
	})
}
