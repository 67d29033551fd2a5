package books

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	bookdomain "booknook-go/internal/domain/book"
	clubdomain "booknook-go/internal/domain/club"
	"booknook-go/internal/domain/notification"
	reviewdomain "booknook-go/internal/domain/review"
	bookrepo "booknook-go/internal/repository/postgres/book"
	clubrepo "booknook-go/internal/repository/postgres/club"
	reviewrepo "booknook-go/internal/repository/postgres/review"
	"booknook-go/internal/repository/postgres/sqlitetest"
	"booknook-go/internal/transport/httpserver/middleware"
	"booknook-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	results []bookdomain.SearchResult
	err     error
}

func (c stubCatalog) Search(ctx context.Context, query string, maxResults int) ([]bookdomain.SearchResult, error) {
	return c.results, c.err
}

func newTestRouter(t *testing.T, catalog bookdomain.Catalog) http.Handler {
	t.Helper()

	db := sqlitetest.Open(t)
	require.NoError(t, db.Exec("INSERT INTO clubs (id, name, join_code) VALUES (?, ?, ?)", "club-1", "Mystery Lovers", "ABCD1234").Error)
	require.NoError(t, db.Exec(
		"INSERT INTO club_members (club_id, user_id, role) VALUES (?, ?, ?), (?, ?, ?)",
		"club-1", "alice", "owner",
		"club-1", "bob", "member",
	).Error)

	clubs := clubdomain.NewService(clubrepo.NewPostgres(db), notification.NopAnnouncer())
	shelf := bookrepo.NewPostgres(db)
	books := bookdomain.NewService(shelf, catalog, clubs, notification.NopAnnouncer(), 5)
	reviews := reviewdomain.NewService(reviewrepo.NewPostgres(db), shelf, clubs)
	h := New(books, reviews, logger.Nop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID := req.Header.Get("X-Test-User"); userID != "" {
				req = req.WithContext(middleware.WithUser(req.Context(), middleware.User{ID: userID}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/books/search", h.Search)
	r.Get("/api/searchBooks/route", h.LegacySearch)
	r.Post("/api/searchBooks/route", h.LegacyAddBook)
	r.Get("/api/clubs/{club_id}/books", h.ListClubBooks)
	r.Post("/api/clubs/{club_id}/books", h.AddClubBook)
	r.Delete("/api/clubs/{club_id}/books/{book_id}", h.RemoveClubBook)
	r.Get("/api/clubs/{club_id}/shelf", h.ListShelf)
	r.Post("/api/clubs/{club_id}/books/{book_id}/reviews", h.CreateReview)
	return r
}

func do(t *testing.T, handler http.Handler, method, target, userID string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func legacyBody(clubID string, authors interface{}) map[string]interface{} {
	return map[string]interface{}{
		"clubID": clubID,
		"bookDetails": map[string]interface{}{
			"id":        "vol-1",
			"title":     "The Hound of the Baskervilles",
			"authors":   authors,
			"thumbnail": "https://books.example.com/hound.jpg",
		},
	}
}

func TestLegacyAddBook(t *testing.T) {
	router := newTestRouter(t, stubCatalog{})

	rec := do(t, router, http.MethodPost, "/api/searchBooks/route", "alice", legacyBody("club-1", "Arthur Conan Doyle"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var added map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, "Book added to club successfully", added["success"])
	assert.Equal(t, "vol-1", added["bookId"])

	rec = do(t, router, http.MethodPost, "/api/searchBooks/route", "bob", legacyBody("club-1", []string{"Arthur Conan Doyle"}))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Book already exists in the club"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/clubs/club-1/books", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var shelf []clubBookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shelf))
	require.Len(t, shelf, 1)
	assert.Equal(t, "Arthur Conan Doyle", shelf[0].Book.Author)
}

func TestLegacyAddBookRejections(t *testing.T) {
	router := newTestRouter(t, stubCatalog{})

	rec := do(t, router, http.MethodPost, "/api/searchBooks/route", "alice", map[string]string{"clubID": "club-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"clubID and bookDetails are required"}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/searchBooks/route", "mallory", legacyBody("club-1", "Someone"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/searchBooks/route", "", legacyBody("club-1", "Someone"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLegacySearch(t *testing.T) {
	router := newTestRouter(t, stubCatalog{results: []bookdomain.SearchResult{
		{ID: "vol-1", Title: "Gone Girl", Author: "Gillian Flynn", Authors: []string{"Gillian Flynn"}, Thumbnail: "https://img/1"},
		{ID: "vol-2", Title: "Untitled", Author: bookdomain.UnknownAuthor},
	}})

	rec := do(t, router, http.MethodGet, "/api/searchBooks/route", "bob", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Query parameter is required"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/searchBooks/route?query=gone", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[
		{"id":"vol-1","volumeInfo":{"title":"Gone Girl","authors":["Gillian Flynn"],"imageLinks":{"thumbnail":"https://img/1"}}},
		{"id":"vol-2","volumeInfo":{"title":"Untitled"}}
	]}`, rec.Body.String())
}

func TestSearchCatalogFailure(t *testing.T) {
	router := newTestRouter(t, stubCatalog{err: errors.New("upstream 503")})

	rec := do(t, router, http.MethodGet, "/api/books/search?query=gone", "bob", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_unavailable")

	rec = do(t, router, http.MethodGet, "/api/searchBooks/route?query=gone", "bob", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestShelfReviews(t *testing.T) {
	router := newTestRouter(t, stubCatalog{})

	rec := do(t, router, http.MethodPost, "/api/clubs/club-1/books", "alice", map[string]interface{}{
		"id":      "vol-1",
		"title":   "The Hound of the Baskervilles",
		"authors": []string{"Arthur Conan Doyle"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/clubs/club-1/books/vol-1/reviews", "alice", map[string]interface{}{"review_text": "Classic", "rating": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, router, http.MethodPost, "/api/clubs/club-1/books/vol-1/reviews", "bob", map[string]interface{}{"review_text": "Good", "rating": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/clubs/club-1/books/vol-1/reviews", "bob", map[string]interface{}{"review_text": "Again", "rating": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/clubs/club-1/books/vol-9/reviews", "bob", map[string]interface{}{"review_text": "Which?", "rating": 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/clubs/club-1/books/vol-1/reviews", "alice", map[string]interface{}{"review_text": "Nope", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/clubs/club-1/shelf", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var shelf []shelfEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shelf))
	require.Len(t, shelf, 1)
	assert.Equal(t, 2, shelf[0].ReviewCount)
	assert.Equal(t, 4.5, shelf[0].AverageRating)

	rec = do(t, router, http.MethodDelete, "/api/clubs/club-1/books/vol-1", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/clubs/club-1/books/vol-1", "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthorListAcceptsStringOrArray(t *testing.T) {
	var req bookDetailsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id":"v","authors":"Agatha Christie"}`), &req))
	assert.Equal(t, authorList{"Agatha Christie"}, req.Authors)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"v","authors":["A","B"]}`), &req))
	assert.Equal(t, authorList{"A", "B"}, req.Authors)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"v","authors":7}`), &req))
}
