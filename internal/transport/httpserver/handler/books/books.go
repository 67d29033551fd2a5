package books

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	bookdomain "booknook-go/internal/domain/book"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

// authorList accepts either a single author string or an array of them.
type authorList []string

func (a *authorList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*a = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*a = nil
		return nil
	}
	*a = []string{one}
	return nil
}

type bookDetailsRequest struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Authors   authorList `json:"authors"`
	Thumbnail string     `json:"thumbnail"`
}

type searchResultResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Authors   []string `json:"authors"`
	Thumbnail string   `json:"thumbnail"`
}

type bookResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail"`
}

type clubBookResponse struct {
	ClubBookID string       `json:"club_book_id"`
	Book       bookResponse `json:"book"`
	AddedAt    time.Time    `json:"added_at"`
}

type addedBookResponse struct {
	ID      string    `json:"id"`
	ClubID  string    `json:"club_id"`
	BookID  string    `json:"book_id"`
	AddedAt time.Time `json:"added_at"`
}

var bookRules = commonhandler.Rules(commonhandler.ClubPolicy, []commonhandler.Rule{
	{Match: commonhandler.Is(bookdomain.ErrQueryRequired), Status: http.StatusBadRequest, Code: "query_required"},
	{Match: commonhandler.Is(bookdomain.ErrCatalogUnavailable), Status: http.StatusBadGateway, Code: "catalog_unavailable"},
	{Match: commonhandler.Is(bookdomain.ErrMissingFields), Status: http.StatusBadRequest, Code: "invalid_request"},
	{Match: commonhandler.Is(bookdomain.ErrBookAlreadyInClub), Status: http.StatusConflict, Code: "book_already_in_club"},
	{Match: commonhandler.Is(bookdomain.ErrBookNotFound), Status: http.StatusNotFound, Code: "book_not_found"},
})

func toBookResponse(book bookdomain.Book) bookResponse {
	return bookResponse{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Thumbnail: book.Thumbnail,
	}
}

func (in bookDetailsRequest) input() bookdomain.BookInput {
	return bookdomain.BookInput{
		ID:        in.ID,
		Title:     in.Title,
		Authors:   in.Authors,
		Thumbnail: in.Thumbnail,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	commonhandler.Fail(w, h.log, op, err, bookRules, args...)
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("q"))
	}

	results, err := h.Books.Search(r.Context(), query)
	if err != nil {
		h.fail(w, "books.search: search failed", err, "query", query)
		return
	}

	response := make([]searchResultResponse, 0, len(results))
	for _, result := range results {
		authors := result.Authors
		if authors == nil {
			authors = []string{}
		}
		response = append(response, searchResultResponse{
			ID:        result.ID,
			Title:     result.Title,
			Author:    result.Author,
			Authors:   authors,
			Thumbnail: result.Thumbnail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": response})
}

func (h *Handlers) ListClubBooks(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	views, err := h.Books.ListClubBooks(r.Context(), user.ID, clubID)
	if err != nil {
		h.fail(w, "books.list: list club books failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}

	response := make([]clubBookResponse, 0, len(views))
	for _, view := range views {
		response = append(response, clubBookResponse{
			ClubBookID: view.ClubBookID,
			Book:       toBookResponse(view.Book),
			AddedAt:    view.AddedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) AddClubBook(w http.ResponseWriter, r *http.Request) {
	var req bookDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	added, err := h.Books.AddToClub(r.Context(), user.ID, clubID, req.input())
	if err != nil {
		h.fail(w, "books.add: add book to club failed", err, "user_id", user.ID, "club_id", clubID, "book_id", req.ID)
		return
	}
	writeJSON(w, http.StatusCreated, addedBookResponse{
		ID:      added.ID,
		ClubID:  added.ClubID,
		BookID:  added.BookID,
		AddedAt: added.CreatedAt,
	})
}

func (h *Handlers) RemoveClubBook(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	bookID := chi.URLParam(r, "book_id")

	if err := h.Books.RemoveFromClub(r.Context(), user.ID, clubID, bookID); err != nil {
		h.fail(w, "books.remove: remove book failed", err, "user_id", user.ID, "club_id", clubID, "book_id", bookID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
