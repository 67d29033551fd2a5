package books

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	bookdomain "booknook-go/internal/domain/book"
	clubdomain "booknook-go/internal/domain/club"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
)

// The /api/searchBooks/route handlers keep the flat {"error": "..."} body
// existing clients parse.

type legacyAddRequest struct {
	ClubID      string              `json:"clubID"`
	BookDetails *bookDetailsRequest `json:"bookDetails"`
}

type legacyImageLinks struct {
	Thumbnail string `json:"thumbnail,omitempty"`
}

type legacyVolumeInfo struct {
	Title      string            `json:"title"`
	Authors    []string          `json:"authors,omitempty"`
	ImageLinks *legacyImageLinks `json:"imageLinks,omitempty"`
}

type legacyVolume struct {
	ID         string           `json:"id"`
	VolumeInfo legacyVolumeInfo `json:"volumeInfo"`
}

func writeLegacyError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handlers) LegacySearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	results, err := h.Books.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, bookdomain.ErrQueryRequired) {
			h.log.BusinessError("books.legacy_search: query missing", err)
			writeLegacyError(w, http.StatusBadRequest, "Query parameter is required")
			return
		}
		h.log.InternalError("books.legacy_search: search failed", err, "query", query)
		writeLegacyError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	items := make([]legacyVolume, 0, len(results))
	for _, result := range results {
		volume := legacyVolume{
			ID: result.ID,
			VolumeInfo: legacyVolumeInfo{
				Title:   result.Title,
				Authors: result.Authors,
			},
		}
		if result.Thumbnail != "" {
			volume.VolumeInfo.ImageLinks = &legacyImageLinks{Thumbnail: result.Thumbnail}
		}
		items = append(items, volume)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handlers) LegacyAddBook(w http.ResponseWriter, r *http.Request) {
	var req legacyAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLegacyError(w, http.StatusBadRequest, "clubID and bookDetails are required")
		return
	}
	if strings.TrimSpace(req.ClubID) == "" || req.BookDetails == nil {
		writeLegacyError(w, http.StatusBadRequest, "clubID and bookDetails are required")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	added, err := h.Books.AddToClub(r.Context(), user.ID, req.ClubID, req.BookDetails.input())
	if err != nil {
		args := []any{"user_id", user.ID, "club_id", req.ClubID}
		switch {
		case errors.Is(err, bookdomain.ErrMissingFields):
			h.log.BusinessError("books.legacy_add: missing fields", err, args...)
			writeLegacyError(w, http.StatusBadRequest, "clubID and bookDetails are required")
		case errors.Is(err, bookdomain.ErrBookAlreadyInClub):
			h.log.BusinessError("books.legacy_add: book already in club", err, args...)
			writeLegacyError(w, http.StatusConflict, "Book already exists in the club")
		case errors.Is(err, clubdomain.ErrNotMember), errors.Is(err, clubdomain.ErrForbidden):
			h.log.BusinessError("books.legacy_add: not allowed", err, args...)
			writeLegacyError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, clubdomain.ErrClubNotFound):
			h.log.BusinessError("books.legacy_add: club not found", err, args...)
			writeLegacyError(w, http.StatusNotFound, err.Error())
		default:
			h.log.InternalError("books.legacy_add: add book failed", err, args...)
			writeLegacyError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"success": "Book added to club successfully",
		"bookId":  added.BookID,
	})
}
