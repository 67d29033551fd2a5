package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"booknook-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessLogCarriesUserAndClub(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelDebug, "json")

	r := chi.NewRouter()
	r.Use(AccessLog(log))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(WithUser(req.Context(), User{ID: "bob"})))
		})
	})
	r.Route("/api/clubs/{club_id}", func(r chi.Router) {
		r.Use(ClubScope)
		r.Get("/books", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clubs/club-1/books", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http: request", entry["msg"])
	assert.Equal(t, "bob", entry["user_id"])
	assert.Equal(t, "club-1", entry["club_id"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}
