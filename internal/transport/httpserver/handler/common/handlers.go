package common

import (
	"context"
	"net/http"

	userdomain "booknook-go/internal/domain/user"
	"booknook-go/internal/integration/supabase"
	"booknook-go/pkg/logger"
)

// AuthProvider proxies account operations to the identity service.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password, username string) (*supabase.User, *supabase.Session, error)
	SignIn(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

type Handlers struct {
	Users *userdomain.Service
	Auth  AuthProvider
	log   logger.Logger

	maxUploadBytes int64
}

func New(users *userdomain.Service, auth AuthProvider, maxUploadBytes int64, log logger.Logger) *Handlers {
	return &Handlers{
		Users:          users,
		Auth:           auth,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
