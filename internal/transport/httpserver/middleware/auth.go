package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"booknook-go/internal/config"
	"booknook-go/internal/integration/supabase"
	"booknook-go/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

type SupabaseAuth struct {
	users     UserFetcher
	jwtSecret []byte
	profiles  ProfileSaver
	skipAuth  bool
	mockUser  User
	log       logger.Logger
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type User struct {
	ID          string
	Email       string
	Username    string
	AvatarURL   string
	AccessToken string
}

type ProfileSaver interface {
	UpsertProfile(ctx context.Context, userID, email, username string) error
}

// UserFetcher resolves a token remotely when no JWT secret is configured.
type UserFetcher interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

type supabaseClaims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

func NewSupabaseAuth(cfg config.SupabaseConfig, users UserFetcher, profiles ProfileSaver, log logger.Logger) *SupabaseAuth {
	return &SupabaseAuth{
		users:     users,
		jwtSecret: []byte(strings.TrimSpace(cfg.JWTSecret)),
		profiles:  profiles,
		skipAuth:  cfg.SkipAuth,
		mockUser: User{
			ID:        strings.TrimSpace(cfg.MockUserID),
			Email:     strings.TrimSpace(cfg.MockUserEmail),
			Username:  strings.TrimSpace(cfg.MockUserName),
			AvatarURL: strings.TrimSpace(cfg.MockUserAvatar),
		},
		log: log,
	}
}

func (a *SupabaseAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			user := a.mockUser
			if user.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			a.saveProfile(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			return
		}

		if len(a.jwtSecret) == 0 && a.users == nil {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		user, err := a.resolve(r.Context(), token)
		if err != nil {
			a.log.BusinessError("auth: token rejected", err, "path", r.URL.Path)
			unauthorized(w)
			return
		}

		a.saveProfile(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *SupabaseAuth) resolve(ctx context.Context, token string) (User, error) {
	if len(a.jwtSecret) > 0 {
		return a.verifyLocal(token)
	}

	remote, err := a.users.GetUser(ctx, token)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:          remote.ID,
		Email:       remote.Email,
		Username:    remote.Username(),
		AvatarURL:   stringFromMap(remote.UserMetadata, "avatar_url"),
		AccessToken: token,
	}, nil
}

func (a *SupabaseAuth) verifyLocal(token string) (User, error) {
	claims := &supabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return User{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return User{}, errors.New("token has no subject")
	}

	return User{
		ID:          claims.Subject,
		Email:       claims.Email,
		Username:    stringFromMap(claims.UserMetadata, "username"),
		AvatarURL:   stringFromMap(claims.UserMetadata, "avatar_url"),
		AccessToken: token,
	}, nil
}

func (a *SupabaseAuth) saveProfile(ctx context.Context, user User) {
	if a.profiles == nil {
		return
	}
	if err := a.profiles.UpsertProfile(ctx, user.ID, user.Email, user.Username); err != nil {
		a.log.InternalError("auth: upsert profile failed", err, "user_id", user.ID)
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	logger.ScopeFrom(ctx).SetUser(user.ID)
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func stringFromMap(values map[string]interface{}, key string) string {
	if values == nil {
		return ""
	}
	value, ok := values[key]
	if !ok {
		return ""
	}
	parsed, ok := value.(string)
	if !ok {
		return ""
	}
	return parsed
}
