package logger

import (
	"context"
	"sync"
)

type scopeKey struct{}

// Scope collects the user and club a request acts on. The access log opens
// one per request; auth and club routing fill it in as the ids are known.
type Scope struct {
	mu     sync.Mutex
	userID string
	clubID string
}

func NewScope(ctx context.Context) (context.Context, *Scope) {
	scope := &Scope{}
	return context.WithValue(ctx, scopeKey{}, scope), scope
}

// ScopeFrom returns nil when ctx carries no scope; a nil Scope ignores sets.
func ScopeFrom(ctx context.Context) *Scope {
	scope, _ := ctx.Value(scopeKey{}).(*Scope)
	return scope
}

func (s *Scope) SetUser(userID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *Scope) SetClub(clubID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.clubID = clubID
	s.mu.Unlock()
}

func (s *Scope) Attrs() []any {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var attrs []any
	if s.userID != "" {
		attrs = append(attrs, "user_id", s.userID)
	}
	if s.clubID != "" {
		attrs = append(attrs, "club_id", s.clubID)
	}
	return attrs
}

// FromContext tags log with the user and club of the request behind ctx.
func FromContext(ctx context.Context, log Logger) Logger {
	attrs := ScopeFrom(ctx).Attrs()
	if len(attrs) == 0 {
		return log
	}
	return log.With(attrs...)
}
