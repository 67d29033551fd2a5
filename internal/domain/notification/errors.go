package notification

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidAnnouncement  = errors.New("invalid announcement")
	ErrRealtimeUnavailable  = errors.New("realtime delivery unavailable")
)
