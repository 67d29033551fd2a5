package notifications

import (
	"time"

	notificationdomain "booknook-go/internal/domain/notification"
	"booknook-go/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

type Handlers struct {
	Notifications *notificationdomain.Service
	log           logger.Logger
	heartbeat     time.Duration
}

func New(notifications *notificationdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Notifications: notifications,
		log:           log,
		heartbeat:     defaultHeartbeat,
	}
}
