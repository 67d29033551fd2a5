package events

import (
	eventdomain "booknook-go/internal/domain/event"
	"booknook-go/pkg/logger"
)

type Handlers struct {
	Events *eventdomain.Service
	log    logger.Logger
}

func New(events *eventdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Events: events,
		log:    log,
	}
}
