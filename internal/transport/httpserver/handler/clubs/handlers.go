package clubs

import (
	clubdomain "booknook-go/internal/domain/club"
	"booknook-go/pkg/logger"
)

type Handlers struct {
	Clubs *clubdomain.Service
	log   logger.Logger
}

func New(clubs *clubdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Clubs: clubs,
		log:   log,
	}
}
