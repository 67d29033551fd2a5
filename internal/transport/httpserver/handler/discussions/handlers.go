package discussions

import (
	discussiondomain "booknook-go/internal/domain/discussion"
	"booknook-go/pkg/logger"
)

type Handlers struct {
	Discussions *discussiondomain.Service
	log         logger.Logger

	maxUploadBytes int64
}

func New(discussions *discussiondomain.Service, maxUploadBytes int64, log logger.Logger) *Handlers {
	return &Handlers{
		Discussions:    discussions,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}
