package books

import (
	bookdomain "booknook-go/internal/domain/book"
	reviewdomain "booknook-go/internal/domain/review"
	"booknook-go/pkg/logger"
)

type Handlers struct {
	Books   *bookdomain.Service
	Reviews *reviewdomain.Service
	log     logger.Logger
}

func New(books *bookdomain.Service, reviews *reviewdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Books:   books,
		Reviews: reviews,
		log:     log,
	}
}
