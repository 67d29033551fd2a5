package book

import "errors"

var (
	ErrQueryRequired      = errors.New("query is required")
	ErrCatalogUnavailable = errors.New("book catalog unavailable")
	ErrBookAlreadyInClub  = errors.New("book already exists in the club")
	ErrBookNotFound       = errors.New("book not found")
	ErrMissingFields      = errors.New("missing required fields")
)
