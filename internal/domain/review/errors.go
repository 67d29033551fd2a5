package review

import "errors"

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrCommentNotFound = errors.New("review comment not found")
	ErrAlreadyReviewed = errors.New("you have already reviewed this book")
	ErrBookNotOnShelf  = errors.New("book is not on the club shelf")
	ErrNotAuthor       = errors.New("only the author can do this")
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
