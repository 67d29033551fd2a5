package discussion

import "errors"

var (
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrNotAuthor          = errors.New("only the author can do this")
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
