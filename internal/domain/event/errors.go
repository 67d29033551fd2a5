package event

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotCreator    = errors.New("only the creator or a club admin can delete this event")
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
