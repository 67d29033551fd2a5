package user

import "errors"

var ErrProfileNotFound = errors.New("profile not found")

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
