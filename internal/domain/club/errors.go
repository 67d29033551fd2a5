package club

import "errors"

var (
	ErrClubNotFound         = errors.New("club not found")
	ErrInvalidJoinCode      = errors.New("invalid join code")
	ErrAlreadyMember        = errors.New("already a member of this club")
	ErrNotMember            = errors.New("not a member of this club")
	ErrMemberNotFound       = errors.New("member not found")
	ErrForbidden            = errors.New("insufficient club role")
	ErrOwnerMustTransfer    = errors.New("owner must transfer ownership before leaving")
	ErrCannotRemoveOwner    = errors.New("cannot remove owner")
	ErrCannotTargetSelf     = errors.New("cannot target yourself")
	ErrInvalidRole          = errors.New("invalid role")
	ErrCodeGenerationFailed = errors.New("join code generation failed")
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
