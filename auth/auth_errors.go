package auth

import (
	"errors"
	"fmt"

	"github.com/lumen-media/lumen-server/apikeys"
)

var (
	// AuthenticationRequiredErr covers both a missing credential and a
	// credential that does not resolve to a live session. External callers
	// must not be able to tell the two apart.
	AuthenticationRequiredErr = errors.New("authentication required")

	NoCredentialErr      = fmt.Errorf("no recognized credential: %w", AuthenticationRequiredErr)
	InvalidCredentialErr = fmt.Errorf("invalid user token: %w", AuthenticationRequiredErr)

	// ForbiddenErr is returned when the caller is known but insufficiently
	// privileged. It is distinguishable from authentication failure.
	ForbiddenErr = errors.New("forbidden")

	WrongCredentialsErr   = errors.New("incorrect email or password")
	AdminAlreadyExistsErr = errors.New("the server already has an admin")
	UserExistsErr         = errors.New("user exists")
	FirstUserNotAdminErr  = errors.New("the first registered account must be admin")
	InvalidPermissionErr  = errors.New("invalid permission")
)

// MissingPermissionError is a ForbiddenErr that names the permission the API
// key lacked.
type MissingPermissionError struct {
	Permission apikeys.Permission
}

func (e MissingPermissionError) Error() string {
	return fmt.Sprintf("missing required permission: %s", e.Permission)
}

func (e MissingPermissionError) Is(target error) bool {
	return target == ForbiddenErr
}
